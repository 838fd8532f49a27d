package document

import "errors"

// Errors returned by document operations.
var (
	// ErrBlockNotFound indicates a block id is not in the arena.
	ErrBlockNotFound = errors.New("block not found")

	// ErrPageNotFound indicates a page id is not in the document.
	ErrPageNotFound = errors.New("page not found")

	// ErrListNotFound indicates a list id is not in the arena.
	ErrListNotFound = errors.New("list not found")

	// ErrOffsetOutOfRange indicates an offset outside the block's text.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrInvalidGeometry indicates page dimensions that leave no content area.
	ErrInvalidGeometry = errors.New("invalid page geometry")

	// ErrInvalidColor indicates a color value that cannot be parsed.
	ErrInvalidColor = errors.New("invalid color")

	// ErrNotEditable indicates a text edit aimed at a block without inline text.
	ErrNotEditable = errors.New("block has no inline text")

	// ErrLastPage indicates an attempt to delete the only page.
	ErrLastPage = errors.New("cannot delete the last page")

	// ErrCorruptState indicates serialized state that cannot be restored.
	ErrCorruptState = errors.New("corrupt document state")
)
