package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrEmptySelection indicates an operation that needs selected text
	// was given a caret.
	ErrEmptySelection = errors.New("selection is empty")

	// ErrInvalidLink indicates a hyperlink target that cannot be parsed.
	ErrInvalidLink = errors.New("invalid link")

	// ErrInvalidTable indicates a table size below 1x1.
	ErrInvalidTable = errors.New("invalid table size")
)
