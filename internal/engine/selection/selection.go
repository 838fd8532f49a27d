// Package selection provides the two-endpoint cursor used by every mutating
// engine operation.
//
// A Selection is expressed as paths into the document model: each endpoint is
// a block id plus a byte offset within that block's text. Anchor is where the
// selection started; Focus is where the caret is. When Anchor == Focus the
// selection is collapsed and represents a plain caret.
//
// Selection is an immutable value type. Operations that need document order
// (which endpoint comes first) take a Compare function supplied by the
// document model, so this package has no dependency on it.
package selection

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalid is returned when a serialized selection cannot be decoded.
var ErrInvalid = errors.New("invalid selection")

// Point is one endpoint of a selection.
type Point struct {
	Block  string `json:"block"`
	Offset int    `json:"offset"`
}

// At creates a point.
func At(block string, offset int) Point {
	return Point{Block: block, Offset: offset}
}

// IsZero reports whether the point is unset.
func (p Point) IsZero() bool {
	return p.Block == "" && p.Offset == 0
}

// String returns a string representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("%s:%d", p.Block, p.Offset)
}

// Selection represents a range between two points.
type Selection struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// New creates a selection from anchor to focus.
func New(anchor, focus Point) Selection {
	return Selection{Anchor: anchor, Focus: focus}
}

// Caret creates a collapsed selection at the given point.
func Caret(block string, offset int) Selection {
	p := At(block, offset)
	return Selection{Anchor: p, Focus: p}
}

// Span creates a forward selection within a single block.
func Span(block string, start, end int) Selection {
	return Selection{Anchor: At(block, start), Focus: At(block, end)}
}

// IsCollapsed returns true if the selection has no extent.
func (s Selection) IsCollapsed() bool {
	return s.Anchor == s.Focus
}

// IsZero reports whether the selection is unset.
func (s Selection) IsZero() bool {
	return s.Anchor.IsZero() && s.Focus.IsZero()
}

// SingleBlock reports whether both endpoints are in the same block.
func (s Selection) SingleBlock() bool {
	return s.Anchor.Block == s.Focus.Block
}

// Caret returns the focus point, where typing occurs.
func (s Selection) Caret() Point {
	return s.Focus
}

// Collapse collapses the selection to its focus.
func (s Selection) Collapse() Selection {
	return Selection{Anchor: s.Focus, Focus: s.Focus}
}

// Flip returns a selection with anchor and focus swapped.
func (s Selection) Flip() Selection {
	return Selection{Anchor: s.Focus, Focus: s.Anchor}
}

// Compare orders two block ids in document order. It returns a negative
// number when a precedes b, zero when they are the same block, and a
// positive number otherwise.
type Compare func(a, b string) int

// Ordered returns the selection endpoints in document order.
func (s Selection) Ordered(cmp Compare) (start, end Point) {
	if s.Anchor.Block == s.Focus.Block {
		if s.Anchor.Offset <= s.Focus.Offset {
			return s.Anchor, s.Focus
		}
		return s.Focus, s.Anchor
	}
	if cmp != nil && cmp(s.Anchor.Block, s.Focus.Block) > 0 {
		return s.Focus, s.Anchor
	}
	return s.Anchor, s.Focus
}

// Normalize returns a forward selection (anchor before focus).
func (s Selection) Normalize(cmp Compare) Selection {
	start, end := s.Ordered(cmp)
	return Selection{Anchor: start, Focus: end}
}

// Clamp returns the selection with offsets clamped to [0, length(block)].
func (s Selection) Clamp(length func(block string) int) Selection {
	clamp := func(p Point) Point {
		if p.Offset < 0 {
			p.Offset = 0
		}
		if length != nil {
			if n := length(p.Block); p.Offset > n {
				p.Offset = n
			}
		}
		return p
	}
	return Selection{Anchor: clamp(s.Anchor), Focus: clamp(s.Focus)}
}

// String returns a string representation of the selection.
func (s Selection) String() string {
	if s.IsCollapsed() {
		return fmt.Sprintf("Caret(%s)", s.Focus)
	}
	return fmt.Sprintf("Selection(%s -> %s)", s.Anchor, s.Focus)
}

// Marshal serializes the selection for history snapshots.
func (s Selection) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a serialized selection.
func Unmarshal(data []byte) (Selection, error) {
	var s Selection
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Selection{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if s.Anchor.Offset < 0 || s.Focus.Offset < 0 {
		return Selection{}, fmt.Errorf("%w: negative offset", ErrInvalid)
	}
	return s, nil
}
