// Package measure provides the offscreen measurement surface the paginator
// uses to turn text into rendered widths and line heights.
//
// Units are CSS pixels. A Face size is the font size in pixels.
package measure

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the surface cannot measure text. Callers
// skip the work that needed the measurement instead of guessing.
var ErrUnavailable = errors.New("measurement surface unavailable")

// DefaultSize is the font size in pixels used when a face has none.
const DefaultSize = 16

// Face selects the font a piece of text is measured in.
type Face struct {
	Family string
	Size   float64
	Bold   bool
	Italic bool
}

// WithDefaults fills in a zero size.
func (f Face) WithDefaults() Face {
	if f.Size <= 0 {
		f.Size = DefaultSize
	}
	return f
}

// Measurer measures text.
type Measurer interface {
	// TextWidth returns the advance width of text set in face.
	TextWidth(text string, face Face) (float64, error)

	// LineHeight returns the height of one line set in face.
	LineHeight(face Face) (float64, error)
}

// Unavailable is a Measurer that always fails. It stands in for a surface
// that could not be initialized.
type Unavailable struct{}

// TextWidth implements Measurer.
func (Unavailable) TextWidth(string, Face) (float64, error) { return 0, ErrUnavailable }

// LineHeight implements Measurer.
func (Unavailable) LineHeight(Face) (float64, error) { return 0, ErrUnavailable }

// ByName creates the measurer registered under name: "fixed", "opentype"
// or "canvas". An empty name selects "opentype".
func ByName(name string) (Measurer, error) {
	switch name {
	case "fixed":
		return NewFixed(DefaultSize*0.6, DefaultSize*1.25), nil
	case "", "opentype":
		return NewOpenType()
	case "canvas":
		return NewCanvas()
	default:
		return nil, fmt.Errorf("unknown measurer %q", name)
	}
}
