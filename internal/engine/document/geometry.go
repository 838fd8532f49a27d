package document

import "fmt"

// Orientation is the page orientation.
type Orientation string

const (
	// Portrait pages are taller than they are wide.
	Portrait Orientation = "portrait"
	// Landscape pages are wider than they are tall.
	Landscape Orientation = "landscape"
)

// Margins are page margins in CSS pixels.
type Margins struct {
	Top    float64 `json:"top" toml:"top" yaml:"top"`
	Right  float64 `json:"right" toml:"right" yaml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" toml:"left" yaml:"left"`
}

// Uniform returns margins of the same size on every side.
func Uniform(v float64) Margins {
	return Margins{Top: v, Right: v, Bottom: v, Left: v}
}

// Geometry is the size and margins of a page in CSS pixels (96 per inch).
type Geometry struct {
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Margins     Margins     `json:"margins"`
	Orientation Orientation `json:"orientation"`
}

// Letter returns US Letter portrait geometry with one inch margins.
func Letter() Geometry {
	return Geometry{
		Width:       816,
		Height:      1056,
		Margins:     Uniform(96),
		Orientation: Portrait,
	}
}

// ContentWidth is the width available to block content.
func (g Geometry) ContentWidth() float64 {
	return g.Width - g.Margins.Left - g.Margins.Right
}

// ContentHeight is the height available to block content.
func (g Geometry) ContentHeight() float64 {
	return g.Height - g.Margins.Top - g.Margins.Bottom
}

// Validate reports whether the geometry leaves a positive content area.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: page size %.0fx%.0f", ErrInvalidGeometry, g.Width, g.Height)
	}
	m := g.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return fmt.Errorf("%w: negative margin", ErrInvalidGeometry)
	}
	if g.ContentWidth() <= 0 || g.ContentHeight() <= 0 {
		return fmt.Errorf("%w: margins leave no content area", ErrInvalidGeometry)
	}
	switch g.Orientation {
	case "", Portrait, Landscape:
	default:
		return fmt.Errorf("%w: unknown orientation %q", ErrInvalidGeometry, g.Orientation)
	}
	return nil
}

// Oriented returns the geometry with width and height arranged to match
// its orientation. Margins are left as given.
func (g Geometry) Oriented() Geometry {
	switch g.Orientation {
	case Landscape:
		if g.Height > g.Width {
			g.Width, g.Height = g.Height, g.Width
		}
	case Portrait:
		if g.Width > g.Height {
			g.Width, g.Height = g.Height, g.Width
		}
	default:
		g.Orientation = Portrait
		if g.Width > g.Height {
			g.Orientation = Landscape
		}
	}
	return g
}
