package measure

import "github.com/rivo/uniseg"

// Fixed measures text as if every grapheme cluster had the same advance.
// Metrics scale linearly with the face size relative to DefaultSize.
type Fixed struct {
	CharWidth float64
	Height    float64
}

// NewFixed creates a fixed metric measurer for DefaultSize text.
func NewFixed(charWidth, lineHeight float64) *Fixed {
	return &Fixed{CharWidth: charWidth, Height: lineHeight}
}

func (m *Fixed) scale(face Face) float64 {
	return face.WithDefaults().Size / DefaultSize
}

// TextWidth implements Measurer.
func (m *Fixed) TextWidth(text string, face Face) (float64, error) {
	return float64(uniseg.GraphemeClusterCount(text)) * m.CharWidth * m.scale(face), nil
}

// LineHeight implements Measurer.
func (m *Fixed) LineHeight(face Face) (float64, error) {
	return m.Height * m.scale(face), nil
}
