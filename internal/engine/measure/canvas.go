package measure

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	pxPerMM = 96 / 25.4
	ptPerPx = 0.75
)

// Canvas measures text with tdewolff/canvas font faces loaded from the
// embedded Go fonts. canvas works in points and millimetres; results are
// converted to pixels.
type Canvas struct {
	mu     sync.Mutex
	family *canvas.FontFamily
	faces  map[faceKey]*canvas.FontFace
}

// NewCanvas loads the font family.
func NewCanvas() (*Canvas, error) {
	family := canvas.NewFontFamily("Go")
	styles := []struct {
		data  []byte
		style canvas.FontStyle
	}{
		{goregular.TTF, canvas.FontRegular},
		{gobold.TTF, canvas.FontBold},
		{goitalic.TTF, canvas.FontRegular | canvas.FontItalic},
		{gobolditalic.TTF, canvas.FontBold | canvas.FontItalic},
	}
	for _, s := range styles {
		if err := family.LoadFont(s.data, 0, s.style); err != nil {
			return nil, fmt.Errorf("%w: load font: %v", ErrUnavailable, err)
		}
	}
	return &Canvas{family: family, faces: make(map[faceKey]*canvas.FontFace)}, nil
}

func (m *Canvas) face(f Face) *canvas.FontFace {
	f = f.WithDefaults()
	key := faceKey{size: f.Size, bold: f.Bold, italic: f.Italic}
	if face, ok := m.faces[key]; ok {
		return face
	}
	style := canvas.FontRegular
	if f.Bold {
		style = canvas.FontBold
	}
	if f.Italic {
		style |= canvas.FontItalic
	}
	face := m.family.Face(f.Size*ptPerPx, color.Black, style, canvas.FontNormal)
	m.faces[key] = face
	return face
}

// TextWidth implements Measurer.
func (m *Canvas) TextWidth(text string, f Face) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.face(f).TextWidth(text) * pxPerMM, nil
}

// LineHeight implements Measurer.
func (m *Canvas) LineHeight(f Face) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.face(f).Metrics().LineHeight * pxPerMM
	if h <= 0 {
		return 0, ErrUnavailable
	}
	return h, nil
}
