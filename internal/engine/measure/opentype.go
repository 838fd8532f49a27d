package measure

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// goFonts are the embedded Go fonts indexed by [bold][italic].
var goFonts = [2][2][]byte{
	{goregular.TTF, goitalic.TTF},
	{gobold.TTF, gobolditalic.TTF},
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

type faceKey struct {
	size         float64
	bold, italic bool
}

// OpenType measures text with real glyph advances from the embedded Go
// fonts. Faces are parsed once and cached per size and style. The Family
// of a Face is ignored.
type OpenType struct {
	mu    sync.Mutex
	fonts [2][2]*opentype.Font
	faces map[faceKey]font.Face
}

// NewOpenType parses the embedded fonts.
func NewOpenType() (*OpenType, error) {
	m := &OpenType{faces: make(map[faceKey]font.Face)}
	for b := range 2 {
		for i := range 2 {
			f, err := opentype.Parse(goFonts[b][i])
			if err != nil {
				return nil, fmt.Errorf("%w: parse go font: %v", ErrUnavailable, err)
			}
			m.fonts[b][i] = f
		}
	}
	return m, nil
}

func (m *OpenType) face(f Face) (font.Face, error) {
	f = f.WithDefaults()
	key := faceKey{size: f.Size, bold: f.Bold, italic: f.Italic}

	m.mu.Lock()
	defer m.mu.Unlock()
	if face, ok := m.faces[key]; ok {
		return face, nil
	}
	// At 72 DPI one point is one pixel.
	face, err := opentype.NewFace(m.fonts[b2i(f.Bold)][b2i(f.Italic)], &opentype.FaceOptions{
		Size:    f.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.faces[key] = face
	return face, nil
}

// TextWidth implements Measurer.
func (m *OpenType) TextWidth(text string, f Face) (float64, error) {
	face, err := m.face(f)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(font.MeasureString(face, text)) / 64, nil
}

// LineHeight implements Measurer.
func (m *OpenType) LineHeight(f Face) (float64, error) {
	face, err := m.face(f)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(face.Metrics().Height) / 64, nil
}
