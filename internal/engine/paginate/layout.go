package paginate

import (
	"math"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/dshills/quire/internal/engine/document"
	"github.com/dshills/quire/internal/engine/measure"
)

// Layout constants in pixels.
const (
	DefaultTabWidth = 48
	ListIndent      = 24
)

// headingScale is the font size multiplier per heading level.
var headingScale = [...]float64{1, 2, 1.5, 1.17, 1, 0.83, 0.67}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokSpace
	tokTab
	tokNewline
)

// token is an unbreakable piece of a block's text. Words, whitespace runs,
// tabs and hard breaks are separate tokens; a link or comment span is one
// token however many words it holds.
type token struct {
	start, end int
	kind       tokenKind
	width      float64
	height     float64
}

// line is one laid out line; start is the byte offset its first token
// starts at.
type line struct {
	start  int
	height float64
}

func segmentKind(seg string) tokenKind {
	switch {
	case seg == "\n" || seg == "\r\n":
		return tokNewline
	case seg == "\t":
		return tokTab
	case strings.TrimFunc(seg, unicode.IsSpace) == "":
		return tokSpace
	default:
		return tokWord
	}
}

// tokenize splits text into tokens. Word segments come from uniseg;
// adjacent non space segments are merged so punctuation stays with its
// word, and tokens touching a formatting unit are merged with it.
func tokenize(runs document.Runs) []token {
	text := runs.Text()
	var toks []token
	pos := 0
	rest := text
	state := -1
	for len(rest) > 0 {
		var seg string
		seg, rest, state = uniseg.FirstWordInString(rest, state)
		// Tabs inside a whitespace run each need their own tab stop.
		if strings.ContainsRune(seg, '\t') && seg != "\t" {
			for _, r := range seg {
				s := string(r)
				toks = appendToken(toks, token{start: pos, end: pos + len(s), kind: segmentKind(s)})
				pos += len(s)
			}
			continue
		}
		toks = appendToken(toks, token{start: pos, end: pos + len(seg), kind: segmentKind(seg)})
		pos += len(seg)
	}
	return mergeUnits(toks, unitSpans(runs))
}

func appendToken(toks []token, t token) []token {
	if n := len(toks); n > 0 && t.kind == tokWord && toks[n-1].kind == tokWord {
		toks[n-1].end = t.end
		return toks
	}
	return append(toks, t)
}

// unitSpans returns the maximal byte ranges covered by link or comment
// runs.
func unitSpans(runs document.Runs) [][2]int {
	var spans [][2]int
	runs.Spans(func(start, end int, r document.Run) {
		if !r.Format.IsUnit() {
			return
		}
		if n := len(spans); n > 0 && spans[n-1][1] == start {
			spans[n-1][1] = end
			return
		}
		spans = append(spans, [2]int{start, end})
	})
	return spans
}

func mergeUnits(toks []token, units [][2]int) []token {
	if len(units) == 0 {
		return toks
	}
	out := make([]token, 0, len(toks))
	for _, t := range toks {
		n := len(out)
		if n > 0 && overlapsUnit(out[n-1], t, units) {
			out[n-1].end = t.end
			out[n-1].kind = tokWord
			continue
		}
		if inUnit(t, units) {
			t.kind = tokWord
		}
		out = append(out, t)
	}
	return out
}

func inUnit(t token, units [][2]int) bool {
	for _, u := range units {
		if t.start < u[1] && t.end > u[0] {
			return true
		}
	}
	return false
}

// overlapsUnit reports whether prev and t must stay together: both touch
// the same unit, or a word continues directly into or out of a unit.
func overlapsUnit(prev, t token, units [][2]int) bool {
	for _, u := range units {
		prevIn := prev.start < u[1] && prev.end > u[0]
		tIn := t.start < u[1] && t.end > u[0]
		switch {
		case prevIn && tIn:
			return true
		case prevIn && t.kind == tokWord && t.start == u[1] && prev.end == u[1]:
			return true
		case tIn && prev.kind == tokWord && prev.end == u[0] && t.start == u[0]:
			return true
		}
	}
	return false
}

// faceFor returns the face text of block b with format f is set in.
func (p *Paginator) faceFor(b *document.Block, f document.Format) measure.Face {
	face := p.face.WithDefaults()
	if b.Kind == document.Heading {
		level := min(max(b.Style.Level, 1), len(headingScale)-1)
		face.Size *= headingScale[level]
		face.Bold = true
	}
	face.Bold = face.Bold || f.Bold
	face.Italic = face.Italic || f.Italic
	return face
}

// measureTokens fills in the width and height of every token, measuring
// each piece in the face of the run it belongs to.
func (p *Paginator) measureTokens(b *document.Block, runs document.Runs, toks []token) error {
	for i := range toks {
		t := &toks[i]
		var err error
		runs.Spans(func(start, end int, r document.Run) {
			if err != nil || end <= t.start || start >= t.end {
				return
			}
			piece := r.Text[max(t.start, start)-start : min(t.end, end)-start]
			face := p.faceFor(b, r.Format)
			h, herr := p.m.LineHeight(face)
			if herr != nil {
				err = herr
				return
			}
			t.height = math.Max(t.height, h)
			if t.kind == tokNewline || t.kind == tokTab {
				return
			}
			w, werr := p.m.TextWidth(piece, face)
			if werr != nil {
				err = werr
				return
			}
			t.width += w
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// nextTab returns the first tab stop strictly right of x.
func (p *Paginator) nextTab(x float64) float64 {
	for _, stop := range p.tabStops {
		if stop > x {
			return stop
		}
	}
	last := 0.0
	if n := len(p.tabStops); n > 0 {
		last = p.tabStops[n-1]
	}
	w := p.tabWidth
	steps := math.Floor((x-last)/w) + 1
	return last + steps*w
}

// layoutRuns greedily wraps runs into lines of the given width. Trailing
// whitespace hangs past the right edge; a word wider than the line gets a
// line of its own.
func (p *Paginator) layoutRuns(b *document.Block, runs document.Runs, width float64) ([]line, error) {
	base, err := p.m.LineHeight(p.faceFor(b, document.Format{}))
	if err != nil {
		return nil, err
	}
	toks := tokenize(runs)
	if err := p.measureTokens(b, runs, toks); err != nil {
		return nil, err
	}

	spacing := b.Style.Spacing()
	var lines []line
	cur := line{}
	x, content := 0.0, false
	emit := func(next int) {
		if cur.height == 0 {
			cur.height = base
		}
		cur.height *= spacing
		lines = append(lines, cur)
		cur = line{start: next}
		x, content = 0, false
	}

	for _, t := range toks {
		switch t.kind {
		case tokNewline:
			cur.height = math.Max(cur.height, t.height)
			emit(t.end)
		case tokSpace:
			x += t.width
			cur.height = math.Max(cur.height, t.height)
		case tokTab:
			stop := p.nextTab(x)
			if content && stop > width {
				emit(t.start)
				stop = p.nextTab(0)
			}
			x = stop
			content = true
			cur.height = math.Max(cur.height, t.height)
		default:
			if content && x+t.width > width {
				emit(t.start)
			}
			x += t.width
			content = true
			cur.height = math.Max(cur.height, t.height)
		}
	}
	emit(runs.Len())
	return lines, nil
}

// indent is the horizontal space a block gives up on the left.
func indent(b *document.Block) float64 {
	in := b.Style.Indent
	if b.List != nil {
		in += float64(b.List.Depth) * ListIndent
	}
	return in
}

// blockHeight measures a whole block laid out at the given content width,
// including the space after it.
func (p *Paginator) blockHeight(b *document.Block, width float64) (float64, error) {
	width -= indent(b)
	if b.Kind == document.Table && b.Table != nil {
		return p.tableHeight(b, width)
	}
	lines, err := p.layoutRuns(b, b.Runs, width)
	if err != nil {
		return 0, err
	}
	h := b.Style.SpaceAfter
	for _, l := range lines {
		h += l.height
	}
	return h, nil
}

func (p *Paginator) tableHeight(b *document.Block, width float64) (float64, error) {
	cols := b.Table.Cols()
	if cols == 0 {
		return b.Style.SpaceAfter, nil
	}
	cellWidth := width / float64(cols)
	h := b.Style.SpaceAfter
	for _, row := range b.Table.Rows {
		rowHeight := 0.0
		for _, cell := range row {
			lines, err := p.layoutRuns(b, cell.Runs, cellWidth)
			if err != nil {
				return 0, err
			}
			ch := 0.0
			for _, l := range lines {
				ch += l.height
			}
			rowHeight = math.Max(rowHeight, ch)
		}
		h += rowHeight
	}
	return h, nil
}
