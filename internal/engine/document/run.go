package document

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Format is the set of inline formatting attributes of a run.
//
// Anchors holds comment marker ids wrapping the run; it is kept sorted so
// that two formats with the same markers compare equal.
type Format struct {
	Bold      bool     `json:"bold,omitempty"`
	Italic    bool     `json:"italic,omitempty"`
	Underline bool     `json:"underline,omitempty"`
	Color     string   `json:"color,omitempty"`
	Link      string   `json:"link,omitempty"`
	Anchors   []string `json:"anchors,omitempty"`
}

// Equal reports whether two formats are identical.
func (f Format) Equal(o Format) bool {
	return f.Bold == o.Bold &&
		f.Italic == o.Italic &&
		f.Underline == o.Underline &&
		f.Color == o.Color &&
		f.Link == o.Link &&
		slices.Equal(f.Anchors, o.Anchors)
}

// HasAnchor reports whether the run is wrapped by the given marker.
func (f Format) HasAnchor(marker string) bool {
	_, found := slices.BinarySearch(f.Anchors, marker)
	return found
}

// WithAnchor returns a copy of the format wrapped by marker.
func (f Format) WithAnchor(marker string) Format {
	i, found := slices.BinarySearch(f.Anchors, marker)
	if found {
		return f
	}
	anchors := make([]string, 0, len(f.Anchors)+1)
	anchors = append(anchors, f.Anchors[:i]...)
	anchors = append(anchors, marker)
	anchors = append(anchors, f.Anchors[i:]...)
	f.Anchors = anchors
	return f
}

// WithoutAnchor returns a copy of the format with marker removed.
func (f Format) WithoutAnchor(marker string) Format {
	i, found := slices.BinarySearch(f.Anchors, marker)
	if !found {
		return f
	}
	anchors := make([]string, 0, len(f.Anchors)-1)
	anchors = append(anchors, f.Anchors[:i]...)
	anchors = append(anchors, f.Anchors[i+1:]...)
	if len(anchors) == 0 {
		anchors = nil
	}
	f.Anchors = anchors
	return f
}

// IsUnit reports whether text with this format is an atomic formatting unit
// that must never be split across pages.
func (f Format) IsUnit() bool {
	return f.Link != "" || len(f.Anchors) > 0
}

// clone returns a deep copy of the format.
func (f Format) clone() Format {
	if f.Anchors != nil {
		f.Anchors = slices.Clone(f.Anchors)
	}
	return f
}

// NormalizeColor parses a hex color and returns it in canonical "#rrggbb"
// form. The empty string clears the color.
func NormalizeColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c.Hex(), nil
}

// Run is a contiguous piece of text sharing one format.
type Run struct {
	Text   string `json:"text"`
	Format Format `json:"format"`
}

// Runs is the ordered inline content of a block. Runs are always
// normalized: no empty runs and no adjacent runs with equal formats.
type Runs []Run

// Plain creates runs holding unformatted text.
func Plain(text string) Runs {
	if text == "" {
		return nil
	}
	return Runs{{Text: text}}
}

// Text returns the concatenated text of all runs.
func (rs Runs) Text() string {
	if len(rs) == 1 {
		return rs[0].Text
	}
	var b strings.Builder
	for _, r := range rs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Len returns the total byte length of the runs.
func (rs Runs) Len() int {
	n := 0
	for _, r := range rs {
		n += len(r.Text)
	}
	return n
}

// Clone returns a deep copy.
func (rs Runs) Clone() Runs {
	if rs == nil {
		return nil
	}
	out := make(Runs, len(rs))
	for i, r := range rs {
		out[i] = Run{Text: r.Text, Format: r.Format.clone()}
	}
	return out
}

// Slice returns a copy of the runs covering [start, end).
func (rs Runs) Slice(start, end int) Runs {
	var out Runs
	pos := 0
	for _, r := range rs {
		rs, re := pos, pos+len(r.Text)
		pos = re
		if re <= start || rs >= end {
			continue
		}
		from := max(start, rs) - rs
		to := min(end, re) - rs
		out = append(out, Run{Text: r.Text[from:to], Format: r.Format.clone()})
	}
	return out.normalize()
}

// Concat returns the runs followed by other.
func (rs Runs) Concat(other Runs) Runs {
	out := make(Runs, 0, len(rs)+len(other))
	out = append(out, rs.Clone()...)
	out = append(out, other.Clone()...)
	return out.normalize()
}

// Insert returns the runs with text inserted at off using format f.
func (rs Runs) Insert(off int, text string, f Format) Runs {
	if text == "" {
		return rs.Clone()
	}
	return rs.Slice(0, off).
		Concat(Runs{{Text: text, Format: f}}).
		Concat(rs.Slice(off, rs.Len()))
}

// Delete returns the runs with [start, end) removed.
func (rs Runs) Delete(start, end int) Runs {
	return rs.Slice(0, start).Concat(rs.Slice(end, rs.Len()))
}

// Apply returns the runs with fn applied to the format of [start, end).
func (rs Runs) Apply(start, end int, fn func(Format) Format) Runs {
	var out Runs
	pos := 0
	for _, r := range rs {
		rs, re := pos, pos+len(r.Text)
		pos = re
		if re <= start || rs >= end {
			out = append(out, Run{Text: r.Text, Format: r.Format.clone()})
			continue
		}
		from := max(start, rs) - rs
		to := min(end, re) - rs
		if from > 0 {
			out = append(out, Run{Text: r.Text[:from], Format: r.Format.clone()})
		}
		out = append(out, Run{Text: r.Text[from:to], Format: fn(r.Format.clone())})
		if to < len(r.Text) {
			out = append(out, Run{Text: r.Text[to:], Format: r.Format.clone()})
		}
	}
	return out.normalize()
}

// FormatAt returns the format new text typed at off inherits: the format
// of the character before off. At the start of a block the first run's
// format is used without links or markers.
func (rs Runs) FormatAt(off int) Format {
	if len(rs) == 0 {
		return Format{}
	}
	if off <= 0 {
		f := rs[0].Format.clone()
		f.Link = ""
		f.Anchors = nil
		return f
	}
	pos := 0
	for _, r := range rs {
		pos += len(r.Text)
		if off <= pos {
			return r.Format.clone()
		}
	}
	return rs[len(rs)-1].Format.clone()
}

// Spans calls fn for every run with its byte range.
func (rs Runs) Spans(fn func(start, end int, r Run)) {
	pos := 0
	for _, r := range rs {
		fn(pos, pos+len(r.Text), r)
		pos += len(r.Text)
	}
}

// normalize drops empty runs and merges adjacent runs with equal formats.
func (rs Runs) normalize() Runs {
	var out Runs
	for _, r := range rs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Format.Equal(r.Format) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	return out
}

// clampOffset moves off into [0, len(text)] and back onto a rune boundary.
func clampOffset(text string, off int) int {
	if off <= 0 {
		return 0
	}
	if off >= len(text) {
		return len(text)
	}
	for off > 0 && !utf8.RuneStart(text[off]) {
		off--
	}
	return off
}
