package lists

import (
	"strconv"
	"strings"

	"github.com/dshills/quire/internal/engine/document"
)

var bulletGlyphs = map[string]string{
	"disc":   "•",
	"circle": "◦",
	"square": "▪",
	"arrow":  "➢",
	"dash":   "-",
	"star":   "*",
}

// Marker returns the rendered marker of a list item: a bullet glyph, or
// the item's ordinal in the style of its list ("3.", "c.", "iii."). It
// returns "" for blocks that are not list items.
func (e *Engine) Marker(id document.BlockID) string {
	b := e.doc.Block(id)
	l := e.doc.ListOf(id)
	if b == nil || l == nil {
		return ""
	}
	if l.Kind == document.Bulleted {
		return bulletGlyphs[b.List.Style]
	}
	n := 1
	for i, item := range l.Items {
		if item == id {
			n = i + 1
			break
		}
	}
	return Ordinal(b.List.Style, n) + "."
}

// Ordinal formats n (1-based) in a numbered list style.
func Ordinal(style string, n int) string {
	switch style {
	case "lower-alpha":
		return alpha(n)
	case "upper-alpha":
		return strings.ToUpper(alpha(n))
	case "lower-roman":
		return roman(n)
	case "upper-roman":
		return strings.ToUpper(roman(n))
	default:
		return strconv.Itoa(n)
	}
}

// alpha formats n as a, b, ..., z, aa, ab, ...
func alpha(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

var romanTable = []struct {
	v int
	s string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

func roman(n int) string {
	if n <= 0 || n >= 4000 {
		return strconv.Itoa(n)
	}
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.v {
			b.WriteString(r.s)
			n -= r.v
		}
	}
	return b.String()
}
