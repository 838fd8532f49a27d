package engine

import (
	"strings"

	"github.com/dshills/quire/internal/engine/document"
)

// PageInfo summarizes one laid out page.
type PageInfo struct {
	ID       document.PageID
	Geometry document.Geometry
	Blocks   []document.BlockID
	Header   string
	Footer   string

	// Height is the measured height of the body content.
	Height float64
}

// Tree returns a deep copy of the document for export and print
// consumers.
func (e *Engine) Tree() document.Tree {
	e.lock()
	defer e.unlock()
	return e.doc.Tree()
}

// PlainText renders the body as text, one block per line. List items are
// indented by depth and prefixed with their marker; blocks split by
// pagination are joined again.
func (e *Engine) PlainText() string {
	e.lock()
	defer e.unlock()

	var b strings.Builder
	prev := ""
	for i, id := range e.doc.Blocks() {
		blk := e.doc.Block(id)
		if i > 0 && blk.Continues == prev {
			b.WriteString(blk.Text())
			prev = id
			continue
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		if blk.List != nil {
			b.WriteString(strings.Repeat("  ", blk.List.Depth-1))
			b.WriteString(e.lists.Marker(id))
			b.WriteByte(' ')
		}
		b.WriteString(blk.Text())
		prev = id
	}
	return b.String()
}

// PageText returns the concatenated body text of one page.
func (e *Engine) PageText(page document.PageID) string {
	e.lock()
	defer e.unlock()
	return e.doc.PageText(page)
}

// PageCount returns the number of pages.
func (e *Engine) PageCount() int {
	e.lock()
	defer e.unlock()
	return e.doc.PageCount()
}

// Pages describes every page in order.
func (e *Engine) Pages() ([]PageInfo, error) {
	e.lock()
	defer e.unlock()

	out := make([]PageInfo, 0, e.doc.PageCount())
	for _, pid := range e.doc.Pages() {
		pg := e.doc.Page(pid)
		h, err := e.pager.PageHeight(pid)
		if err != nil {
			return nil, err
		}
		info := PageInfo{
			ID:       pid,
			Geometry: pg.Geometry,
			Blocks:   append([]document.BlockID(nil), pg.Blocks...),
			Height:   h,
		}
		if hb := e.doc.Block(pg.Header); hb != nil {
			info.Header = hb.Text()
		}
		if fb := e.doc.Block(pg.Footer); fb != nil {
			info.Footer = fb.Text()
		}
		out = append(out, info)
	}
	return out, nil
}
