package engine

import (
	"fmt"
	"net/url"

	"github.com/rivo/uniseg"

	"github.com/dshills/quire/internal/engine/document"
	"github.com/dshills/quire/internal/engine/selection"
	"github.com/dshills/quire/internal/event/events"
)

// FormatPatch is a partial inline format. Nil fields are left unchanged;
// an empty Color clears the color.
type FormatPatch struct {
	Bold      *bool
	Italic    *bool
	Underline *bool
	Color     *string
}

func (f FormatPatch) apply(color string) func(document.Format) document.Format {
	return func(fm document.Format) document.Format {
		if f.Bold != nil {
			fm.Bold = *f.Bold
		}
		if f.Italic != nil {
			fm.Italic = *f.Italic
		}
		if f.Underline != nil {
			fm.Underline = *f.Underline
		}
		if f.Color != nil {
			fm.Color = color
		}
		return fm
	}
}

// editable checks that p addresses inline text in the body.
func (e *Engine) editable(p selection.Point) error {
	b := e.doc.Block(p.Block)
	if b == nil {
		return blockNotFound(p.Block)
	}
	if b.Kind == document.Table {
		return fmt.Errorf("%w: %s is a table", document.ErrNotEditable, p.Block)
	}
	if p.Offset < 0 || p.Offset > b.Len() {
		return fmt.Errorf("%w: %s", document.ErrOffsetOutOfRange, p)
	}
	return nil
}

// checkRange validates both endpoints of sel before anything is mutated.
func (e *Engine) checkRange(sel selection.Selection) (start, end selection.Point, err error) {
	start, end = sel.Ordered(e.doc.Compare)
	for _, p := range []selection.Point{start, end} {
		b := e.doc.Block(p.Block)
		if b == nil {
			return start, end, blockNotFound(p.Block)
		}
		if p.Offset < 0 || p.Offset > b.Len() {
			return start, end, fmt.Errorf("%w: %s", document.ErrOffsetOutOfRange, p)
		}
	}
	return start, end, nil
}

// collapse deletes the selected text, if any, and returns the caret.
func (e *Engine) collapse(sel selection.Selection) (selection.Point, bool, error) {
	if sel.IsCollapsed() {
		return sel.Focus, false, nil
	}
	start, end, err := e.checkRange(sel)
	if err != nil {
		return start, false, err
	}
	p, err := e.doc.DeleteRange(start, end)
	return p, start.Block != end.Block, err
}

// commit sets the selection to a caret at p, announces the edit and
// returns the selection as remapped by pagination.
func (e *Engine) commit(p selection.Point, op string, structural bool, blocks ...document.BlockID) selection.Selection {
	e.sel = selection.Caret(p.Block, p.Offset)
	e.changed(op, structural, append(blocks, p.Block)...)
	return e.sel
}

// InsertText replaces the selection with text and returns the caret after
// it. Newlines in text are soft breaks within the block.
func (e *Engine) InsertText(sel selection.Selection, text string) (selection.Selection, error) {
	e.lock()
	defer e.unlock()

	if text == "" && sel.IsCollapsed() {
		return sel, nil
	}
	start, _ := sel.Ordered(e.doc.Compare)
	if err := e.editable(start); err != nil {
		return sel, err
	}
	if _, _, err := e.checkRange(sel); err != nil {
		return sel, err
	}
	p, structural, err := e.collapse(sel)
	if err != nil {
		return sel, err
	}
	if text == "" {
		return e.commit(p, "delete-range", structural), nil
	}
	p, err = e.doc.InsertText(p, text)
	if err != nil {
		return sel, err
	}
	return e.commit(p, "insert-text", structural), nil
}

// DeleteRange deletes the selected text. A collapsed selection is left as
// is.
func (e *Engine) DeleteRange(sel selection.Selection) (selection.Selection, error) {
	e.lock()
	defer e.unlock()

	if sel.IsCollapsed() {
		return sel, nil
	}
	p, structural, err := e.collapse(sel)
	if err != nil {
		return sel, err
	}
	return e.commit(p, "delete-range", structural), nil
}

// SplitBlock replaces the selection with a block break. The caret moves
// to the start of the new block.
func (e *Engine) SplitBlock(sel selection.Selection) (selection.Selection, error) {
	e.lock()
	defer e.unlock()
	return e.split(sel)
}

func (e *Engine) split(sel selection.Selection) (selection.Selection, error) {
	start, _ := sel.Ordered(e.doc.Compare)
	if err := e.editable(start); err != nil {
		return sel, err
	}
	p, _, err := e.collapse(sel)
	if err != nil {
		return sel, err
	}
	orig := p.Block
	p, err = e.doc.SplitBlock(p)
	if err != nil {
		return sel, err
	}
	return e.commit(p, "split-block", true, orig), nil
}

// MergeBlock joins the caret block onto the previous block. When the
// block starts a page, the page is first merged onto the previous one;
// a block that continues the previous page's last block is joined back
// by that merge alone. It reports false when there is nothing to merge
// with.
func (e *Engine) MergeBlock(sel selection.Selection) (selection.Selection, bool, error) {
	e.lock()
	defer e.unlock()
	p, ok, err := e.mergeBlock(sel.Focus.Block)
	if err != nil || !ok {
		return sel, ok, err
	}
	return e.commit(p, "merge-block", true), true, nil
}

func (e *Engine) mergeBlock(id document.BlockID) (selection.Point, bool, error) {
	b := e.doc.Block(id)
	if b == nil {
		return selection.Point{}, false, blockNotFound(id)
	}
	pg := e.doc.Page(b.Page)
	if pg != nil && len(pg.Blocks) > 0 && pg.Blocks[0] == id && e.doc.PageIndex(pg.ID) > 0 {
		prev := e.doc.Prev(id)
		if prev == nil || prev.Kind == document.Table || b.Kind == document.Table {
			return selection.At(id, 0), false, nil
		}
		seam, ok, err := e.pager.MergeUp(pg.ID)
		if err != nil || !ok {
			return seam, ok, err
		}
		if e.doc.Block(id) == nil {
			return seam, true, nil
		}
	}
	return e.doc.MergeWithPrevious(id)
}

// Enter handles the Enter key. In a list item it splits the item, or
// ends the list on an empty item; elsewhere it splits the block.
func (e *Engine) Enter(sel selection.Selection) (selection.Selection, error) {
	e.lock()
	defer e.unlock()

	b := e.doc.Block(sel.Focus.Block)
	if b == nil {
		return sel, blockNotFound(sel.Focus.Block)
	}
	if b.List == nil || !sel.IsCollapsed() {
		return e.split(sel)
	}
	if !b.IsEmpty() {
		p, _, err := e.lists.Enter(sel.Focus)
		if err != nil {
			return sel, err
		}
		return e.commit(p, "split-item", true, b.ID), nil
	}
	var ok bool
	err := e.atomic(func() error {
		_, ok, _ = e.lists.Enter(sel.Focus)
		if ok {
			e.commit(selection.At(b.ID, 0), "end-list", true)
		}
		return nil
	})
	return e.sel, err
}

// Backspace handles the Backspace key: it deletes the selection, the
// grapheme before the caret, or the block boundary. At the start of a
// list item it outdents or ends the list.
func (e *Engine) Backspace(sel selection.Selection) (selection.Selection, error) {
	e.lock()
	defer e.unlock()

	if !sel.IsCollapsed() {
		p, structural, err := e.collapse(sel)
		if err != nil {
			return sel, err
		}
		return e.commit(p, "delete-range", structural), nil
	}
	p := sel.Focus
	b := e.doc.Block(p.Block)
	if b == nil {
		return sel, blockNotFound(p.Block)
	}

	if p.Offset == 0 && b.List != nil && (b.List.Depth > 1 || b.IsEmpty()) {
		var handled bool
		err := e.atomic(func() error {
			if _, handled = e.lists.Backspace(p); handled {
				e.commit(p, "outdent", true)
			}
			return nil
		})
		if err != nil || handled {
			return e.sel, err
		}
	}

	if p.Offset > 0 {
		if err := e.editable(p); err != nil {
			return sel, err
		}
		p, err := e.doc.DeleteRange(selection.At(b.ID, prevGrapheme(b.Text(), p.Offset)), p)
		if err != nil {
			return sel, err
		}
		return e.commit(p, "delete-backward", false), nil
	}

	prev := e.doc.Prev(b.ID)
	seamless := prev != nil && b.Continues != "" &&
		(b.Continues == prev.ID || b.Continues == prev.Continues)
	at, ok, err := e.mergeBlock(b.ID)
	if err != nil || !ok {
		return sel, err
	}
	if seamless && at.Offset > 0 {
		if blk := e.doc.Block(at.Block); blk != nil {
			at, err = e.doc.DeleteRange(selection.At(at.Block, prevGrapheme(blk.Text(), at.Offset)), at)
			if err != nil {
				return sel, err
			}
		}
	}
	return e.commit(at, "merge-block", true), nil
}

// prevGrapheme returns the start of the grapheme cluster ending at off.
func prevGrapheme(text string, off int) int {
	start := 0
	g := uniseg.NewGraphemes(text[:off])
	for g.Next() {
		start, _ = g.Positions()
	}
	return start
}

// ApplyFormat applies patch to the selected text. Tables are skipped. A
// collapsed selection is left as is.
func (e *Engine) ApplyFormat(sel selection.Selection, patch FormatPatch) (selection.Selection, error) {
	e.lock()
	defer e.unlock()

	var color string
	if patch.Color != nil {
		c, err := document.NormalizeColor(*patch.Color)
		if err != nil {
			return sel, err
		}
		color = c
	}
	start, end, err := e.checkRange(sel)
	if err != nil || sel.IsCollapsed() {
		return sel, err
	}
	if err := e.doc.ApplyFormat(start, end, patch.apply(color)); err != nil {
		return sel, err
	}
	e.sel = sel
	e.changed("format", false, e.doc.BlocksBetween(start.Block, end.Block)...)
	return e.sel, nil
}

// SetLink makes the selected text a hyperlink to href, or removes links
// when href is empty. It is one undo step.
func (e *Engine) SetLink(sel selection.Selection, href string) (selection.Selection, error) {
	e.lock()
	defer e.unlock()

	if sel.IsCollapsed() {
		return sel, ErrEmptySelection
	}
	if href != "" {
		u, err := url.Parse(href)
		if err != nil {
			return sel, fmt.Errorf("%w: %v", ErrInvalidLink, err)
		}
		if u.Scheme == "" && u.Fragment == "" {
			return sel, fmt.Errorf("%w: %q has no scheme", ErrInvalidLink, href)
		}
	}
	start, end, err := e.checkRange(sel)
	if err != nil {
		return sel, err
	}
	err = e.atomic(func() error {
		if err := e.doc.ApplyFormat(start, end, func(f document.Format) document.Format {
			f.Link = href
			return f
		}); err != nil {
			return err
		}
		e.sel = sel
		e.changed("set-link", false, e.doc.BlocksBetween(start.Block, end.Block)...)
		return nil
	})
	return e.sel, err
}

// SetHeading turns the caret block into a heading of level 1-6, or back
// into a paragraph for level 0.
func (e *Engine) SetHeading(sel selection.Selection, level int) (selection.Selection, error) {
	e.lock()
	defer e.unlock()

	id := sel.Focus.Block
	if err := e.doc.SetHeading(id, level); err != nil {
		return sel, err
	}
	e.sel = sel
	e.changed("set-heading", true, id)
	return e.sel, nil
}

// InsertTable inserts an empty rows x cols table after the caret block,
// or after the whole list when the caret is in a list item. The caret
// moves to the paragraph following the table, which is created when the
// table ends the document. It is one undo step.
func (e *Engine) InsertTable(sel selection.Selection, rows, cols int) (selection.Selection, error) {
	e.lock()
	defer e.unlock()

	if rows < 1 || cols < 1 {
		return sel, fmt.Errorf("%w: %dx%d", ErrInvalidTable, rows, cols)
	}
	after := sel.Focus.Block
	if e.doc.Block(after) == nil {
		return sel, blockNotFound(after)
	}
	if l := e.doc.ListOf(after); l != nil {
		if items := e.doc.ListBlocks(e.doc.Root(l).ID); len(items) > 0 {
			after = items[len(items)-1]
		}
	}
	err := e.atomic(func() error {
		t, err := e.doc.InsertTable(after, rows, cols)
		if err != nil {
			return err
		}
		next := e.doc.Next(t.ID)
		if next == nil || next.Kind == document.Table {
			next = e.doc.NewBlock(document.Paragraph, nil)
			if err := e.doc.InsertAfter(t.ID, next); err != nil {
				return err
			}
		}
		e.commit(selection.At(next.ID, 0), "insert-table", true, t.ID)
		return nil
	})
	return e.sel, err
}

// SetCell replaces the text of one table cell.
func (e *Engine) SetCell(table document.BlockID, row, col int, text string) error {
	e.lock()
	defer e.unlock()

	if err := e.doc.SetCell(table, row, col, text); err != nil {
		return err
	}
	e.changed("set-cell", false, table)
	return nil
}

// SetHeader sets the header text of a page. Empty text removes it.
func (e *Engine) SetHeader(page document.PageID, text string) error {
	e.lock()
	defer e.unlock()

	if err := e.doc.SetHeader(page, document.Plain(text)); err != nil {
		return err
	}
	e.contentChanged(events.OriginEdit, "set-header", false, []document.PageID{page})
	return nil
}

// SetFooter sets the footer text of a page. Empty text removes it.
func (e *Engine) SetFooter(page document.PageID, text string) error {
	e.lock()
	defer e.unlock()

	if err := e.doc.SetFooter(page, document.Plain(text)); err != nil {
		return err
	}
	e.contentChanged(events.OriginEdit, "set-footer", false, []document.PageID{page})
	return nil
}

// MergePage appends page to the previous page without reflowing, joining
// a block that was split across the page break. The caret moves to the
// seam. It reports false for the first page.
func (e *Engine) MergePage(page document.PageID) (selection.Selection, bool, error) {
	e.lock()
	defer e.unlock()

	idx := e.doc.PageIndex(page)
	if idx < 0 {
		return e.sel, false, fmt.Errorf("%w: %s", document.ErrPageNotFound, page)
	}
	if idx == 0 {
		return e.sel, false, nil
	}
	prev := e.doc.PageAt(idx - 1).ID
	var ok bool
	err := e.atomic(func() error {
		var seam selection.Point
		var err error
		if seam, ok, err = e.pager.MergeUp(page); err != nil || !ok {
			return err
		}
		if !seam.IsZero() {
			e.sel = selection.Caret(seam.Block, seam.Offset)
		} else {
			e.sel = e.sel.Clamp(e.doc.BlockLen)
		}
		e.contentChanged(events.OriginMerge, "merge-page", true, []document.PageID{prev})
		return nil
	})
	return e.sel, ok, err
}
