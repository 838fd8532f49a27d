package engine

import (
	"fmt"
	"slices"

	"github.com/dshills/quire/internal/engine/document"
	"github.com/dshills/quire/internal/engine/measure"
	"github.com/dshills/quire/internal/engine/selection"
	"github.com/dshills/quire/internal/event/events"
)

// ToggleList turns the selected blocks into list items of kind, or back
// into paragraphs when they all already are. It is one undo step and
// reports false when nothing changed.
func (e *Engine) ToggleList(sel selection.Selection, kind document.ListKind) (selection.Selection, bool, error) {
	e.lock()
	defer e.unlock()

	start, end, err := e.checkRange(sel)
	if err != nil {
		return sel, false, err
	}
	var ok bool
	err = e.atomic(func() error {
		if ok = e.lists.ToggleList(sel, kind); ok {
			e.sel = sel
			e.changed("toggle-list", true, e.doc.BlocksBetween(start.Block, end.Block)...)
		}
		return nil
	})
	return e.sel, ok, err
}

// Indent nests the caret's list item under its previous sibling. It
// reports false when the item has no previous sibling.
func (e *Engine) Indent(sel selection.Selection) (bool, error) {
	return e.nest(sel, "indent", e.lists.Indent)
}

// Outdent moves the caret's list item one level up. It reports false at
// the top level.
func (e *Engine) Outdent(sel selection.Selection) (bool, error) {
	return e.nest(sel, "outdent", e.lists.Outdent)
}

func (e *Engine) nest(sel selection.Selection, op string, fn func(document.BlockID) bool) (bool, error) {
	e.lock()
	defer e.unlock()

	id := sel.Focus.Block
	if e.doc.Block(id) == nil {
		return false, blockNotFound(id)
	}
	var ok bool
	err := e.atomic(func() error {
		if ok = fn(id); ok {
			e.sel = sel
			e.changed(op, true, e.doc.Subtree(id)...)
		}
		return nil
	})
	return ok, err
}

// SetPageGeometry changes the size and margins of one page and reflows
// from it. The geometry is validated first; an invalid one changes
// nothing.
func (e *Engine) SetPageGeometry(page document.PageID, g document.Geometry) error {
	e.lock()
	defer e.unlock()

	if e.doc.Page(page) == nil {
		return fmt.Errorf("%w: %s", document.ErrPageNotFound, page)
	}
	if err := g.Oriented().Validate(); err != nil {
		return err
	}
	return e.atomic(func() error {
		if err := e.doc.SetPageGeometry(page, g); err != nil {
			return err
		}
		e.contentChanged(events.OriginEdit, "set-geometry", true, []document.PageID{page})
		return nil
	})
}

// SetDefaultGeometry applies g to every page and to pages created later,
// then lays out the whole document again.
func (e *Engine) SetDefaultGeometry(g document.Geometry) error {
	e.lock()
	defer e.unlock()

	if err := g.Oriented().Validate(); err != nil {
		return err
	}
	return e.atomic(func() error {
		if err := e.doc.SetDefaultGeometry(g); err != nil {
			return err
		}
		for _, pid := range e.doc.Pages() {
			if err := e.doc.SetPageGeometry(pid, g); err != nil {
				return err
			}
		}
		e.contentChanged(events.OriginEdit, "set-default-geometry", true, e.doc.Pages())
		return nil
	})
}

// DefaultGeometry returns the geometry of pages created without a
// predecessor.
func (e *Engine) DefaultGeometry() document.Geometry {
	e.lock()
	defer e.unlock()
	return e.doc.DefaultGeometry()
}

// SetTabStops replaces the tab stops and lays out the document again.
func (e *Engine) SetTabStops(stops []float64, width float64) error {
	e.lock()
	defer e.unlock()
	e.pager.SetTabStops(slices.Clone(stops), width)
	return e.relayout()
}

// SetFace changes the default font face and lays out the document again.
func (e *Engine) SetFace(f measure.Face) error {
	e.lock()
	defer e.unlock()
	e.pager.SetFace(f)
	return e.relayout()
}

// SetMeasurer swaps the measurement surface and lays out the document
// again.
func (e *Engine) SetMeasurer(m measure.Measurer) error {
	if m == nil {
		return measure.ErrUnavailable
	}
	e.lock()
	defer e.unlock()
	e.pager.SetMeasurer(m)
	return e.relayout()
}

// Relayout reflows every page from the first.
func (e *Engine) Relayout() error {
	e.lock()
	defer e.unlock()
	return e.relayout()
}

func (e *Engine) relayout() error {
	res, err := e.pager.ReflowAll()
	if err != nil {
		return err
	}
	if res.Changed() {
		e.sel = selection.New(e.remap(e.sel.Anchor), e.remap(e.sel.Focus))
		emit(e, events.TopicPaginationChanged, events.PaginationChanged{
			Pages:     res.Pages,
			Created:   res.Created,
			PageCount: e.doc.PageCount(),
		})
		e.hist.ForceCheckpoint()
	}
	return nil
}
