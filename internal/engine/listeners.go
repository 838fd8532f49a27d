package engine

import (
	"context"

	"github.com/dshills/quire/internal/engine/document"
	"github.com/dshills/quire/internal/engine/selection"
	"github.com/dshills/quire/internal/event"
	"github.com/dshills/quire/internal/event/events"
)

// subscribe wires the component listeners to content.changed. They run in
// priority order: pagination first, so that annotation and history see
// the laid out document.
func (e *Engine) subscribe() error {
	listeners := []struct {
		fn       func(context.Context, events.ContentChanged) error
		priority event.Priority
	}{
		{e.onReflow, event.PriorityHigh},
		{e.onReconcile, event.PriorityNormal},
		{e.onCheckpoint, event.PriorityLow},
	}
	for _, l := range listeners {
		if _, err := event.SubscribePayload(e.internal, events.TopicContentChanged, l.fn, event.WithPriority(l.priority)); err != nil {
			return err
		}
	}
	return nil
}

// onReflow reflows the pages an edit touched. Restored snapshots and
// merged pages are already laid out.
func (e *Engine) onReflow(_ context.Context, c events.ContentChanged) error {
	if c.Origin != events.OriginEdit {
		return nil
	}
	var moved, created []document.PageID
	for _, pid := range c.Pages {
		if e.doc.Page(pid) == nil {
			continue
		}
		res, err := e.pager.Reflow(pid)
		if err != nil {
			return err
		}
		if res.Changed() {
			moved = append(moved, res.Pages...)
			created = append(created, res.Created...)
		}
	}
	if len(moved) == 0 {
		return nil
	}
	e.sel = selection.New(e.remap(e.sel.Anchor), e.remap(e.sel.Focus))
	emit(e, events.TopicPaginationChanged, events.PaginationChanged{
		Pages:     moved,
		Created:   created,
		PageCount: e.doc.PageCount(),
	})
	return nil
}

// onReconcile keeps comment anchors in line with the text.
func (e *Engine) onReconcile(_ context.Context, _ events.ContentChanged) error {
	if e.notes.Len() == 0 && len(e.doc.Markers()) == 0 {
		return nil
	}
	if e.notes.Reconcile() {
		e.commentsChanged()
	}
	return nil
}

// onCheckpoint requests a debounced history capture after an edit.
func (e *Engine) onCheckpoint(_ context.Context, c events.ContentChanged) error {
	if c.Origin == events.OriginHistory || e.hist == nil {
		return nil
	}
	e.hist.MarkCheckpoint()
	return nil
}
