package engine

import (
	"fmt"

	"github.com/dshills/quire/internal/engine/history"
	"github.com/dshills/quire/internal/engine/selection"
	"github.com/dshills/quire/internal/event/events"
)

// source adapts the engine to history.Source. Its methods run with the
// engine lock held.
type source struct {
	e *Engine
}

// Snapshot captures the document, the selection and the comments with
// their anchors.
func (s source) Snapshot() (*history.Snapshot, error) {
	e := s.e
	doc, err := e.doc.Capture()
	if err != nil {
		return nil, err
	}
	sel, err := e.sel.Marshal()
	if err != nil {
		return nil, fmt.Errorf("capture selection: %w", err)
	}
	comments, err := e.notes.Capture()
	if err != nil {
		return nil, err
	}
	return &history.Snapshot{Document: doc, Selection: sel, Comments: comments}, nil
}

// Restore replaces the document first, then the comments captured with
// it. A selection or comment list that does not decode is dropped with a
// warning instead of failing the restore.
func (s source) Restore(snap *history.Snapshot) error {
	e := s.e
	sel, selErr := selection.Unmarshal(snap.Selection)
	if err := e.doc.Restore(snap.Document); err != nil {
		return err
	}
	if selErr != nil {
		e.log.Warn("history: restoring without selection: %v", selErr)
	}
	if selErr != nil || e.doc.Block(sel.Anchor.Block) == nil || e.doc.Block(sel.Focus.Block) == nil {
		sel = selection.Selection{}
		if first := e.doc.First(); first != nil {
			sel = selection.Caret(first.ID, 0)
		}
	}
	e.sel = sel.Clamp(e.doc.BlockLen)

	if err := e.notes.Restore(snap.Comments); err != nil {
		e.log.Warn("history: restoring without comments: %v", err)
		e.notes.Reconcile()
	}
	e.contentChanged(events.OriginHistory, "restore", true, e.doc.Pages())
	e.commentsChanged()
	return nil
}

// Undo restores the state before the last checkpoint, including the
// selection. It reports false when there is nothing to undo.
func (e *Engine) Undo() bool {
	e.lock()
	defer e.unlock()
	return e.hist.Undo()
}

// Redo reapplies the last undone state. It reports false when there is
// nothing to redo.
func (e *Engine) Redo() bool {
	e.lock()
	defer e.unlock()
	return e.hist.Redo()
}

// MarkCheckpoint requests a debounced history capture.
func (e *Engine) MarkCheckpoint() {
	e.lock()
	defer e.unlock()
	e.hist.MarkCheckpoint()
}

// ForceCheckpoint captures the current state now. It reports whether an
// undo step was added.
func (e *Engine) ForceCheckpoint() bool {
	e.lock()
	defer e.unlock()
	return e.hist.ForceCheckpoint()
}

// CanUndo reports whether Undo would do anything.
func (e *Engine) CanUndo() bool {
	e.lock()
	defer e.unlock()
	return e.hist.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (e *Engine) CanRedo() bool {
	e.lock()
	defer e.unlock()
	return e.hist.CanRedo()
}

// HistoryStats returns the undo and redo depths.
func (e *Engine) HistoryStats() history.Stats {
	e.lock()
	defer e.unlock()
	return e.hist.Stats()
}

// Checkpoint commits pending edits and returns the current history
// position for RevertTo.
func (e *Engine) Checkpoint() history.Checkpoint {
	e.lock()
	defer e.unlock()
	return e.hist.CreateCheckpoint()
}

// RevertTo undoes every step taken since cp. The undone steps stay
// available to Redo.
func (e *Engine) RevertTo(cp history.Checkpoint) error {
	e.lock()
	defer e.unlock()
	return e.hist.UndoToCheckpoint(cp)
}

// ClearHistory drops the undo and redo stacks and makes the current state
// the pristine entry.
func (e *Engine) ClearHistory() error {
	e.lock()
	defer e.unlock()
	return e.hist.Reset()
}

// SetMaxUndoEntries changes the undo and redo bound. Excess entries are
// dropped oldest first; the pristine entry is kept.
func (e *Engine) SetMaxUndoEntries(n int) {
	e.lock()
	defer e.unlock()
	e.hist.SetMaxEntries(n)
}

// atomic runs fn as its own undo step.
func (e *Engine) atomic(fn func() error) error {
	return e.hist.Transaction(fn)
}
