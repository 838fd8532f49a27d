package history

// Transaction runs fn as a single undo step: pending edits are committed
// before it runs and its own changes are captured right after, even when
// fn fails part way.
func (h *History) Transaction(fn func() error) error {
	h.ForceCheckpoint()
	err := fn()
	h.ForceCheckpoint()
	return err
}

// Checkpoint represents a point in history that can be returned to.
type Checkpoint struct {
	undoDepth int
}

// CreateCheckpoint commits pending edits and returns the current position.
func (h *History) CreateCheckpoint() Checkpoint {
	h.ForceCheckpoint()
	return Checkpoint{undoDepth: h.UndoCount()}
}

// UndoToCheckpoint undoes every step taken since cp.
func (h *History) UndoToCheckpoint(cp Checkpoint) error {
	for h.UndoCount() > max(cp.undoDepth, 1) {
		if !h.Undo() {
			return ErrNothingToUndo
		}
	}
	return nil
}

// RedoToCheckpoint redoes steps until the undo depth reaches cp again.
func (h *History) RedoToCheckpoint(cp Checkpoint) error {
	for h.UndoCount() < cp.undoDepth {
		if !h.Redo() {
			return ErrNothingToRedo
		}
	}
	return nil
}
