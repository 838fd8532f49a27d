// Package history provides undo/redo for the editing engine.
//
// History works on whole-document snapshots rather than inverse commands.
// A Source captures the current state (document content, selection and
// comments) and restores a previously captured one. Any mutation the
// engine supports is undoable, because undo never has to know what changed.
// When a restore leaves a state that differs from the snapshot, the entry is
// replaced by what the restore produced, so the difference is never taken
// for a new edit.
//
// # Checkpoints
//
// MarkCheckpoint requests a capture after a quiet period (500ms by
// default). Requests inside the window reset the timer, so a burst of
// keystrokes becomes one undo step:
//
//	h.MarkCheckpoint() // "h"
//	h.MarkCheckpoint() // "he", timer reset
//	h.MarkCheckpoint() // "hel", timer reset
//
// ForceCheckpoint captures immediately. Atomic operations wrap their
// mutation in Transaction, which forces a checkpoint before and after so the
// whole operation undoes as a single step.
//
// # Stacks
//
// The oldest undo entry is the pristine state and is never evicted. Past
// the size bound the oldest non-pristine entry is dropped. A capture whose
// fingerprint equals the top of the undo stack is ignored; any other
// capture clears the redo stack.
//
// # Applying
//
// While a snapshot is being restored, capture requests are ignored so that
// the reactions to the restore do not pollute history. A snapshot that
// fails validation or restore is dropped with a warning and the next entry
// is tried; the document is never left half restored.
package history
