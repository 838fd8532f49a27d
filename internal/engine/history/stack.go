package history

import (
	"errors"
	"sync"
	"time"
)

// Common errors for history operations.
var (
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
	ErrNoSource        = errors.New("history has no source")
)

const (
	// DefaultDelay is the debounce window of MarkCheckpoint.
	DefaultDelay = 500 * time.Millisecond

	// DefaultMaxEntries bounds the undo and redo stacks.
	DefaultMaxEntries = 50
)

// Logger receives history diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Stats describes the history state.
type Stats struct {
	UndoDepth int
	RedoDepth int
	Pending   bool
	Applying  bool
}

// Option configures a History.
type Option func(*History)

// WithClock sets the clock driving the debounce timer.
func WithClock(c Clock) Option {
	return func(h *History) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithDelay sets the debounce window.
func WithDelay(d time.Duration) Option {
	return func(h *History) {
		if d > 0 {
			h.delay = d
		}
	}
}

// WithMaxEntries sets the stack bound. Values below 2 are raised to 2 so
// the pristine entry always has company.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		h.maxEntries = max(n, 2)
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(h *History) {
		if l != nil {
			h.log = l
		}
	}
}

// WithOnChange registers a callback run after the stacks change. It runs
// without the history lock held.
func WithOnChange(fn func(Stats)) Option {
	return func(h *History) {
		h.onChange = fn
	}
}

// WithGuard wraps the debounce callback, which fires on the timer's
// goroutine. The engine passes a function that takes its own lock.
func WithGuard(fn func(func())) Option {
	return func(h *History) {
		if fn != nil {
			h.guard = fn
		}
	}
}

// History manages the undo/redo stacks of one document.
type History struct {
	mu sync.Mutex

	src   Source
	clock Clock
	log   Logger
	guard func(func())

	undoStack []*Snapshot
	redoStack []*Snapshot

	// Debounce state
	delay   time.Duration
	timer   Timer
	gen     uint64
	pending bool

	applying   bool
	maxEntries int
	onChange   func(Stats)
}

// New creates a history for src and captures the pristine state.
func New(src Source, opts ...Option) (*History, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	h := &History{
		src:        src,
		clock:      realClock{},
		log:        nopLogger{},
		guard:      func(f func()) { f() },
		delay:      DefaultDelay,
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.Reset(); err != nil {
		return nil, err
	}
	return h, nil
}

// Reset drops all history and makes the current state the pristine entry.
func (h *History) Reset() error {
	h.mu.Lock()
	h.cancelLocked()
	snap, err := h.snapshotLocked()
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.undoStack = []*Snapshot{snap}
	h.redoStack = nil
	h.mu.Unlock()
	h.notify()
	return nil
}

// MarkCheckpoint requests a capture after the debounce window. A request
// inside the window of the previous one resets the timer.
func (h *History) MarkCheckpoint() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.applying {
		return
	}
	h.cancelLocked()
	h.gen++
	gen := h.gen
	h.pending = true
	h.timer = h.clock.AfterFunc(h.delay, func() { h.guard(func() { h.fire(gen) }) })
}

// fire runs a debounced capture unless it was superseded.
func (h *History) fire(gen uint64) {
	h.mu.Lock()
	if !h.pending || gen != h.gen {
		h.mu.Unlock()
		return
	}
	h.pending, h.timer = false, nil
	changed := h.captureLocked()
	h.mu.Unlock()
	if changed {
		h.notify()
	}
}

// ForceCheckpoint cancels a pending request and captures immediately.
// It reports whether an entry was pushed.
func (h *History) ForceCheckpoint() bool {
	h.mu.Lock()
	if h.applying {
		h.mu.Unlock()
		return false
	}
	h.cancelLocked()
	changed := h.captureLocked()
	h.mu.Unlock()
	if changed {
		h.notify()
	}
	return changed
}

func (h *History) cancelLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.pending = false
}

func (h *History) snapshotLocked() (*Snapshot, error) {
	snap, err := h.src.Snapshot()
	if err != nil {
		return nil, err
	}
	snap.Time = h.clock.Now()
	snap.seal()
	return snap, nil
}

// captureLocked pushes the current state unless it equals the top of the
// undo stack. A push clears the redo stack.
func (h *History) captureLocked() bool {
	snap, err := h.snapshotLocked()
	if err != nil {
		h.log.Warn("history: capture failed: %v", err)
		return false
	}
	if n := len(h.undoStack); n > 0 && h.undoStack[n-1].sum == snap.sum {
		return false
	}
	h.undoStack = append(h.undoStack, snap)
	h.redoStack = nil

	// Enforce max entries, keeping the pristine state
	if excess := len(h.undoStack) - h.maxEntries; excess > 0 {
		h.undoStack = append(h.undoStack[:1], h.undoStack[1+excess:]...)
	}
	h.log.Debug("history: captured checkpoint (%d entries)", len(h.undoStack))
	return true
}

// flushLocked turns a pending request into a capture and records any
// uncommitted change, so the top of the undo stack is the current state.
func (h *History) flushLocked() {
	h.cancelLocked()
	h.captureLocked()
}

// applyLocked restores snap. The lock is released during the restore so
// that reactions to it can call MarkCheckpoint, which is ignored while
// applying.
func (h *History) applyLocked(snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	h.applying = true
	h.mu.Unlock()
	err := h.src.Restore(snap)
	h.mu.Lock()
	h.applying = false
	return err
}

// settleLocked returns the entry that describes the state after applying
// target. When the restore left a state with a different fingerprint, the
// fresh capture replaces target, so the next flush does not mistake the
// difference for an edit and clear the redo stack.
func (h *History) settleLocked(target *Snapshot) *Snapshot {
	snap, err := h.snapshotLocked()
	if err != nil || snap.sum == target.sum {
		return target
	}
	snap.Time = target.Time
	h.log.Warn("history: restored state differs from snapshot from %s", target.Time.Format(time.RFC3339))
	return snap
}

// Undo restores the state before the last checkpoint. It reports false
// when only the pristine state is left.
func (h *History) Undo() bool {
	h.mu.Lock()
	if h.applying {
		h.mu.Unlock()
		return false
	}
	h.flushLocked()
	if len(h.undoStack) <= 1 {
		h.mu.Unlock()
		return false
	}
	current := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]

	ok := false
	for len(h.undoStack) > 0 {
		target := h.undoStack[len(h.undoStack)-1]
		err := h.applyLocked(target)
		if err == nil {
			h.undoStack[len(h.undoStack)-1] = h.settleLocked(target)
			ok = true
			break
		}
		h.log.Warn("history: dropping snapshot from %s: %v", target.Time.Format(time.RFC3339), err)
		h.undoStack = h.undoStack[:len(h.undoStack)-1]
	}
	if ok {
		h.pushRedoLocked(current)
	} else {
		// Nothing older could be applied; the current state becomes pristine.
		h.undoStack = []*Snapshot{current}
	}
	h.mu.Unlock()
	h.notify()
	return ok
}

// Redo reapplies the last undone state. It reports false when there is
// nothing to redo, including after a new edit was captured.
func (h *History) Redo() bool {
	h.mu.Lock()
	if h.applying {
		h.mu.Unlock()
		return false
	}
	h.flushLocked()

	ok := false
	for len(h.redoStack) > 0 {
		target := h.redoStack[len(h.redoStack)-1]
		h.redoStack = h.redoStack[:len(h.redoStack)-1]
		err := h.applyLocked(target)
		if err == nil {
			h.undoStack = append(h.undoStack, h.settleLocked(target))
			ok = true
			break
		}
		h.log.Warn("history: dropping snapshot from %s: %v", target.Time.Format(time.RFC3339), err)
	}
	h.mu.Unlock()
	if ok {
		h.notify()
	}
	return ok
}

func (h *History) pushRedoLocked(s *Snapshot) {
	h.redoStack = append(h.redoStack, s)
	if excess := len(h.redoStack) - h.maxEntries; excess > 0 {
		h.redoStack = h.redoStack[excess:]
	}
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 1 || h.pending
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the depth of the undo stack, pristine entry included.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the depth of the redo stack.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Stats returns the current history state.
func (h *History) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statsLocked()
}

func (h *History) statsLocked() Stats {
	return Stats{
		UndoDepth: len(h.undoStack),
		RedoDepth: len(h.redoStack),
		Pending:   h.pending,
		Applying:  h.applying,
	}
}

func (h *History) notify() {
	if h.onChange == nil {
		return
	}
	h.onChange(h.Stats())
}

// Pristine returns the oldest undo entry.
func (h *History) Pristine() *Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undoStack) == 0 {
		return nil
	}
	return h.undoStack[0]
}

// SetMaxEntries changes the stack bound. If the undo stack is larger, the
// oldest non-pristine entries are removed.
func (h *History) SetMaxEntries(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = max(n, 2)
	if excess := len(h.undoStack) - h.maxEntries; excess > 0 {
		h.undoStack = append(h.undoStack[:1], h.undoStack[1+excess:]...)
	}
	if excess := len(h.redoStack) - h.maxEntries; excess > 0 {
		h.redoStack = h.redoStack[excess:]
	}
}

// MaxEntries returns the stack bound.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
