package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

// textSource is a one-field document.
type textSource struct {
	text    string
	caret   int
	corrupt bool
	refuse  map[string]bool
	drift   string

	h        *History
	restored int
	reenter  bool
}

func (s *textSource) Snapshot() (*Snapshot, error) {
	doc, err := json.Marshal(map[string]any{
		"order": []string{"p1"},
		"pages": map[string]any{"p1": map[string]string{"text": s.text}},
	})
	if err != nil {
		return nil, err
	}
	if s.corrupt {
		doc = []byte(`{"order":[`)
	}
	return &Snapshot{
		Document:  doc,
		Selection: []byte(strconv.Itoa(s.caret)),
		Comments:  []byte(`[]`),
	}, nil
}

func (s *textSource) Restore(snap *Snapshot) error {
	text := gjson.GetBytes(snap.Document, "pages.p1.text").String()
	if s.refuse[text] {
		return errors.New("restore refused")
	}
	if s.reenter {
		s.h.MarkCheckpoint()
		s.h.ForceCheckpoint()
	}
	if text != "" {
		text += s.drift
	}
	s.text = text
	s.caret = int(gjson.ParseBytes(snap.Selection).Int())
	s.restored++
	return nil
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
	for _, t := range slices.Clone(c.timers) {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			t.f()
		}
	}
}

type recordLogger struct {
	warnings []string
}

func (l *recordLogger) Debug(string, ...any) {}
func (l *recordLogger) Warn(msg string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(msg, args...))
}

func newTestHistory(t *testing.T, opts ...Option) (*History, *textSource, *fakeClock) {
	t.Helper()
	src := &textSource{}
	clock := newFakeClock()
	h, err := New(src, append([]Option{WithClock(clock)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	src.h = h
	return h, src, clock
}

// ============================================================================
// Construction
// ============================================================================

func TestNewCapturesPristine(t *testing.T) {
	h, _, _ := newTestHistory(t)
	if h.UndoCount() != 1 {
		t.Errorf("expected pristine entry, got %d entries", h.UndoCount())
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("expected nothing to undo or redo")
	}
	if h.Undo() {
		t.Error("expected undo at pristine state to be a no-op")
	}
	if h.Redo() {
		t.Error("expected redo with empty stack to be a no-op")
	}
}

func TestNewWithoutSource(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
}

// ============================================================================
// Undo / Redo
// ============================================================================

func TestUndoExactness(t *testing.T) {
	h, src, _ := newTestHistory(t)
	edits := []string{"a", "ab", "abc", "abc def"}
	for _, text := range edits {
		h.ForceCheckpoint()
		src.text = text
	}
	for i := len(edits) - 1; i >= 0; i-- {
		want := ""
		if i > 0 {
			want = edits[i-1]
		}
		if !h.Undo() {
			t.Fatalf("undo %d failed", i)
		}
		if src.text != want {
			t.Errorf("expected %q after undo, got %q", want, src.text)
		}
	}
	if h.Undo() {
		t.Error("expected undo past pristine to be a no-op")
	}
}

func TestRedoInverse(t *testing.T) {
	h, src, _ := newTestHistory(t)
	src.text = "one"
	h.ForceCheckpoint()
	src.text, src.caret = "one two", 7

	h.Undo()
	if src.text != "one" || src.caret != 0 {
		t.Fatalf("expected %q at 0, got %q at %d", "one", src.text, src.caret)
	}
	if !h.Redo() {
		t.Fatal("expected redo to apply")
	}
	if src.text != "one two" || src.caret != 7 {
		t.Errorf("expected state before undo, got %q at %d", src.text, src.caret)
	}
	if h.Redo() {
		t.Error("expected nothing more to redo")
	}
}

func TestRestoreSideEffectsAreNotEdits(t *testing.T) {
	log := &recordLogger{}
	h, src, _ := newTestHistory(t, WithLogger(log))
	src.text = "a"
	h.ForceCheckpoint()
	src.text = "ab"
	src.drift = "!"

	if !h.Undo() {
		t.Fatal("expected undo to apply")
	}
	if src.text != "a!" {
		t.Errorf("expected %q, got %q", "a!", src.text)
	}
	if h.RedoCount() != 1 {
		t.Errorf("expected 1 redo entry, got %d", h.RedoCount())
	}
	if len(log.warnings) == 0 {
		t.Error("expected a warning about the restored state")
	}

	if !h.Undo() {
		t.Fatal("expected undo to reach the pristine state")
	}
	if src.text != "" {
		t.Errorf("expected pristine text, got %q", src.text)
	}
	if h.Undo() {
		t.Error("expected undo past pristine to be a no-op")
	}
	if !h.Redo() {
		t.Fatal("expected redo to apply")
	}
	if h.RedoCount() != 1 {
		t.Errorf("expected the first undone entry to stay on the redo stack, got %d", h.RedoCount())
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	h, src, _ := newTestHistory(t)
	src.text = "a"
	h.ForceCheckpoint()
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected redo to be available")
	}
	src.text = "b"
	if h.Redo() {
		t.Error("expected redo after a new edit to be a no-op")
	}
	if src.text != "b" {
		t.Errorf("expected new edit kept, got %q", src.text)
	}
}

func TestCaptureDedupes(t *testing.T) {
	h, src, _ := newTestHistory(t)
	src.text = "a"
	if !h.ForceCheckpoint() {
		t.Fatal("expected first capture to push")
	}
	src.caret = 1
	if h.ForceCheckpoint() {
		t.Error("expected unchanged content not to push")
	}
	if h.UndoCount() != 2 {
		t.Errorf("expected 2 entries, got %d", h.UndoCount())
	}
}

func TestHistoryBound(t *testing.T) {
	h, src, _ := newTestHistory(t)
	pristine := h.Pristine()
	for i := range 60 {
		src.text = fmt.Sprintf("edit %d", i)
		h.ForceCheckpoint()
	}
	if h.UndoCount() != DefaultMaxEntries {
		t.Errorf("expected %d entries, got %d", DefaultMaxEntries, h.UndoCount())
	}
	if h.Pristine() != pristine {
		t.Error("expected pristine state to stay the oldest entry")
	}
	for h.Undo() {
	}
	if src.text != "" {
		t.Errorf("expected undo to reach pristine, got %q", src.text)
	}
}

func TestSetMaxEntries(t *testing.T) {
	h, src, _ := newTestHistory(t)
	for i := range 5 {
		src.text = strconv.Itoa(i)
		h.ForceCheckpoint()
	}
	h.SetMaxEntries(3)
	if h.UndoCount() != 3 || h.MaxEntries() != 3 {
		t.Errorf("expected 3 entries, got %d", h.UndoCount())
	}
	if string(h.Pristine().Document) == "" || gjson.GetBytes(h.Pristine().Document, "pages.p1.text").String() != "" {
		t.Error("expected pristine entry kept")
	}
}

// ============================================================================
// Debounce
// ============================================================================

func TestMarkCheckpointDebounces(t *testing.T) {
	h, src, clock := newTestHistory(t)

	src.text = "h"
	h.MarkCheckpoint()
	clock.Advance(300 * time.Millisecond)
	src.text = "he"
	h.MarkCheckpoint()
	clock.Advance(300 * time.Millisecond)
	if h.UndoCount() != 1 {
		t.Fatalf("expected no capture inside the window, got %d entries", h.UndoCount())
	}
	if !h.Stats().Pending {
		t.Error("expected a pending capture")
	}
	src.text = "hel"
	clock.Advance(200 * time.Millisecond)
	if h.UndoCount() != 2 {
		t.Fatalf("expected one coalesced capture, got %d entries", h.UndoCount())
	}
	if h.Stats().Pending {
		t.Error("expected no pending capture")
	}
	h.Undo()
	if src.text != "" {
		t.Errorf("expected burst to undo as one step, got %q", src.text)
	}
}

func TestForceCheckpointCancelsPending(t *testing.T) {
	h, src, clock := newTestHistory(t)
	src.text = "a"
	h.MarkCheckpoint()
	h.ForceCheckpoint()
	src.text = "ab"
	clock.Advance(time.Second)
	if h.UndoCount() != 2 {
		t.Errorf("expected stale timer not to capture, got %d entries", h.UndoCount())
	}
}

func TestUndoFlushesPending(t *testing.T) {
	h, src, _ := newTestHistory(t)
	src.text = "typed"
	h.MarkCheckpoint()
	if !h.Undo() {
		t.Fatal("expected pending edit to be undoable")
	}
	if src.text != "" {
		t.Errorf("expected pristine text, got %q", src.text)
	}
	if !h.Redo() || src.text != "typed" {
		t.Errorf("expected redo to bring back the edit, got %q", src.text)
	}
}

func TestGuardWrapsTimerCallback(t *testing.T) {
	calls := 0
	h, src, clock := newTestHistory(t, WithGuard(func(f func()) {
		calls++
		f()
	}))
	src.text = "x"
	h.MarkCheckpoint()
	clock.Advance(DefaultDelay)
	if calls != 1 || h.UndoCount() != 2 {
		t.Errorf("expected guarded capture, got %d calls and %d entries", calls, h.UndoCount())
	}
}

// ============================================================================
// Applying and corruption
// ============================================================================

func TestCaptureSuppressedWhileApplying(t *testing.T) {
	h, src, _ := newTestHistory(t)
	src.text = "a"
	h.ForceCheckpoint()
	src.reenter = true

	if !h.Undo() {
		t.Fatal("expected undo to apply")
	}
	if h.UndoCount() != 1 || h.RedoCount() != 1 {
		t.Errorf("expected restore not to capture, got %+v", h.Stats())
	}
	if h.Stats().Pending {
		t.Error("expected checkpoint request during restore to be ignored")
	}
}

func TestCorruptSnapshotSkipped(t *testing.T) {
	log := &recordLogger{}
	h, src, _ := newTestHistory(t, WithLogger(log))
	src.text, src.corrupt = "a", true
	h.ForceCheckpoint()
	src.text, src.corrupt = "b", false
	h.ForceCheckpoint()

	if !h.Undo() {
		t.Fatal("expected undo to fall back to an older entry")
	}
	if src.text != "" {
		t.Errorf("expected pristine text, got %q", src.text)
	}
	if len(log.warnings) != 1 {
		t.Errorf("expected one warning, got %v", log.warnings)
	}
	if h.UndoCount() != 1 {
		t.Errorf("expected corrupt entry dropped, got %d entries", h.UndoCount())
	}
}

func TestFailedRestoreKeepsState(t *testing.T) {
	log := &recordLogger{}
	h, src, _ := newTestHistory(t, WithLogger(log))
	src.refuse = map[string]bool{"": true}
	src.text = "only"
	h.ForceCheckpoint()

	if h.Undo() {
		t.Error("expected undo to fail when nothing can be applied")
	}
	if src.text != "only" {
		t.Errorf("expected current state kept, got %q", src.text)
	}
	if h.UndoCount() != 1 {
		t.Errorf("expected current state to become pristine, got %d entries", h.UndoCount())
	}
	if len(log.warnings) == 0 {
		t.Error("expected a warning")
	}
}

func TestSnapshotValidate(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		ok   bool
	}{
		{"valid", Snapshot{Document: []byte(`{"order":[],"pages":{}}`), Comments: []byte(`[]`)}, true},
		{"no selection", Snapshot{Document: []byte(`{"order":["a"],"pages":{"a":{}}}`)}, true},
		{"truncated", Snapshot{Document: []byte(`{"order":`)}, false},
		{"no pages", Snapshot{Document: []byte(`{"order":[]}`)}, false},
		{"bad selection", Snapshot{Document: []byte(`{"order":[],"pages":{}}`), Selection: []byte(`{`)}, false},
		{"comments object", Snapshot{Document: []byte(`{"order":[],"pages":{}}`), Comments: []byte(`{}`)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snap.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, expected ok=%v", err, tt.ok)
			}
			if err != nil && !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("expected ErrCorruptSnapshot, got %v", err)
			}
		})
	}
}

func TestFingerprintIgnoresSelection(t *testing.T) {
	a := &Snapshot{Document: []byte(`{"x":1}`), Selection: []byte(`1`)}
	b := &Snapshot{Document: []byte(`{"x":1}`), Selection: []byte(`2`)}
	c := &Snapshot{Document: []byte(`{"x":2}`)}
	a.seal()
	b.seal()
	c.seal()
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("expected selection not to affect the fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("expected content to affect the fingerprint")
	}
}

// ============================================================================
// Transactions and notifications
// ============================================================================

func TestTransactionIsOneStep(t *testing.T) {
	h, src, _ := newTestHistory(t)
	src.text = "typed"
	h.MarkCheckpoint()

	err := h.Transaction(func() error {
		src.text = "typed\n- item"
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	h.Undo()
	if src.text != "typed" {
		t.Errorf("expected transaction undone alone, got %q", src.text)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	h, src, _ := newTestHistory(t)
	cp := h.CreateCheckpoint()
	for _, text := range []string{"a", "b", "c"} {
		src.text = text
		h.ForceCheckpoint()
	}
	if err := h.UndoToCheckpoint(cp); err != nil {
		t.Fatal(err)
	}
	if src.text != "" {
		t.Errorf("expected pristine text, got %q", src.text)
	}
	if err := h.RedoToCheckpoint(Checkpoint{undoDepth: 4}); err != nil {
		t.Fatal(err)
	}
	if src.text != "c" {
		t.Errorf("expected %q, got %q", "c", src.text)
	}
}

func TestOnChange(t *testing.T) {
	var seen []Stats
	h, src, _ := newTestHistory(t, WithOnChange(func(s Stats) { seen = append(seen, s) }))
	seen = nil
	src.text = "a"
	h.ForceCheckpoint()
	h.Undo()
	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[1].UndoDepth != 1 || seen[1].RedoDepth != 1 {
		t.Errorf("unexpected stats %+v", seen[1])
	}
}
