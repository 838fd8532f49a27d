// Package watcher provides file watching for settings live reload.
//
// The watcher subscribes to the directories of the watched files through
// fsnotify, so files replaced by rename (the way most editors save) keep
// being observed. Bursts of events for one file are coalesced and delivered
// once the file has been quiet for the debounce interval.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned when using a closed watcher.
var ErrClosed = errors.New("watcher closed")

// Event represents a file change event.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Op is the operation that triggered the event.
	Op Operation

	// Time is when the last coalesced event occurred.
	Time time.Time
}

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates a new file was created.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed away.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called when a file change is detected.
type Handler func(event Event)

// Watcher monitors files for changes.
type Watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]int
	handlers []Handler
	onError  func(error)

	debounce time.Duration
	pending  map[string]Event
	timer    *time.Timer

	closeCh chan struct{}
	wg      sync.WaitGroup
	running bool
	closed  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before an event is delivered. Zero
// delivers every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler receives errors reported by the underlying watcher.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a watcher. Call Start to begin delivering events.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fs:       fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		debounce: 100 * time.Millisecond,
		pending:  make(map[string]Event),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch adds a file to the watch list. The file need not exist yet, but
// its directory must.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.files[abs] {
		return nil
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = true
	return nil
}

// Unwatch removes a file from the watch list.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.files[abs] {
		return nil
	}
	delete(w.files, abs)
	delete(w.pending, abs)
	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if !w.closed {
			return w.fs.Remove(dir)
		}
	}
	return nil
}

// WatchedFiles returns the watched files.
func (w *Watcher) WatchedFiles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	return out
}

// OnChange registers a handler for file change events.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins delivering events.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.closed {
		return
	}
	w.running = true
	w.wg.Add(1)
	go w.loop()
}

// IsRunning returns whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Close stops the watcher. Pending events are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	clear(w.pending)
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func convertOp(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

func (w *Watcher) handle(fe fsnotify.Event) {
	op, ok := convertOp(fe.Op)
	if !ok {
		return
	}
	path := filepath.Clean(fe.Name)

	w.mu.Lock()
	if !w.files[path] || w.closed {
		w.mu.Unlock()
		return
	}
	ev := Event{Path: path, Op: op, Time: time.Now()}
	if w.debounce == 0 {
		w.mu.Unlock()
		w.emit(ev)
		return
	}
	w.queue(ev)
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
	w.mu.Unlock()
}

// queue coalesces ev into the pending event for its file. A write keeps
// the earlier operation; a create after a remove or rename reports a write.
func (w *Watcher) queue(ev Event) {
	prev, ok := w.pending[ev.Path]
	if !ok {
		w.pending[ev.Path] = ev
		return
	}
	switch ev.Op {
	case OpWrite:
		if prev.Op == OpCreate {
			ev.Op = OpCreate
		} else if prev.Op != OpWrite {
			ev.Op = prev.Op
		}
	case OpCreate:
		if prev.Op == OpRemove || prev.Op == OpRename {
			ev.Op = OpWrite
		}
	}
	w.pending[ev.Path] = ev
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	events := make([]Event, 0, len(w.pending))
	for _, ev := range w.pending {
		events = append(events, ev)
	}
	clear(w.pending)
	w.mu.Unlock()

	for _, ev := range events {
		w.emit(ev)
	}
}

func (w *Watcher) emit(ev Event) {
	w.mu.Lock()
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	for _, h := range handlers {
		safeCallHandler(h, ev)
	}
}

func safeCallHandler(h Handler, ev Event) {
	defer func() {
		// Recover from panics to keep the watcher running
		_ = recover()
	}()
	h(ev)
}
