package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/quire/internal/event/events"
)

// Metrics counts engine notifications and times application operations.
type Metrics struct {
	// Content changes by origin
	edits      atomic.Uint64
	structural atomic.Uint64
	restores   atomic.Uint64
	merges     atomic.Uint64

	// Pagination
	reflows      atomic.Uint64
	pagesCreated atomic.Uint64
	pageCount    atomic.Int64

	// History
	historyChanges atomic.Uint64
	undoDepth      atomic.Int64
	redoDepth      atomic.Int64

	// Comments
	comments atomic.Int64
	orphaned atomic.Int64

	settingsChanges atomic.Uint64

	// Operation timing
	opCount   atomic.Uint64
	opTotalNs atomic.Int64
	opMinNs   atomic.Int64
	opMaxNs   atomic.Int64
	lastOpNs  atomic.Int64

	mu        sync.RWMutex
	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
	}
	// Initialize min to max int64 so the first operation will be smaller
	m.opMinNs.Store(1<<63 - 1)
	return m
}

// RecordContent counts a content.changed notification.
func (m *Metrics) RecordContent(c events.ContentChanged) {
	switch c.Origin {
	case events.OriginHistory:
		m.restores.Add(1)
	case events.OriginMerge:
		m.merges.Add(1)
	default:
		m.edits.Add(1)
	}
	if c.Structural {
		m.structural.Add(1)
	}
}

// RecordPagination counts a pagination.changed notification.
func (m *Metrics) RecordPagination(p events.PaginationChanged) {
	m.reflows.Add(1)
	m.pagesCreated.Add(uint64(len(p.Created)))
	m.pageCount.Store(int64(p.PageCount))
}

// RecordHistory records the stack depths of a history.changed
// notification.
func (m *Metrics) RecordHistory(h events.HistoryChanged) {
	m.historyChanges.Add(1)
	m.undoDepth.Store(int64(h.UndoDepth))
	m.redoDepth.Store(int64(h.RedoDepth))
}

// RecordComments records the counts of a comments.changed notification.
func (m *Metrics) RecordComments(c events.CommentsChanged) {
	m.comments.Store(int64(c.Count))
	m.orphaned.Store(int64(c.Orphaned))
}

// RecordSettings counts a settings.changed notification.
func (m *Metrics) RecordSettings(events.SettingsChanged) {
	m.settingsChanges.Add(1)
}

// RecordOperation records the duration of an application operation such
// as loading a document or applying settings.
func (m *Metrics) RecordOperation(duration time.Duration) {
	ns := duration.Nanoseconds()

	m.opCount.Add(1)
	m.opTotalNs.Add(ns)
	m.lastOpNs.Store(ns)

	// Update min (atomic compare-and-swap loop)
	for {
		old := m.opMinNs.Load()
		if ns >= old {
			break
		}
		if m.opMinNs.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (atomic compare-and-swap loop)
	for {
		old := m.opMaxNs.Load()
		if ns <= old {
			break
		}
		if m.opMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	opCount := m.opCount.Load()

	var avgOpNs int64
	if opCount > 0 {
		avgOpNs = m.opTotalNs.Load() / int64(opCount)
	}

	minOpNs := m.opMinNs.Load()
	if minOpNs == 1<<63-1 {
		minOpNs = 0
	}

	m.mu.RLock()
	start := m.startTime
	m.mu.RUnlock()

	return MetricsSnapshot{
		Uptime:          time.Since(start),
		Edits:           m.edits.Load(),
		Structural:      m.structural.Load(),
		Restores:        m.restores.Load(),
		Merges:          m.merges.Load(),
		Reflows:         m.reflows.Load(),
		PagesCreated:    m.pagesCreated.Load(),
		PageCount:       int(m.pageCount.Load()),
		HistoryChanges:  m.historyChanges.Load(),
		UndoDepth:       int(m.undoDepth.Load()),
		RedoDepth:       int(m.redoDepth.Load()),
		Comments:        int(m.comments.Load()),
		Orphaned:        int(m.orphaned.Load()),
		SettingsChanges: m.settingsChanges.Load(),
		OpCount:         opCount,
		AvgOpNs:         avgOpNs,
		MinOpNs:         minOpNs,
		MaxOpNs:         m.opMaxNs.Load(),
		LastOpNs:        m.lastOpNs.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.edits.Store(0)
	m.structural.Store(0)
	m.restores.Store(0)
	m.merges.Store(0)
	m.reflows.Store(0)
	m.pagesCreated.Store(0)
	m.pageCount.Store(0)
	m.historyChanges.Store(0)
	m.undoDepth.Store(0)
	m.redoDepth.Store(0)
	m.comments.Store(0)
	m.orphaned.Store(0)
	m.settingsChanges.Store(0)
	m.opCount.Store(0)
	m.opTotalNs.Store(0)
	m.opMinNs.Store(1<<63 - 1)
	m.opMaxNs.Store(0)
	m.lastOpNs.Store(0)

	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime time.Duration

	Edits      uint64
	Structural uint64
	Restores   uint64
	Merges     uint64

	Reflows      uint64
	PagesCreated uint64
	PageCount    int

	HistoryChanges uint64
	UndoDepth      int
	RedoDepth      int

	Comments int
	Orphaned int

	SettingsChanges uint64

	OpCount  uint64
	AvgOpNs  int64
	MinOpNs  int64
	MaxOpNs  int64
	LastOpNs int64
}

// Changes returns the number of content changes of any origin.
func (s MetricsSnapshot) Changes() uint64 {
	return s.Edits + s.Restores + s.Merges
}

// AvgOp returns the average operation duration.
func (s MetricsSnapshot) AvgOp() time.Duration {
	return time.Duration(s.AvgOpNs)
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ElapsedMs returns the elapsed time in milliseconds.
func (t *Timer) ElapsedMs() float64 {
	return float64(t.Elapsed().Nanoseconds()) / 1e6
}

// Stop returns the elapsed time and resets the timer.
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	t.start = time.Now()
	return elapsed
}

// Metrics returns the application's metrics.
func (app *Application) Metrics() MetricsSnapshot {
	return app.metrics.Snapshot()
}
