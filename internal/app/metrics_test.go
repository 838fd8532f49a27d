package app

import (
	"testing"
	"time"

	"github.com/dshills/quire/internal/event/events"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics() returned nil")
	}

	snapshot := m.Snapshot()
	if snapshot.OpCount != 0 {
		t.Errorf("expected 0 operations, got %d", snapshot.OpCount)
	}
	if snapshot.MinOpNs != 0 {
		t.Errorf("expected 0 min op time (sentinel handled), got %d", snapshot.MinOpNs)
	}
}

func TestMetrics_RecordContent(t *testing.T) {
	tests := []struct {
		name       string
		change     events.ContentChanged
		edits      uint64
		restores   uint64
		merges     uint64
		structural uint64
	}{
		{"edit", events.ContentChanged{Origin: events.OriginEdit}, 1, 0, 0, 0},
		{"structural edit", events.ContentChanged{Origin: events.OriginEdit, Structural: true}, 1, 0, 0, 1},
		{"undo", events.ContentChanged{Origin: events.OriginHistory, Structural: true}, 0, 1, 0, 1},
		{"merge", events.ContentChanged{Origin: events.OriginMerge}, 0, 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetrics()
			m.RecordContent(tt.change)

			s := m.Snapshot()
			if s.Edits != tt.edits || s.Restores != tt.restores || s.Merges != tt.merges {
				t.Errorf("expected edits/restores/merges %d/%d/%d, got %d/%d/%d",
					tt.edits, tt.restores, tt.merges, s.Edits, s.Restores, s.Merges)
			}
			if s.Structural != tt.structural {
				t.Errorf("expected structural %d, got %d", tt.structural, s.Structural)
			}
			if s.Changes() != 1 {
				t.Errorf("expected 1 change, got %d", s.Changes())
			}
		})
	}
}

func TestMetrics_RecordPagination(t *testing.T) {
	m := NewMetrics()

	m.RecordPagination(events.PaginationChanged{Pages: []string{"p1"}, Created: []string{"p2"}, PageCount: 2})
	m.RecordPagination(events.PaginationChanged{Pages: []string{"p2"}, Created: []string{"p3", "p4"}, PageCount: 4})

	s := m.Snapshot()
	if s.Reflows != 2 {
		t.Errorf("expected 2 reflows, got %d", s.Reflows)
	}
	if s.PagesCreated != 3 {
		t.Errorf("expected 3 pages created, got %d", s.PagesCreated)
	}
	if s.PageCount != 4 {
		t.Errorf("expected page count 4, got %d", s.PageCount)
	}
}

func TestMetrics_RecordHistoryAndComments(t *testing.T) {
	m := NewMetrics()

	m.RecordHistory(events.HistoryChanged{UndoDepth: 3, RedoDepth: 1})
	m.RecordComments(events.CommentsChanged{Count: 2, Orphaned: 1})
	m.RecordSettings(events.SettingsChanged{Path: "settings.toml"})

	s := m.Snapshot()
	if s.HistoryChanges != 1 || s.UndoDepth != 3 || s.RedoDepth != 1 {
		t.Errorf("expected history 1 change at 3/1, got %d at %d/%d", s.HistoryChanges, s.UndoDepth, s.RedoDepth)
	}
	if s.Comments != 2 || s.Orphaned != 1 {
		t.Errorf("expected 2 comments with 1 orphaned, got %d with %d", s.Comments, s.Orphaned)
	}
	if s.SettingsChanges != 1 {
		t.Errorf("expected 1 settings change, got %d", s.SettingsChanges)
	}
}

func TestMetrics_RecordOperation(t *testing.T) {
	m := NewMetrics()

	m.RecordOperation(10 * time.Millisecond)
	m.RecordOperation(20 * time.Millisecond)
	m.RecordOperation(6 * time.Millisecond)

	s := m.Snapshot()
	if s.OpCount != 3 {
		t.Errorf("expected 3 operations, got %d", s.OpCount)
	}
	if s.MinOpNs != int64(6*time.Millisecond) {
		t.Errorf("expected min 6ms, got %d ns", s.MinOpNs)
	}
	if s.MaxOpNs != int64(20*time.Millisecond) {
		t.Errorf("expected max 20ms, got %d ns", s.MaxOpNs)
	}
	if s.LastOpNs != int64(6*time.Millisecond) {
		t.Errorf("expected last 6ms, got %d ns", s.LastOpNs)
	}
	if s.AvgOp() != 12*time.Millisecond {
		t.Errorf("expected avg 12ms, got %v", s.AvgOp())
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.RecordContent(events.ContentChanged{Origin: events.OriginEdit})
	m.RecordOperation(time.Millisecond)

	m.Reset()

	s := m.Snapshot()
	if s.Edits != 0 || s.OpCount != 0 || s.MinOpNs != 0 {
		t.Errorf("expected zeroed metrics, got %+v", s)
	}
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(5 * time.Millisecond)

	if timer.Elapsed() < 5*time.Millisecond {
		t.Errorf("expected at least 5ms elapsed, got %v", timer.Elapsed())
	}
	if timer.ElapsedMs() < 5 {
		t.Errorf("expected at least 5ms, got %f", timer.ElapsedMs())
	}

	first := timer.Stop()
	if first < 5*time.Millisecond {
		t.Errorf("expected Stop to return at least 5ms, got %v", first)
	}
}
