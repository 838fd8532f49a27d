package event

import (
	"testing"

	"github.com/dshills/quire/internal/event/topic"
)

type testPayload struct {
	Value string
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(topic.Topic("content.changed"), testPayload{Value: "x"}, "engine")

	if e.Type != "content.changed" {
		t.Errorf("expected topic content.changed, got %s", e.Type)
	}
	if e.Payload.Value != "x" {
		t.Errorf("expected payload x, got %s", e.Payload.Value)
	}
	if e.Metadata.ID == "" {
		t.Error("expected an id")
	}
	if e.Metadata.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
	if e.Metadata.Source != "engine" {
		t.Errorf("expected source engine, got %s", e.Metadata.Source)
	}
}

func TestEvent_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		e := NewEvent(topic.Topic("a.b"), testPayload{}, "test")
		if seen[e.Metadata.ID] {
			t.Fatalf("duplicate id %s", e.Metadata.ID)
		}
		seen[e.Metadata.ID] = true
	}
}

func TestEvent_Providers(t *testing.T) {
	e := NewEvent(topic.Topic("history.changed"), testPayload{}, "history")
	var anyEvent any = e

	tp, ok := anyEvent.(TopicProvider)
	if !ok || tp.EventTopic() != "history.changed" {
		t.Error("expected Event to provide its topic")
	}
	mp, ok := anyEvent.(MetadataProvider)
	if !ok || mp.EventMetadata().ID != e.Metadata.ID {
		t.Error("expected Event to provide its metadata")
	}
}

func TestEvent_WithCausation(t *testing.T) {
	cause := NewEvent(topic.Topic("content.changed"), testPayload{}, "engine")
	e := NewEvent(topic.Topic("pagination.changed"), testPayload{}, "paginate").WithCausation(cause.Metadata.ID)
	if e.Metadata.CausationID != cause.Metadata.ID {
		t.Errorf("expected causation %s, got %s", cause.Metadata.ID, e.Metadata.CausationID)
	}
}

func TestPriority_String(t *testing.T) {
	tests := []struct {
		p    Priority
		want string
	}{
		{PriorityCritical, "critical"},
		{PriorityHigh, "high"},
		{PriorityNormal, "normal"},
		{PriorityLow, "low"},
		{150, "normal"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Priority(%d).String() = %s, want %s", tt.p, got, tt.want)
		}
	}
}
