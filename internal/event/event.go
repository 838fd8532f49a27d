package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/quire/internal/event/topic"
)

// Event represents an event in the system.
// Events are immutable once created.
type Event[T any] struct {
	// Type is the event topic (e.g., "content.changed").
	Type topic.Topic

	// Payload contains the event-specific data.
	Payload T

	// Metadata contains standard event information.
	Metadata Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string

	// CausationID links to the event that caused this one.
	CausationID string
}

// NewEvent creates a new event with the given type and payload.
func NewEvent[T any](eventType topic.Topic, payload T, source string) Event[T] {
	return Event[T]{
		Type:    eventType,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// EventTopic returns the event's topic for type-erased handling.
func (e Event[T]) EventTopic() topic.Topic {
	return e.Type
}

// EventMetadata returns the event's metadata for type-erased handling.
func (e Event[T]) EventMetadata() Metadata {
	return e.Metadata
}

// WithCausation returns a copy of the event with a causation ID set.
func (e Event[T]) WithCausation(causationID string) Event[T] {
	e.Metadata.CausationID = causationID
	return e
}

// TopicProvider is implemented by types that can provide their topic.
type TopicProvider interface {
	EventTopic() topic.Topic
}

// MetadataProvider is implemented by types that can provide their metadata.
type MetadataProvider interface {
	EventMetadata() Metadata
}
