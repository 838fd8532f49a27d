// Package events defines the typed payloads published by the editing
// engine.
//
// Each notification has a topic constant and a payload struct:
//
//	evt := event.NewEvent(events.TopicContentChanged,
//	    events.ContentChanged{Origin: events.OriginEdit, Op: "insert-text", Pages: []string{pid}},
//	    "engine",
//	)
//	bus.Publish(ctx, evt)
//
// Subscribers use wildcards to follow several topics, for example
// "*.changed" for every engine notification.
package events
