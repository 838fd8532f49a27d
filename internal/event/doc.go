// Package event provides the notification bus of the editing engine.
//
// Engine operations publish typed events after they mutate the document;
// the pagination, list, annotation and history engines and any UI layer
// subscribe to them. Delivery is synchronous: Publish returns after every
// matching handler has run, in priority order, on the publishing goroutine.
//
// # Topics
//
// Events use dot separated topics (see package topic), and subscriptions
// may use wildcard patterns:
//
//	content.changed    document content was mutated
//	*.changed          every engine notification
//
// # Typed Handlers
//
// Payloads are carried in Event[T]. Subscribe adapts a typed handler so it
// only sees events with a matching payload type:
//
//	event.Subscribe(bus, events.TopicContentChanged,
//	    func(ctx context.Context, e event.Event[events.ContentChanged]) error {
//	        return reflow(e.Payload.Pages)
//	    })
//
// # Failures
//
// A handler error or panic never stops delivery to the other handlers.
// Publish reports them joined, each wrapped in a HandlerError or
// PanicError.
package event
