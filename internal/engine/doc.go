// Package engine provides the editing core of quire: a paginated rich-text
// document with nested lists, comments and undo.
//
// # Architecture
//
// The Engine type is a facade over the component packages:
//
//	engine/
//	├── document/   Arena of pages, blocks and list nodes; inline runs
//	├── selection/  Two-endpoint selection (block id + byte offset)
//	├── measure/    Text measurement surfaces (fixed, opentype, canvas)
//	├── paginate/   Reflow and page merging
//	├── lists/      Nested list structure and markers
//	├── annotate/   Comments anchored by markers, with reconciliation
//	└── history/    Debounced snapshot undo/redo
//
// Every mutating operation takes the Selection it applies to and returns
// the updated one. Operations either apply fully or return an error
// before anything is changed; structural no-ops report false.
//
// # Notifications
//
// A mutation publishes content.changed on an internal bus while the engine
// is locked. Pagination, annotation and history subscribe to it in that
// order, so reconciliation and checkpoints see the laid out document. Every
// notification is then delivered to the public Bus once the engine is
// unlocked:
//
//	e, _ := engine.New(engine.WithText(text))
//	event.SubscribePayload(e.Bus(), events.TopicPaginationChanged,
//	    func(ctx context.Context, p events.PaginationChanged) error {
//	        fmt.Println("pages:", p.PageCount)
//	        return nil
//	    })
//
// Subscribers on the public bus may call back into the Engine.
//
// # Undo
//
// Edits request a debounced checkpoint; structural operations (lists,
// tables, links, geometry) are single undo steps of their own. Undo and
// Redo restore content, list trees and comments together with the
// selection. Comment thread changes are undo steps too.
//
// # Thread Safety
//
// All Engine methods are safe for concurrent use. The debounce timer runs
// its capture under the same lock.
package engine
