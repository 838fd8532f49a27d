package event

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/quire/internal/event/topic"
)

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithPanicHandler sets a callback for recovered handler panics.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(b *Bus) {
		b.panicHandler = h
	}
}

// Bus delivers events synchronously to subscribed handlers.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription
	seq  uint64

	paused       atomic.Bool
	panicHandler PanicHandler

	// Stats
	eventsPublished  atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Pause temporarily stops event delivery. Events published while paused
// are dropped.
func (b *Bus) Pause() {
	b.paused.Store(true)
}

// Resume restarts event delivery after a pause.
func (b *Bus) Resume() {
	b.paused.Store(false)
}

// IsPaused returns true if the bus is paused.
func (b *Bus) IsPaused() bool {
	return b.paused.Load()
}

// Subscribe registers handler for events whose topic matches pattern.
// Handlers run by priority, then in subscription order.
func (b *Bus) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	cfg := SubscriptionConfig{Priority: PriorityNormal}
	for _, opt := range opts {
		opt(&cfg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	sub := &Subscription{id: uuid.NewString(), pattern: pattern, handler: handler, config: cfg, seq: b.seq}
	b.subs = append(b.subs, sub)
	slices.SortStableFunc(b.subs, func(x, y *Subscription) int {
		if c := cmp.Compare(x.config.Priority, y.config.Priority); c != 0 {
			return c
		}
		return cmp.Compare(x.seq, y.seq)
	})
	return sub, nil
}

// SubscribeFunc is a convenience method for subscribing with a function handler.
func (b *Bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (*Subscription, error) {
	return b.Subscribe(pattern, fn, opts...)
}

// Subscribe registers a typed handler. Events with other payload types on
// matching topics are skipped.
func Subscribe[T any](b *Bus, pattern topic.Topic, fn TypedHandlerFunc[T], opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, AsHandler(fn), opts...)
}

// SubscribePayload registers a handler that only needs the payload.
func SubscribePayload[T any](b *Bus, pattern topic.Topic, fn func(ctx context.Context, payload T) error, opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return Subscribe(b, pattern, func(ctx context.Context, e Event[T]) error {
		return fn(ctx, e.Payload)
	}, opts...)
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}
	sub.Cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.Index(b.subs, sub)
	if i < 0 {
		return ErrSubscriptionNotFound
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	return nil
}

// Publish delivers event to every matching handler before returning.
// Handler failures do not stop delivery; they are returned joined.
func (b *Bus) Publish(ctx context.Context, event any) error {
	tp, ok := event.(TopicProvider)
	if !ok || tp.EventTopic() == "" {
		return ErrInvalidEvent
	}
	if b.paused.Load() {
		return nil
	}
	t := tp.EventTopic()
	b.eventsPublished.Add(1)

	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if !sub.shouldDeliver(t, event) {
			continue
		}
		err := b.dispatch(ctx, sub, t, event)
		b.handlersExecuted.Add(1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if sub.config.Once {
			_ = b.Unsubscribe(sub)
		}
	}
	return errors.Join(errs...)
}

// dispatch runs one handler, turning a panic into a PanicError.
func (b *Bus) dispatch(ctx context.Context, sub *Subscription, t topic.Topic, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			if b.panicHandler != nil {
				b.panicHandler(event, r)
			}
			err = &PanicError{SubscriptionID: sub.id, Topic: t.String(), Value: r, Stack: string(debug.Stack())}
		}
	}()
	if herr := sub.handler.Handle(ctx, event); herr != nil {
		b.handlerErrors.Add(1)
		return &HandlerError{SubscriptionID: sub.id, Topic: t.String(), Err: herr}
	}
	return nil
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	active := 0
	for _, s := range b.subs {
		if s.IsActive() {
			active++
		}
	}
	b.mu.RUnlock()

	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		HandlersExecuted:  b.handlersExecuted.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		ActiveSubscribers: active,
	}
}
