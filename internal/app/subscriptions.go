package app

import (
	"context"
	"sync"

	"github.com/dshills/quire/internal/event"
	"github.com/dshills/quire/internal/event/events"
)

// subscriptionManager manages event bus subscriptions for the application.
type subscriptionManager struct {
	mu            sync.Mutex
	subscriptions []*event.Subscription
	app           *Application
}

// newSubscriptionManager creates a new subscription manager.
func newSubscriptionManager(app *Application) *subscriptionManager {
	return &subscriptionManager{app: app}
}

// setupSubscriptions registers the metrics and logging subscriptions.
// They run after any UI subscriber.
func (sm *subscriptionManager) setupSubscriptions() error {
	bus := sm.app.bus
	log := sm.app.Logger().WithComponent("events")
	m := sm.app.metrics
	low := event.WithPriority(event.PriorityLow)

	subscribe := func(sub *event.Subscription, err error) error {
		if err != nil {
			return err
		}
		sm.addSubscription(sub)
		return nil
	}

	if err := subscribe(event.SubscribePayload(bus, events.TopicContentChanged,
		func(_ context.Context, c events.ContentChanged) error {
			m.RecordContent(c)
			log.Debug("content %s (%s) on %d pages", c.Op, c.Origin, len(c.Pages))
			return nil
		}, low)); err != nil {
		return err
	}

	if err := subscribe(event.SubscribePayload(bus, events.TopicPaginationChanged,
		func(_ context.Context, p events.PaginationChanged) error {
			m.RecordPagination(p)
			log.Debug("reflow moved %d pages, created %d, total %d", len(p.Pages), len(p.Created), p.PageCount)
			return nil
		}, low)); err != nil {
		return err
	}

	if err := subscribe(event.SubscribePayload(bus, events.TopicHistoryChanged,
		func(_ context.Context, h events.HistoryChanged) error {
			m.RecordHistory(h)
			return nil
		}, low)); err != nil {
		return err
	}

	if err := subscribe(event.SubscribePayload(bus, events.TopicCommentsChanged,
		func(_ context.Context, c events.CommentsChanged) error {
			m.RecordComments(c)
			if c.Orphaned > 0 {
				log.Debug("%d of %d comments orphaned", c.Orphaned, c.Count)
			}
			return nil
		}, low)); err != nil {
		return err
	}

	return subscribe(event.SubscribePayload(bus, events.TopicSettingsChanged,
		func(_ context.Context, s events.SettingsChanged) error {
			m.RecordSettings(s)
			log.Info("settings changed: %s (reloaded=%t)", s.Path, s.Reloaded)
			return nil
		}, low))
}

// addSubscription adds a subscription to the managed list.
func (sm *subscriptionManager) addSubscription(sub *event.Subscription) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.subscriptions = append(sm.subscriptions, sub)
}

// unsubscribeAll removes all managed subscriptions.
func (sm *subscriptionManager) unsubscribeAll() {
	sm.mu.Lock()
	subs := sm.subscriptions
	sm.subscriptions = nil
	sm.mu.Unlock()

	for _, sub := range subs {
		_ = sm.app.bus.Unsubscribe(sub)
	}
}

// count returns the number of managed subscriptions.
func (sm *subscriptionManager) count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.subscriptions)
}
