// Package events provides event bus infrastructure for decoupled,
// event-driven communication between modules.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"reassessment_tracker/platform/logger"

	"github.com/google/uuid"
)

// InMemoryBus is a process-local Bus implementation. Subscriptions are
// registered at startup; publishing is safe for concurrent use.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers asynchronously.
// Handler errors are logged, not returned.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	ctx = withEventID(ctx)
	for _, h := range b.handlersFor(event.EventName()) {
		go func(h Handler) {
			if err := h.Handle(ctx, event); err != nil {
				b.log.WithContext(ctx).Error("event handler failed",
					"event", event.EventName(),
					"error", err,
				)
			}
		}(h)
	}
}

// PublishSync dispatches the event to all handlers in registration order
// and returns the combined handler errors, if any.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	ctx = withEventID(ctx)
	var errs []error
	for _, h := range b.handlersFor(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", event.EventName(), err))
		}
	}
	return errors.Join(errs...)
}

// withEventID tags the dispatch with an id that handlers pick up via
// logger.WithContext, correlating every log line of one delivery.
func withEventID(ctx context.Context) context.Context {
	if id, ok := ctx.Value(logger.EventIDKey).(string); ok && id != "" {
		return ctx
	}
	return context.WithValue(ctx, logger.EventIDKey, uuid.NewString())
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handlers[eventName]
}

var _ Bus = (*InMemoryBus)(nil)
