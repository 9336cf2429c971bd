package events

import (
	"context"
	"errors"
	"testing"

	"reassessment_tracker/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishSyncTagsDispatchWithEventID(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var seen string
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, _ Event) error {
		seen, _ = ctx.Value(logger.EventIDKey).(string)
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if seen == "" {
		t.Fatal("handler context must carry an event id")
	}
}

func TestPublishSyncKeepsExistingEventID(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var seen string
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, _ Event) error {
		seen, _ = ctx.Value(logger.EventIDKey).(string)
		return nil
	}))

	ctx := context.WithValue(context.Background(), logger.EventIDKey, "upstream-id")
	if err := bus.PublishSync(ctx, testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if seen != "upstream-id" {
		t.Fatalf("event id overwritten: %q", seen)
	}
}

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	boom := errors.New("boom")
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return boom }))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return nil }))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error to surface, got %v", err)
	}
}
