package stream

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestPublisher(t *testing.T) (*Publisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWithClient(client, "test-events"), mr
}

func TestPublishAppendsToStream(t *testing.T) {
	pub, mr := newTestPublisher(t)

	id, err := pub.Publish(context.Background(), "reassessment.finalized", []byte(`{"status":"FINALIZED_MANUAL"}`))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if id == "" {
		t.Fatal("expected a stream entry id")
	}

	entries, err := mr.Stream("test-events")
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	values := entries[0].Values
	if values[0] != "event" || values[1] != "reassessment.finalized" {
		t.Errorf("unexpected event field: %v", values)
	}
	if values[2] != "payload" || values[3] != `{"status":"FINALIZED_MANUAL"}` {
		t.Errorf("unexpected payload field: %v", values)
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	pub, mr := newTestPublisher(t)
	ctx := context.Background()

	first, err := pub.Publish(ctx, "reassessment.finalized", []byte(`{"n":1}`))
	if err != nil {
		t.Fatalf("publish first: %v", err)
	}
	second, err := pub.Publish(ctx, "reassessment.finalized", []byte(`{"n":2}`))
	if err != nil {
		t.Fatalf("publish second: %v", err)
	}
	if first >= second {
		t.Errorf("entry ids not increasing: %s then %s", first, second)
	}

	entries, err := mr.Stream("test-events")
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != first || entries[1].ID != second {
		t.Errorf("stream order mismatch: %s, %s", entries[0].ID, entries[1].ID)
	}
}
