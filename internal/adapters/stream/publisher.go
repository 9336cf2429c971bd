// Package stream publishes finalized-reassessment notifications to the
// outbound Redis stream consumed by downstream services.
package stream

import (
	"context"
	"fmt"

	"reassessment_tracker/platform/config"

	"github.com/redis/go-redis/v9"
)

// Publisher appends events to a Redis stream.
type Publisher struct {
	client redis.Cmdable
	closer func() error
	stream string
}

// New connects to Redis and returns a publisher for the configured stream.
func New(cfg config.StreamConfig) (*Publisher, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	return &Publisher{
		client: client,
		closer: client.Close,
		stream: cfg.GetEventStreamName(),
	}, nil
}

// NewWithClient wraps an existing Redis client. Used by tests.
func NewWithClient(client redis.Cmdable, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// Publish appends one event to the stream and returns the entry id.
// The payload is the outbox row's JSON, written verbatim.
func (p *Publisher) Publish(ctx context.Context, eventName string, payload []byte) (string, error) {
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event":   eventName,
			"payload": string(payload),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return id, nil
}

func (p *Publisher) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer()
}
