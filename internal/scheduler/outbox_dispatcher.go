package scheduler

import (
	"context"
	"fmt"
	"time"

	"reassessment_tracker/internal/outbox"
	"reassessment_tracker/platform/config"
	"reassessment_tracker/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"
)

// OutboxDispatcher moves staged completion notifications from the outbox
// table onto the task queue. Claims use SKIP LOCKED, so multiple instances
// can run concurrently without double-dispatching.
type OutboxDispatcher struct {
	client  *asynq.Client
	queue   string
	repo    *outbox.Repository
	batch   int
	limiter *rate.Limiter
	log     *logger.Logger
}

type DispatcherConfig interface {
	config.SchedulerConfig
	config.OutboxConfig
}

func NewOutboxDispatcher(cfg DispatcherConfig, pool *pgxpool.Pool, log *logger.Logger) (*OutboxDispatcher, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	batch := cfg.GetOutboxBatchSize()
	if batch < 1 {
		batch = 50
	}

	publishRate := cfg.GetOutboxPublishRate()
	if publishRate <= 0 {
		publishRate = 100
	}

	return &OutboxDispatcher{
		client:  asynq.NewClient(opt),
		queue:   queue,
		repo:    outbox.New(pool),
		batch:   batch,
		limiter: rate.NewLimiter(rate.Limit(publishRate), batch),
		log:     log,
	}, nil
}

func (d *OutboxDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		records, err := d.repo.ClaimPending(ctx, d.batch)
		if err != nil {
			d.log.DatabaseError("claim pending outbox records", err)
			continue
		}

		for _, rec := range records {
			if err := d.limiter.Wait(ctx); err != nil {
				msg := err.Error()
				_ = d.repo.MarkPending(ctx, rec.ID, &msg)
				continue
			}
			d.dispatch(ctx, rec)
		}
	}
}

// dispatch enqueues one claimed record; failures return it to pending so a
// later tick retries.
func (d *OutboxDispatcher) dispatch(ctx context.Context, rec outbox.Record) {
	task, err := NewOutboxEventDueTask(OutboxEventDuePayload{
		OutboxID:       rec.ID.String(),
		ReassessmentID: rec.ReassessmentID.String(),
	})
	if err != nil {
		msg := err.Error()
		_ = d.repo.MarkPending(ctx, rec.ID, &msg)
		return
	}

	_, err = d.client.EnqueueContext(ctx, task, asynq.ProcessAt(rec.RunAt), asynq.Queue(d.queue))
	if err != nil {
		msg := err.Error()
		_ = d.repo.MarkPending(ctx, rec.ID, &msg)
		return
	}

	d.log.Debug("outbox event enqueued",
		"outbox_id", rec.ID,
		"reassessment_id", rec.ReassessmentID,
		"event", rec.EventName,
	)
}
