package scheduler

import (
	"context"
	"fmt"
	"time"

	"reassessment_tracker/internal/adapters/stream"
	"reassessment_tracker/internal/outbox"
	"reassessment_tracker/platform/config"
	"reassessment_tracker/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxOutboxRetryAttempts = 5
	outboxRetryBaseDelay   = 30 * time.Second
	outboxRetryMaxDelay    = 10 * time.Minute
)

// Worker consumes queued outbox tasks and delivers the staged completion
// notifications to the outbound stream.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	repo      *outbox.Repository
	publisher *stream.Publisher
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, publisher *stream.Publisher, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		repo:      outbox.New(pool),
		publisher: publisher,
		log:       log,
	}

	mux.HandleFunc(TaskOutboxEventDue, w.handleOutboxEventDue)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleOutboxEventDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOutboxEventDuePayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	rec, err := w.repo.GetByID(ctx, outboxID)
	if err != nil {
		return err
	}
	if rec.Status == outbox.StatusSucceeded {
		w.log.Debug("outbox record already succeeded; skipping", "outbox_id", rec.ID)
		return nil
	}

	if err := w.repo.MarkProcessing(ctx, rec.ID); err != nil {
		return err
	}

	entryID, err := w.publisher.Publish(ctx, rec.EventName, rec.Payload)
	if err != nil {
		w.handleDeliveryError(ctx, rec, err)
		return err
	}

	if err := w.repo.MarkSucceeded(ctx, rec.ID); err != nil {
		return err
	}

	w.log.Info("completion notification published",
		"outbox_id", rec.ID,
		"reassessment_id", rec.ReassessmentID,
		"event", rec.EventName,
		"stream_entry", entryID,
	)
	return nil
}

func (w *Worker) handleDeliveryError(ctx context.Context, rec outbox.Record, deliveryErr error) {
	attempt := rec.Attempts + 1
	if attempt >= maxOutboxRetryAttempts {
		_ = w.repo.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		w.log.Warn("outbox record exhausted retries",
			"outbox_id", rec.ID,
			"attempt", attempt,
			"max_attempts", maxOutboxRetryAttempts,
			"error", deliveryErr,
		)
		return
	}

	retryAt := time.Now().UTC().Add(retryDelay(attempt))
	if err := w.repo.ScheduleRetry(ctx, rec.ID, retryAt, deliveryErr.Error()); err != nil {
		_ = w.repo.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		w.log.Error("outbox retry scheduling failed; marked failed",
			"outbox_id", rec.ID,
			"attempt", attempt,
			"error", err,
		)
		return
	}

	w.log.Warn("outbox record scheduled for retry",
		"outbox_id", rec.ID,
		"attempt", attempt,
		"retry_at", retryAt,
		"error", deliveryErr,
	)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := outboxRetryBaseDelay << (attempt - 1)
	if delay > outboxRetryMaxDelay {
		return outboxRetryMaxDelay
	}
	return delay
}
