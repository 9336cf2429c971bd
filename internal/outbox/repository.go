// Package outbox stores outbound completion notifications in the same
// database as the status records, so a notification can be staged
// atomically with the status write that triggered it. A relay claims
// pending rows and delivers them at least once to the external bus.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusEnqueued       Status = "enqueued"
	StatusProcessing     Status = "processing"
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
	errRepoNotConfigured        = "outbox repository not configured"
)

type Record struct {
	ID             uuid.UUID
	ReassessmentID uuid.UUID
	EventName      string
	Payload        json.RawMessage
	RunAt          time.Time
	Status         Status
	Attempts       int
}

type InsertParams struct {
	ReassessmentID uuid.UUID
	EventName      string
	Payload        any
	RunAt          time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertTx stages a notification on the caller's transaction, so the row
// commits or rolls back together with the status writes.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, p InsertParams) (uuid.UUID, error) {
	if p.ReassessmentID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("reassessmentId is required")
	}
	if p.EventName == "" {
		return uuid.Nil, fmt.Errorf("eventName is required")
	}
	if p.RunAt.IsZero() {
		p.RunAt = time.Now().UTC()
	}

	payloadBytes, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO reassessment_outbox (reassessment_id, event_name, payload, run_at, status)
		 VALUES ($1, $2, $3, $4, 'pending')
		 RETURNING id`,
		p.ReassessmentID, p.EventName, payloadBytes, p.RunAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	if r == nil || r.pool == nil {
		return Record{}, errors.New(errRepoNotConfigured)
	}

	var rec Record
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT id, reassessment_id, event_name, payload, run_at, status, attempts
		 FROM reassessment_outbox
		 WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.ReassessmentID, &rec.EventName, &rec.Payload, &rec.RunAt, &status, &rec.Attempts)
	if err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	return rec, nil
}

// ClaimPending atomically flips up to limit pending rows to enqueued and
// returns them. Concurrent relays skip each other's claims.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]Record, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}
	if limit < 1 {
		limit = 50
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH cte AS (
		SELECT id
		FROM reassessment_outbox
		WHERE status = 'pending'
		ORDER BY run_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE reassessment_outbox o
	SET status = 'enqueued', updated_at = now()
	FROM cte
	WHERE o.id = cte.id
	RETURNING o.id, o.reassessment_id, o.event_name, o.payload, o.run_at, o.status, o.attempts`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.ReassessmentID, &rec.EventName, &rec.Payload, &rec.RunAt, &status, &rec.Attempts); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE reassessment_outbox
		 SET status = 'pending', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
	return err
}

// ScheduleRetry returns a record to pending with a deferred run_at so a
// later dispatcher tick picks it up again.
func (r *Repository) ScheduleRetry(ctx context.Context, id uuid.UUID, retryAt time.Time, lastError string) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE reassessment_outbox
		 SET status = 'pending', run_at = $2, last_error = $3, updated_at = now()
		 WHERE id = $1`,
		id, retryAt, lastError,
	)
	return err
}

func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE reassessment_outbox
		 SET status = 'processing', attempts = attempts + 1, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE reassessment_outbox
		 SET status = 'succeeded', last_error = NULL, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE reassessment_outbox
		 SET status = 'failed', last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError,
	)
	return err
}
