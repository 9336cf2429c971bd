// Package repository is the pgx-backed persistence layer for the
// reassessment module. All reconciliation work runs through InTx so that
// every handler's read-modify-write is one database transaction.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reassessment_tracker/internal/events"
	"reassessment_tracker/internal/outbox"
	"reassessment_tracker/internal/reassessment/domain"
	"reassessment_tracker/internal/reassessment/ports"
	"reassessment_tracker/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool   *pgxpool.Pool
	outbox *outbox.Repository
}

func New(pool *pgxpool.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

// InTx begins a transaction, runs fn against it, and commits. Any error
// from fn rolls the whole unit of work back.
func (r *Repository) InTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Tx{tx: tx, outbox: r.outbox}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Tx implements ports.Tx over one pgx transaction.
type Tx struct {
	tx     pgx.Tx
	outbox *outbox.Repository
}

func (t *Tx) UnfinishedByPeriods(ctx context.Context, periodIDs []uuid.UUID) ([]domain.Membership, error) {
	if len(periodIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT other.period_id, other.reassessment_id, other.status
		FROM reassessment_period_membership unfinished
		JOIN reassessment_period_membership other
			ON unfinished.reassessment_id = other.reassessment_id
		WHERE unfinished.status = 'UNFINISHED' AND unfinished.period_id = ANY($1)
		GROUP BY other.period_id, other.reassessment_id, other.status, other.period_from
		ORDER BY other.reassessment_id, other.period_from, other.period_id`

	rows, err := t.tx.Query(ctx, query, periodIDs)
	if err != nil {
		return nil, fmt.Errorf("query unfinished memberships: %w", err)
	}
	defer rows.Close()

	var members []domain.Membership
	for rows.Next() {
		var m domain.Membership
		var status string
		if err := rows.Scan(&m.PeriodID, &m.ReassessmentID, &status); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		if m.Status, err = domain.ParseStatus(status); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return members, nil
}

func (t *Tx) ReassessmentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reassessment WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reassessment exists: %w", err)
	}
	return exists, nil
}

func (t *Tx) InsertReassessment(ctx context.Context, r domain.Reassessment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO reassessment (id, created_at, source_id, subject_id, cause, anchor_date, change_from, change_to, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.CreatedAt, r.SourceID, r.SubjectID, r.Cause,
		r.AnchorDate, r.ChangeFrom, r.ChangeTo, string(r.Status),
	)
	if err != nil {
		return fmt.Errorf("insert reassessment: %w", err)
	}
	return nil
}

func (t *Tx) InsertMemberships(ctx context.Context, reassessmentID uuid.UUID, periods []domain.MemberPeriod) error {
	batch := &pgx.Batch{}
	for _, p := range periods {
		batch.Queue(`
			INSERT INTO reassessment_period_membership (period_id, reassessment_id, org_number, period_from, period_to, anchor_date, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'UNFINISHED')`,
			p.PeriodID, reassessmentID, p.OrgNumber, p.PeriodFrom, p.PeriodTo, p.AnchorDate,
		)
	}

	results := t.tx.SendBatch(ctx, batch)
	defer results.Close()

	for range periods {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert membership: %w", err)
		}
	}
	return nil
}

func (t *Tx) SaveMembershipStatus(ctx context.Context, m domain.Membership) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE reassessment_period_membership
		SET status = $1, updated_at = now()
		WHERE period_id = $2 AND reassessment_id = $3`,
		string(m.Status), m.PeriodID, m.ReassessmentID,
	)
	if err != nil {
		return fmt.Errorf("update membership status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Invariant(fmt.Sprintf("membership (%s, %s) not found", m.PeriodID, m.ReassessmentID))
	}
	return nil
}

func (t *Tx) SaveReassessmentStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE reassessment
		SET status = $1, updated_at = now()
		WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("update reassessment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Invariant(fmt.Sprintf("reassessment %s not found", id))
	}
	return nil
}

func (t *Tx) GetReassessment(ctx context.Context, id uuid.UUID) (domain.Reassessment, error) {
	var r domain.Reassessment
	var status string
	err := t.tx.QueryRow(ctx, `
		SELECT id, created_at, source_id, subject_id, cause, anchor_date, change_from, change_to, status
		FROM reassessment
		WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.CreatedAt, &r.SourceID, &r.SubjectID, &r.Cause, &r.AnchorDate, &r.ChangeFrom, &r.ChangeTo, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reassessment{}, apperr.NotFound(fmt.Sprintf("reassessment %s", id))
		}
		return domain.Reassessment{}, fmt.Errorf("get reassessment: %w", err)
	}
	if r.Status, err = domain.ParseStatus(status); err != nil {
		return domain.Reassessment{}, err
	}
	return r, nil
}

func (t *Tx) LinkSettlement(ctx context.Context, periodID, settlementID uuid.UUID) (bool, error) {
	// Periods with no open reassessment are not tracked.
	var tracked bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reassessment_period_membership
			WHERE period_id = $1 AND status = 'UNFINISHED'
		)`,
		periodID,
	).Scan(&tracked)
	if err != nil {
		return false, fmt.Errorf("check open membership: %w", err)
	}
	if !tracked {
		return false, nil
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO settlement_period_link (period_id, settlement_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		periodID, settlementID,
	)
	if err != nil {
		return false, fmt.Errorf("insert settlement link: %w", err)
	}
	return true, nil
}

func (t *Tx) UnfinishedPeriodsBySettlement(ctx context.Context, settlementID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT DISTINCT l.period_id
		FROM settlement_period_link l
		JOIN reassessment_period_membership m ON l.period_id = m.period_id
		WHERE l.settlement_id = $1 AND m.status = 'UNFINISHED'`,
		settlementID,
	)
	if err != nil {
		return nil, fmt.Errorf("query settlement periods: %w", err)
	}
	defer rows.Close()

	var periods []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan period id: %w", err)
		}
		periods = append(periods, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return periods, nil
}

func (t *Tx) EnqueueNotification(ctx context.Context, n events.ReassessmentFinalized) error {
	_, err := t.outbox.InsertTx(ctx, t.tx, outbox.InsertParams{
		ReassessmentID: n.ReassessmentID,
		EventName:      n.EventName(),
		Payload:        n,
		RunAt:          time.Now().UTC(),
	})
	return err
}

var _ ports.Store = (*Repository)(nil)
var _ ports.Tx = (*Tx)(nil)
