// Package ports defines the interfaces the reassessment domain requires
// from its persistence layer. The implementation lives in
// internal/reassessment/repository; tests provide in-memory fakes.
package ports

import (
	"context"

	"reassessment_tracker/internal/events"
	"reassessment_tracker/internal/reassessment/domain"

	"github.com/google/uuid"
)

// Tx exposes the transaction-scoped operations of one reconciliation
// handler invocation. Every mutation performed through a Tx commits or
// rolls back as one unit.
type Tx interface {
	// UnfinishedByPeriods returns the complete member sets of every
	// reassessment in which at least one of the given periods is
	// currently UNFINISHED.
	UnfinishedByPeriods(ctx context.Context, periodIDs []uuid.UUID) ([]domain.Membership, error)

	// ReassessmentExists reports whether a reassessment id is already
	// persisted. Used to make redelivered initiation events no-ops.
	ReassessmentExists(ctx context.Context, id uuid.UUID) (bool, error)

	// InsertReassessment persists a newly initiated reassessment.
	InsertReassessment(ctx context.Context, r domain.Reassessment) error

	// InsertMemberships persists the fresh UNFINISHED member rows of a
	// newly initiated reassessment.
	InsertMemberships(ctx context.Context, reassessmentID uuid.UUID, periods []domain.MemberPeriod) error

	// SaveMembershipStatus persists one member's status.
	SaveMembershipStatus(ctx context.Context, m domain.Membership) error

	// SaveReassessmentStatus persists the recomputed aggregate status.
	SaveReassessmentStatus(ctx context.Context, id uuid.UUID, status domain.Status) error

	// GetReassessment loads a reassessment's metadata.
	GetReassessment(ctx context.Context, id uuid.UUID) (domain.Reassessment, error)

	// LinkSettlement records the (period, settlement) association if the
	// period currently has an UNFINISHED membership. Returns whether a
	// link was recorded.
	LinkSettlement(ctx context.Context, periodID, settlementID uuid.UUID) (bool, error)

	// UnfinishedPeriodsBySettlement resolves a settlement id to the
	// linked periods that currently have an UNFINISHED membership.
	UnfinishedPeriodsBySettlement(ctx context.Context, settlementID uuid.UUID) ([]uuid.UUID, error)

	// EnqueueNotification stages a completion notification in the outbox
	// within the current transaction.
	EnqueueNotification(ctx context.Context, n events.ReassessmentFinalized) error
}

// Store runs reconciliation work inside a single database transaction.
type Store interface {
	// InTx begins a transaction, runs fn, and commits; any error rolls
	// the whole unit of work back.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
