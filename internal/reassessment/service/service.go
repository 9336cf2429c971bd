// Package service implements the status-reconciliation handlers. Each
// handler performs one read-modify-write over the stores inside a single
// transaction and stages a completion notification when the aggregate
// becomes final.
package service

import (
	"context"
	"fmt"

	"reassessment_tracker/internal/events"
	"reassessment_tracker/internal/reassessment/domain"
	"reassessment_tracker/internal/reassessment/ports"
	"reassessment_tracker/platform/logger"

	"github.com/google/uuid"
)

// Service orchestrates the reconciliation handlers over the store.
type Service struct {
	store ports.Store
	log   *logger.Logger
}

// New creates a new reconciliation service.
func New(store ports.Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// StartReassessment handles a reassessment-started event. Any period of
// the new reassessment that is still UNFINISHED in an older reassessment
// is marked SUPERSEDED there, which may finalize the older reassessment
// as a side effect. The new reassessment and its members are then
// inserted, all UNFINISHED. The whole operation is one transaction.
func (s *Service) StartReassessment(ctx context.Context, ev events.ReassessmentStarted) error {
	r := domain.Reassessment{
		ID:         ev.ReassessmentID,
		CreatedAt:  ev.CreatedAt,
		SourceID:   ev.SourceID,
		SubjectID:  ev.SubjectID,
		Cause:      ev.Cause,
		AnchorDate: ev.AnchorDate,
		ChangeFrom: ev.ChangeFrom,
		ChangeTo:   ev.ChangeTo,
		Status:     domain.StatusUnfinished,
	}

	members := make([]domain.MemberPeriod, len(ev.Periods))
	for i, p := range ev.Periods {
		members[i] = domain.MemberPeriod{
			PeriodID:   p.PeriodID,
			OrgNumber:  p.OrgNumber,
			PeriodFrom: p.PeriodFrom,
			PeriodTo:   p.PeriodTo,
			AnchorDate: p.AnchorDate,
		}
	}

	return s.store.InTx(ctx, func(tx ports.Tx) error {
		exists, err := tx.ReassessmentExists(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("check reassessment exists: %w", err)
		}
		if exists {
			// Redelivered event; the first delivery already committed.
			return nil
		}

		if err := s.supersede(ctx, tx, domain.PeriodIDs(members)); err != nil {
			return err
		}

		if err := tx.InsertReassessment(ctx, r); err != nil {
			return fmt.Errorf("insert reassessment: %w", err)
		}
		if err := tx.InsertMemberships(ctx, r.ID, members); err != nil {
			return fmt.Errorf("insert memberships: %w", err)
		}
		return nil
	})
}

// LinkSettlement records the association between a period and its
// settlement, but only while the period is a member of an unfinished
// reassessment. Periods with no open reassessment do not need tracking.
func (s *Service) LinkSettlement(ctx context.Context, ev events.SettlementLinked) error {
	return s.store.InTx(ctx, func(tx ports.Tx) error {
		linked, err := tx.LinkSettlement(ctx, ev.PeriodID, ev.SettlementID)
		if err != nil {
			return fmt.Errorf("link settlement: %w", err)
		}
		if linked {
			s.log.WithContext(ctx).Debug("settlement linked",
				"period_id", ev.PeriodID,
				"settlement_id", ev.SettlementID,
			)
		}
		return nil
	})
}

// ResolveSettlement handles a settlement decision. The settlement id is
// resolved to its linked periods with UNFINISHED memberships; a
// settlement that touches no open reassessment is a successful no-op
// (e.g. a first-time approval).
func (s *Service) ResolveSettlement(ctx context.Context, ev events.SettlementResolved) error {
	return s.store.InTx(ctx, func(tx ports.Tx) error {
		periods, err := tx.UnfinishedPeriodsBySettlement(ctx, ev.SettlementID)
		if err != nil {
			return fmt.Errorf("resolve settlement periods: %w", err)
		}
		if len(periods) == 0 {
			return nil
		}

		pending, err := s.loadPending(ctx, tx, periods)
		if err != nil {
			return err
		}

		for _, p := range pending {
			updated, changed := p.ResolveSettlement(periods, ev.Approved, ev.Automated)
			if err := s.persist(ctx, tx, updated, changed); err != nil {
				return err
			}
		}
		return nil
	})
}

// FailPeriod handles a period-failed or period-discarded event: every
// reassessment in which the period is currently UNFINISHED gets that
// member marked FAILED. A period with no unfinished membership anywhere
// is a successful no-op.
func (s *Service) FailPeriod(ctx context.Context, periodID uuid.UUID) error {
	return s.store.InTx(ctx, func(tx ports.Tx) error {
		pending, err := s.loadPending(ctx, tx, []uuid.UUID{periodID})
		if err != nil {
			return err
		}

		for _, p := range pending {
			updated, changed := p.Fail(periodID)
			if err := s.persist(ctx, tx, updated, changed); err != nil {
				return err
			}
		}
		return nil
	})
}

// supersede marks the given periods SUPERSEDED in every older unfinished
// reassessment and persists the recomputed aggregates, finalizing old
// reassessments whose remaining members are already final.
func (s *Service) supersede(ctx context.Context, tx ports.Tx, periods []uuid.UUID) error {
	pending, err := s.loadPending(ctx, tx, periods)
	if err != nil {
		return err
	}

	for _, p := range pending {
		updated, changed := p.Supersede(periods)
		if err := s.persist(ctx, tx, updated, changed); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) loadPending(ctx context.Context, tx ports.Tx, periods []uuid.UUID) ([]domain.PendingReassessment, error) {
	members, err := tx.UnfinishedByPeriods(ctx, periods)
	if err != nil {
		return nil, fmt.Errorf("load unfinished memberships: %w", err)
	}
	return domain.GroupByReassessment(members), nil
}

// persist writes the changed member statuses, recomputes and writes the
// aggregate, and stages the completion notification if the aggregate just
// became final. All writes happen on the handler's transaction; the
// notification is therefore durably staged atomically with the status
// change that triggered it.
func (s *Service) persist(ctx context.Context, tx ports.Tx, p domain.PendingReassessment, changed []domain.Membership) error {
	if len(changed) == 0 {
		return nil
	}

	for _, m := range changed {
		if err := tx.SaveMembershipStatus(ctx, m); err != nil {
			return fmt.Errorf("save membership status: %w", err)
		}
	}

	aggregate := p.Aggregate()
	if err := tx.SaveReassessmentStatus(ctx, p.ID, aggregate); err != nil {
		return fmt.Errorf("save reassessment status: %w", err)
	}

	if !aggregate.Final() {
		return nil
	}

	meta, err := tx.GetReassessment(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("load reassessment %s: %w", p.ID, err)
	}

	notification := buildNotification(meta, aggregate, p.Members)
	if err := tx.EnqueueNotification(ctx, notification); err != nil {
		return fmt.Errorf("enqueue completion notification: %w", err)
	}

	s.log.WithContext(ctx).Info("reassessment finalized",
		"reassessment_id", p.ID,
		"status", string(aggregate),
		"periods", len(p.Members),
	)
	return nil
}

// buildNotification constructs the single outbound completion event for a
// finalized reassessment, carrying every member's final status and the
// original metadata.
func buildNotification(meta domain.Reassessment, aggregate domain.Status, members []domain.Membership) events.ReassessmentFinalized {
	periods := make([]events.FinalizedPeriod, len(members))
	for i, m := range members {
		periods[i] = events.FinalizedPeriod{
			PeriodID: m.PeriodID,
			Status:   string(m.Status),
		}
	}

	return events.ReassessmentFinalized{
		BaseEvent:      events.NewBaseEvent(),
		ReassessmentID: meta.ID,
		Status:         string(aggregate),
		Cause:          meta.Cause,
		SourceID:       meta.SourceID,
		CreatedAt:      meta.CreatedAt,
		Periods:        periods,
	}
}
