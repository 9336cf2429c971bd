package service

import (
	"context"
	"fmt"

	"reassessment_tracker/internal/events"
	"reassessment_tracker/internal/reassessment/domain"
	"reassessment_tracker/internal/reassessment/ports"

	"github.com/google/uuid"
)

// fakeStore is an in-memory ports.Store/ports.Tx used to test the
// reconciliation handlers without a database. It counts row mutations so
// tests can assert that no-op events touch nothing.
type fakeStore struct {
	reassessments map[uuid.UUID]domain.Reassessment
	memberships   []*membershipRow
	links         []settlementLink
	notifications []events.ReassessmentFinalized
	mutations     int
}

type membershipRow struct {
	membership domain.Membership
	attrs      domain.MemberPeriod
}

type settlementLink struct {
	periodID     uuid.UUID
	settlementID uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{reassessments: make(map[uuid.UUID]domain.Reassessment)}
}

// InTx runs fn directly; the fake has no transaction semantics because
// the handlers under test never exercise rollback paths on success.
func (f *fakeStore) InTx(_ context.Context, fn func(tx ports.Tx) error) error {
	return fn(f)
}

func (f *fakeStore) UnfinishedByPeriods(_ context.Context, periodIDs []uuid.UUID) ([]domain.Membership, error) {
	qualifying := make(map[uuid.UUID]bool)
	for _, row := range f.memberships {
		if row.membership.Status != domain.StatusUnfinished {
			continue
		}
		for _, id := range periodIDs {
			if row.membership.PeriodID == id {
				qualifying[row.membership.ReassessmentID] = true
			}
		}
	}

	var out []domain.Membership
	for _, row := range f.memberships {
		if qualifying[row.membership.ReassessmentID] {
			out = append(out, row.membership)
		}
	}
	return out, nil
}

func (f *fakeStore) ReassessmentExists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.reassessments[id]
	return ok, nil
}

func (f *fakeStore) InsertReassessment(_ context.Context, r domain.Reassessment) error {
	if _, ok := f.reassessments[r.ID]; ok {
		return fmt.Errorf("duplicate reassessment %s", r.ID)
	}
	f.reassessments[r.ID] = r
	f.mutations++
	return nil
}

func (f *fakeStore) InsertMemberships(_ context.Context, reassessmentID uuid.UUID, periods []domain.MemberPeriod) error {
	for _, p := range periods {
		f.memberships = append(f.memberships, &membershipRow{
			membership: domain.Membership{
				PeriodID:       p.PeriodID,
				ReassessmentID: reassessmentID,
				Status:         domain.StatusUnfinished,
			},
			attrs: p,
		})
		f.mutations++
	}
	return nil
}

func (f *fakeStore) SaveMembershipStatus(_ context.Context, m domain.Membership) error {
	for _, row := range f.memberships {
		if row.membership.PeriodID == m.PeriodID && row.membership.ReassessmentID == m.ReassessmentID {
			row.membership.Status = m.Status
			f.mutations++
			return nil
		}
	}
	return fmt.Errorf("membership (%s, %s) not found", m.PeriodID, m.ReassessmentID)
}

func (f *fakeStore) SaveReassessmentStatus(_ context.Context, id uuid.UUID, status domain.Status) error {
	r, ok := f.reassessments[id]
	if !ok {
		return fmt.Errorf("reassessment %s not found", id)
	}
	r.Status = status
	f.reassessments[id] = r
	f.mutations++
	return nil
}

func (f *fakeStore) GetReassessment(_ context.Context, id uuid.UUID) (domain.Reassessment, error) {
	r, ok := f.reassessments[id]
	if !ok {
		return domain.Reassessment{}, fmt.Errorf("reassessment %s not found", id)
	}
	return r, nil
}

func (f *fakeStore) LinkSettlement(_ context.Context, periodID, settlementID uuid.UUID) (bool, error) {
	if !f.hasUnfinishedMembership(periodID) {
		return false, nil
	}
	f.links = append(f.links, settlementLink{periodID: periodID, settlementID: settlementID})
	f.mutations++
	return true, nil
}

func (f *fakeStore) UnfinishedPeriodsBySettlement(_ context.Context, settlementID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, l := range f.links {
		if l.settlementID != settlementID || seen[l.periodID] {
			continue
		}
		if f.hasUnfinishedMembership(l.periodID) {
			seen[l.periodID] = true
			out = append(out, l.periodID)
		}
	}
	return out, nil
}

func (f *fakeStore) EnqueueNotification(_ context.Context, n events.ReassessmentFinalized) error {
	f.notifications = append(f.notifications, n)
	f.mutations++
	return nil
}

func (f *fakeStore) hasUnfinishedMembership(periodID uuid.UUID) bool {
	for _, row := range f.memberships {
		if row.membership.PeriodID == periodID && row.membership.Status == domain.StatusUnfinished {
			return true
		}
	}
	return false
}

func (f *fakeStore) membershipStatus(periodID, reassessmentID uuid.UUID) domain.Status {
	for _, row := range f.memberships {
		if row.membership.PeriodID == periodID && row.membership.ReassessmentID == reassessmentID {
			return row.membership.Status
		}
	}
	return ""
}

var _ ports.Store = (*fakeStore)(nil)
var _ ports.Tx = (*fakeStore)(nil)
