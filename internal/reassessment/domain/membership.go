package domain

import (
	"github.com/google/uuid"
)

// Membership is the record of one period's status within one specific
// reassessment.
type Membership struct {
	PeriodID       uuid.UUID
	ReassessmentID uuid.UUID
	Status         Status
}

// superseded returns the membership marked SUPERSEDED when its period has
// been claimed by a newer reassessment. Only unfinished memberships move.
func (m Membership) superseded(periods []uuid.UUID) Membership {
	if m.Status != StatusUnfinished || !containsPeriod(periods, m.PeriodID) {
		return m
	}
	m.Status = StatusSuperseded
	return m
}

// settled returns the membership with the settlement outcome applied.
// Only unfinished memberships of the settled periods move.
func (m Membership) settled(periods []uuid.UUID, approved, automated bool) Membership {
	if m.Status != StatusUnfinished || !containsPeriod(periods, m.PeriodID) {
		return m
	}
	m.Status = OutcomeStatus(approved, automated)
	return m
}

// failed returns the membership marked FAILED when its period failed or
// was discarded. Only unfinished memberships move.
func (m Membership) failed(periodID uuid.UUID) Membership {
	if m.Status != StatusUnfinished || m.PeriodID != periodID {
		return m
	}
	m.Status = StatusFailed
	return m
}

func containsPeriod(periods []uuid.UUID, id uuid.UUID) bool {
	for _, p := range periods {
		if p == id {
			return true
		}
	}
	return false
}

// PendingReassessment groups the full member set of one unfinished
// reassessment so a transition can be applied and re-aggregated.
type PendingReassessment struct {
	ID      uuid.UUID
	Members []Membership
}

// GroupByReassessment splits memberships per owning reassessment,
// preserving first-seen order.
func GroupByReassessment(members []Membership) []PendingReassessment {
	index := make(map[uuid.UUID]int)
	var grouped []PendingReassessment
	for _, m := range members {
		i, ok := index[m.ReassessmentID]
		if !ok {
			i = len(grouped)
			index[m.ReassessmentID] = i
			grouped = append(grouped, PendingReassessment{ID: m.ReassessmentID})
		}
		grouped[i].Members = append(grouped[i].Members, m)
	}
	return grouped
}

// Supersede marks the members claimed by a newer reassessment and returns
// the updated group plus the members that changed.
func (p PendingReassessment) Supersede(periods []uuid.UUID) (PendingReassessment, []Membership) {
	return p.apply(func(m Membership) Membership {
		return m.superseded(periods)
	})
}

// ResolveSettlement applies a settlement outcome to the members covering
// the settled periods and returns the updated group plus the members that
// changed.
func (p PendingReassessment) ResolveSettlement(periods []uuid.UUID, approved, automated bool) (PendingReassessment, []Membership) {
	return p.apply(func(m Membership) Membership {
		return m.settled(periods, approved, automated)
	})
}

// Fail marks the member for the failed or discarded period and returns the
// updated group plus the members that changed.
func (p PendingReassessment) Fail(periodID uuid.UUID) (PendingReassessment, []Membership) {
	return p.apply(func(m Membership) Membership {
		return m.failed(periodID)
	})
}

// Aggregate computes the reassessment's status from its members.
func (p PendingReassessment) Aggregate() Status {
	statuses := make([]Status, len(p.Members))
	for i, m := range p.Members {
		statuses[i] = m.Status
	}
	return AggregateStatus(statuses)
}

func (p PendingReassessment) apply(fn func(Membership) Membership) (PendingReassessment, []Membership) {
	updated := PendingReassessment{ID: p.ID, Members: make([]Membership, len(p.Members))}
	var changed []Membership
	for i, m := range p.Members {
		next := fn(m)
		updated.Members[i] = next
		if next.Status != m.Status {
			changed = append(changed, next)
		}
	}
	return updated, changed
}
