package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestSupersedeOnlyMovesUnfinishedMembers(t *testing.T) {
	reassessment := uuid.New()
	shared := uuid.New()
	finished := uuid.New()
	untouched := uuid.New()

	p := PendingReassessment{ID: reassessment, Members: []Membership{
		{PeriodID: shared, ReassessmentID: reassessment, Status: StatusUnfinished},
		{PeriodID: finished, ReassessmentID: reassessment, Status: StatusFinalizedAutomatic},
		{PeriodID: untouched, ReassessmentID: reassessment, Status: StatusUnfinished},
	}}

	updated, changed := p.Supersede([]uuid.UUID{shared, finished})

	if len(changed) != 1 || changed[0].PeriodID != shared {
		t.Fatalf("expected only the unfinished shared period to change, got %v", changed)
	}
	if updated.Members[0].Status != StatusSuperseded {
		t.Fatalf("shared member = %s, want SUPERSEDED", updated.Members[0].Status)
	}
	if updated.Members[1].Status != StatusFinalizedAutomatic {
		t.Fatalf("finalized member must not be re-marked, got %s", updated.Members[1].Status)
	}
	if updated.Members[2].Status != StatusUnfinished {
		t.Fatalf("unshared member must stay unfinished, got %s", updated.Members[2].Status)
	}
}

func TestResolveSettlementAppliesOutcomeToMatchingMembers(t *testing.T) {
	reassessment := uuid.New()
	settled := uuid.New()
	other := uuid.New()

	p := PendingReassessment{ID: reassessment, Members: []Membership{
		{PeriodID: settled, ReassessmentID: reassessment, Status: StatusUnfinished},
		{PeriodID: other, ReassessmentID: reassessment, Status: StatusUnfinished},
	}}

	updated, changed := p.ResolveSettlement([]uuid.UUID{settled}, false, false)

	if len(changed) != 1 {
		t.Fatalf("expected one changed member, got %d", len(changed))
	}
	if updated.Members[0].Status != StatusRejectedManual {
		t.Fatalf("settled member = %s, want REJECTED_MANUAL", updated.Members[0].Status)
	}
	if updated.Members[1].Status != StatusUnfinished {
		t.Fatalf("other member = %s, want UNFINISHED", updated.Members[1].Status)
	}
	if updated.Aggregate() != StatusUnfinished {
		t.Fatalf("aggregate = %s, want UNFINISHED while a member is open", updated.Aggregate())
	}
}

func TestResolveSettlementIsIdempotent(t *testing.T) {
	reassessment := uuid.New()
	period := uuid.New()

	p := PendingReassessment{ID: reassessment, Members: []Membership{
		{PeriodID: period, ReassessmentID: reassessment, Status: StatusUnfinished},
	}}

	once, changed := p.ResolveSettlement([]uuid.UUID{period}, true, true)
	if len(changed) != 1 {
		t.Fatalf("first application should change one member, got %d", len(changed))
	}

	twice, changed := once.ResolveSettlement([]uuid.UUID{period}, true, true)
	if len(changed) != 0 {
		t.Fatalf("second application must be a no-op, changed %d members", len(changed))
	}
	if twice.Members[0].Status != StatusFinalizedAutomatic {
		t.Fatalf("status after reapply = %s", twice.Members[0].Status)
	}
}

func TestFailMarksOnlyTheFailedPeriod(t *testing.T) {
	reassessment := uuid.New()
	failed := uuid.New()
	other := uuid.New()

	p := PendingReassessment{ID: reassessment, Members: []Membership{
		{PeriodID: failed, ReassessmentID: reassessment, Status: StatusUnfinished},
		{PeriodID: other, ReassessmentID: reassessment, Status: StatusFinalizedManual},
	}}

	updated, changed := p.Fail(failed)

	if len(changed) != 1 || changed[0].Status != StatusFailed {
		t.Fatalf("expected the failed period to change to FAILED, got %v", changed)
	}
	if updated.Aggregate() != StatusFailed {
		t.Fatalf("aggregate = %s, want FAILED", updated.Aggregate())
	}
}

func TestGroupByReassessmentPreservesOrder(t *testing.T) {
	r1 := uuid.New()
	r2 := uuid.New()
	shared := uuid.New()

	members := []Membership{
		{PeriodID: shared, ReassessmentID: r1, Status: StatusUnfinished},
		{PeriodID: uuid.New(), ReassessmentID: r2, Status: StatusUnfinished},
		{PeriodID: uuid.New(), ReassessmentID: r1, Status: StatusSuperseded},
	}

	grouped := GroupByReassessment(members)

	if len(grouped) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(grouped))
	}
	if grouped[0].ID != r1 || grouped[1].ID != r2 {
		t.Fatal("groups must preserve first-seen order")
	}
	if len(grouped[0].Members) != 2 || len(grouped[1].Members) != 1 {
		t.Fatalf("unexpected member split: %d/%d", len(grouped[0].Members), len(grouped[1].Members))
	}
}
