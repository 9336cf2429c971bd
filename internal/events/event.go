// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"reassessment_tracker/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Inbound Events
// =============================================================================

// StartedPeriod is one period joining a new reassessment.
type StartedPeriod struct {
	PeriodID   uuid.UUID `json:"periodId"`
	OrgNumber  string    `json:"orgNumber"`
	PeriodFrom time.Time `json:"periodFrom"`
	PeriodTo   time.Time `json:"periodTo"`
	AnchorDate time.Time `json:"anchorDate"`
}

// ReassessmentStarted is consumed when a new reassessment is initiated
// covering a set of periods.
type ReassessmentStarted struct {
	BaseEvent
	ReassessmentID uuid.UUID       `json:"reassessmentId"`
	SourceID       uuid.UUID       `json:"sourceId"`
	SubjectID      string          `json:"subjectId"`
	Cause          string          `json:"cause"`
	CreatedAt      time.Time       `json:"createdAt"`
	AnchorDate     time.Time       `json:"anchorDate"`
	ChangeFrom     time.Time       `json:"changeFrom"`
	ChangeTo       time.Time       `json:"changeTo"`
	Periods        []StartedPeriod `json:"periods"`
}

func (e ReassessmentStarted) EventName() string { return "reassessment.started" }

// SettlementLinked is consumed when a downstream settlement is assigned
// to a period.
type SettlementLinked struct {
	BaseEvent
	PeriodID     uuid.UUID `json:"periodId"`
	SettlementID uuid.UUID `json:"settlementId"`
}

func (e SettlementLinked) EventName() string { return "settlement.linked" }

// SettlementResolved is consumed when a settlement receives its
// approval or rejection decision.
type SettlementResolved struct {
	BaseEvent
	SettlementID uuid.UUID `json:"settlementId"`
	Approved     bool      `json:"approved"`
	Automated    bool      `json:"automated"`
}

func (e SettlementResolved) EventName() string { return "settlement.resolved" }

// PeriodFailed is consumed when downstream processing of a period failed.
type PeriodFailed struct {
	BaseEvent
	PeriodID uuid.UUID `json:"periodId"`
}

func (e PeriodFailed) EventName() string { return "period.failed" }

// PeriodDiscarded is consumed when a period is discarded downstream.
type PeriodDiscarded struct {
	BaseEvent
	PeriodID uuid.UUID `json:"periodId"`
}

func (e PeriodDiscarded) EventName() string { return "period.discarded" }

// =============================================================================
// Outbound Events
// =============================================================================

// FinalizedPeriod is one member's final status in a completion notification.
type FinalizedPeriod struct {
	PeriodID uuid.UUID `json:"periodId"`
	Status   string    `json:"status"`
}

// ReassessmentFinalized is produced exactly once per finalization,
// atomically with the status write (outbox row).
type ReassessmentFinalized struct {
	BaseEvent
	ReassessmentID uuid.UUID         `json:"reassessmentId"`
	Status         string            `json:"status"`
	Cause          string            `json:"cause"`
	SourceID       uuid.UUID         `json:"sourceId"`
	CreatedAt      time.Time         `json:"createdAt"`
	Periods        []FinalizedPeriod `json:"periods"`
}

func (e ReassessmentFinalized) EventName() string { return "reassessment.finalized" }
