package transport

import (
	"time"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// IngestPeriodRequest is one period covered by a new reassessment.
type IngestPeriodRequest struct {
	PeriodID   uuid.UUID `json:"periodId" validate:"required"`
	OrgNumber  string    `json:"orgNumber" validate:"required,min=9,max=9,numeric"`
	PeriodFrom time.Time `json:"periodFrom" validate:"required"`
	PeriodTo   time.Time `json:"periodTo" validate:"required"`
	AnchorDate time.Time `json:"anchorDate" validate:"required"`
}

// ReassessmentStartedRequest is the ingest body for a newly initiated
// reassessment and the periods it covers.
type ReassessmentStartedRequest struct {
	ReassessmentID uuid.UUID             `json:"reassessmentId" validate:"required"`
	SourceID       uuid.UUID             `json:"sourceId" validate:"required"`
	SubjectID      string                `json:"subjectId" validate:"required,min=11,max=11,numeric"`
	Cause          string                `json:"cause" validate:"required,max=100"`
	CreatedAt      time.Time             `json:"createdAt" validate:"required"`
	AnchorDate     time.Time             `json:"anchorDate" validate:"required"`
	ChangeFrom     time.Time             `json:"changeFrom" validate:"required"`
	ChangeTo       time.Time             `json:"changeTo" validate:"required"`
	Periods        []IngestPeriodRequest `json:"periods" validate:"required,min=1,dive"`
}

// SettlementLinkedRequest associates a downstream settlement with a period.
type SettlementLinkedRequest struct {
	PeriodID     uuid.UUID `json:"periodId" validate:"required"`
	SettlementID uuid.UUID `json:"settlementId" validate:"required"`
}

// SettlementResolvedRequest carries a settlement's approval decision.
type SettlementResolvedRequest struct {
	SettlementID uuid.UUID `json:"settlementId" validate:"required"`
	Approved     bool      `json:"approved"`
	Automated    bool      `json:"automated"`
}

// PeriodEventRequest is the shared body for period failure and discard.
type PeriodEventRequest struct {
	PeriodID uuid.UUID `json:"periodId" validate:"required"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// IngestAck confirms that an ingest event was applied.
type IngestAck struct {
	Event   string `json:"event"`
	Applied bool   `json:"applied"`
}
