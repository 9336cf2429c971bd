package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reassessment is the aggregate unit of work. Its status is always derived
// from its members; it is never set independently.
type Reassessment struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	SourceID   uuid.UUID
	SubjectID  string
	Cause      string
	AnchorDate time.Time
	ChangeFrom time.Time
	ChangeTo   time.Time
	Status     Status
}

// MemberPeriod carries the attributes of one period joining a new
// reassessment, as received on the initiating event.
type MemberPeriod struct {
	PeriodID   uuid.UUID
	OrgNumber  string
	PeriodFrom time.Time
	PeriodTo   time.Time
	AnchorDate time.Time
}

// PeriodIDs extracts the period ids of the given members.
func PeriodIDs(members []MemberPeriod) []uuid.UUID {
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.PeriodID
	}
	return ids
}
