// Package domain holds the reassessment status model and the pure
// transition and aggregation rules. Nothing in this package performs I/O.
package domain

import "fmt"

// Status is the lifecycle status of a period within a reassessment, and,
// by aggregation, of the reassessment itself.
type Status string

const (
	// StatusUnfinished means the reassessment has started but the period
	// has not received an outcome yet.
	StatusUnfinished Status = "UNFINISHED"
	// StatusFinalizedAutomatic means the settlement was approved without
	// human involvement.
	StatusFinalizedAutomatic Status = "FINALIZED_AUTOMATIC"
	// StatusFinalizedManual means a caseworker approved the settlement.
	StatusFinalizedManual Status = "FINALIZED_MANUAL"
	// StatusRejectedAutomatic means the settlement was rejected without
	// human involvement.
	StatusRejectedAutomatic Status = "REJECTED_AUTOMATIC"
	// StatusRejectedManual means a caseworker rejected the settlement.
	StatusRejectedManual Status = "REJECTED_MANUAL"
	// StatusFailed means processing of the period failed, or the period
	// was discarded.
	StatusFailed Status = "FAILED"
	// StatusSuperseded means a newer reassessment claimed the period
	// before this one finished.
	StatusSuperseded Status = "SUPERSEDED"
)

// ParseStatus converts a stored string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusUnfinished, StatusFinalizedAutomatic, StatusFinalizedManual,
		StatusRejectedAutomatic, StatusRejectedManual, StatusFailed, StatusSuperseded:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown reassessment status %q", s)
}

// Final reports whether the status terminates a reassessment.
func (s Status) Final() bool {
	return s != StatusUnfinished
}

// AggregateStatus rolls a non-empty set of member statuses up to a single
// status by strict precedence. SUPERSEDED members never mask a more
// decisive status; they only win when every member is superseded.
// An empty input is a programming error.
func AggregateStatus(statuses []Status) Status {
	if len(statuses) == 0 {
		panic("AggregateStatus called with no member statuses")
	}

	for _, want := range []Status{
		StatusUnfinished,
		StatusFailed,
		StatusRejectedManual,
		StatusRejectedAutomatic,
		StatusFinalizedManual,
		StatusFinalizedAutomatic,
	} {
		for _, s := range statuses {
			if s == want {
				return want
			}
		}
	}
	return StatusSuperseded
}

// OutcomeStatus maps a settlement decision to the terminal status of the
// periods it covers.
func OutcomeStatus(approved, automated bool) Status {
	switch {
	case approved && automated:
		return StatusFinalizedAutomatic
	case approved:
		return StatusFinalizedManual
	case automated:
		return StatusRejectedAutomatic
	default:
		return StatusRejectedManual
	}
}
