package periods

import (
	"fmt"
	"time"

	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
	PeriodStatusLocked PeriodStatus = "LOCKED"
)

// Period is a time-boxed posting window within a fiscal year.
type Period struct {
	ID           int64        `json:"id"`
	FiscalYear   int          `json:"fiscalYear"`
	PeriodNumber int          `json:"periodNumber"`
	StartDate    time.Time    `json:"startDate"`
	EndDate      time.Time    `json:"endDate"`
	Status       PeriodStatus `json:"status"`
	EntrySeq     int64        `json:"-"`
	ClosedAt     *time.Time   `json:"closedAt,omitempty"`
	LockedAt     *time.Time   `json:"lockedAt,omitempty"`
	LockedBy     *int64       `json:"lockedBy,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Code renders the human-readable period label, e.g. "FY2024-P01".
func (p Period) Code() string {
	return fmt.Sprintf("FY%d-P%02d", p.FiscalYear, p.PeriodNumber)
}

// CanPost reports whether new postings are allowed.
func (p Period) CanPost() bool {
	return p.Status == PeriodStatusOpen
}

// Contains reports whether the date falls within [StartDate, EndDate].
func (p Period) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(p.StartDate.Truncate(24*time.Hour)) && !d.After(p.EndDate.Truncate(24*time.Hour))
}

// PostingGateErr returns the conflict error matching the period state, or nil
// when posting is allowed. Closed and locked produce distinct messages.
func (p Period) PostingGateErr() error {
	switch p.Status {
	case PeriodStatusOpen:
		return nil
	case PeriodStatusLocked:
		return shared.ErrPeriodLocked
	default:
		return shared.ErrPeriodClosed
	}
}

// CreatePeriodInput captures fields for administrative period creation.
type CreatePeriodInput struct {
	FiscalYear   int
	PeriodNumber int
	StartDate    time.Time
	EndDate      time.Time
}

// Validate checks the input is coherent.
func (in CreatePeriodInput) Validate() error {
	if in.FiscalYear <= 0 {
		return shared.Validationf("fiscal year is required")
	}
	if in.PeriodNumber <= 0 {
		return shared.Validationf("period number is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return shared.Validationf("start and end date are required")
	}
	if in.StartDate.After(in.EndDate) {
		return shared.Validationf("start date cannot be after end date")
	}
	return nil
}
