package journals

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

// balanceTolerance is the absolute slack allowed between debit and credit
// totals, covering float rounding on two-decimal amounts.
const balanceTolerance = 0.01

// LineInput describes one journal line. Exactly one of DebitAccountID or
// CreditAccountID must be set.
type LineInput struct {
	DebitAccountID  *int64
	CreditAccountID *int64
	Amount          float64
	Description     string
}

// AccountID returns the referenced account regardless of side.
func (l LineInput) AccountID() int64 {
	if l.DebitAccountID != nil {
		return *l.DebitAccountID
	}
	if l.CreditAccountID != nil {
		return *l.CreditAccountID
	}
	return 0
}

// Side returns the line's side; callers must validate first.
func (l LineInput) Side() Side {
	if l.DebitAccountID != nil {
		return SideDebit
	}
	return SideCredit
}

// CreateEntryInput groups fields required to create a draft entry.
type CreateEntryInput struct {
	PeriodID     *int64
	Date         time.Time
	Type         EntryType
	SourceType   SourceType
	SourceID     *uuid.UUID
	SourceNumber string
	Description  string
	Notes        string
	Lines        []LineInput
	CreatedBy    int64
}

// Validate enforces the double-entry invariant and line shape rules.
func (in CreateEntryInput) Validate() error {
	if in.Date.IsZero() {
		return shared.Validationf("transaction date is required")
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.DebitAccountID != nil && line.CreditAccountID != nil {
			return shared.Validationf("line %d cannot set both debit and credit accounts", idx+1)
		}
		if line.DebitAccountID == nil && line.CreditAccountID == nil {
			return shared.Validationf("line %d must set a debit or credit account", idx+1)
		}
		if line.Amount <= 0 {
			return shared.Validationf("line %d amount must be positive", idx+1)
		}
		if strings.TrimSpace(line.Description) == "" {
			return shared.Validationf("line %d description is required", idx+1)
		}
		if line.Side() == SideDebit {
			debit += line.Amount
		} else {
			credit += line.Amount
		}
	}
	if math.Abs(debit-credit) > balanceTolerance {
		return shared.ErrUnbalanced
	}
	return nil
}

// UpdateEntryInput carries the fields editable while an entry is a draft.
// Nil leaves the current value; Lines replaces the whole line set when set.
type UpdateEntryInput struct {
	Date        *time.Time
	Description *string
	Notes       *string
	Lines       []LineInput
}

// ReverseEntryInput wraps parameters for reversal.
type ReverseEntryInput struct {
	EntryID int64
	Reason  string
	ActorID int64
}

// EntryNumber renders the human-readable entry number for a period sequence.
func EntryNumber(fiscalYear, periodNumber int, seq int64) string {
	return fmt.Sprintf("JE-%d-%02d-%04d", fiscalYear, periodNumber, seq)
}
