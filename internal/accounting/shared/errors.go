// Package shared holds the error taxonomy common to all ledger packages.
package shared

import (
	"fmt"

	"github.com/crestline-erp/crestline-erp/internal/platform/httpx"
)

// Error carries a user-facing message plus the kind the API maps to a status.
type Error struct {
	kind    error
	message string
}

func (e *Error) Error() string { return e.message }

// Unwrap exposes the kind so errors.Is works against httpx sentinels.
func (e *Error) Unwrap() error { return e.kind }

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{kind: httpx.ErrValidation, message: fmt.Sprintf(format, args...)}
}

// Conflictf builds a state-conflict error with a formatted message.
func Conflictf(format string, args ...any) error {
	return &Error{kind: httpx.ErrConflict, message: fmt.Sprintf(format, args...)}
}

func validation(msg string) error { return &Error{kind: httpx.ErrValidation, message: msg} }
func notFound(msg string) error   { return &Error{kind: httpx.ErrNotFound, message: msg} }
func conflict(msg string) error   { return &Error{kind: httpx.ErrConflict, message: msg} }
func forbidden(msg string) error  { return &Error{kind: httpx.ErrForbidden, message: msg} }

var (
	// ErrAccountNotFound indicates a missing or soft-deleted account.
	ErrAccountNotFound = notFound("Account not found")
	// ErrEntryNotFound indicates a missing or soft-deleted journal entry.
	ErrEntryNotFound = notFound("Journal entry not found")
	// ErrPeriodNotFound indicates no period contains the requested date.
	ErrPeriodNotFound = notFound("No accounting period contains the given date")
	// ErrRuleNotFound indicates a missing auto-entry mapping.
	ErrRuleNotFound = notFound("No auto-entry rule for source type")
	// ErrSourceNotFound indicates an unknown source document reference.
	ErrSourceNotFound = notFound("Source document not found")

	// ErrCodeExists indicates a duplicate active account code.
	ErrCodeExists = conflict("Account code already exists")
	// ErrPeriodOverlap indicates a new period collides with an existing one.
	ErrPeriodOverlap = conflict("Period overlaps an existing period")
	// ErrPeriodClosed indicates the target period no longer accepts postings.
	ErrPeriodClosed = conflict("Cannot create entries in a closed period")
	// ErrPeriodLocked indicates the target period is permanently locked.
	ErrPeriodLocked = conflict("Cannot create entries in a locked period")
	// ErrInvalidTransition indicates a period transition outside open->closed->locked.
	ErrInvalidTransition = conflict("Invalid period status transition")
	// ErrAlreadyPosted guards against double posting.
	ErrAlreadyPosted = conflict("Entry is already posted")
	// ErrEntryPosted rejects edits or deletes of posted entries.
	ErrEntryPosted = conflict("Entry is posted, use reversal instead")
	// ErrEntryCancelled rejects operations on cancelled entries.
	ErrEntryCancelled = conflict("Entry is cancelled")
	// ErrNotPosted rejects reversal of entries that never posted.
	ErrNotPosted = conflict("Only posted entries can be reversed")
	// ErrAlreadyReversed enforces one reversal per entry.
	ErrAlreadyReversed = conflict("Entry has already been reversed")
	// ErrAccountHasChildren blocks deleting summary accounts.
	ErrAccountHasChildren = conflict("Account has child accounts")
	// ErrAccountInUse blocks deleting accounts referenced by journal lines.
	ErrAccountInUse = conflict("Account has journal transaction history")
	// ErrAccountImmutable blocks reclassifying accounts with postings.
	ErrAccountImmutable = conflict("Account classification cannot change once it has postings")

	// ErrSystemAccount protects system accounts from mutation.
	ErrSystemAccount = forbidden("System accounts cannot be modified or deleted")

	// ErrUnbalanced indicates debit and credit totals differ beyond tolerance.
	ErrUnbalanced = validation("Journal entry debits and credits must balance")
	// ErrTooFewLines indicates fewer than two lines.
	ErrTooFewLines = validation("Journal entry requires at least two lines")
	// ErrDateOutOfRange indicates the entry date falls outside its period.
	ErrDateOutOfRange = validation("Transaction date falls outside the accounting period")
	// ErrNotDetailAccount rejects postings against summary accounts.
	ErrNotDetailAccount = validation("Summary accounts cannot receive postings")
	// ErrManualNotAllowed rejects manual entries on restricted accounts.
	ErrManualNotAllowed = validation("Account does not allow manual entries")
)
