// Package autoentry maps business events to journal entries via a seeded
// rule table. Source modules call Generate instead of touching the ledger
// tables directly.
package autoentry

import (
	"time"

	"github.com/google/uuid"

	"github.com/crestline-erp/crestline-erp/internal/accounting/journals"
)

// Rule maps one source event type to a fixed debit and credit account pair.
// Amounts come from the source document, never from the rule.
type Rule struct {
	SourceType        journals.SourceType `json:"sourceType"`
	DebitAccountCode  string              `json:"debitAccountCode"`
	CreditAccountCode string              `json:"creditAccountCode"`
	MemoTemplate      string              `json:"memoTemplate"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// SourceDocument is the slice of a business document the ledger needs.
type SourceDocument struct {
	Number string
	Date   time.Time
	Amount float64
}

// GenerateInput identifies the event to post.
type GenerateInput struct {
	SourceType journals.SourceType
	SourceID   uuid.UUID
	ActorID    int64
}
