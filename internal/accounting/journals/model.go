package journals

import (
	"time"

	"github.com/google/uuid"
)

// EntryStatus enumerates the journal entry lifecycle.
type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "DRAFT"
	EntryStatusPosted    EntryStatus = "POSTED"
	EntryStatusCancelled EntryStatus = "CANCELLED"
)

// EntryType distinguishes operator-keyed entries from generated ones.
type EntryType string

const (
	EntryTypeManual    EntryType = "MANUAL"
	EntryTypeAutomatic EntryType = "AUTOMATIC"
)

// SourceType tags the business event behind an automatic entry.
type SourceType string

const (
	SourceInvoiceIssued    SourceType = "INVOICE_ISSUED"
	SourcePaymentReceived  SourceType = "PAYMENT_RECEIVED"
	SourceMaterialOutbound SourceType = "MATERIAL_OUTBOUND"
	SourceReversal         SourceType = "REVERSAL"
)

// Side marks a journal line as a debit or a credit.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// JournalEntry is a balanced double-entry transaction record.
type JournalEntry struct {
	ID           int64       `json:"id"`
	Number       string      `json:"number"`
	PeriodID     int64       `json:"periodId"`
	Date         time.Time   `json:"date"`
	Type         EntryType   `json:"type"`
	SourceType   SourceType  `json:"sourceType,omitempty"`
	SourceID     *uuid.UUID  `json:"sourceId,omitempty"`
	SourceNumber string      `json:"sourceNumber,omitempty"`
	Description  string      `json:"description"`
	Notes        string      `json:"notes,omitempty"`
	Status       EntryStatus `json:"status"`
	IsPosted     bool        `json:"isPosted"`
	PostedBy     *int64      `json:"postedBy,omitempty"`
	PostedAt     *time.Time  `json:"postedAt,omitempty"`
	ReversalOf   *int64      `json:"reversalOf,omitempty"`
	ReversedBy   *int64      `json:"reversedBy,omitempty"`
	Removed      bool        `json:"-"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Lines        []JournalLine `json:"lines,omitempty"`
}

// Totals sums the entry's debit and credit lines.
func (e JournalEntry) Totals() (debit, credit float64) {
	for _, line := range e.Lines {
		if line.Side == SideDebit {
			debit += line.Amount
		} else {
			credit += line.Amount
		}
	}
	return debit, credit
}

// JournalLine records an amount against exactly one account on one side.
type JournalLine struct {
	ID          int64   `json:"id"`
	JournalID   int64   `json:"journalId"`
	LineNo      int     `json:"lineNo"`
	AccountID   int64   `json:"accountId"`
	Side        Side    `json:"side"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// ListFilter narrows entry listings.
type ListFilter struct {
	PeriodID   int64
	Status     EntryStatus
	SourceType SourceType
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
