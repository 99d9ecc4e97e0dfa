package journals

import (
	"context"
	"time"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
	"github.com/crestline-erp/crestline-erp/internal/accounting/periods"
)

// Repository encapsulates journal persistence. Mutations run through WithTx
// so posting applies entry status and account balances as one atomic unit.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, f ListFilter) ([]JournalEntry, error)
	Get(ctx context.Context, id int64) (JournalEntry, error)
}

// TxRepository exposes the operations available inside a ledger transaction.
// Period and account operations are included because posting must read and
// mutate them under the same transaction as the entry itself.
type TxRepository interface {
	InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error
	ReplaceLines(ctx context.Context, entryID int64, lines []JournalLine) error
	GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error)
	GetLines(ctx context.Context, entryID int64) ([]JournalLine, error)
	UpdateEntryHeader(ctx context.Context, e JournalEntry) error
	MarkPosted(ctx context.Context, id, actorID int64, at time.Time) error
	SetReversedBy(ctx context.Context, originalID, reversalID int64) error
	SoftDeleteEntry(ctx context.Context, id int64) error

	GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error)
	FindPeriodByDateForUpdate(ctx context.Context, date time.Time) (periods.Period, error)
	// NextEntrySeq atomically increments and returns the period's entry
	// sequence; the period row lock serializes concurrent creates.
	NextEntrySeq(ctx context.Context, periodID int64) (int64, error)

	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	GetAccountForUpdate(ctx context.Context, id int64) (accounts.Account, error)
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta float64) error
}
