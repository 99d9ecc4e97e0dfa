package accounts

import "context"

// Repository defines data access for the chart of accounts.
type Repository interface {
	// Insert persists a new account and, when the parent was a leaf, clears
	// the parent's detail flag in the same transaction.
	Insert(ctx context.Context, a Account) (Account, error)
	GetByID(ctx context.Context, id int64) (Account, error)
	GetByCode(ctx context.Context, code string) (Account, error)
	Update(ctx context.Context, a Account) (Account, error)
	// SoftDelete marks the account removed and archived.
	SoftDelete(ctx context.Context, id int64) error
	List(ctx context.Context, f ListFilter) ([]Account, error)
	// ListActive returns every non-removed active account, ordered by code.
	ListActive(ctx context.Context) ([]Account, error)
	HasChildren(ctx context.Context, id int64) (bool, error)
	HasJournalLines(ctx context.Context, id int64) (bool, error)
}
