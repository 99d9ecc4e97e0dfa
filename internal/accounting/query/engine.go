package query

import (
	"context"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
	"github.com/crestline-erp/crestline-erp/internal/accounting/journals"
)

// Repository reads the entry log for statement computation.
type Repository interface {
	LinesForAccount(ctx context.Context, accountID int64, opts BalanceOptions) ([]LineRow, error)
}

// Engine answers balance and history queries. It never mutates state, so it
// reads outside any transaction.
type Engine struct {
	repo     Repository
	accounts *accounts.Service
}

// NewEngine constructs the query engine.
func NewEngine(repo Repository, accountsSvc *accounts.Service) *Engine {
	return &Engine{repo: repo, accounts: accountsSvc}
}

// AccountBalance builds the transaction statement for one account. With no
// start date the running balance opens at the account's opening balance;
// with a start date the view is period-relative and opens at zero.
func (e *Engine) AccountBalance(ctx context.Context, accountID int64, opts BalanceOptions) (Statement, error) {
	account, err := e.accounts.Get(ctx, accountID)
	if err != nil {
		return Statement{}, err
	}
	rows, err := e.repo.LinesForAccount(ctx, accountID, opts)
	if err != nil {
		return Statement{}, err
	}

	opening := account.OpeningBalance
	if opts.StartDate != nil {
		opening = 0
	}

	st := Statement{
		AccountID:      account.ID,
		AccountCode:    account.Code,
		AccountName:    account.Name,
		OpeningBalance: opening,
		Transactions:   make([]TransactionRow, 0, len(rows)),
	}
	running := opening
	for _, row := range rows {
		tx := TransactionRow{
			EntryID:     row.EntryID,
			EntryNumber: row.EntryNumber,
			Date:        row.Date,
			Description: row.Description,
		}
		if row.Side == journals.SideDebit {
			tx.Debit = row.Amount
			st.TotalDebits += row.Amount
			running += row.Amount
		} else {
			tx.Credit = row.Amount
			st.TotalCredits += row.Amount
			running -= row.Amount
		}
		tx.RunningBalance = running
		st.Transactions = append(st.Transactions, tx)
	}
	st.NetChange = st.TotalDebits - st.TotalCredits
	st.EndingBalance = running
	return st, nil
}

// AccountHierarchy returns the chart of accounts tree with rolled-up
// subtotals.
func (e *Engine) AccountHierarchy(ctx context.Context) (accounts.Hierarchy, error) {
	return e.accounts.Hierarchy(ctx)
}
