// Package query computes balances and transaction histories on demand from
// the posted entry log and the chart of accounts.
package query

import (
	"time"

	"github.com/crestline-erp/crestline-erp/internal/accounting/journals"
)

// LineRow is one journal line joined with its entry header, as read from the
// entry log for a single account.
type LineRow struct {
	EntryID     int64
	EntryNumber string
	Date        time.Time
	Side        journals.Side
	Amount      float64
	Description string
	IsPosted    bool
}

// BalanceOptions narrows an account statement.
type BalanceOptions struct {
	StartDate       *time.Time
	EndDate         *time.Time
	IncludeUnposted bool
}

// TransactionRow is one statement line with its running balance.
type TransactionRow struct {
	EntryID        int64     `json:"entryId"`
	EntryNumber    string    `json:"entryNumber"`
	Date           time.Time `json:"date"`
	Description    string    `json:"description"`
	Debit          float64   `json:"debit"`
	Credit         float64   `json:"credit"`
	RunningBalance float64   `json:"runningBalance"`
}

// Statement is the full response for an account balance query. The running
// balance uses the display convention: debits add, credits subtract, for
// every account type. The normal-balance-signed aggregate on the account
// itself is a separate convention and both coexist.
type Statement struct {
	AccountID      int64            `json:"accountId"`
	AccountCode    string           `json:"accountCode"`
	AccountName    string           `json:"accountName"`
	OpeningBalance float64          `json:"openingBalance"`
	Transactions   []TransactionRow `json:"transactions"`
	TotalDebits    float64          `json:"totalDebits"`
	TotalCredits   float64          `json:"totalCredits"`
	NetChange      float64          `json:"netChange"`
	EndingBalance  float64          `json:"endingBalance"`
}
