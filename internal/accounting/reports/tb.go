package reports

import (
	"sort"
	"time"
)

// TrialBalanceRow is one account with its balance placed in the debit or
// credit column by sign.
type TrialBalanceRow struct {
	AccountCode string  `json:"accountCode"`
	AccountName string  `json:"accountName"`
	AccountType string  `json:"accountType"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
}

// TrialBalance lists every active detail account as of a date. TotalDebits
// and TotalCredits must be equal for any valid ledger.
type TrialBalance struct {
	AsOf         time.Time         `json:"asOf"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  float64           `json:"totalDebits"`
	TotalCredits float64           `json:"totalCredits"`
}

// BuildTrialBalance places each account's display-convention balance in the
// debit column when positive and the credit column when negative. Zero
// balances are kept so the report covers the whole chart.
func BuildTrialBalance(asOf time.Time, activity []AccountActivity) TrialBalance {
	tb := TrialBalance{AsOf: asOf, Rows: make([]TrialBalanceRow, 0, len(activity))}
	for _, a := range activity {
		row := TrialBalanceRow{
			AccountCode: a.Account.Code,
			AccountName: a.Account.Name,
			AccountType: string(a.Account.Type),
		}
		balance := a.queryBalance()
		if balance >= 0 {
			row.Debit = balance
		} else {
			row.Credit = -balance
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebits += row.Debit
		tb.TotalCredits += row.Credit
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].AccountCode < tb.Rows[j].AccountCode })
	return tb
}
