package reports

import (
	"sort"
	"time"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
)

// BalanceSheetRow is one account with its normal-balance-signed amount.
type BalanceSheetRow struct {
	AccountCode string  `json:"accountCode"`
	AccountName string  `json:"accountName"`
	SubType     string  `json:"subType"`
	Balance     float64 `json:"balance"`
}

// BalanceSheetSection groups rows for one classification.
type BalanceSheetSection struct {
	Label    string            `json:"label"`
	Accounts []BalanceSheetRow `json:"accounts"`
	Total    float64           `json:"total"`
}

// BalanceSheet is the structured statement of financial position. Equity
// includes a synthetic "Current Period Earnings" row carrying accumulated
// net income, which is what makes the accounting identity hold before a
// year-end close sweeps earnings into retained earnings.
type BalanceSheet struct {
	AsOf                      time.Time           `json:"asOf"`
	Assets                    BalanceSheetSection `json:"assets"`
	Liabilities               BalanceSheetSection `json:"liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	TotalAssets               float64             `json:"totalAssets"`
	TotalLiabilities          float64             `json:"totalLiabilities"`
	TotalEquity               float64             `json:"totalEquity"`
	TotalLiabilitiesAndEquity float64             `json:"totalLiabilitiesAndEquity"`
}

// BuildBalanceSheet partitions accounts by type with normal-balance-signed
// amounts and folds revenue and expense movement into equity as current
// period earnings.
func BuildBalanceSheet(asOf time.Time, activity []AccountActivity) BalanceSheet {
	bs := BalanceSheet{
		AsOf:        asOf,
		Assets:      BalanceSheetSection{Label: "Assets"},
		Liabilities: BalanceSheetSection{Label: "Liabilities"},
		Equity:      BalanceSheetSection{Label: "Equity"},
	}

	var earnings float64
	for _, a := range activity {
		switch a.Account.Type {
		case accounts.AccountTypeRevenue, accounts.AccountTypeExpense:
			amount := a.netMovement()
			if a.Account.Type == accounts.AccountTypeExpense {
				amount = -amount
			}
			earnings += amount
			continue
		}
		if !a.Account.ShowInBalanceSheet {
			continue
		}
		row := BalanceSheetRow{
			AccountCode: a.Account.Code,
			AccountName: a.Account.Name,
			SubType:     a.Account.SubType,
			Balance:     a.signedBalance(),
		}
		switch a.Account.Type {
		case accounts.AccountTypeAsset:
			bs.Assets.Accounts = append(bs.Assets.Accounts, row)
			bs.Assets.Total += row.Balance
		case accounts.AccountTypeLiability:
			bs.Liabilities.Accounts = append(bs.Liabilities.Accounts, row)
			bs.Liabilities.Total += row.Balance
		case accounts.AccountTypeEquity:
			bs.Equity.Accounts = append(bs.Equity.Accounts, row)
			bs.Equity.Total += row.Balance
		}
	}

	sortRows(bs.Assets.Accounts)
	sortRows(bs.Liabilities.Accounts)
	sortRows(bs.Equity.Accounts)

	bs.Equity.Accounts = append(bs.Equity.Accounts, BalanceSheetRow{
		AccountName: "Current Period Earnings",
		SubType:     "RETAINED_EARNINGS",
		Balance:     earnings,
	})
	bs.Equity.Total += earnings

	bs.TotalAssets = bs.Assets.Total
	bs.TotalLiabilities = bs.Liabilities.Total
	bs.TotalEquity = bs.Equity.Total
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities + bs.TotalEquity
	return bs
}

func sortRows(rows []BalanceSheetRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountCode < rows[j].AccountCode })
}
