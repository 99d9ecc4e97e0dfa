package reports

import (
	"sort"
	"time"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
)

// SubTypeCOGS marks accounts counted as cost of goods sold. Construction
// material and subcontract cost accounts are seeded with this sub type.
const SubTypeCOGS = "COGS"

// ProfitAndLossRow is one revenue or expense account with its window amount.
type ProfitAndLossRow struct {
	AccountCode string  `json:"accountCode"`
	AccountName string  `json:"accountName"`
	Amount      float64 `json:"amount"`
}

// ProfitAndLossGroup collects rows sharing an account sub type.
type ProfitAndLossGroup struct {
	SubType  string             `json:"subType"`
	Accounts []ProfitAndLossRow `json:"accounts"`
	Total    float64            `json:"total"`
}

// ProfitAndLoss is the structured income statement for a date range.
type ProfitAndLoss struct {
	StartDate         time.Time            `json:"startDate"`
	EndDate           time.Time            `json:"endDate"`
	Revenue           []ProfitAndLossGroup `json:"revenue"`
	Expenses          []ProfitAndLossGroup `json:"expenses"`
	TotalRevenue      float64              `json:"totalRevenue"`
	TotalExpenses     float64              `json:"totalExpenses"`
	GrossProfit       float64              `json:"grossProfit"`
	CostOfGoodsSold   float64              `json:"costOfGoodsSold"`
	OperatingExpenses float64              `json:"operatingExpenses"`
	OperatingIncome   float64              `json:"operatingIncome"`
	NetIncome         float64              `json:"netIncome"`
}

// BuildProfitAndLoss aggregates revenue and expense movement for the window.
// Revenue is credit minus debit, expense is debit minus credit, grouped by
// account sub type.
func BuildProfitAndLoss(start, end time.Time, activity []AccountActivity) ProfitAndLoss {
	pl := ProfitAndLoss{StartDate: start, EndDate: end}
	revenueGroups := map[string]*ProfitAndLossGroup{}
	expenseGroups := map[string]*ProfitAndLossGroup{}

	for _, a := range activity {
		if !a.Account.ShowInIncomeStatement {
			continue
		}
		amount := a.netMovement()
		row := ProfitAndLossRow{AccountCode: a.Account.Code, AccountName: a.Account.Name, Amount: amount}
		switch a.Account.Type {
		case accounts.AccountTypeRevenue:
			grp := groupFor(revenueGroups, a.Account.SubType)
			grp.Accounts = append(grp.Accounts, row)
			grp.Total += amount
			pl.TotalRevenue += amount
		case accounts.AccountTypeExpense:
			grp := groupFor(expenseGroups, a.Account.SubType)
			grp.Accounts = append(grp.Accounts, row)
			grp.Total += amount
			pl.TotalExpenses += amount
			if a.Account.SubType == SubTypeCOGS {
				pl.CostOfGoodsSold += amount
			}
		}
	}

	pl.Revenue = sortedGroups(revenueGroups)
	pl.Expenses = sortedGroups(expenseGroups)
	pl.GrossProfit = pl.TotalRevenue
	pl.OperatingExpenses = pl.TotalExpenses - pl.CostOfGoodsSold
	pl.OperatingIncome = pl.GrossProfit - pl.CostOfGoodsSold - pl.OperatingExpenses
	pl.NetIncome = pl.TotalRevenue - pl.TotalExpenses
	return pl
}

func groupFor(groups map[string]*ProfitAndLossGroup, subType string) *ProfitAndLossGroup {
	grp, ok := groups[subType]
	if !ok {
		grp = &ProfitAndLossGroup{SubType: subType}
		groups[subType] = grp
	}
	return grp
}

func sortedGroups(groups map[string]*ProfitAndLossGroup) []ProfitAndLossGroup {
	out := make([]ProfitAndLossGroup, 0, len(groups))
	for _, grp := range groups {
		sort.Slice(grp.Accounts, func(i, j int) bool { return grp.Accounts[i].AccountCode < grp.Accounts[j].AccountCode })
		out = append(out, *grp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubType < out[j].SubType })
	return out
}
