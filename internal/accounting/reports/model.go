// Package reports builds the trial balance, profit and loss, and balance
// sheet from aggregated ledger activity. Builders are pure functions over
// AccountActivity rows so the formulas stay testable without a database.
package reports

import (
	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
)

// AccountActivity is one account with its posted debit and credit totals for
// the report window.
type AccountActivity struct {
	Account accounts.Account
	Debits  float64
	Credits float64
}

// queryBalance is the display-convention balance: debits add, credits
// subtract. Opening balances are stored normal-signed, so a credit-normal
// opening flips sign before entering the debit-positive convention; without
// that flip the trial balance columns would not cancel.
func (a AccountActivity) queryBalance() float64 {
	opening := a.Account.OpeningBalance
	if a.Account.NormalBalance == accounts.NormalBalanceCredit {
		opening = -opening
	}
	return opening + a.Debits - a.Credits
}

// signedBalance is the normal-balance-aware amount: activity on the
// account's normal side increases it.
func (a AccountActivity) signedBalance() float64 {
	if a.Account.NormalBalance == accounts.NormalBalanceCredit {
		return a.Account.OpeningBalance + a.Credits - a.Debits
	}
	return a.Account.OpeningBalance + a.Debits - a.Credits
}

// netMovement is the normal-balance-aware movement within the window,
// ignoring the opening balance.
func (a AccountActivity) netMovement() float64 {
	if a.Account.NormalBalance == accounts.NormalBalanceCredit {
		return a.Credits - a.Debits
	}
	return a.Debits - a.Credits
}
