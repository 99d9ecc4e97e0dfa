package accounts

import (
	"strings"
	"time"

	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether the type is a known category.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance is the side on which an account's balance increases.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// Valid reports whether the normal balance is a known side.
func (n NormalBalance) Valid() bool {
	return n == NormalBalanceDebit || n == NormalBalanceCredit
}

// AccountStatus enumerates account lifecycle states.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusArchived AccountStatus = "ARCHIVED"
)

// Account models a chart of accounts node.
type Account struct {
	ID                    int64         `json:"id"`
	Code                  string        `json:"code"`
	Name                  string        `json:"name"`
	Type                  AccountType   `json:"type"`
	SubType               string        `json:"subType"`
	NormalBalance         NormalBalance `json:"normalBalance"`
	ParentID              *int64        `json:"parentId,omitempty"`
	Level                 int           `json:"level"`
	IsDetail              bool          `json:"isDetail"`
	OpeningBalance        float64       `json:"openingBalance"`
	CurrentBalance        float64       `json:"currentBalance"`
	AllowManualEntry      bool          `json:"allowManualEntry"`
	ShowInBalanceSheet    bool          `json:"showInBalanceSheet"`
	ShowInIncomeStatement bool          `json:"showInIncomeStatement"`
	IsSystem              bool          `json:"isSystem"`
	Status                AccountStatus `json:"status"`
	Removed               bool          `json:"-"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}

// CreateAccountInput groups fields required to register an account.
type CreateAccountInput struct {
	Code                  string
	Name                  string
	Type                  AccountType
	SubType               string
	NormalBalance         NormalBalance
	ParentCode            string
	OpeningBalance        float64
	AllowManualEntry      bool
	ShowInBalanceSheet    bool
	ShowInIncomeStatement bool
	IsSystem              bool
}

// Validate checks required fields and enum values.
func (in CreateAccountInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return shared.Validationf("account code is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return shared.Validationf("account name is required")
	}
	if !in.Type.Valid() {
		return shared.Validationf("unknown account type %q", in.Type)
	}
	if !in.NormalBalance.Valid() {
		return shared.Validationf("unknown normal balance %q", in.NormalBalance)
	}
	return nil
}

// UpdateAccountInput carries the mutable account fields. Nil pointers leave
// the current value untouched.
type UpdateAccountInput struct {
	Code                  *string
	Name                  *string
	Type                  *AccountType
	SubType               *string
	NormalBalance         *NormalBalance
	AllowManualEntry      *bool
	ShowInBalanceSheet    *bool
	ShowInIncomeStatement *bool
}

// TouchesClassification reports whether the update changes fields that become
// immutable once the account has postings.
func (in UpdateAccountInput) TouchesClassification(current Account) bool {
	if in.Type != nil && *in.Type != current.Type {
		return true
	}
	if in.SubType != nil && *in.SubType != current.SubType {
		return true
	}
	if in.NormalBalance != nil && *in.NormalBalance != current.NormalBalance {
		return true
	}
	return false
}

// ListFilter narrows account listings.
type ListFilter struct {
	Type   AccountType
	Status AccountStatus
	Query  string
	Limit  int
	Offset int
}
