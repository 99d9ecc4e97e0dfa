package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

// Service implements chart of accounts business rules.
type Service struct {
	repo Repository
}

// NewService constructs the accounts service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new account. The parent, when given, must exist; a leaf
// parent stops being a detail account once it gains a child.
func (s *Service) Create(ctx context.Context, in CreateAccountInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	if _, err := s.repo.GetByCode(ctx, in.Code); err == nil {
		return Account{}, shared.ErrCodeExists
	} else if !errors.Is(err, shared.ErrAccountNotFound) {
		return Account{}, err
	}

	account := Account{
		Code:                  strings.TrimSpace(in.Code),
		Name:                  strings.TrimSpace(in.Name),
		Type:                  in.Type,
		SubType:               in.SubType,
		NormalBalance:         in.NormalBalance,
		Level:                 1,
		IsDetail:              true,
		OpeningBalance:        in.OpeningBalance,
		CurrentBalance:        in.OpeningBalance,
		AllowManualEntry:      in.AllowManualEntry,
		ShowInBalanceSheet:    in.ShowInBalanceSheet,
		ShowInIncomeStatement: in.ShowInIncomeStatement,
		IsSystem:              in.IsSystem,
		Status:                AccountStatusActive,
	}
	if in.ParentCode != "" {
		parent, err := s.repo.GetByCode(ctx, in.ParentCode)
		if err != nil {
			return Account{}, err
		}
		account.ParentID = &parent.ID
		account.Level = parent.Level + 1
	}
	return s.repo.Insert(ctx, account)
}

// Get returns a single non-removed account.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies mutable fields. Classification fields freeze once the
// account has journal history; system accounts reject all changes.
func (s *Service) Update(ctx context.Context, id int64, in UpdateAccountInput) (Account, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if current.IsSystem {
		return Account{}, shared.ErrSystemAccount
	}
	if in.TouchesClassification(current) {
		used, err := s.repo.HasJournalLines(ctx, id)
		if err != nil {
			return Account{}, err
		}
		if used {
			return Account{}, shared.ErrAccountImmutable
		}
	}
	if in.Code != nil && *in.Code != current.Code {
		if _, err := s.repo.GetByCode(ctx, *in.Code); err == nil {
			return Account{}, shared.ErrCodeExists
		} else if !errors.Is(err, shared.ErrAccountNotFound) {
			return Account{}, err
		}
		current.Code = *in.Code
	}
	if in.Name != nil {
		current.Name = *in.Name
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return Account{}, shared.Validationf("unknown account type %q", *in.Type)
		}
		current.Type = *in.Type
	}
	if in.SubType != nil {
		current.SubType = *in.SubType
	}
	if in.NormalBalance != nil {
		if !in.NormalBalance.Valid() {
			return Account{}, shared.Validationf("unknown normal balance %q", *in.NormalBalance)
		}
		current.NormalBalance = *in.NormalBalance
	}
	if in.AllowManualEntry != nil {
		current.AllowManualEntry = *in.AllowManualEntry
	}
	if in.ShowInBalanceSheet != nil {
		current.ShowInBalanceSheet = *in.ShowInBalanceSheet
	}
	if in.ShowInIncomeStatement != nil {
		current.ShowInIncomeStatement = *in.ShowInIncomeStatement
	}
	return s.repo.Update(ctx, current)
}

// Delete soft-deletes an account. Accounts with children, with journal
// history, or flagged as system accounts cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if account.IsSystem {
		return shared.ErrSystemAccount
	}
	hasChildren, err := s.repo.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.ErrAccountHasChildren
	}
	used, err := s.repo.HasJournalLines(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return shared.ErrAccountInUse
	}
	return s.repo.SoftDelete(ctx, id)
}

// List returns accounts matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Account, error) {
	return s.repo.List(ctx, f)
}

// Search is a convenience wrapper over List with a free-text query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Account, error) {
	return s.repo.List(ctx, ListFilter{Query: query, Limit: limit})
}

// Hierarchy builds the account tree with subtotals from the active set.
func (s *Service) Hierarchy(ctx context.Context) (Hierarchy, error) {
	flat, err := s.repo.ListActive(ctx)
	if err != nil {
		return Hierarchy{}, err
	}
	return BuildHierarchy(flat), nil
}
