package accounts

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

type fakeRepo struct {
	nextID   int64
	accounts map[int64]Account
	children map[int64]int
	lines    map[int64]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID:   1,
		accounts: make(map[int64]Account),
		children: make(map[int64]int),
		lines:    make(map[int64]bool),
	}
}

func (f *fakeRepo) Insert(_ context.Context, a Account) (Account, error) {
	a.ID = f.nextID
	f.nextID++
	if a.ParentID != nil {
		f.children[*a.ParentID]++
		parent := f.accounts[*a.ParentID]
		parent.IsDetail = false
		f.accounts[*a.ParentID] = parent
	}
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (Account, error) {
	a, ok := f.accounts[id]
	if !ok || a.Removed {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeRepo) GetByCode(_ context.Context, code string) (Account, error) {
	for _, a := range f.accounts {
		if a.Code == code && !a.Removed {
			return a, nil
		}
	}
	return Account{}, shared.ErrAccountNotFound
}

func (f *fakeRepo) Update(_ context.Context, a Account) (Account, error) {
	if _, ok := f.accounts[a.ID]; !ok {
		return Account{}, shared.ErrAccountNotFound
	}
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, id int64) error {
	a, ok := f.accounts[id]
	if !ok || a.Removed {
		return shared.ErrAccountNotFound
	}
	a.Removed = true
	a.Status = AccountStatusArchived
	f.accounts[id] = a
	return nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Account, error) {
	var out []Account
	for _, a := range f.accounts {
		if a.Removed {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Query != "" && !strings.Contains(a.Code, filter.Query) && !strings.Contains(a.Name, filter.Query) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRepo) ListActive(_ context.Context) ([]Account, error) {
	var out []Account
	for _, a := range f.accounts {
		if !a.Removed && a.Status == AccountStatusActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) HasChildren(_ context.Context, id int64) (bool, error) {
	return f.children[id] > 0, nil
}

func (f *fakeRepo) HasJournalLines(_ context.Context, id int64) (bool, error) {
	return f.lines[id], nil
}

func createInput(code, name string) CreateAccountInput {
	return CreateAccountInput{
		Code:               code,
		Name:               name,
		Type:               AccountTypeAsset,
		NormalBalance:      NormalBalanceDebit,
		AllowManualEntry:   true,
		ShowInBalanceSheet: true,
	}
}

func TestCreateAccount(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), createInput("1001", "Cash"))
	require.NoError(t, err)
	require.Equal(t, "1001", created.Code)
	require.Equal(t, 1, created.Level)
	require.True(t, created.IsDetail)
	require.Equal(t, AccountStatusActive, created.Status)
}

func TestCreateAccountDuplicateCode(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), createInput("1001", "Cash"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), createInput("1001", "Petty Cash"))
	require.ErrorIs(t, err, shared.ErrCodeExists)
}

func TestCreateAccountUnderParent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	parent, err := svc.Create(context.Background(), createInput("1000", "Assets"))
	require.NoError(t, err)

	in := createInput("1001", "Cash")
	in.ParentCode = "1000"
	child, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, parent.ID, *child.ParentID)
	require.Equal(t, 2, child.Level)

	reloaded, err := svc.Get(context.Background(), parent.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsDetail)
}

func TestCreateAccountValidation(t *testing.T) {
	svc := NewService(newFakeRepo())

	in := createInput("", "Cash")
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)

	in = createInput("1001", "Cash")
	in.Type = AccountType("BOGUS")
	_, err = svc.Create(context.Background(), in)
	require.Error(t, err)
}

func TestUpdateAccountReclassifyWithHistory(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), createInput("1001", "Cash"))
	require.NoError(t, err)
	repo.lines[created.ID] = true

	liability := AccountTypeLiability
	_, err = svc.Update(context.Background(), created.ID, UpdateAccountInput{Type: &liability})
	require.ErrorIs(t, err, shared.ErrAccountImmutable)

	// renaming stays allowed
	name := "Cash on Hand"
	updated, err := svc.Update(context.Background(), created.ID, UpdateAccountInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Cash on Hand", updated.Name)
}

func TestUpdateSystemAccountRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	in := createInput("1101", "Accounts Receivable")
	in.IsSystem = true
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	name := "AR"
	_, err = svc.Update(context.Background(), created.ID, UpdateAccountInput{Name: &name})
	require.ErrorIs(t, err, shared.ErrSystemAccount)
}

func TestDeleteAccountGuards(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	parent, err := svc.Create(context.Background(), createInput("1000", "Assets"))
	require.NoError(t, err)

	in := createInput("1001", "Cash")
	in.ParentCode = "1000"
	child, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), parent.ID)
	require.ErrorIs(t, err, shared.ErrAccountHasChildren)

	repo.lines[child.ID] = true
	err = svc.Delete(context.Background(), child.ID)
	require.ErrorIs(t, err, shared.ErrAccountInUse)
}

func TestDeleteAccountArchives(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), createInput("1001", "Cash"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestHierarchySubtotals(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), createInput("1000", "Assets"))
	require.NoError(t, err)

	cash := createInput("1001", "Cash")
	cash.ParentCode = "1000"
	cash.OpeningBalance = 1500
	_, err = svc.Create(context.Background(), cash)
	require.NoError(t, err)

	ar := createInput("1101", "Accounts Receivable")
	ar.ParentCode = "1000"
	ar.OpeningBalance = 500
	_, err = svc.Create(context.Background(), ar)
	require.NoError(t, err)

	tree, err := svc.Hierarchy(context.Background())
	require.NoError(t, err)
	require.Len(t, tree.Roots, 1)
	require.Equal(t, "1000", tree.Roots[0].Account.Code)
	require.InDelta(t, 2000, tree.Roots[0].Subtotal, 0.001)
	require.Len(t, tree.Roots[0].Children, 2)
	require.Equal(t, "1001", tree.Roots[0].Children[0].Account.Code)

	require.Len(t, tree.Summaries, 1)
	require.Equal(t, AccountTypeAsset, tree.Summaries[0].Type)
	require.Equal(t, 3, tree.Summaries[0].Count)
}
