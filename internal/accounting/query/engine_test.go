package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
	"github.com/crestline-erp/crestline-erp/internal/accounting/journals"
	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

type fakeAccountRepo struct {
	byID map[int64]accounts.Account
}

func (f *fakeAccountRepo) Insert(ctx context.Context, a accounts.Account) (accounts.Account, error) {
	return a, nil
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id int64) (accounts.Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeAccountRepo) GetByCode(ctx context.Context, code string) (accounts.Account, error) {
	return accounts.Account{}, shared.ErrAccountNotFound
}

func (f *fakeAccountRepo) Update(ctx context.Context, a accounts.Account) (accounts.Account, error) {
	return a, nil
}

func (f *fakeAccountRepo) SoftDelete(ctx context.Context, id int64) error { return nil }

func (f *fakeAccountRepo) List(ctx context.Context, filter accounts.ListFilter) ([]accounts.Account, error) {
	return nil, nil
}

func (f *fakeAccountRepo) ListActive(ctx context.Context) ([]accounts.Account, error) {
	var out []accounts.Account
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAccountRepo) HasChildren(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func (f *fakeAccountRepo) HasJournalLines(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

type fakeLineRepo struct {
	rows []LineRow
}

func (f *fakeLineRepo) LinesForAccount(ctx context.Context, accountID int64, opts BalanceOptions) ([]LineRow, error) {
	var out []LineRow
	for _, row := range f.rows {
		if !opts.IncludeUnposted && !row.IsPosted {
			continue
		}
		if opts.StartDate != nil && row.Date.Before(*opts.StartDate) {
			continue
		}
		if opts.EndDate != nil && row.Date.After(*opts.EndDate) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func newTestEngine(rows []LineRow) *Engine {
	accountRepo := &fakeAccountRepo{byID: map[int64]accounts.Account{
		1: {ID: 1, Code: "1001", Name: "Cash", Type: accounts.AccountTypeAsset, NormalBalance: accounts.NormalBalanceDebit, IsDetail: true, OpeningBalance: 1000, Status: accounts.AccountStatusActive},
	}}
	return NewEngine(&fakeLineRepo{rows: rows}, accounts.NewService(accountRepo))
}

func TestAccountBalanceRunningConvention(t *testing.T) {
	engine := newTestEngine([]LineRow{
		{EntryID: 1, EntryNumber: "JE-2024-01-0001", Date: day(5), Side: journals.SideDebit, Amount: 300, IsPosted: true},
		{EntryID: 2, EntryNumber: "JE-2024-01-0002", Date: day(8), Side: journals.SideCredit, Amount: 120, IsPosted: true},
		{EntryID: 3, EntryNumber: "JE-2024-01-0003", Date: day(9), Side: journals.SideDebit, Amount: 50, IsPosted: false},
	})

	st, err := engine.AccountBalance(context.Background(), 1, BalanceOptions{})
	require.NoError(t, err)

	// No start date: opens at the account's opening balance and skips the
	// unposted row.
	require.InDelta(t, 1000.0, st.OpeningBalance, 0.001)
	require.Len(t, st.Transactions, 2)
	require.InDelta(t, 1300.0, st.Transactions[0].RunningBalance, 0.001)
	require.InDelta(t, 1180.0, st.Transactions[1].RunningBalance, 0.001)
	require.InDelta(t, 300.0, st.TotalDebits, 0.001)
	require.InDelta(t, 120.0, st.TotalCredits, 0.001)
	require.InDelta(t, 180.0, st.NetChange, 0.001)
	require.InDelta(t, 1180.0, st.EndingBalance, 0.001)
}

func TestAccountBalancePeriodRelativeView(t *testing.T) {
	engine := newTestEngine([]LineRow{
		{EntryID: 1, Date: day(2), Side: journals.SideDebit, Amount: 300, IsPosted: true},
		{EntryID: 2, Date: day(8), Side: journals.SideCredit, Amount: 100, IsPosted: true},
	})

	start := day(5)
	st, err := engine.AccountBalance(context.Background(), 1, BalanceOptions{StartDate: &start})
	require.NoError(t, err)

	// A start date means a period-relative view: opening is zero and rows
	// before the start are excluded.
	require.Zero(t, st.OpeningBalance)
	require.Len(t, st.Transactions, 1)
	require.InDelta(t, -100.0, st.EndingBalance, 0.001)
}

func TestAccountBalanceIncludeUnposted(t *testing.T) {
	engine := newTestEngine([]LineRow{
		{EntryID: 1, Date: day(5), Side: journals.SideDebit, Amount: 300, IsPosted: false},
	})

	st, err := engine.AccountBalance(context.Background(), 1, BalanceOptions{IncludeUnposted: true})
	require.NoError(t, err)
	require.Len(t, st.Transactions, 1)
	require.InDelta(t, 1300.0, st.EndingBalance, 0.001)
}

func TestAccountBalanceIdempotent(t *testing.T) {
	engine := newTestEngine([]LineRow{
		{EntryID: 1, Date: day(5), Side: journals.SideDebit, Amount: 300, IsPosted: true},
	})

	first, err := engine.AccountBalance(context.Background(), 1, BalanceOptions{})
	require.NoError(t, err)
	second, err := engine.AccountBalance(context.Background(), 1, BalanceOptions{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAccountBalanceUnknownAccount(t *testing.T) {
	engine := newTestEngine(nil)
	_, err := engine.AccountBalance(context.Background(), 99, BalanceOptions{})
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}
