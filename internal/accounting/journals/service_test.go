package journals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
	"github.com/crestline-erp/crestline-erp/internal/accounting/periods"
	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

type fakeStore struct {
	periods  map[int64]periods.Period
	accounts map[int64]accounts.Account
	entries  map[int64]*JournalEntry
	lines    map[int64][]JournalLine
	nextID   int64
}

func newFakeStore() *fakeStore {
	jan := periods.Period{
		ID:           1,
		FiscalYear:   2024,
		PeriodNumber: 1,
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Status:       periods.PeriodStatusOpen,
	}
	feb := periods.Period{
		ID:           2,
		FiscalYear:   2024,
		PeriodNumber: 2,
		StartDate:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		Status:       periods.PeriodStatusOpen,
	}
	return &fakeStore{
		periods: map[int64]periods.Period{1: jan, 2: feb},
		accounts: map[int64]accounts.Account{
			1: {ID: 1, Code: "1001", Name: "Cash", Type: accounts.AccountTypeAsset, NormalBalance: accounts.NormalBalanceDebit, IsDetail: true, AllowManualEntry: true, Status: accounts.AccountStatusActive},
			2: {ID: 2, Code: "4001", Name: "Contract Revenue", Type: accounts.AccountTypeRevenue, NormalBalance: accounts.NormalBalanceCredit, IsDetail: true, AllowManualEntry: true, Status: accounts.AccountStatusActive},
			3: {ID: 3, Code: "1000", Name: "Current Assets", Type: accounts.AccountTypeAsset, NormalBalance: accounts.NormalBalanceDebit, IsDetail: false, AllowManualEntry: true, Status: accounts.AccountStatusActive},
			4: {ID: 4, Code: "1101", Name: "Accounts Receivable", Type: accounts.AccountTypeAsset, NormalBalance: accounts.NormalBalanceDebit, IsDetail: true, AllowManualEntry: false, Status: accounts.AccountStatusActive},
		},
		entries: map[int64]*JournalEntry{},
		lines:   map[int64][]JournalLine{},
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeStore) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, e := range f.entries {
		if e.Removed {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeStore) Get(ctx context.Context, id int64) (JournalEntry, error) {
	e, ok := f.entries[id]
	if !ok || e.Removed {
		return JournalEntry{}, shared.ErrEntryNotFound
	}
	out := *e
	out.Lines = append([]JournalLine(nil), f.lines[id]...)
	return out, nil
}

func (f *fakeStore) InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	f.nextID++
	e.ID = f.nextID
	f.entries[e.ID] = &e
	return e, nil
}

func (f *fakeStore) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	for i, line := range lines {
		line.JournalID = entryID
		line.LineNo = i + 1
		f.lines[entryID] = append(f.lines[entryID], line)
	}
	return nil
}

func (f *fakeStore) ReplaceLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	f.lines[entryID] = nil
	return f.InsertLines(ctx, entryID, lines)
}

func (f *fakeStore) GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	e, ok := f.entries[id]
	if !ok || e.Removed {
		return JournalEntry{}, shared.ErrEntryNotFound
	}
	return *e, nil
}

func (f *fakeStore) GetLines(ctx context.Context, entryID int64) ([]JournalLine, error) {
	return append([]JournalLine(nil), f.lines[entryID]...), nil
}

func (f *fakeStore) UpdateEntryHeader(ctx context.Context, e JournalEntry) error {
	stored, ok := f.entries[e.ID]
	if !ok || stored.Removed {
		return shared.ErrEntryNotFound
	}
	stored.Date = e.Date
	stored.Description = e.Description
	stored.Notes = e.Notes
	return nil
}

func (f *fakeStore) MarkPosted(ctx context.Context, id, actorID int64, at time.Time) error {
	e, ok := f.entries[id]
	if !ok || e.Removed {
		return shared.ErrEntryNotFound
	}
	e.Status = EntryStatusPosted
	e.IsPosted = true
	e.PostedBy = &actorID
	e.PostedAt = &at
	return nil
}

func (f *fakeStore) SetReversedBy(ctx context.Context, originalID, reversalID int64) error {
	e, ok := f.entries[originalID]
	if !ok {
		return shared.ErrEntryNotFound
	}
	if e.ReversedBy != nil {
		return shared.ErrAlreadyReversed
	}
	e.ReversedBy = &reversalID
	return nil
}

func (f *fakeStore) SoftDeleteEntry(ctx context.Context, id int64) error {
	e, ok := f.entries[id]
	if !ok || e.Removed {
		return shared.ErrEntryNotFound
	}
	e.Removed = true
	e.Status = EntryStatusCancelled
	return nil
}

func (f *fakeStore) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	p, ok := f.periods[periodID]
	if !ok {
		return periods.Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

func (f *fakeStore) FindPeriodByDateForUpdate(ctx context.Context, date time.Time) (periods.Period, error) {
	for _, p := range f.periods {
		if p.Contains(date) {
			return p, nil
		}
	}
	return periods.Period{}, shared.ErrPeriodNotFound
}

func (f *fakeStore) NextEntrySeq(ctx context.Context, periodID int64) (int64, error) {
	p, ok := f.periods[periodID]
	if !ok {
		return 0, shared.ErrPeriodNotFound
	}
	p.EntrySeq++
	f.periods[periodID] = p
	return p.EntrySeq, nil
}

func (f *fakeStore) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	a, ok := f.accounts[id]
	if !ok || a.Removed {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeStore) GetAccountForUpdate(ctx context.Context, id int64) (accounts.Account, error) {
	return f.GetAccount(ctx, id)
}

func (f *fakeStore) ApplyBalanceDelta(ctx context.Context, accountID int64, delta float64) error {
	a, ok := f.accounts[accountID]
	if !ok {
		return shared.ErrAccountNotFound
	}
	a.CurrentBalance += delta
	f.accounts[accountID] = a
	return nil
}

func ptr[T any](v T) *T { return &v }

func testNow() time.Time {
	return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
}

func newTestService(store *fakeStore, policy ReversalPolicy) *Service {
	svc := NewService(store, nil, nil, nil, policy)
	svc.WithNow(testNow)
	return svc
}

func balancedInput(date time.Time) CreateEntryInput {
	return CreateEntryInput{
		Date:        date,
		Type:        EntryTypeManual,
		Description: "Office rent",
		Lines: []LineInput{
			{DebitAccountID: ptr[int64](1), Amount: 500, Description: "Cash out"},
			{CreditAccountID: ptr[int64](2), Amount: 500, Description: "Revenue"},
		},
	}
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	first, err := svc.Create(context.Background(), balancedInput(date))
	require.NoError(t, err)
	require.Equal(t, "JE-2024-01-0001", first.Number)
	require.Equal(t, EntryStatusDraft, first.Status)
	require.Len(t, first.Lines, 2)

	second, err := svc.Create(context.Background(), balancedInput(date))
	require.NoError(t, err)
	require.Equal(t, "JE-2024-01-0002", second.Number)

	// Drafts must not touch balances.
	require.Zero(t, store.accounts[1].CurrentBalance)
	require.Zero(t, store.accounts[2].CurrentBalance)
}

func TestCreateRejectsUnbalancedLines(t *testing.T) {
	svc := newTestService(newFakeStore(), ReversalPolicySource)
	in := balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	in.Lines[1].Amount = 499.50

	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
}

func TestCreateToleratesRoundingSlack(t *testing.T) {
	svc := newTestService(newFakeStore(), ReversalPolicySource)
	in := balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	in.Lines[1].Amount = 499.995

	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestCreateRejectsDateOutsidePeriod(t *testing.T) {
	svc := newTestService(newFakeStore(), ReversalPolicySource)
	in := balancedInput(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	in.PeriodID = ptr[int64](1)

	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrDateOutOfRange)
}

func TestCreateRejectsClosedPeriod(t *testing.T) {
	store := newFakeStore()
	p := store.periods[1]
	p.Status = periods.PeriodStatusClosed
	store.periods[1] = p
	svc := newTestService(store, ReversalPolicySource)

	_, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
}

func TestCreateRejectsSummaryAccount(t *testing.T) {
	svc := newTestService(newFakeStore(), ReversalPolicySource)
	in := balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	in.Lines[0].DebitAccountID = ptr[int64](3)

	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrNotDetailAccount)
}

func TestCreateRejectsManualOnRestrictedAccount(t *testing.T) {
	svc := newTestService(newFakeStore(), ReversalPolicySource)
	in := balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	in.Lines[0].DebitAccountID = ptr[int64](4)

	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrManualNotAllowed)
}

func TestCreateAllowsAutomaticOnRestrictedAccount(t *testing.T) {
	svc := newTestService(newFakeStore(), ReversalPolicySource)
	in := balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	in.Type = EntryTypeAutomatic
	in.SourceType = SourceInvoiceIssued
	in.Lines[0].DebitAccountID = ptr[int64](4)

	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestPostAppliesNormalBalanceDeltas(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	posted, err := svc.Post(context.Background(), draft.ID, 7)
	require.NoError(t, err)
	require.Equal(t, EntryStatusPosted, posted.Status)
	require.True(t, posted.IsPosted)
	require.NotNil(t, posted.PostedAt)
	require.Equal(t, int64(7), *posted.PostedBy)

	// Debit on a debit-normal account increases it; credit on a
	// credit-normal account increases it too.
	require.InDelta(t, 500.0, store.accounts[1].CurrentBalance, 0.001)
	require.InDelta(t, 500.0, store.accounts[2].CurrentBalance, 0.001)
}

func TestPostTwiceRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), draft.ID, 7)
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), draft.ID, 7)
	require.ErrorIs(t, err, shared.ErrAlreadyPosted)

	// Balances applied exactly once.
	require.InDelta(t, 500.0, store.accounts[1].CurrentBalance, 0.001)
}

func TestPostRejectsLockedPeriod(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	p := store.periods[1]
	p.Status = periods.PeriodStatusLocked
	store.periods[1] = p

	_, err = svc.Post(context.Background(), draft.ID, 7)
	require.ErrorIs(t, err, shared.ErrPeriodLocked)
}

func TestReverseMirrorsAndLinks(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), draft.ID, 7)
	require.NoError(t, err)

	reversal, err := svc.Reverse(context.Background(), ReverseEntryInput{EntryID: draft.ID, Reason: "wrong amount", ActorID: 9})
	require.NoError(t, err)
	require.Equal(t, EntryStatusPosted, reversal.Status)
	require.Equal(t, EntryTypeAutomatic, reversal.Type)
	require.Equal(t, SourceReversal, reversal.SourceType)
	require.Equal(t, draft.ID, *reversal.ReversalOf)
	require.Equal(t, "JE-2024-01-0002", reversal.Number)
	require.Contains(t, reversal.Description, "wrong amount")

	// Sides flipped line for line.
	require.Equal(t, SideCredit, reversal.Lines[0].Side)
	require.Equal(t, SideDebit, reversal.Lines[1].Side)

	// Balances return to zero.
	require.InDelta(t, 0.0, store.accounts[1].CurrentBalance, 0.001)
	require.InDelta(t, 0.0, store.accounts[2].CurrentBalance, 0.001)

	// Original now carries the back-link.
	original, err := svc.Get(context.Background(), draft.ID)
	require.NoError(t, err)
	require.Equal(t, reversal.ID, *original.ReversedBy)
}

func TestReverseTwiceRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), draft.ID, 7)
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), ReverseEntryInput{EntryID: draft.ID, ActorID: 9})
	require.NoError(t, err)
	_, err = svc.Reverse(context.Background(), ReverseEntryInput{EntryID: draft.ID, ActorID: 9})
	require.ErrorIs(t, err, shared.ErrAlreadyReversed)
}

func TestReverseDraftRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), ReverseEntryInput{EntryID: draft.ID, ActorID: 9})
	require.ErrorIs(t, err, shared.ErrNotPosted)
}

func TestReversePolicyCurrentUsesTodaysPeriod(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicyCurrent)
	svc.WithNow(func() time.Time { return time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC) })

	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), draft.ID, 7)
	require.NoError(t, err)

	reversal, err := svc.Reverse(context.Background(), ReverseEntryInput{EntryID: draft.ID, ActorID: 9})
	require.NoError(t, err)
	require.Equal(t, int64(2), reversal.PeriodID)
	require.Equal(t, "JE-2024-02-0001", reversal.Number)
}

func TestUpdatePostedRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), draft.ID, 7)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), draft.ID, UpdateEntryInput{Description: ptr("edited")}, 7)
	require.ErrorIs(t, err, shared.ErrEntryPosted)
}

func TestUpdateDraftReplacesLines(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), draft.ID, UpdateEntryInput{
		Description: ptr("Corrected rent"),
		Lines: []LineInput{
			{DebitAccountID: ptr[int64](1), Amount: 750, Description: "Cash out"},
			{CreditAccountID: ptr[int64](2), Amount: 750, Description: "Revenue"},
		},
	}, 7)
	require.NoError(t, err)
	require.Equal(t, "Corrected rent", updated.Description)
	require.Len(t, updated.Lines, 2)
	require.InDelta(t, 750.0, updated.Lines[0].Amount, 0.001)
}

func TestRemoveDraftCancels(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), draft.ID, 7))
	_, err = svc.Get(context.Background(), draft.ID)
	require.ErrorIs(t, err, shared.ErrEntryNotFound)
}

func TestRemovePostedRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ReversalPolicySource)
	draft, err := svc.Create(context.Background(), balancedInput(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), draft.ID, 7)
	require.NoError(t, err)

	err = svc.Remove(context.Background(), draft.ID, 7)
	require.ErrorIs(t, err, shared.ErrEntryPosted)
}
