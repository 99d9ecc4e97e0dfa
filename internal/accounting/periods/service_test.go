package periods

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

type fakeRepo struct {
	nextID  int64
	periods map[int64]Period
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, periods: make(map[int64]Period)}
}

func (f *fakeRepo) Insert(_ context.Context, in CreatePeriodInput) (Period, error) {
	p := Period{
		ID:           f.nextID,
		FiscalYear:   in.FiscalYear,
		PeriodNumber: in.PeriodNumber,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Status:       PeriodStatusOpen,
	}
	f.nextID++
	f.periods[p.ID] = p
	return p, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (Period, error) {
	p, ok := f.periods[id]
	if !ok {
		return Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

func (f *fakeRepo) FindByDate(_ context.Context, date time.Time) (Period, error) {
	for _, p := range f.periods {
		if p.Contains(date) {
			return p, nil
		}
	}
	return Period{}, shared.ErrPeriodNotFound
}

func (f *fakeRepo) List(_ context.Context, fiscalYear int) ([]Period, error) {
	var out []Period
	for _, p := range f.periods {
		if fiscalYear == 0 || p.FiscalYear == fiscalYear {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) RangeConflict(_ context.Context, fiscalYear int, start, end time.Time) (bool, error) {
	for _, p := range f.periods {
		if p.FiscalYear != fiscalYear {
			continue
		}
		if !start.After(p.EndDate) && !end.Before(p.StartDate) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) Transition(_ context.Context, id int64, from, to PeriodStatus, actorID int64, at time.Time) (Period, error) {
	p, ok := f.periods[id]
	if !ok {
		return Period{}, shared.ErrPeriodNotFound
	}
	if p.Status != from {
		return Period{}, shared.ErrInvalidTransition
	}
	p.Status = to
	switch to {
	case PeriodStatusClosed:
		p.ClosedAt = &at
	case PeriodStatusLocked:
		p.LockedAt = &at
		p.LockedBy = &actorID
	}
	f.periods[id] = p
	return p, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func januaryInput() CreatePeriodInput {
	return CreatePeriodInput{
		FiscalYear:   2024,
		PeriodNumber: 1,
		StartDate:    date(2024, time.January, 1),
		EndDate:      date(2024, time.January, 31),
	}
}

func TestCreatePeriod(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	p, err := svc.Create(context.Background(), januaryInput())
	require.NoError(t, err)
	require.Equal(t, PeriodStatusOpen, p.Status)
	require.Equal(t, "FY2024-P01", p.Code())
}

func TestCreatePeriodOverlapRejected(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), januaryInput())
	require.NoError(t, err)

	overlapping := CreatePeriodInput{
		FiscalYear:   2024,
		PeriodNumber: 2,
		StartDate:    date(2024, time.January, 15),
		EndDate:      date(2024, time.February, 14),
	}
	_, err = svc.Create(context.Background(), overlapping)
	require.ErrorIs(t, err, shared.ErrPeriodOverlap)
}

func TestCreatePeriodValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	in := januaryInput()
	in.StartDate, in.EndDate = in.EndDate, in.StartDate
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
}

func TestResolveByDate(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	created, err := svc.Create(context.Background(), januaryInput())
	require.NoError(t, err)

	found, err := svc.ResolveByDate(context.Background(), date(2024, time.January, 20))
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = svc.ResolveByDate(context.Background(), date(2024, time.March, 1))
	require.ErrorIs(t, err, shared.ErrPeriodNotFound)
}

func TestPeriodLifecycle(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	created, err := svc.Create(context.Background(), januaryInput())
	require.NoError(t, err)
	require.True(t, created.CanPost())

	closed, err := svc.Close(context.Background(), created.ID, 7)
	require.NoError(t, err)
	require.Equal(t, PeriodStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.False(t, closed.CanPost())

	locked, err := svc.Lock(context.Background(), created.ID, 7)
	require.NoError(t, err)
	require.Equal(t, PeriodStatusLocked, locked.Status)
	require.NotNil(t, locked.LockedAt)
	require.Equal(t, int64(7), *locked.LockedBy)
}

func TestPeriodLifecycleIllegalTransitions(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	created, err := svc.Create(context.Background(), januaryInput())
	require.NoError(t, err)

	// cannot lock an open period
	_, err = svc.Lock(context.Background(), created.ID, 7)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = svc.Close(context.Background(), created.ID, 7)
	require.NoError(t, err)

	// cannot close twice
	_, err = svc.Close(context.Background(), created.ID, 7)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestPostingGateMessages(t *testing.T) {
	open := Period{Status: PeriodStatusOpen}
	closed := Period{Status: PeriodStatusClosed}
	locked := Period{Status: PeriodStatusLocked}

	require.NoError(t, open.PostingGateErr())
	require.ErrorIs(t, closed.PostingGateErr(), shared.ErrPeriodClosed)
	require.ErrorIs(t, locked.PostingGateErr(), shared.ErrPeriodLocked)
}
