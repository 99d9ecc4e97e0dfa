package reports

import (
	"context"
	"time"
)

// Service generates reports, serving from the cache when warm.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService constructs the report service. Cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// TrialBalance builds the trial balance as of a date.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	day := asOf.Format(time.DateOnly)
	key, err := s.cache.BuildKey(ctx, "reports", "tb", day)
	if err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err = s.cache.FetchJSON(ctx, key, &tb, func(ctx context.Context) (interface{}, error) {
		activity, err := s.repo.ActivityByAccount(ctx, nil, &day)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(asOf, activity), nil
	})
	return tb, err
}

// ProfitAndLoss builds the income statement for a date range.
func (s *Service) ProfitAndLoss(ctx context.Context, start, end time.Time) (ProfitAndLoss, error) {
	from, to := start.Format(time.DateOnly), end.Format(time.DateOnly)
	key, err := s.cache.BuildKey(ctx, "reports", "pl", from, to)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	var pl ProfitAndLoss
	err = s.cache.FetchJSON(ctx, key, &pl, func(ctx context.Context) (interface{}, error) {
		activity, err := s.repo.ActivityByAccount(ctx, &from, &to)
		if err != nil {
			return nil, err
		}
		return BuildProfitAndLoss(start, end, activity), nil
	})
	return pl, err
}

// BalanceSheet builds the statement of financial position as of a date.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	day := asOf.Format(time.DateOnly)
	key, err := s.cache.BuildKey(ctx, "reports", "bs", day)
	if err != nil {
		return BalanceSheet{}, err
	}
	var bs BalanceSheet
	err = s.cache.FetchJSON(ctx, key, &bs, func(ctx context.Context) (interface{}, error) {
		activity, err := s.repo.ActivityByAccount(ctx, nil, &day)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(asOf, activity), nil
	})
	return bs, err
}
