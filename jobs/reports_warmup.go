package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/crestline-erp/crestline-erp/internal/accounting/reports"
	jobmetrics "github.com/crestline-erp/crestline-erp/internal/jobs"
)

// RunReportsWarmup pre-computes today's trial balance and balance sheet so
// the first dashboard hit after a cache bump is served warm.
func RunReportsWarmup(ctx context.Context, svc *reports.Service, logger *slog.Logger) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := svc.TrialBalance(gctx, today)
		return err
	})
	g.Go(func() error {
		_, err := svc.BalanceSheet(gctx, today)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("report cache warmed", slog.String("asOf", today.Format(time.DateOnly)))
	return nil
}

// NewReportsWarmupHandler wraps the warmup as an Asynq handler.
func NewReportsWarmupHandler(svc *reports.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("reports_warmup")
		return tracker.End(RunReportsWarmup(ctx, svc, logger))
	}
}
