package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/crestline-erp/crestline-erp/internal/jobs"
)

// RunLedgerIntegrityCheck verifies three invariants over the posted entry
// log: every posted entry's debit and credit totals agree within tolerance,
// every reversal back-link points at an entry whose forward link matches,
// and each detail account's cached balance reconciles against its opening
// balance plus the posted line log. Violations are logged and reported as
// an error so the job run shows up failed.
func RunLedgerIntegrityCheck(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	unbalanced, err := unbalancedEntries(ctx, pool)
	if err != nil {
		return fmt.Errorf("jobs: integrity scan: %w", err)
	}
	for _, number := range unbalanced {
		logger.Error("posted entry out of balance", slog.String("entry", number))
	}

	broken, err := brokenReversalLinks(ctx, pool)
	if err != nil {
		return fmt.Errorf("jobs: reversal link scan: %w", err)
	}
	for _, number := range broken {
		logger.Error("reversal link mismatch", slog.String("entry", number))
	}

	drifted, err := driftedBalances(ctx, pool)
	if err != nil {
		return fmt.Errorf("jobs: balance reconciliation: %w", err)
	}
	for _, code := range drifted {
		logger.Error("cached balance drifted from line log", slog.String("account", code))
	}

	if len(unbalanced) > 0 || len(broken) > 0 || len(drifted) > 0 {
		return fmt.Errorf("jobs: ledger integrity violated: %d unbalanced, %d broken links, %d drifted balances",
			len(unbalanced), len(broken), len(drifted))
	}
	logger.Info("ledger integrity check passed")
	return nil
}

func unbalancedEntries(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, `SELECT e.number
FROM journal_entries e
JOIN journal_lines l ON l.je_id = e.id
WHERE e.is_posted AND NOT e.removed
GROUP BY e.id, e.number
HAVING ABS(COALESCE(SUM(l.amount) FILTER (WHERE l.side = 'DEBIT'), 0)
         - COALESCE(SUM(l.amount) FILTER (WHERE l.side = 'CREDIT'), 0)) > 0.01`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNumbers(rows)
}

func brokenReversalLinks(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, `SELECT r.number
FROM journal_entries r
JOIN journal_entries o ON o.id = r.reversal_of
WHERE r.reversal_of IS NOT NULL
  AND NOT r.removed
  AND o.reversed_by IS DISTINCT FROM r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNumbers(rows)
}

func driftedBalances(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, `SELECT a.code
FROM accounts a
LEFT JOIN journal_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.je_id AND e.is_posted AND NOT e.removed
WHERE NOT a.removed AND a.is_detail
GROUP BY a.id, a.code
HAVING ABS(a.current_balance - a.opening_balance
         - COALESCE(SUM(CASE
             WHEN e.id IS NULL THEN 0
             WHEN l.side = a.normal_balance THEN l.amount
             ELSE -l.amount END), 0)) > 0.01`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNumbers(rows)
}

func collectNumbers(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		out = append(out, number)
	}
	return out, rows.Err()
}

// NewLedgerIntegrityHandler wraps the check as an Asynq handler.
func NewLedgerIntegrityHandler(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("ledger_integrity")
		return tracker.End(RunLedgerIntegrityCheck(ctx, pool, logger))
	}
}
