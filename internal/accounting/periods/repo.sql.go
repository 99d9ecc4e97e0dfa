package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
	"github.com/crestline-erp/crestline-erp/internal/platform/db"
)

const periodColumns = `id, fiscal_year, period_number, start_date, end_date, status, entry_seq,
closed_at, locked_at, locked_by, created_at, updated_at`

// Repository defines data access for accounting periods.
type Repository interface {
	Insert(ctx context.Context, in CreatePeriodInput) (Period, error)
	GetByID(ctx context.Context, id int64) (Period, error)
	FindByDate(ctx context.Context, date time.Time) (Period, error)
	List(ctx context.Context, fiscalYear int) ([]Period, error)
	RangeConflict(ctx context.Context, fiscalYear int, start, end time.Time) (bool, error)
	// Transition updates the status under a row lock, returning the refreshed
	// period. The service is responsible for checking transition legality.
	Transition(ctx context.Context, id int64, from, to PeriodStatus, actorID int64, at time.Time) (Period, error)
}

type sqlRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed period repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &sqlRepository{pool: pool}
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.FiscalYear, &p.PeriodNumber, &p.StartDate, &p.EndDate, &p.Status,
		&p.EntrySeq, &p.ClosedAt, &p.LockedAt, &p.LockedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *sqlRepository) Insert(ctx context.Context, in CreatePeriodInput) (Period, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO accounting_periods (fiscal_year, period_number, start_date, end_date, status)
VALUES ($1,$2,$3,$4,'OPEN') RETURNING `+periodColumns, in.FiscalYear, in.PeriodNumber, in.StartDate, in.EndDate)
	p, err := scanPeriod(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_periods_year_number" {
			return Period{}, shared.ErrPeriodOverlap
		}
		return Period{}, err
	}
	return p, nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id int64) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1`, id)
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *sqlRepository) FindByDate(ctx context.Context, date time.Time) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods
WHERE $1 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, date)
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *sqlRepository) List(ctx context.Context, fiscalYear int) ([]Period, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods`
	args := []any{}
	if fiscalYear > 0 {
		query += ` WHERE fiscal_year=$1`
		args = append(args, fiscalYear)
	}
	query += ` ORDER BY fiscal_year, period_number`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *sqlRepository) RangeConflict(ctx context.Context, fiscalYear int, start, end time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM accounting_periods WHERE fiscal_year=$1 AND start_date <= $3 AND end_date >= $2)`,
		fiscalYear, start, end).Scan(&exists)
	return exists, err
}

func (r *sqlRepository) Transition(ctx context.Context, id int64, from, to PeriodStatus, actorID int64, at time.Time) (Period, error) {
	var updated Period
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1 FOR UPDATE`, id)
		current, err := scanPeriod(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrPeriodNotFound
			}
			return err
		}
		if current.Status != from {
			return shared.ErrInvalidTransition
		}
		var closedAt, lockedAt any
		var lockedBy any
		if to == PeriodStatusClosed {
			closedAt = at
		}
		if to == PeriodStatusLocked {
			lockedAt = at
			lockedBy = actorID
		}
		row = tx.QueryRow(ctx, `UPDATE accounting_periods SET status=$2,
closed_at=COALESCE($3, closed_at), locked_at=COALESCE($4, locked_at), locked_by=COALESCE($5, locked_by),
updated_at=NOW() WHERE id=$1 RETURNING `+periodColumns, id, to, closedAt, lockedAt, lockedBy)
		updated, err = scanPeriod(row)
		return err
	})
	if err != nil {
		return Period{}, err
	}
	return updated, nil
}
