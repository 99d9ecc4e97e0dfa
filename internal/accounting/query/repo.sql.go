package query

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type sqlRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed entry log reader.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &sqlRepository{pool: pool}
}

func (r *sqlRepository) LinesForAccount(ctx context.Context, accountID int64, opts BalanceOptions) ([]LineRow, error) {
	query := `SELECT e.id, e.number, e.date, l.side, l.amount, l.description, e.is_posted
FROM journal_lines l
JOIN journal_entries e ON e.id = l.je_id
WHERE l.account_id = $1 AND NOT e.removed`
	args := []any{accountID}
	if !opts.IncludeUnposted {
		query += " AND e.is_posted"
	}
	if opts.StartDate != nil {
		args = append(args, *opts.StartDate)
		query += fmt.Sprintf(" AND e.date >= $%d", len(args))
	}
	if opts.EndDate != nil {
		args = append(args, *opts.EndDate)
		query += fmt.Sprintf(" AND e.date <= $%d", len(args))
	}
	query += " ORDER BY e.date, e.id, l.line_no"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LineRow
	for rows.Next() {
		var row LineRow
		if err := rows.Scan(&row.EntryID, &row.EntryNumber, &row.Date, &row.Side, &row.Amount, &row.Description, &row.IsPosted); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
