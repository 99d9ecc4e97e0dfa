package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads aggregated posted activity per account.
type Repository interface {
	// ActivityByAccount returns every active detail account with its posted
	// debit and credit totals inside the optional date bounds. Accounts with
	// no activity are included with zero totals.
	ActivityByAccount(ctx context.Context, from, to *string) ([]AccountActivity, error)
}

type sqlRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed report reader.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &sqlRepository{pool: pool}
}

func (r *sqlRepository) ActivityByAccount(ctx context.Context, from, to *string) ([]AccountActivity, error) {
	inner := `SELECT l.account_id,
COALESCE(SUM(l.amount) FILTER (WHERE l.side = 'DEBIT'), 0) AS debits,
COALESCE(SUM(l.amount) FILTER (WHERE l.side = 'CREDIT'), 0) AS credits
FROM journal_lines l
JOIN journal_entries e ON e.id = l.je_id
WHERE e.is_posted AND NOT e.removed`
	args := []any{}
	if from != nil {
		args = append(args, *from)
		inner += fmt.Sprintf(" AND e.date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		inner += fmt.Sprintf(" AND e.date <= $%d", len(args))
	}
	inner += " GROUP BY l.account_id"

	query := `SELECT a.id, a.code, a.name, a.type, a.sub_type, a.normal_balance, a.opening_balance,
a.show_in_balance_sheet, a.show_in_income_statement,
COALESCE(t.debits, 0), COALESCE(t.credits, 0)
FROM accounts a
LEFT JOIN (` + inner + `) t ON t.account_id = a.id
WHERE a.is_detail AND NOT a.removed AND a.status = 'ACTIVE'
ORDER BY a.code`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountActivity
	for rows.Next() {
		var a AccountActivity
		if err := rows.Scan(&a.Account.ID, &a.Account.Code, &a.Account.Name, &a.Account.Type,
			&a.Account.SubType, &a.Account.NormalBalance, &a.Account.OpeningBalance,
			&a.Account.ShowInBalanceSheet, &a.Account.ShowInIncomeStatement,
			&a.Debits, &a.Credits); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
