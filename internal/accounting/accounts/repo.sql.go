package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
	"github.com/crestline-erp/crestline-erp/internal/platform/db"
)

const accountColumns = `id, code, name, type, sub_type, normal_balance, parent_id, level, is_detail,
opening_balance, current_balance, allow_manual_entry, show_in_balance_sheet, show_in_income_statement,
is_system, status, removed, created_at, updated_at`

type sqlRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed account repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &sqlRepository{pool: pool}
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.SubType, &a.NormalBalance, &a.ParentID,
		&a.Level, &a.IsDetail, &a.OpeningBalance, &a.CurrentBalance, &a.AllowManualEntry,
		&a.ShowInBalanceSheet, &a.ShowInIncomeStatement, &a.IsSystem, &a.Status, &a.Removed,
		&a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *sqlRepository) Insert(ctx context.Context, a Account) (Account, error) {
	var inserted Account
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO accounts
(code, name, type, sub_type, normal_balance, parent_id, level, is_detail, opening_balance, current_balance,
 allow_manual_entry, show_in_balance_sheet, show_in_income_statement, is_system, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING `+accountColumns, a.Code, a.Name, a.Type, a.SubType, a.NormalBalance, a.ParentID, a.Level,
			a.IsDetail, a.OpeningBalance, a.CurrentBalance, a.AllowManualEntry, a.ShowInBalanceSheet,
			a.ShowInIncomeStatement, a.IsSystem, a.Status)
		var err error
		inserted, err = scanAccount(row)
		if err != nil {
			return mapPgError(err)
		}
		if a.ParentID != nil {
			_, err = tx.Exec(ctx, `UPDATE accounts SET is_detail=FALSE, updated_at=NOW() WHERE id=$1 AND is_detail`, *a.ParentID)
		}
		return err
	})
	if err != nil {
		return Account{}, err
	}
	return inserted, nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id int64) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1 AND NOT removed`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *sqlRepository) GetByCode(ctx context.Context, code string) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code=$1 AND NOT removed`, code)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *sqlRepository) Update(ctx context.Context, a Account) (Account, error) {
	row := r.pool.QueryRow(ctx, `UPDATE accounts SET
code=$2, name=$3, type=$4, sub_type=$5, normal_balance=$6, allow_manual_entry=$7,
show_in_balance_sheet=$8, show_in_income_statement=$9, updated_at=NOW()
WHERE id=$1 AND NOT removed
RETURNING `+accountColumns, a.ID, a.Code, a.Name, a.Type, a.SubType, a.NormalBalance,
		a.AllowManualEntry, a.ShowInBalanceSheet, a.ShowInIncomeStatement)
	updated, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, mapPgError(err)
	}
	return updated, nil
}

func (r *sqlRepository) SoftDelete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounts SET removed=TRUE, status=$2, updated_at=NOW() WHERE id=$1 AND NOT removed`, id, AccountStatusArchived)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *sqlRepository) List(ctx context.Context, f ListFilter) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE NOT removed`
	args := []any{}
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type=$%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		query += fmt.Sprintf(" AND (code ILIKE $%d OR name ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY code"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.queryAccounts(ctx, query, args...)
}

func (r *sqlRepository) ListActive(ctx context.Context) ([]Account, error) {
	return r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE NOT removed AND status=$1 ORDER BY code`, AccountStatusActive)
}

func (r *sqlRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]Account, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *sqlRepository) HasChildren(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE parent_id=$1 AND NOT removed)`, id).Scan(&exists)
	return exists, err
}

func (r *sqlRepository) HasJournalLines(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM journal_lines l JOIN journal_entries e ON e.id = l.je_id
WHERE l.account_id=$1 AND NOT e.removed)`, id).Scan(&exists)
	return exists, err
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_accounts_code" {
		return shared.ErrCodeExists
	}
	return err
}
