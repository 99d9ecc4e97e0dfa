package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
	"github.com/crestline-erp/crestline-erp/internal/accounting/periods"
	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

const entryColumns = `id, number, period_id, date, entry_type, source_type, source_id, source_number,
description, notes, status, is_posted, posted_by, posted_at, reversal_of, reversed_by, removed,
created_at, updated_at`

const lineColumns = `id, je_id, line_no, account_id, side, amount, description`

type sqlRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed journal repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &sqlRepository{pool: pool}
}

func (r *sqlRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("journals: begin tx: %w", err)
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.Number, &e.PeriodID, &e.Date, &e.Type, &e.SourceType, &e.SourceID,
		&e.SourceNumber, &e.Description, &e.Notes, &e.Status, &e.IsPosted, &e.PostedBy, &e.PostedAt,
		&e.ReversalOf, &e.ReversedBy, &e.Removed, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *sqlRepository) List(ctx context.Context, f ListFilter) ([]JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE NOT removed`
	args := []any{}
	if f.PeriodID > 0 {
		args = append(args, f.PeriodID)
		query += fmt.Sprintf(" AND period_id=$%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if f.SourceType != "" {
		args = append(args, f.SourceType)
		query += fmt.Sprintf(" AND source_type=$%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date DESC, number DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *sqlRepository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 AND NOT removed`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.pool, id)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q queryer, entryID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE je_id=$1 ORDER BY line_no`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.JournalID, &l.LineNo, &l.AccountID, &l.Side, &l.Amount, &l.Description); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(number, period_id, date, entry_type, source_type, source_id, source_number, description, notes, status, reversal_of)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING `+entryColumns, e.Number, e.PeriodID, e.Date, e.Type, e.SourceType, e.SourceID,
		e.SourceNumber, e.Description, e.Notes, e.Status, e.ReversalOf)
	inserted, err := scanEntry(row)
	if err != nil {
		return JournalEntry{}, err
	}
	return inserted, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	for i, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (je_id, line_no, account_id, side, amount, description)
VALUES ($1,$2,$3,$4,$5,$6)`, entryID, i+1, line.AccountID, line.Side, line.Amount, line.Description); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) ReplaceLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE je_id=$1`, entryID); err != nil {
		return err
	}
	return r.InsertLines(ctx, entryID, lines)
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 AND NOT removed FOR UPDATE`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) GetLines(ctx context.Context, entryID int64) ([]JournalLine, error) {
	return queryLines(ctx, r.tx, entryID)
}

func (r *txRepository) UpdateEntryHeader(ctx context.Context, e JournalEntry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET date=$2, description=$3, notes=$4, updated_at=NOW()
WHERE id=$1 AND NOT removed`, e.ID, e.Date, e.Description, e.Notes)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) MarkPosted(ctx context.Context, id, actorID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, is_posted=TRUE, posted_by=$3, posted_at=$4, updated_at=NOW()
WHERE id=$1 AND NOT removed`, id, EntryStatusPosted, actorID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) SetReversedBy(ctx context.Context, originalID, reversalID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET reversed_by=$2, updated_at=NOW()
WHERE id=$1 AND reversed_by IS NULL`, originalID, reversalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAlreadyReversed
	}
	return nil
}

func (r *txRepository) SoftDeleteEntry(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET removed=TRUE, status=$2, updated_at=NOW()
WHERE id=$1 AND NOT removed`, id, EntryStatusCancelled)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

const periodColumns = `id, fiscal_year, period_number, start_date, end_date, status, entry_seq,
closed_at, locked_at, locked_by, created_at, updated_at`

func scanPeriod(row pgx.Row) (periods.Period, error) {
	var p periods.Period
	err := row.Scan(&p.ID, &p.FiscalYear, &p.PeriodNumber, &p.StartDate, &p.EndDate, &p.Status,
		&p.EntrySeq, &p.ClosedAt, &p.LockedAt, &p.LockedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *txRepository) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1 FOR UPDATE`, periodID)
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrPeriodNotFound
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) FindPeriodByDateForUpdate(ctx context.Context, date time.Time) (periods.Period, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods
WHERE $1 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1 FOR UPDATE`, date)
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrPeriodNotFound
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) NextEntrySeq(ctx context.Context, periodID int64) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `UPDATE accounting_periods SET entry_seq = entry_seq + 1, updated_at=NOW()
WHERE id=$1 RETURNING entry_seq`, periodID).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrPeriodNotFound
		}
		return 0, err
	}
	return seq, nil
}

const accountColumns = `id, code, name, type, sub_type, normal_balance, parent_id, level, is_detail,
opening_balance, current_balance, allow_manual_entry, show_in_balance_sheet, show_in_income_statement,
is_system, status, removed, created_at, updated_at`

func scanAccount(row pgx.Row) (accounts.Account, error) {
	var a accounts.Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.SubType, &a.NormalBalance, &a.ParentID,
		&a.Level, &a.IsDetail, &a.OpeningBalance, &a.CurrentBalance, &a.AllowManualEntry,
		&a.ShowInBalanceSheet, &a.ShowInIncomeStatement, &a.IsSystem, &a.Status, &a.Removed,
		&a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *txRepository) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1 AND NOT removed`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, id int64) (accounts.Account, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1 AND NOT removed FOR UPDATE`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) ApplyBalanceDelta(ctx context.Context, accountID int64, delta float64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET current_balance = current_balance + $2, updated_at=NOW()
WHERE id=$1 AND NOT removed`, accountID, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}
