package autoentry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crestline-erp/crestline-erp/internal/accounting/journals"
	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
	"github.com/crestline-erp/crestline-erp/internal/platform/db"
)

// Repository reads the auto-entry rule table.
type Repository interface {
	GetBySourceType(ctx context.Context, sourceType journals.SourceType) (Rule, error)
	List(ctx context.Context) ([]Rule, error)
}

type sqlRepository struct {
	db db.Querier
}

// NewRepository constructs the pgx-backed rule repository.
func NewRepository(querier db.Querier) Repository {
	return &sqlRepository{db: querier}
}

const ruleColumns = `source_type, debit_account_code, credit_account_code, memo_template, created_at, updated_at`

func (r *sqlRepository) GetBySourceType(ctx context.Context, sourceType journals.SourceType) (Rule, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ruleColumns+` FROM auto_entry_rules WHERE source_type=$1`, sourceType)
	var rule Rule
	err := row.Scan(&rule.SourceType, &rule.DebitAccountCode, &rule.CreditAccountCode, &rule.MemoTemplate, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, shared.ErrRuleNotFound
		}
		return Rule{}, err
	}
	return rule, nil
}

func (r *sqlRepository) List(ctx context.Context) ([]Rule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ruleColumns+` FROM auto_entry_rules ORDER BY source_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.SourceType, &rule.DebitAccountCode, &rule.CreditAccountCode, &rule.MemoTemplate, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// NewDocumentLookup resolves source IDs against the source_documents
// integration table. Collaborating systems insert rows there; the ledger
// only reads them.
func NewDocumentLookup(querier db.Querier) SourceLookupFunc {
	return func(ctx context.Context, sourceID uuid.UUID) (SourceDocument, error) {
		row := querier.QueryRow(ctx, `SELECT number, doc_date, amount FROM source_documents WHERE id=$1`, sourceID)
		var doc SourceDocument
		if err := row.Scan(&doc.Number, &doc.Date, &doc.Amount); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return SourceDocument{}, shared.ErrSourceNotFound
			}
			return SourceDocument{}, err
		}
		return doc, nil
	}
}
