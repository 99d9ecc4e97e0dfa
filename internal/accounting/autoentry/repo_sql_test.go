package autoentry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/crestline-erp/crestline-erp/internal/accounting/journals"
	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

var ruleRowColumns = []string{"source_type", "debit_account_code", "credit_account_code", "memo_template", "created_at", "updated_at"}

func TestRepositoryGetBySourceType(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`SELECT source_type, .+ FROM auto_entry_rules WHERE source_type=\$1`).
		WithArgs(journals.SourceInvoiceIssued).
		WillReturnRows(pgxmock.NewRows(ruleRowColumns).
			AddRow(journals.SourceInvoiceIssued, "1101", "4001", "Invoice %s issued", now, now))

	rule, err := repo.GetBySourceType(context.Background(), journals.SourceInvoiceIssued)
	require.NoError(t, err)
	require.Equal(t, "1101", rule.DebitAccountCode)
	require.Equal(t, "4001", rule.CreditAccountCode)
	require.Equal(t, "Invoice %s issued", rule.MemoTemplate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetBySourceTypeUnknown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectQuery(`SELECT source_type, .+ FROM auto_entry_rules WHERE source_type=\$1`).
		WithArgs(journals.SourceType("UNKNOWN")).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetBySourceType(context.Background(), journals.SourceType("UNKNOWN"))
	require.ErrorIs(t, err, shared.ErrRuleNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`SELECT source_type, .+ FROM auto_entry_rules ORDER BY source_type`).
		WillReturnRows(pgxmock.NewRows(ruleRowColumns).
			AddRow(journals.SourceInvoiceIssued, "1101", "4001", "Invoice %s issued", now, now).
			AddRow(journals.SourceMaterialOutbound, "5001", "1301", "Material issued to project %s", now, now))

	rules, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Equal(t, journals.SourceInvoiceIssued, rules[0].SourceType)
	require.Equal(t, journals.SourceMaterialOutbound, rules[1].SourceType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentLookup(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	lookup := NewDocumentLookup(mock)
	id := uuid.New()
	docDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT number, doc_date, amount FROM source_documents WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"number", "doc_date", "amount"}).
			AddRow("INV-2026-0042", docDate, 1250.50))

	doc, err := lookup.Lookup(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "INV-2026-0042", doc.Number)
	require.Equal(t, docDate, doc.Date)
	require.InDelta(t, 1250.50, doc.Amount, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentLookupMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	lookup := NewDocumentLookup(mock)
	id := uuid.New()

	mock.ExpectQuery(`SELECT number, doc_date, amount FROM source_documents WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err = lookup.Lookup(context.Background(), id)
	require.ErrorIs(t, err, shared.ErrSourceNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
