package autoentry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
	"github.com/crestline-erp/crestline-erp/internal/accounting/journals"
	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
)

// SourceLookup resolves a source document's number, date and amount. Each
// business module registers one lookup for the source types it owns.
type SourceLookup interface {
	Lookup(ctx context.Context, sourceID uuid.UUID) (SourceDocument, error)
}

// SourceLookupFunc adapts a function to the SourceLookup interface.
type SourceLookupFunc func(ctx context.Context, sourceID uuid.UUID) (SourceDocument, error)

func (f SourceLookupFunc) Lookup(ctx context.Context, sourceID uuid.UUID) (SourceDocument, error) {
	return f(ctx, sourceID)
}

// JournalPort is the slice of the journal service Generate needs.
type JournalPort interface {
	Create(ctx context.Context, in journals.CreateEntryInput) (journals.JournalEntry, error)
	Post(ctx context.Context, id, actorID int64) (journals.JournalEntry, error)
}

// AccountPort resolves rule account codes to accounts.
type AccountPort interface {
	GetByCode(ctx context.Context, code string) (accounts.Account, error)
}

// Service turns business events into posted journal entries.
type Service struct {
	rules    Repository
	journals JournalPort
	accounts AccountPort
	lookups  map[journals.SourceType]SourceLookup
}

// NewService constructs the auto-entry service.
func NewService(rules Repository, journalSvc JournalPort, accountPort AccountPort) *Service {
	return &Service{
		rules:    rules,
		journals: journalSvc,
		accounts: accountPort,
		lookups:  make(map[journals.SourceType]SourceLookup),
	}
}

// RegisterLookup binds a source type to its document lookup. Later
// registrations for the same type replace earlier ones.
func (s *Service) RegisterLookup(sourceType journals.SourceType, lookup SourceLookup) {
	s.lookups[sourceType] = lookup
}

// Rules lists the mapping table.
func (s *Service) Rules(ctx context.Context) ([]Rule, error) {
	return s.rules.List(ctx)
}

// Generate creates and immediately posts the automatic entry for a business
// event. The rule fixes the account pair; the source document supplies the
// amount, date and number.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (journals.JournalEntry, error) {
	rule, err := s.rules.GetBySourceType(ctx, in.SourceType)
	if err != nil {
		return journals.JournalEntry{}, err
	}
	lookup, ok := s.lookups[in.SourceType]
	if !ok {
		return journals.JournalEntry{}, shared.Validationf("no source lookup registered for %s", in.SourceType)
	}
	doc, err := lookup.Lookup(ctx, in.SourceID)
	if err != nil {
		return journals.JournalEntry{}, err
	}
	if doc.Amount <= 0 {
		return journals.JournalEntry{}, shared.Validationf("source document %s has no positive amount", doc.Number)
	}
	debit, err := s.accounts.GetByCode(ctx, rule.DebitAccountCode)
	if err != nil {
		return journals.JournalEntry{}, err
	}
	credit, err := s.accounts.GetByCode(ctx, rule.CreditAccountCode)
	if err != nil {
		return journals.JournalEntry{}, err
	}

	memo := renderMemo(rule.MemoTemplate, doc.Number)
	sourceID := in.SourceID
	draft, err := s.journals.Create(ctx, journals.CreateEntryInput{
		Date:         doc.Date,
		Type:         journals.EntryTypeAutomatic,
		SourceType:   in.SourceType,
		SourceID:     &sourceID,
		SourceNumber: doc.Number,
		Description:  memo,
		Lines: []journals.LineInput{
			{DebitAccountID: &debit.ID, Amount: doc.Amount, Description: memo},
			{CreditAccountID: &credit.ID, Amount: doc.Amount, Description: memo},
		},
		CreatedBy: in.ActorID,
	})
	if err != nil {
		return journals.JournalEntry{}, err
	}
	return s.journals.Post(ctx, draft.ID, in.ActorID)
}

func renderMemo(template, number string) string {
	if template == "" {
		return fmt.Sprintf("Auto entry for %s", number)
	}
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, number)
	}
	return template
}
