package journals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
	"github.com/crestline-erp/crestline-erp/internal/accounting/periods"
	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
	internalshared "github.com/crestline-erp/crestline-erp/internal/shared"
)

// ReversalPolicy selects which period a reversal entry lands in.
type ReversalPolicy string

const (
	// ReversalPolicySource posts the reversal into the original entry's
	// period; fails if that period no longer accepts postings.
	ReversalPolicySource ReversalPolicy = "source"
	// ReversalPolicyCurrent posts the reversal into the open period
	// containing today's date.
	ReversalPolicyCurrent ReversalPolicy = "current"
)

// ParseReversalPolicy maps a config string to a policy, defaulting to source.
func ParseReversalPolicy(s string) ReversalPolicy {
	if s == string(ReversalPolicyCurrent) {
		return ReversalPolicyCurrent
	}
	return ReversalPolicySource
}

// AuditPort records journal lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// CachePort invalidates cached report payloads after balances change.
type CachePort interface {
	InvalidateReports(ctx context.Context) error
}

// MetricsPort counts ledger activity for observability.
type MetricsPort interface {
	EntryCreated(entryType string)
	EntryPosted(entryType string)
	EntryReversed()
}

// Service owns the journal entry lifecycle: draft, post, reverse, cancel.
type Service struct {
	repo           Repository
	audit          AuditPort
	cache          CachePort
	metrics        MetricsPort
	reversalPolicy ReversalPolicy
	now            func() time.Time
}

// NewService constructs the journal service. Audit, cache and metrics ports
// may be nil.
func NewService(repo Repository, audit AuditPort, cache CachePort, metrics MetricsPort, policy ReversalPolicy) *Service {
	return &Service{
		repo:           repo,
		audit:          audit,
		cache:          cache,
		metrics:        metrics,
		reversalPolicy: policy,
		now:            time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates and stores a draft entry. The period is resolved from
// PeriodID when given, otherwise from the transaction date. The entry number
// is drawn from the period's sequence under the period row lock, so numbers
// are gapless within a period even under concurrent creates.
func (s *Service) Create(ctx context.Context, in CreateEntryInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	if in.Type == "" {
		in.Type = EntryTypeManual
	}
	var created JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := s.resolvePeriod(ctx, tx, in.PeriodID, in.Date)
		if err != nil {
			return err
		}
		if err := period.PostingGateErr(); err != nil {
			return err
		}
		if !period.Contains(in.Date) {
			return shared.ErrDateOutOfRange
		}
		lines, err := s.checkLines(ctx, tx, in.Type, in.Lines)
		if err != nil {
			return err
		}
		seq, err := tx.NextEntrySeq(ctx, period.ID)
		if err != nil {
			return err
		}
		entry := JournalEntry{
			Number:       EntryNumber(period.FiscalYear, period.PeriodNumber, seq),
			PeriodID:     period.ID,
			Date:         in.Date,
			Type:         in.Type,
			SourceType:   in.SourceType,
			SourceID:     in.SourceID,
			SourceNumber: in.SourceNumber,
			Description:  in.Description,
			Notes:        in.Notes,
			Status:       EntryStatusDraft,
		}
		created, err = tx.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, created.ID, lines); err != nil {
			return err
		}
		created.Lines, err = tx.GetLines(ctx, created.ID)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, in.CreatedBy, "journal.create", created)
	if s.metrics != nil {
		s.metrics.EntryCreated(string(created.Type))
	}
	return created, nil
}

// Update edits a draft entry. Posted entries are immutable; cancelled entries
// cannot be revived. When Lines is set the whole line set is replaced and
// revalidated against the double-entry invariant.
func (s *Service) Update(ctx context.Context, id int64, in UpdateEntryInput, actorID int64) (JournalEntry, error) {
	var updated JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := draftGate(entry); err != nil {
			return err
		}
		if in.Date != nil {
			period, err := tx.GetPeriodForUpdate(ctx, entry.PeriodID)
			if err != nil {
				return err
			}
			if !period.Contains(*in.Date) {
				return shared.ErrDateOutOfRange
			}
			entry.Date = *in.Date
		}
		if in.Description != nil {
			entry.Description = *in.Description
		}
		if in.Notes != nil {
			entry.Notes = *in.Notes
		}
		if in.Lines != nil {
			probe := CreateEntryInput{Date: entry.Date, Lines: in.Lines}
			if err := probe.Validate(); err != nil {
				return err
			}
			lines, err := s.checkLines(ctx, tx, entry.Type, in.Lines)
			if err != nil {
				return err
			}
			if err := tx.ReplaceLines(ctx, entry.ID, lines); err != nil {
				return err
			}
		}
		if err := tx.UpdateEntryHeader(ctx, entry); err != nil {
			return err
		}
		entry.Lines, err = tx.GetLines(ctx, entry.ID)
		if err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, actorID, "journal.update", updated)
	return updated, nil
}

// Post makes a draft entry permanent and applies its lines to account
// balances. Everything happens in one transaction: the entry, its period and
// every referenced account are row-locked, the balance invariant is
// re-checked, and deltas are applied. Accounts are locked in ascending id
// order so concurrent posts cannot deadlock.
func (s *Service) Post(ctx context.Context, id, actorID int64) (JournalEntry, error) {
	var posted JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch entry.Status {
		case EntryStatusPosted:
			return shared.ErrAlreadyPosted
		case EntryStatusCancelled:
			return shared.ErrEntryCancelled
		}
		period, err := tx.GetPeriodForUpdate(ctx, entry.PeriodID)
		if err != nil {
			return err
		}
		if err := period.PostingGateErr(); err != nil {
			return err
		}
		lines, err := tx.GetLines(ctx, entry.ID)
		if err != nil {
			return err
		}
		if err := s.applyLines(ctx, tx, lines); err != nil {
			return err
		}
		at := s.now()
		if err := tx.MarkPosted(ctx, entry.ID, actorID, at); err != nil {
			return err
		}
		entry.Status = EntryStatusPosted
		entry.IsPosted = true
		entry.PostedBy = &actorID
		entry.PostedAt = &at
		entry.Lines = lines
		posted = entry
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.afterBalanceChange(ctx, actorID, "journal.post", posted)
	if s.metrics != nil {
		s.metrics.EntryPosted(string(posted.Type))
	}
	return posted, nil
}

// Reverse creates and posts a mirror entry that undoes a posted entry. The
// original is never mutated beyond its reversed_by link, preserving the
// audit trail. The reversal lands in the original's period or the current
// one depending on the configured policy, and each entry can be reversed at
// most once.
func (s *Service) Reverse(ctx context.Context, in ReverseEntryInput) (JournalEntry, error) {
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, in.EntryID)
		if err != nil {
			return err
		}
		if original.Status != EntryStatusPosted {
			return shared.ErrNotPosted
		}
		if original.ReversedBy != nil {
			return shared.ErrAlreadyReversed
		}
		period, date, err := s.reversalTarget(ctx, tx, original)
		if err != nil {
			return err
		}
		if err := period.PostingGateErr(); err != nil {
			return err
		}
		lines, err := tx.GetLines(ctx, original.ID)
		if err != nil {
			return err
		}
		mirrored := mirrorLines(lines)
		seq, err := tx.NextEntrySeq(ctx, period.ID)
		if err != nil {
			return err
		}
		description := fmt.Sprintf("Reversal of %s", original.Number)
		if in.Reason != "" {
			description = fmt.Sprintf("%s: %s", description, in.Reason)
		}
		entry := JournalEntry{
			Number:       EntryNumber(period.FiscalYear, period.PeriodNumber, seq),
			PeriodID:     period.ID,
			Date:         date,
			Type:         EntryTypeAutomatic,
			SourceType:   SourceReversal,
			SourceNumber: original.Number,
			Description:  description,
			Status:       EntryStatusDraft,
			ReversalOf:   &original.ID,
		}
		reversal, err = tx.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, reversal.ID, mirrored); err != nil {
			return err
		}
		if err := s.applyLines(ctx, tx, mirrored); err != nil {
			return err
		}
		at := s.now()
		if err := tx.MarkPosted(ctx, reversal.ID, in.ActorID, at); err != nil {
			return err
		}
		if err := tx.SetReversedBy(ctx, original.ID, reversal.ID); err != nil {
			return err
		}
		reversal.Status = EntryStatusPosted
		reversal.IsPosted = true
		reversal.PostedBy = &in.ActorID
		reversal.PostedAt = &at
		reversal.Lines, err = tx.GetLines(ctx, reversal.ID)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.afterBalanceChange(ctx, in.ActorID, "journal.reverse", reversal)
	if s.metrics != nil {
		s.metrics.EntryReversed()
	}
	return reversal, nil
}

// Remove cancels a draft entry via soft delete. Posted entries must go
// through reversal instead.
func (s *Service) Remove(ctx context.Context, id, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := draftGate(entry); err != nil {
			return err
		}
		return tx.SoftDeleteEntry(ctx, entry.ID)
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "journal.cancel", JournalEntry{ID: id})
	return nil
}

// List returns entries matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]JournalEntry, error) {
	return s.repo.List(ctx, f)
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) resolvePeriod(ctx context.Context, tx TxRepository, periodID *int64, date time.Time) (periods.Period, error) {
	if periodID != nil {
		return tx.GetPeriodForUpdate(ctx, *periodID)
	}
	return tx.FindPeriodByDateForUpdate(ctx, date)
}

func (s *Service) reversalTarget(ctx context.Context, tx TxRepository, original JournalEntry) (periods.Period, time.Time, error) {
	if s.reversalPolicy == ReversalPolicyCurrent {
		today := s.now()
		period, err := tx.FindPeriodByDateForUpdate(ctx, today)
		if err != nil {
			return periods.Period{}, time.Time{}, err
		}
		return period, today, nil
	}
	period, err := tx.GetPeriodForUpdate(ctx, original.PeriodID)
	if err != nil {
		return periods.Period{}, time.Time{}, err
	}
	return period, original.Date, nil
}

// checkLines verifies every referenced account is an active detail account
// and, for manual entries, permits manual postings. Returns the persisted
// line shape.
func (s *Service) checkLines(ctx context.Context, tx TxRepository, entryType EntryType, inputs []LineInput) ([]JournalLine, error) {
	lines := make([]JournalLine, 0, len(inputs))
	for _, in := range inputs {
		account, err := tx.GetAccount(ctx, in.AccountID())
		if err != nil {
			return nil, err
		}
		if !account.IsDetail {
			return nil, shared.ErrNotDetailAccount
		}
		if account.Status != accounts.AccountStatusActive {
			return nil, shared.Validationf("Account %s is not active", account.Code)
		}
		if entryType == EntryTypeManual && !account.AllowManualEntry {
			return nil, shared.ErrManualNotAllowed
		}
		lines = append(lines, JournalLine{
			AccountID:   account.ID,
			Side:        in.Side(),
			Amount:      in.Amount,
			Description: in.Description,
		})
	}
	return lines, nil
}

// applyLines re-checks the balance invariant, locks the referenced accounts
// in ascending id order and applies signed balance deltas. A line on the
// account's normal side increases the balance, the opposite side decreases
// it.
func (s *Service) applyLines(ctx context.Context, tx TxRepository, lines []JournalLine) error {
	var debit, credit float64
	for _, line := range lines {
		if line.Side == SideDebit {
			debit += line.Amount
		} else {
			credit += line.Amount
		}
	}
	if math.Abs(debit-credit) > balanceTolerance {
		return shared.ErrUnbalanced
	}

	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			ids = append(ids, line.AccountID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked := make(map[int64]accounts.Account, len(ids))
	for _, id := range ids {
		account, err := tx.GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}
		locked[id] = account
	}
	for _, line := range lines {
		account := locked[line.AccountID]
		delta := line.Amount
		if string(line.Side) != string(account.NormalBalance) {
			delta = -delta
		}
		if err := tx.ApplyBalanceDelta(ctx, account.ID, delta); err != nil {
			return err
		}
	}
	return nil
}

func draftGate(entry JournalEntry) error {
	switch entry.Status {
	case EntryStatusPosted:
		return shared.ErrEntryPosted
	case EntryStatusCancelled:
		return shared.ErrEntryCancelled
	}
	return nil
}

func mirrorLines(lines []JournalLine) []JournalLine {
	mirrored := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		side := SideDebit
		if line.Side == SideDebit {
			side = SideCredit
		}
		mirrored = append(mirrored, JournalLine{
			AccountID:   line.AccountID,
			Side:        side,
			Amount:      line.Amount,
			Description: "Reversal: " + line.Description,
		})
	}
	return mirrored
}

func (s *Service) afterBalanceChange(ctx context.Context, actorID int64, action string, entry JournalEntry) {
	s.record(ctx, actorID, action, entry)
	if s.cache != nil {
		_ = s.cache.InvalidateReports(ctx)
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entry JournalEntry) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalshared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entry.ID),
		Meta:     map[string]any{"number": entry.Number, "status": string(entry.Status)},
		At:       s.now(),
	})
}
