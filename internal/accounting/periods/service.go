package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/crestline-erp/crestline-erp/internal/accounting/shared"
	internalshared "github.com/crestline-erp/crestline-erp/internal/shared"
)

// AuditPort records period lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// Service orchestrates the period lifecycle.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the period service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create inserts a new open period after checking for overlap within the
// fiscal year. Periods must be contiguous and non-overlapping; contiguity is
// the operator's responsibility, overlap is rejected here.
func (s *Service) Create(ctx context.Context, in CreatePeriodInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	conflict, err := s.repo.RangeConflict(ctx, in.FiscalYear, in.StartDate, in.EndDate)
	if err != nil {
		return Period{}, err
	}
	if conflict {
		return Period{}, shared.ErrPeriodOverlap
	}
	return s.repo.Insert(ctx, in)
}

// ResolveByDate returns the unique period containing the given date.
func (s *Service) ResolveByDate(ctx context.Context, date time.Time) (Period, error) {
	return s.repo.FindByDate(ctx, date)
}

// Get returns a period by id.
func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns periods, optionally scoped to a fiscal year.
func (s *Service) List(ctx context.Context, fiscalYear int) ([]Period, error) {
	return s.repo.List(ctx, fiscalYear)
}

// Close moves an open period to closed. Closed periods no longer accept
// postings but remain distinguishable from locked for operator messaging.
func (s *Service) Close(ctx context.Context, id int64, actorID int64) (Period, error) {
	period, err := s.repo.Transition(ctx, id, PeriodStatusOpen, PeriodStatusClosed, actorID, s.now())
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, actorID, "period.close", period)
	return period, nil
}

// Lock moves a closed period to locked. Locking is terminal; no reopening
// path exists.
func (s *Service) Lock(ctx context.Context, id int64, actorID int64) (Period, error) {
	period, err := s.repo.Transition(ctx, id, PeriodStatusClosed, PeriodStatusLocked, actorID, s.now())
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, actorID, "period.lock", period)
	return period, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, period Period) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalshared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "accounting_period",
		EntityID: fmt.Sprintf("%d", period.ID),
		Meta:     map[string]any{"code": period.Code(), "status": string(period.Status)},
		At:       s.now(),
	})
}
