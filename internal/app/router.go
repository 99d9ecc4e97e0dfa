package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crestline-erp/crestline-erp/internal/accounting/accounts"
	"github.com/crestline-erp/crestline-erp/internal/accounting/autoentry"
	"github.com/crestline-erp/crestline-erp/internal/accounting/journals"
	"github.com/crestline-erp/crestline-erp/internal/accounting/periods"
	"github.com/crestline-erp/crestline-erp/internal/accounting/query"
	"github.com/crestline-erp/crestline-erp/internal/accounting/reports"
	"github.com/crestline-erp/crestline-erp/internal/observability"
	"github.com/crestline-erp/crestline-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AccountsHandler  *accounts.Handler
	PeriodsHandler   *periods.Handler
	JournalsHandler  *journals.Handler
	QueryHandler     *query.Handler
	ReportsHandler   *reports.Handler
	AutoEntryHandler *autoentry.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Crestline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/accounting", func(r chi.Router) {
		if params.AccountsHandler != nil {
			r.Route("/accounts", params.AccountsHandler.MountRoutes)
		}
		if params.PeriodsHandler != nil {
			r.Route("/periods", params.PeriodsHandler.MountRoutes)
		}
		if params.JournalsHandler != nil {
			r.Route("/journal-entries", params.JournalsHandler.MountRoutes)
		}
		if params.QueryHandler != nil {
			r.Route("/ledger", params.QueryHandler.MountRoutes)
		}
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountRoutes)
		}
		if params.AutoEntryHandler != nil {
			r.Route("/auto-entries", params.AutoEntryHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
