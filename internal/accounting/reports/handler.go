package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crestline-erp/crestline-erp/internal/platform/httpx"
)

// Handler exposes the financial report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the reports HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.TrialBalance)
	r.Get("/profit-loss", h.ProfitAndLoss)
	r.Get("/balance-sheet", h.BalanceSheet)
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, ok := dateParam(w, r, "asOf")
	if !ok {
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), asOf)
	if err != nil {
		h.logger.Error("trial balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, tb, "")
}

func (h *Handler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	start, ok := dateParam(w, r, "startDate")
	if !ok {
		return
	}
	end, ok := dateParam(w, r, "endDate")
	if !ok {
		return
	}
	if end.Before(start) {
		httpx.Fail(w, http.StatusBadRequest, "endDate cannot precede startDate")
		return
	}
	pl, err := h.service.ProfitAndLoss(r.Context(), start, end)
	if err != nil {
		h.logger.Error("profit and loss", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, pl, "")
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, ok := dateParam(w, r, "asOf")
	if !ok {
		return
	}
	bs, err := h.service.BalanceSheet(r.Context(), asOf)
	if err != nil {
		h.logger.Error("balance sheet", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, bs, "")
}

func dateParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		// Default to today so dashboards can omit the parameter.
		return time.Now().UTC().Truncate(24 * time.Hour), true
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, name+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
