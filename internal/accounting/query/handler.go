package query

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crestline-erp/crestline-erp/internal/platform/httpx"
)

// Handler exposes ledger query endpoints.
type Handler struct {
	logger *slog.Logger
	engine *Engine
}

// NewHandler builds the query HTTP handler.
func NewHandler(logger *slog.Logger, engine *Engine) *Handler {
	return &Handler{logger: logger, engine: engine}
}

// MountRoutes attaches query routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts/{id}/balance", h.AccountBalance)
	r.Get("/hierarchy", h.AccountHierarchy)
}

func (h *Handler) AccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid account id")
		return
	}
	var opts BalanceOptions
	q := r.URL.Query()
	if v := q.Get("startDate"); v != "" {
		start, err := time.Parse(time.DateOnly, v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
			return
		}
		opts.StartDate = &start
	}
	if v := q.Get("endDate"); v != "" {
		end, err := time.Parse(time.DateOnly, v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
			return
		}
		opts.EndDate = &end
	}
	opts.IncludeUnposted = q.Get("includeUnposted") == "true"

	statement, err := h.engine.AccountBalance(r.Context(), id, opts)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, statement, "")
}

func (h *Handler) AccountHierarchy(w http.ResponseWriter, r *http.Request) {
	tree, err := h.engine.AccountHierarchy(r.Context())
	if err != nil {
		h.logger.Error("account hierarchy", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, tree, "")
}
