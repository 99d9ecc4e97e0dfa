package periods

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crestline-erp/crestline-erp/internal/platform/httpx"
)

var validate = validator.New()

// Handler exposes period administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the periods HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches period routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/resolve", h.Resolve)
	r.Post("/{id}/close", h.Close)
	r.Post("/{id}/lock", h.Lock)
}

type createPeriodRequest struct {
	FiscalYear   int    `json:"fiscalYear" validate:"required,gt=0"`
	PeriodNumber int    `json:"periodNumber" validate:"required,gt=0"`
	StartDate    string `json:"startDate" validate:"required"`
	EndDate      string `json:"endDate" validate:"required"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPeriodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
		return
	}
	period, err := h.service.Create(r.Context(), CreatePeriodInput{
		FiscalYear:   req.FiscalYear,
		PeriodNumber: req.PeriodNumber,
		StartDate:    start,
		EndDate:      end,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, period, "period created")
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	fiscalYear, _ := strconv.Atoi(r.URL.Query().Get("fiscalYear"))
	list, err := h.service.List(r.Context(), fiscalYear)
	if err != nil {
		h.logger.Error("list periods", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, list, "")
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(time.DateOnly, r.URL.Query().Get("date"))
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	period, err := h.service.ResolveByDate(r.Context(), date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, period, "")
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Close, "period closed")
}

func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Lock, "period locked")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, actor int64) (Period, error), message string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid period id")
		return
	}
	period, err := fn(r.Context(), id, actorFrom(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, period, message)
}

func actorFrom(r *http.Request) int64 {
	actor, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return actor
}
