package journals

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/crestline-erp/crestline-erp/internal/platform/httpx"
	internalshared "github.com/crestline-erp/crestline-erp/internal/shared"
)

var validate = validator.New()

// Handler exposes the journal entry endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the journals HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Remove)
	r.Post("/{id}/post", h.Post)
	r.Post("/{id}/reverse", h.Reverse)
}

type lineRequest struct {
	DebitAccountID  *int64  `json:"debitAccountId"`
	CreditAccountID *int64  `json:"creditAccountId"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Description     string  `json:"description" validate:"required"`
}

type createEntryRequest struct {
	PeriodID     *int64        `json:"periodId"`
	Date         string        `json:"date" validate:"required"`
	Type         string        `json:"type" validate:"omitempty,oneof=MANUAL AUTOMATIC"`
	SourceType   string        `json:"sourceType"`
	SourceID     *uuid.UUID    `json:"sourceId"`
	SourceNumber string        `json:"sourceNumber"`
	Description  string        `json:"description" validate:"required"`
	Notes        string        `json:"notes"`
	Lines        []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

func toLineInputs(reqs []lineRequest) []LineInput {
	lines := make([]LineInput, 0, len(reqs))
	for _, l := range reqs {
		lines = append(lines, LineInput{
			DebitAccountID:  l.DebitAccountID,
			CreditAccountID: l.CreditAccountID,
			Amount:          l.Amount,
			Description:     l.Description,
		})
	}
	return lines
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	entry, err := h.service.Create(r.Context(), CreateEntryInput{
		PeriodID:     req.PeriodID,
		Date:         date,
		Type:         EntryType(req.Type),
		SourceType:   SourceType(req.SourceType),
		SourceID:     req.SourceID,
		SourceNumber: req.SourceNumber,
		Description:  req.Description,
		Notes:        req.Notes,
		Lines:        toLineInputs(req.Lines),
		CreatedBy:    actorFrom(r),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, entry, "journal entry created")
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Status:     EntryStatus(q.Get("status")),
		SourceType: SourceType(q.Get("sourceType")),
	}
	filter.PeriodID, _ = strconv.ParseInt(q.Get("periodId"), 10, 64)
	page := internalshared.PaginationFromQuery(q, 50, 500)
	filter.Limit = page.Limit
	filter.Offset = page.Offset
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.DateOnly, v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.DateOnly, v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		filter.To = &to
	}
	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list journal entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, entries, "")
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, entry, "")
}

type updateEntryRequest struct {
	Date        *string       `json:"date"`
	Description *string       `json:"description"`
	Notes       *string       `json:"notes"`
	Lines       []lineRequest `json:"lines" validate:"omitempty,min=2,dive"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	var req updateEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	in := UpdateEntryInput{Description: req.Description, Notes: req.Notes}
	if req.Date != nil {
		date, err := time.Parse(time.DateOnly, *req.Date)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		in.Date = &date
	}
	if req.Lines != nil {
		in.Lines = toLineInputs(req.Lines)
	}
	entry, err := h.service.Update(r.Context(), id, in, actorFrom(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, entry, "journal entry updated")
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), id, actorFrom(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil, "journal entry cancelled")
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Post(r.Context(), id, actorFrom(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, entry, "journal entry posted")
}

type reverseEntryRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	var req reverseEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	entry, err := h.service.Reverse(r.Context(), ReverseEntryInput{
		EntryID: id,
		Reason:  req.Reason,
		ActorID: actorFrom(r),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, entry, "reversal entry posted")
}

func entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid entry id")
		return 0, false
	}
	return id, true
}

func actorFrom(r *http.Request) int64 {
	actor, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return actor
}
