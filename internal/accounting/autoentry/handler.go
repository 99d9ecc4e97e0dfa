package autoentry

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/crestline-erp/crestline-erp/internal/accounting/journals"
	"github.com/crestline-erp/crestline-erp/internal/platform/httpx"
)

var validate = validator.New()

// Handler exposes auto-entry generation and the rule table.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the auto-entry HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches auto-entry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Generate)
	r.Get("/rules", h.Rules)
}

type generateRequest struct {
	SourceType string `json:"sourceType" validate:"required"`
	SourceID   string `json:"sourceId" validate:"required,uuid"`
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	sourceID, err := uuid.Parse(req.SourceID)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "sourceId must be a UUID")
		return
	}
	entry, err := h.service.Generate(r.Context(), GenerateInput{
		SourceType: journals.SourceType(req.SourceType),
		SourceID:   sourceID,
		ActorID:    actorFrom(r),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, entry, "automatic entry posted")
}

func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.Rules(r.Context())
	if err != nil {
		h.logger.Error("list auto entry rules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, rules, "")
}

func actorFrom(r *http.Request) int64 {
	actor, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return actor
}
