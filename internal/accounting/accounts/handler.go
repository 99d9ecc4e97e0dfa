package accounts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crestline-erp/crestline-erp/internal/platform/httpx"
	internalshared "github.com/crestline-erp/crestline-erp/internal/shared"
)

var validate = validator.New()

// Handler exposes chart of accounts endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the accounts HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/search", h.Search)
	r.Get("/hierarchy", h.Hierarchy)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type createAccountRequest struct {
	Code                  string  `json:"code" validate:"required"`
	Name                  string  `json:"name" validate:"required"`
	Type                  string  `json:"type" validate:"required"`
	SubType               string  `json:"subType"`
	NormalBalance         string  `json:"normalBalance" validate:"required"`
	ParentCode            string  `json:"parentCode"`
	OpeningBalance        float64 `json:"openingBalance"`
	AllowManualEntry      *bool   `json:"allowManualEntry"`
	ShowInBalanceSheet    *bool   `json:"showInBalanceSheet"`
	ShowInIncomeStatement *bool   `json:"showInIncomeStatement"`
	IsSystem              bool    `json:"isSystem"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	in := CreateAccountInput{
		Code:                  req.Code,
		Name:                  req.Name,
		Type:                  AccountType(req.Type),
		SubType:               req.SubType,
		NormalBalance:         NormalBalance(req.NormalBalance),
		ParentCode:            req.ParentCode,
		OpeningBalance:        req.OpeningBalance,
		AllowManualEntry:      true,
		ShowInBalanceSheet:    true,
		ShowInIncomeStatement: false,
		IsSystem:              req.IsSystem,
	}
	if req.AllowManualEntry != nil {
		in.AllowManualEntry = *req.AllowManualEntry
	}
	if req.ShowInBalanceSheet != nil {
		in.ShowInBalanceSheet = *req.ShowInBalanceSheet
	}
	if req.ShowInIncomeStatement != nil {
		in.ShowInIncomeStatement = *req.ShowInIncomeStatement
	}
	account, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, account, "account created")
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid account id")
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, account, "")
}

type updateAccountRequest struct {
	Code                  *string `json:"code"`
	Name                  *string `json:"name"`
	Type                  *string `json:"type"`
	SubType               *string `json:"subType"`
	NormalBalance         *string `json:"normalBalance"`
	AllowManualEntry      *bool   `json:"allowManualEntry"`
	ShowInBalanceSheet    *bool   `json:"showInBalanceSheet"`
	ShowInIncomeStatement *bool   `json:"showInIncomeStatement"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid account id")
		return
	}
	var req updateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	in := UpdateAccountInput{
		Code:                  req.Code,
		Name:                  req.Name,
		SubType:               req.SubType,
		AllowManualEntry:      req.AllowManualEntry,
		ShowInBalanceSheet:    req.ShowInBalanceSheet,
		ShowInIncomeStatement: req.ShowInIncomeStatement,
	}
	if req.Type != nil {
		t := AccountType(*req.Type)
		in.Type = &t
	}
	if req.NormalBalance != nil {
		n := NormalBalance(*req.NormalBalance)
		in.NormalBalance = &n
	}
	account, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, account, "account updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid account id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil, "account archived")
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ListFilter{
		Type:   AccountType(q.Get("type")),
		Status: AccountStatus(q.Get("status")),
		Query:  q.Get("q"),
	}
	page := internalshared.PaginationFromQuery(q, 50, 500)
	f.Limit = page.Limit
	f.Offset = page.Offset
	list, err := h.service.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, list, "")
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), 50)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, list, "")
}

func (h *Handler) Hierarchy(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Hierarchy(r.Context())
	if err != nil {
		h.logger.Error("build hierarchy", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, tree, "")
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
