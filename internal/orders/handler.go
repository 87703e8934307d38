package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

// Handler exposes order endpoints for shoppers and the back-office.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers shopper-facing order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)
}

// MountAdminRoutes registers back-office order routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.UpdateStatus)
	r.Post("/{id}/cancel", h.Cancel)
}

type listResponse struct {
	Orders     []Order           `json:"orders"`
	Pagination shared.Pagination `json:"pagination"`
}

// List serves paginated orders, status-filterable, owner-scoped for
// regular users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	filter := ListFilter{Page: page, Limit: limit}
	if raw := q.Get("status"); raw != "" && raw != "all" {
		status := Status(raw)
		filter.Status = &status
	}

	list, total, err := h.service.List(r.Context(), identity, filter)
	if err != nil {
		h.respondErr(w, "list orders", err)
		return
	}
	if list == nil {
		list = []Order{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Orders:     list,
		Pagination: shared.NewPagination(filter.Page, filter.Limit, total),
	})
}

// Get serves a single order.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	order, err := h.service.Get(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

type statusUpdateRequest struct {
	Status         string  `json:"status"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
}

// UpdateStatus applies an admin status transition.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), StatusUpdate{
		Status:         Status(req.Status),
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		h.respondErr(w, "update order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// Cancel cancels a pre-shipment order and restores its stock.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	order, err := h.service.Cancel(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, "cancel order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, httpx.ErrForbidden),
		errors.Is(err, httpx.ErrConflict),
		errors.Is(err, httpx.ErrValidation):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
