package cart

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

// Handler exposes cart endpoints. All routes are owner-scoped via the
// identity placed in context by the auth middleware.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers cart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Delete("/", h.Clear)
	r.Post("/items", h.Add)
	r.Put("/items/{id}", h.UpdateQuantity)
	r.Delete("/items/{id}", h.Remove)
}

// List returns the caller's cart.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	items, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("list cart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Item{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

// Add puts a line into the caller's cart.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	var input AddInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	item, err := h.service.Add(r.Context(), identity.UserID, input)
	if err != nil {
		h.respondErr(w, "add cart item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity sets the quantity of a cart line.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	var req updateQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.UpdateQuantity(r.Context(), identity.UserID, chi.URLParam(r, "id"), req.Quantity); err != nil {
		h.respondErr(w, "update cart item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Remove deletes a cart line.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if err := h.service.Remove(r.Context(), identity.UserID, chi.URLParam(r, "id")); err != nil {
		h.respondErr(w, "remove cart item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Clear empties the caller's cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if err := h.service.Clear(r.Context(), identity.UserID); err != nil {
		h.logger.Error("clear cart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
