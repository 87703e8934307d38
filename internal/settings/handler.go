package settings

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
)

// Handler exposes the admin settings endpoints.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Put)
}

// Get returns the effective settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Get(r.Context())
	if err != nil {
		h.logger.Error("get settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

// Put updates the global settings record.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var s Settings
	if err := httpx.DecodeJSON(r, &s); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if s.ShippingCost < 0 || s.TaxRate < 0 || s.TaxRate >= 1 {
		httpx.RespondError(w, fmt.Errorf("%w: shipping cost must be non-negative and tax rate within [0,1)", httpx.ErrValidation))
		return
	}
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
	if err := h.repo.Put(r.Context(), s); err != nil {
		h.logger.Error("update settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}
