package notifications

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
)

// Handler exposes the admin notification endpoints.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.MarkAllRead)
}

type listResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// List returns notifications newest first with the unread count.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	unread, err := h.repo.UnreadCount(r.Context())
	if err != nil {
		h.logger.Error("count notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Notification{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Notifications: list, UnreadCount: unread})
}

// MarkAllRead flips every unread notification.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.repo.MarkAllRead(r.Context())
	if err != nil {
		h.logger.Error("mark notifications read", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "updated": updated})
}
