package messages

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

// Handler exposes messaging endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers shopper-facing messaging routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.MyThread)
	r.Post("/", h.Send)
}

// MountAdminRoutes registers back-office messaging routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/unread", h.Unread)
	r.Get("/{id}", h.AdminThread)
	r.Post("/{id}/reply", h.Reply)
}

type sendRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send accepts a shopper message.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	var req sendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	message, err := h.service.Send(r.Context(), identity, req.Subject, req.Body)
	if err != nil {
		h.respondErr(w, "send message", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, message)
}

// MyThread serves the caller's conversation.
func (h *Handler) MyThread(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	thread, err := h.service.MyThread(r.Context(), identity)
	if err != nil {
		h.respondErr(w, "load thread", err)
		return
	}
	httpx.JSON(w, http.StatusOK, thread)
}

// List serves all conversations for staff.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondErr(w, "list conversations", err)
		return
	}
	if list == nil {
		list = []Conversation{}
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"conversations": list})
}

// Unread serves the count of shopper messages awaiting staff.
func (h *Handler) Unread(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.UnreadFromShoppers(r.Context())
	if err != nil {
		h.respondErr(w, "count unread", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// AdminThread serves one conversation for staff.
func (h *Handler) AdminThread(w http.ResponseWriter, r *http.Request) {
	thread, err := h.service.AdminThread(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, "load thread", err)
		return
	}
	httpx.JSON(w, http.StatusOK, thread)
}

type replyRequest struct {
	Body string `json:"body"`
}

// Reply appends a staff reply.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	var req replyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	message, err := h.service.Reply(r.Context(), identity, chi.URLParam(r, "id"), req.Body)
	if err != nil {
		h.respondErr(w, "reply", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, message)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, httpx.ErrValidation):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
