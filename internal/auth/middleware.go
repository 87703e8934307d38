package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/shared"
)

// Middleware gates routes on the bearer credential. Identity is re-derived
// from the token on every call; nothing is cached across requests.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireUser ensures the request carries a valid bearer token.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.identify(r)
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireAdmin ensures the caller is an authenticated admin.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.identify(r)
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		if !identity.IsAdmin {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

func (m Middleware) identify(r *http.Request) (*shared.Identity, error) {
	token, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	identity, err := m.Service.Identify(r.Context(), token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Warn("identify token", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		return nil, err
	}
	return identity, nil
}

// BearerToken extracts the bearer credential from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", ErrTokenNotFound
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}
