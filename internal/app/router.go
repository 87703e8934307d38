package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hikari-shop/hikari/internal/admin"
	"github.com/hikari-shop/hikari/internal/auth"
	"github.com/hikari-shop/hikari/internal/cart"
	"github.com/hikari-shop/hikari/internal/catalog/categories"
	"github.com/hikari-shop/hikari/internal/catalog/products"
	"github.com/hikari-shop/hikari/internal/checkout"
	"github.com/hikari-shop/hikari/internal/messages"
	"github.com/hikari-shop/hikari/internal/notifications"
	"github.com/hikari-shop/hikari/internal/orders"
	"github.com/hikari-shop/hikari/internal/settings"
	"github.com/hikari-shop/hikari/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthMiddleware auth.Middleware

	AuthHandler          *auth.Handler
	CategoriesHandler    *categories.Handler
	ProductsHandler      *products.Handler
	CartHandler          *cart.Handler
	CheckoutHandler      *checkout.Handler
	OrdersHandler        *orders.Handler
	MessagesHandler      *messages.Handler
	NotificationsHandler *notifications.Handler
	SettingsHandler      *settings.Handler
	DashboardHandler     *admin.Handler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router with storefront defaults. Public
// catalog reads need no credential, shopper routes require a signed-in user
// and everything under /api/admin requires the admin flag.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/categories", params.CategoriesHandler.MountPublicRoutes)
		r.Route("/products", params.ProductsHandler.MountPublicRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireUser)
			r.Route("/cart", params.CartHandler.MountRoutes)
			r.Route("/checkout", params.CheckoutHandler.MountRoutes)
			r.Route("/orders", params.OrdersHandler.MountRoutes)
			r.Route("/messages", params.MessagesHandler.MountRoutes)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAdmin)
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
			r.Route("/categories", params.CategoriesHandler.MountAdminRoutes)
			r.Route("/products", params.ProductsHandler.MountAdminRoutes)
			r.Route("/orders", params.OrdersHandler.MountAdminRoutes)
			r.Route("/messages", params.MessagesHandler.MountAdminRoutes)
			r.Route("/notifications", params.NotificationsHandler.MountRoutes)
			r.Route("/settings", params.SettingsHandler.MountRoutes)
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
