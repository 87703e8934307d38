package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hikari-shop/hikari/internal/admin"
	"github.com/hikari-shop/hikari/internal/app"
	"github.com/hikari-shop/hikari/internal/auth"
	"github.com/hikari-shop/hikari/internal/cart"
	"github.com/hikari-shop/hikari/internal/catalog/categories"
	"github.com/hikari-shop/hikari/internal/catalog/products"
	"github.com/hikari-shop/hikari/internal/checkout"
	"github.com/hikari-shop/hikari/internal/messages"
	"github.com/hikari-shop/hikari/internal/notifications"
	"github.com/hikari-shop/hikari/internal/orders"
	"github.com/hikari-shop/hikari/internal/platform/cache"
	"github.com/hikari-shop/hikari/internal/platform/db"
	"github.com/hikari-shop/hikari/internal/settings"
	"github.com/hikari-shop/hikari/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(pool)
	tokenStore := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authService := auth.NewService(authRepo, tokenStore)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}

	categoriesRepo := categories.NewRepository(pool)
	categoriesService := categories.NewService(categoriesRepo)
	categoriesHandler := categories.NewHandler(logger, categoriesService)

	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo)
	productsHandler := products.NewHandler(logger, productsService)

	cartRepo := cart.NewRepository(pool)
	cartService := cart.NewService(cartRepo, productsRepo)
	cartHandler := cart.NewHandler(logger, cartService)

	settingsRepo := settings.NewRepository(pool)
	settingsHandler := settings.NewHandler(logger, settingsRepo)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	checkoutRepo := checkout.NewRepository(pool)
	checkoutService := checkout.NewService(logger, checkoutRepo, settingsRepo, jobClient)
	checkoutHandler := checkout.NewHandler(logger, checkoutService)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo)
	ordersHandler := orders.NewHandler(logger, ordersService)

	messagesRepo := messages.NewRepository(pool)
	messagesService := messages.NewService(messagesRepo)
	messagesHandler := messages.NewHandler(logger, messagesService)

	notificationsRepo := notifications.NewRepository(pool)
	notificationsHandler := notifications.NewHandler(logger, notificationsRepo)

	dashboardRepo := admin.NewRepository(pool)
	dashboardCache := admin.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := admin.NewService(dashboardRepo, dashboardCache)
	dashboardHandler := admin.NewHandler(logger, dashboardService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		AuthMiddleware:       authMiddleware,
		AuthHandler:          authHandler,
		CategoriesHandler:    categoriesHandler,
		ProductsHandler:      productsHandler,
		CartHandler:          cartHandler,
		CheckoutHandler:      checkoutHandler,
		OrdersHandler:        ordersHandler,
		MessagesHandler:      messagesHandler,
		NotificationsHandler: notificationsHandler,
		SettingsHandler:      settingsHandler,
		DashboardHandler:     dashboardHandler,
		JobHandler:           jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
