package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/gym-routines/internal/api"
	"alcyxob/gym-routines/internal/app"
	"alcyxob/gym-routines/internal/config"
	"alcyxob/gym-routines/internal/observability"
	"alcyxob/gym-routines/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// @title Gym Routines API
// @version 1.0
// @description Routine scheduling and workout session tracking for gym members and trainers.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("could not load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		panic("could not init logger: " + err.Error())
	}
	defer log.Sync()
	log.Info("starting gym routines server", "address", cfg.Server.Address, "driver", cfg.Database.Driver)

	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret is required")
	}

	ctx := context.Background()

	// --- Tracing ---
	shutdownTracing, err := observability.InitTracing(ctx, log, cfg.Tracing)
	if err != nil {
		log.Fatal("could not init tracing", "error", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// --- Store ---
	store, err := app.OpenStore(ctx, log, cfg.Database, true)
	if err != nil {
		log.Fatal("could not open store", "error", err)
	}
	defer func() {
		log.Info("closing store")
		if err := store.Close(); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()

	// --- Storage and notifications ---
	fileStorage, err := app.NewFileStorage(ctx, log, cfg.S3)
	if err != nil {
		log.Fatal("could not init media storage", "error", err)
	}
	notifier, closeNotifier, err := app.NewNotifier(log, cfg, store.Users)
	if err != nil {
		log.Fatal("could not init notifier", "error", err)
	}
	defer func() { _ = closeNotifier() }()

	services := app.NewServices(log, store, fileStorage, notifier)

	// --- Gin Engine ---
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	api.SetupRoutes(router, cfg.JWT.Secret, log, cfg.Server.AllowOrigins, api.Services{
		Catalog:    services.Catalog,
		Routines:   services.Routines,
		Activation: services.Activation,
		Sessions:   services.Sessions,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", "error", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exiting")
}
