package main

import (
	"codereview-backend/internal/api"
	"codereview-backend/internal/config"
	"codereview-backend/internal/crypto"
	"codereview-backend/internal/extensions/builtin"
	"codereview-backend/internal/handlers"
	"codereview-backend/internal/hooks"
	"codereview-backend/internal/integrations"
	"codereview-backend/internal/logger"
	"codereview-backend/internal/metrics"
	"codereview-backend/internal/scheduler"
	"codereview-backend/internal/services"
	"codereview-backend/internal/store"
	"codereview-backend/internal/store/memory"
	"codereview-backend/internal/store/postgres"
	"context"
	"crypto/cipher"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	for _, warning := range cfg.Warnings {
		zapLogger.Warn("[Main] Configuration warning", zap.String("warning", warning))
	}
	zapLogger.Info("[Main] Starting code review backend",
		zap.String("app_env", cfg.AppEnv), zap.String("store_driver", cfg.StoreDriver))

	// 2. Initialize the store
	var aead cipher.AEAD
	if cfg.EncryptionKey != nil {
		aead, err = crypto.NewAESGCM(cfg.EncryptionKey)
		if err != nil {
			zapLogger.Fatal("[Main] Failed to create AES-GCM cipher", zap.Error(err))
		}
	}

	appStore, closeStore, err := openStore(cfg, aead, zapLogger)
	if err != nil {
		zapLogger.Fatal("[Main] Failed to open store", zap.Error(err))
	}
	defer closeStore()

	// 3. Registries and the built-in extension
	integrationRegistry := integrations.NewRegistry(zapLogger)
	hookRegistry := hooks.NewRegistry(integrationRegistry, zapLogger)

	builtinExt, err := builtin.Load(hookRegistry, zapLogger)
	if err != nil {
		zapLogger.Fatal("[Main] Failed to load built-in extension", zap.Error(err))
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(promRegistry); err != nil {
		zapLogger.Fatal("[Main] Failed to register metrics", zap.Error(err))
	}

	// 4. Configuration manager
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	manager, err := integrations.NewManager(loadCtx, integrationRegistry, appStore, zapLogger)
	loadCancel()
	if err != nil {
		zapLogger.Fatal("[Main] Failed to load configured integrations", zap.Error(err))
	}

	if err := builtin.RegisterStatusWidget(builtinExt, hookRegistry, manager); err != nil {
		zapLogger.Fatal("[Main] Failed to register status widget", zap.Error(err))
	}

	var reloads *scheduler.ReloadScheduler
	if cfg.ReloadSchedule != "" {
		reloads, err = scheduler.NewReloadScheduler(cfg.ReloadSchedule, manager, zapLogger)
		if err != nil {
			zapLogger.Fatal("[Main] Failed to create reload scheduler", zap.Error(err))
		}
		reloads.Start()
	}

	// 5. Services and handlers
	authService := services.NewAuthService(appStore, cfg, zapLogger)
	configService := services.NewConfiguredIntegrationService(manager, appStore, zapLogger)
	integrationService := services.NewIntegrationService(integrationRegistry, hookRegistry, hooks.NewRenderer(hookRegistry, zapLogger))
	notificationService := services.NewNotificationService(manager, zapLogger)

	routerDeps := api.RouterDependencies{
		AuthHandler:                  handlers.NewAuthHandler(authService, zapLogger),
		ConfiguredIntegrationHandler: handlers.NewConfiguredIntegrationHandler(configService, zapLogger),
		IntegrationHandler:           handlers.NewIntegrationHandler(integrationService, zapLogger),
		ReviewEventHandler:           handlers.NewReviewEventHandler(notificationService, zapLogger),
		MetricsRegistry:              promRegistry,
		Config:                       cfg,
		Logger:                       zapLogger,
	}
	router := api.NewRouter(routerDeps)

	// 6. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// Production hardening: Set timeouts to avoid Slowloris attacks
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zapLogger.Info("[Main] Server listening", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("[Main] Could not listen", zap.String("port", cfg.HTTPPort), zap.Error(err))
		}
	}()

	<-stopChan
	zapLogger.Info("[Main] Shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("[Main] Server graceful shutdown failed", zap.Error(err))
	}
	if reloads != nil {
		reloads.Stop(shutdownCtx)
	}
	manager.Shutdown(shutdownCtx)
	if err := builtinExt.Shutdown(); err != nil {
		zapLogger.Warn("[Main] Built-in extension shutdown failed", zap.Error(err))
	}

	zapLogger.Info("[Main] Server shutdown complete")
}

// openStore connects to the configured store driver. The returned func
// releases its resources.
func openStore(cfg *config.Config, aead cipher.AEAD, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("[Main] Using the in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	// Timeout for initial connection
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create database connection pool: %w", err)
	}
	if err := dbpool.Ping(dbCtx); err != nil {
		dbpool.Close()
		return nil, nil, fmt.Errorf("unable to ping database: %w", err)
	}
	logger.Info("[Main] Database connection pool established and pinged successfully")

	pgStore := postgres.NewPostgresStore(dbpool, aead, logger)
	if err := pgStore.EnsureSchema(dbCtx); err != nil {
		dbpool.Close()
		return nil, nil, fmt.Errorf("unable to prepare database schema: %w", err)
	}
	return pgStore, dbpool.Close, nil
}
