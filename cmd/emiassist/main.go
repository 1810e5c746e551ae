package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/config"
	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/handler"
	"github.com/collectwise/emi-assistant-go/internal/infra/cache"
	"github.com/collectwise/emi-assistant-go/internal/infra/client"
	"github.com/collectwise/emi-assistant-go/internal/infra/observability"
	"github.com/collectwise/emi-assistant-go/internal/infra/resilience"
	"github.com/collectwise/emi-assistant-go/internal/infra/sqlite"
	"github.com/collectwise/emi-assistant-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("database_path", cfg.DatabasePath),
		zap.Duration("context_cache_ttl", cfg.ContextCacheTTL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Ints("reminder_days", cfg.ReminderDays),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "emi-assistant")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()

	if cfg.SeedDemoData {
		if err := store.Seed(context.Background()); err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
		logger.Info("demo data seeded")
	}

	// --- Decision rules ---
	rules := service.DefaultRules()
	if cfg.RulesPath != "" {
		rules, err = service.LoadRules(cfg.RulesPath)
		if err != nil {
			logger.Fatal("failed to load decision rules", zap.Error(err))
		}
		logger.Info("decision rules loaded", zap.String("path", cfg.RulesPath))
	}

	// --- Cache ---
	contextCache := cache.New[*domain.CustomerContext](cfg.ContextCacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	gateway := client.NewGatewayClient(httpClient, cfg.GatewayAPIURL, cfg.GatewayKeyID,
		resilience.NewCircuitBreaker("gateway"), resilienceCfg, cfg.LinkTTL)
	messenger := client.NewMessengerClient(httpClient, cfg.MessengerAPIURL, cfg.MessengerSID,
		resilience.NewCircuitBreaker("messenger"), resilienceCfg)

	if cfg.GatewayAPIURL == "" || cfg.GatewayKeyID == "" {
		logger.Warn("payment gateway not configured, running in simulation mode")
	}
	if cfg.MessengerAPIURL == "" || cfg.MessengerSID == "" {
		logger.Warn("messenger not configured, running in simulation mode")
	}

	// --- Services ---
	builderOpts := service.ContextBuilderOptions{
		PaymentHistoryMonths:   cfg.PaymentHistoryMonths,
		InteractionWindowDays:  cfg.InteractionWindowDays,
		RecentInteractionLimit: cfg.RecentInteractionLimit,
		SegmentVIPPrincipal:    rules.VIPPrincipal,
	}
	builder := service.NewContextBuilder(store, contextCache, nil, builderOpts, metrics, logger)
	engine := service.NewDecisionEngine(rules, metrics, logger)
	simulator := service.NewSimulator(logger)
	interactions := service.NewInteractionService(store, builder, metrics, logger)
	trigger := service.NewTriggerService(store, builder, simulator, engine, interactions,
		cfg.MaxConcurrency, cfg.ReminderDays, metrics, logger)
	payments := service.NewPaymentService(store, gateway, messenger, builder,
		cfg.LinkSigningSecret, cfg.LinkTTL, metrics, logger)
	analytics := service.NewAnalyticsService(store, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Builder:      builder,
		Engine:       engine,
		Trigger:      trigger,
		Payments:     payments,
		Interactions: interactions,
		Analytics:    analytics,
		Store:        store,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
