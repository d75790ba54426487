package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/analytics"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/config"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/handler"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/cache"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/observability"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/resilience"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/supabase"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/service"

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
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("ingest_batch_size", cfg.IngestBatchSize),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "lavpop-bi")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Analytics tuning ---
	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		logger.Warn("tuning file load failed, using defaults",
			zap.String("path", cfg.TuningPath),
			zap.Error(err),
		)
		tuning = config.DefaultTuning()
	}

	// --- Cache ---
	queryCache := cache.New[any](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Supabase store ---
	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	// --- Services ---
	dashSvc := service.NewDashboardService(store, queryCache, metrics, logger)
	custSvc := service.NewCustomerService(
		store,
		store,
		store,
		analytics.NewRiskScorer(tuning.Risk.SegmentMultipliers),
		metrics,
		logger,
	)
	wxSvc := service.NewWeatherService(store, store, tuning.Weather.MinComfortDays, metrics, logger)
	growthSvc := service.NewGrowthService(store, tuning.Growth.TrendWindowMonths, tuning.Growth.TrendDeadBandPct, metrics, logger)
	ingestSvc := service.NewIngestService(
		store,
		store,
		store,
		store,
		queryCache,
		cfg.IngestBatchSize,
		domain.AppSettings{
			CashbackPercent:   tuning.Cashback.DefaultPercent,
			CashbackStartDate: tuning.Cashback.DefaultStartDate,
		},
		metrics,
		logger,
	)

	// --- Router ---
	router := handler.NewRouter(dashSvc, custSvc, wxSvc, growthSvc, ingestSvc, metrics, logger)

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
