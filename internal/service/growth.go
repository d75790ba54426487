package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/analytics"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/observability"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/port"
)

var growthTracer = otel.Tracer("service/growth")

// GrowthService builds the monthly revenue series and its derived trend.
type GrowthService struct {
	store        port.TransactionStore
	windowMonths int
	deadBandPct  float64
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewGrowthService creates a new growth service. windowMonths is the
// trailing window used to classify the trend direction and deadBandPct
// is the band of average growth treated as stable; zero values select
// the package defaults.
func NewGrowthService(store port.TransactionStore, windowMonths int, deadBandPct float64, metrics *observability.Metrics, logger *zap.Logger) *GrowthService {
	if windowMonths <= 0 {
		windowMonths = analytics.DefaultTrendWindowMonths
	}
	if deadBandPct <= 0 {
		deadBandPct = analytics.DefaultTrendDeadBandPct
	}
	return &GrowthService{store: store, windowMonths: windowMonths, deadBandPct: deadBandPct, metrics: metrics, logger: logger}
}

// GetGrowthTrends returns the full monthly series with month-over-month
// and year-over-year growth, best and worst months, and the direction.
// windowMonths <= 0 uses the configured trend window.
func (s *GrowthService) GetGrowthTrends(ctx context.Context, windowMonths int) (*domain.GrowthTrend, error) {
	ctx, span := growthTracer.Start(ctx, "GrowthService.GetGrowthTrends")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("growth_trends", time.Since(start)) }()

	txs, err := s.store.ListTransactions(ctx, nil, nil)
	if err != nil {
		s.logger.Error("failed to fetch transactions for growth trends", zap.Error(err))
		s.metrics.IncrExternalError("supabase")
		return nil, err
	}

	if windowMonths <= 0 {
		windowMonths = s.windowMonths
	}
	trend := analytics.AnalyzeGrowth(txs, time.Now().UTC(), windowMonths, s.deadBandPct)
	return &trend, nil
}
