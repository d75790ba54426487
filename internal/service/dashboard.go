// Package service provides the business logic layer (use cases).
// DashboardService serves the revenue views, CustomerService the
// per-customer metrics, WeatherService the weather impact analysis,
// GrowthService the monthly trends and IngestService the CSV pipeline.
package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/analytics"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/observability"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/port"
)

var dashTracer = otel.Tracer("service/dashboard")

// DashboardService serves the aggregate revenue views. Transactions are
// fetched once per period and cached; all bucketing is recomputed from
// the cached slice.
type DashboardService struct {
	store   port.TransactionStore
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store port.TransactionStore, cache port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// loadTransactions fetches the period's transactions through the cache.
func (s *DashboardService) loadTransactions(ctx context.Context, from, to *time.Time) ([]domain.Transaction, error) {
	cacheKey := fmt.Sprintf("transactions:%s:%s", fmtBound(from), fmtBound(to))
	if cached, ok := s.cache.Get(cacheKey); ok {
		if txs, ok := cached.([]domain.Transaction); ok {
			s.metrics.IncrCacheHit("dashboard")
			return txs, nil
		}
	}
	s.metrics.IncrCacheMiss("dashboard")

	txs, err := s.store.ListTransactions(ctx, from, to)
	if err != nil {
		s.metrics.IncrExternalError("supabase")
		return nil, err
	}
	s.cache.Set(cacheKey, txs)
	return txs, nil
}

func fmtBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// GetSummary returns the headline totals for the period.
func (s *DashboardService) GetSummary(ctx context.Context, from, to *time.Time) (*domain.DashboardSummary, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.GetSummary")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard_summary", time.Since(start)) }()

	txs, err := s.loadTransactions(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &domain.DashboardSummary{
		From:        fmtBound(from),
		To:          fmtBound(to),
		Totals:      analytics.AggregateTotals(txs),
		GeneratedAt: time.Now().UTC(),
	}
	return summary, nil
}

// GetDailyRevenue returns the period's revenue bucketed by calendar date.
func (s *DashboardService) GetDailyRevenue(ctx context.Context, from, to *time.Time) ([]domain.DailyAggregate, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.GetDailyRevenue")
	defer span.End()

	txs, err := s.loadTransactions(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return analytics.GroupByDay(txs), nil
}

// GetHourlyRevenue returns the period's revenue bucketed by hour of day.
// All 24 buckets are always present.
func (s *DashboardService) GetHourlyRevenue(ctx context.Context, from, to *time.Time) ([]domain.HourlyAggregate, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.GetHourlyRevenue")
	defer span.End()

	txs, err := s.loadTransactions(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return analytics.GroupByHour(txs), nil
}

// GetWeekdayRevenue returns the period's revenue bucketed by day of week.
// All 7 buckets are always present.
func (s *DashboardService) GetWeekdayRevenue(ctx context.Context, from, to *time.Time) ([]domain.WeekdayAggregate, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.GetWeekdayRevenue")
	defer span.End()

	txs, err := s.loadTransactions(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return analytics.GroupByWeekday(txs), nil
}
