package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/analytics"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/observability"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/port"
)

var wxTracer = otel.Tracer("service/weather")

// WeatherService joins daily revenue against weather observations and
// runs the comfort-category impact analysis.
type WeatherService struct {
	txStore      port.TransactionStore
	weatherStore port.WeatherStore
	minDays      int
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewWeatherService creates a new weather service. minDays is the
// minimum observations a comfort category needs before its impact is
// reported.
func NewWeatherService(txStore port.TransactionStore, weatherStore port.WeatherStore, minDays int, metrics *observability.Metrics, logger *zap.Logger) *WeatherService {
	if minDays <= 0 {
		minDays = analytics.DefaultMinComfortDays
	}
	return &WeatherService{
		txStore:      txStore,
		weatherStore: weatherStore,
		minDays:      minDays,
		metrics:      metrics,
		logger:       logger,
	}
}

// GetWeatherImpact runs the impact analysis for the period. Days with an
// observation but no sales still enter their category with zero revenue;
// days with sales but no observation are dropped. minDays <= 0 uses the
// configured minimum per comfort category.
func (s *WeatherService) GetWeatherImpact(ctx context.Context, from, to *time.Time, minDays int) (*domain.WeatherImpact, error) {
	ctx, span := wxTracer.Start(ctx, "WeatherService.GetWeatherImpact")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("weather_impact", time.Since(start)) }()

	var (
		txs  []domain.Transaction
		days []domain.DailyWeather
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.txStore.ListTransactions(gCtx, from, to)
		if err != nil {
			s.logger.Error("failed to fetch transactions for weather impact", zap.Error(err))
			s.metrics.IncrExternalError("supabase")
			return err
		}
		txs = t
		return nil
	})

	g.Go(func() error {
		w, err := s.weatherStore.ListDailyWeather(gCtx, from, to)
		if err != nil {
			s.logger.Error("failed to fetch weather observations", zap.Error(err))
			s.metrics.IncrExternalError("supabase")
			return err
		}
		days = w
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if minDays <= 0 {
		minDays = s.minDays
	}
	impact := analytics.AnalyzeWeatherImpact(joinWeatherDays(txs, days), minDays)
	return &impact, nil
}

// joinWeatherDays pairs each weather observation with that day's revenue
// and service count.
func joinWeatherDays(txs []domain.Transaction, days []domain.DailyWeather) []domain.WeatherDay {
	type dayAgg struct {
		revenue  float64
		services int
	}
	byDay := make(map[string]dayAgg)
	for _, tx := range txs {
		if !tx.DateValid {
			continue
		}
		key := tx.Date.Format("2006-01-02")
		agg := byDay[key]
		agg.revenue += tx.PaidAmount
		agg.services += tx.Usage.Total()
		byDay[key] = agg
	}

	out := make([]domain.WeatherDay, 0, len(days))
	for _, w := range days {
		agg := byDay[w.Date]
		out = append(out, domain.WeatherDay{
			Date:     w.Date,
			Weather:  w,
			Revenue:  agg.revenue,
			Services: agg.services,
		})
	}
	return out
}
