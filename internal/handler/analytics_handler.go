package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/service"
)

// ============================================================
// Weather impact
// ============================================================

func weatherImpactHandler(svc *service.WeatherService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/weather/impact")
		defer span.End()

		from, to, err := parseDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		impact, err := svc.GetWeatherImpact(ctx, from, to, parseIntParam(r, "min_days"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, impact)
	}
}

// ============================================================
// Growth trends
// ============================================================

func growthTrendsHandler(svc *service.GrowthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/growth/trends")
		defer span.End()

		trend, err := svc.GetGrowthTrends(ctx, parseIntParam(r, "window"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, trend)
	}
}

// parseIntParam returns the query param as an int, or 0 when absent or
// malformed so the service applies its configured default.
func parseIntParam(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
