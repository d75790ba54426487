package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/service"
)

// ============================================================
// Dashboard revenue views
// ============================================================

func dashboardSummaryHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/summary")
		defer span.End()

		from, to, err := parseDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		summary, err := svc.GetSummary(ctx, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func dashboardDailyHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/daily")
		defer span.End()

		from, to, err := parseDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		daily, err := svc.GetDailyRevenue(ctx, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"daily": daily})
	}
}

func dashboardHourlyHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/hourly")
		defer span.End()

		from, to, err := parseDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		hourly, err := svc.GetHourlyRevenue(ctx, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"hourly": hourly})
	}
}

func dashboardWeekdayHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/weekday")
		defer span.End()

		from, to, err := parseDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		weekday, err := svc.GetWeekdayRevenue(ctx, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"weekday": weekday})
	}
}
