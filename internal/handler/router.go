package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/observability"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract consumed by the dashboard frontend.
func NewRouter(
	dashSvc *service.DashboardService,
	custSvc *service.CustomerService,
	wxSvc *service.WeatherService,
	growthSvc *service.GrowthService,
	ingestSvc *service.IngestService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(dashSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Dashboard (revenue views)
		// =============================================
		r.Get("/dashboard/summary", dashboardSummaryHandler(dashSvc, logger))
		r.Get("/dashboard/daily", dashboardDailyHandler(dashSvc, logger))
		r.Get("/dashboard/hourly", dashboardHourlyHandler(dashSvc, logger))
		r.Get("/dashboard/weekday", dashboardWeekdayHandler(dashSvc, logger))

		// =============================================
		// Customers (lifetime metrics + churn risk)
		// =============================================
		r.Get("/customers/{document}/metrics", customerMetricsHandler(custSvc, logger))
		r.Get("/customers/{document}/communications", listCommunicationsHandler(custSvc, logger))
		r.Post("/customers/{document}/communications", createCommunicationHandler(custSvc, logger))

		// =============================================
		// Weather impact
		// =============================================
		r.Get("/weather/impact", weatherImpactHandler(wxSvc, logger))

		// =============================================
		// Growth trends
		// =============================================
		r.Get("/growth/trends", growthTrendsHandler(growthSvc, logger))

		// =============================================
		// Ingest (CSV pipeline)
		// =============================================
		r.Post("/ingest/sales", ingestSalesHandler(ingestSvc, logger))
		r.Post("/ingest/customers", ingestCustomersHandler(ingestSvc, logger))
		r.Get("/ingest/history", uploadHistoryHandler(ingestSvc, logger))

		// =============================================
		// Pipeline metrics snapshot
		// =============================================
		r.Get("/metrics/pipeline", pipelineMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Probes
// ============================================================

func healthzHandler(dashSvc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "lavpop-bi-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if dashSvc != nil {
			start := time.Now()
			_, err := dashSvc.GetSummary(ctx, nil, nil)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func pipelineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetPipelineSnapshot())
	}
}
