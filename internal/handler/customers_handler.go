package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/service"
)

// ============================================================
// Customer metrics & churn risk
// ============================================================

func customerMetricsHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{document}/metrics")
		defer span.End()

		document := chi.URLParam(r, "document")
		metrics, err := svc.GetCustomerMetrics(ctx, document)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, metrics)
	}
}

// ============================================================
// Communication log
// ============================================================

func listCommunicationsHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{document}/communications")
		defer span.End()

		document := chi.URLParam(r, "document")
		page, pageSize := parsePagination(r)

		logs, err := svc.ListCommunications(ctx, document, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"communications": logs})
	}
}

type createCommunicationRequest struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
	SentBy  string `json:"sent_by"`
}

func createCommunicationHandler(svc *service.CustomerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/customers/{document}/communications")
		defer span.End()

		var req createCommunicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		log := &domain.CommunicationLog{
			Document: chi.URLParam(r, "document"),
			Channel:  req.Channel,
			Message:  req.Message,
			SentBy:   req.SentBy,
		}

		created, err := svc.RecordCommunication(ctx, log)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}
