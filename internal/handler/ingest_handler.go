package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/service"
)

// maxUploadBytes bounds CSV upload bodies (10 MiB).
const maxUploadBytes = 10 << 20

// ============================================================
// CSV ingest
// ============================================================

func ingestSalesHandler(svc *service.IngestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ingest/sales")
		defer span.End()

		data, fileName, source, ok := readUpload(w, r, logger)
		if !ok {
			return
		}

		result, err := svc.IngestSales(ctx, fileName, source, data)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func ingestCustomersHandler(svc *service.IngestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ingest/customers")
		defer span.End()

		data, fileName, source, ok := readUpload(w, r, logger)
		if !ok {
			return
		}

		result, err := svc.IngestCustomers(ctx, fileName, source, data)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func uploadHistoryHandler(svc *service.IngestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ingest/history")
		defer span.End()

		page, pageSize := parsePagination(r)
		history, err := svc.ListUploadHistory(ctx, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"uploads": history})
	}
}

// readUpload reads the raw CSV body plus the filename/source query
// params. On failure it writes the error response and returns ok=false.
func readUpload(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (data []byte, fileName, source string, ok bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		logger.Warn("failed to read upload body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, "", "", false
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty request body")
		return nil, "", "", false
	}

	fileName = r.URL.Query().Get("filename")
	if fileName == "" {
		fileName = "upload.csv"
	}
	source = r.URL.Query().Get("source")
	if source == "" {
		source = "api_upload"
	}
	return data, fileName, source, true
}
