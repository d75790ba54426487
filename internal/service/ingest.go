package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/observability"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/ingest"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/port"
)

var ingestTracer = otel.Tracer("service/ingest")

const settingsCacheKey = "app_settings"

// IngestService runs the CSV pipeline: normalize, deduplicate, batch
// upsert and record the audit trail.
type IngestService struct {
	txStore         port.TransactionStore
	custStore       port.CustomerStore
	historyStore    port.UploadHistoryStore
	settingsStore   port.SettingsStore
	cache           port.Cache[any]
	batchSize       int
	defaultSettings domain.AppSettings
	metrics         *observability.Metrics
	logger          *zap.Logger
}

// NewIngestService creates a new ingest service. batchSize bounds the
// rows per upsert call and defaultSettings is the cashback policy used
// when the settings store is unavailable.
func NewIngestService(
	txStore port.TransactionStore,
	custStore port.CustomerStore,
	historyStore port.UploadHistoryStore,
	settingsStore port.SettingsStore,
	cache port.Cache[any],
	batchSize int,
	defaultSettings domain.AppSettings,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *IngestService {
	if batchSize <= 0 {
		batchSize = 100
	}
	if defaultSettings.CashbackPercent <= 0 {
		defaultSettings.CashbackPercent = 7.5
	}
	if defaultSettings.CashbackStartDate == "" {
		defaultSettings.CashbackStartDate = "2024-06-01"
	}
	return &IngestService{
		txStore:         txStore,
		custStore:       custStore,
		historyStore:    historyStore,
		settingsStore:   settingsStore,
		cache:           cache,
		batchSize:       batchSize,
		defaultSettings: defaultSettings,
		metrics:         metrics,
		logger:          logger,
	}
}

// loadSettings fetches the cashback policy through the cache, falling
// back to defaults when the settings store is unavailable.
func (s *IngestService) loadSettings(ctx context.Context) *domain.AppSettings {
	if cached, ok := s.cache.Get(settingsCacheKey); ok {
		if settings, ok := cached.(*domain.AppSettings); ok {
			s.metrics.IncrCacheHit("settings")
			return settings
		}
	}
	s.metrics.IncrCacheMiss("settings")

	settings, err := s.settingsStore.GetAppSettings(ctx)
	if err != nil {
		s.logger.Warn("failed to load app settings, using defaults", zap.Error(err))
		fallback := s.defaultSettings
		return &fallback
	}
	s.cache.Set(settingsCacheKey, settings)
	return settings
}

// IngestSales runs one sales CSV through the pipeline and returns the
// upload summary. The audit record is written even on partial failure.
func (s *IngestService) IngestSales(ctx context.Context, fileName, source string, data []byte) (*domain.UploadResult, error) {
	ctx, span := ingestTracer.Start(ctx, "IngestService.IngestSales")
	defer span.End()
	span.SetAttributes(attribute.String("file.name", fileName))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("ingest_sales", time.Since(start)) }()

	settings := s.loadSettings(ctx)
	cashbackStart, err := time.Parse("2006-01-02", settings.CashbackStartDate)
	if err != nil {
		s.logger.Warn("invalid cashback start date, using default",
			zap.String("value", settings.CashbackStartDate))
		cashbackStart = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}

	parsed := ingest.ParseSales(string(data), ingest.SalesOptions{
		CashbackRate:  settings.CashbackPercent / 100,
		CashbackStart: cashbackStart,
		SourceFile:    fileName,
	})

	result := &domain.UploadResult{
		FileType: ingest.FileTypeSales,
		Total:    parsed.Total,
		Skipped:  parsed.Skipped + parsed.Duplicates,
		Errors:   parsed.Errors,
	}

	for i := 0; i < len(parsed.Transactions); i += s.batchSize {
		end := i + s.batchSize
		if end > len(parsed.Transactions) {
			end = len(parsed.Transactions)
		}
		n, err := s.txStore.UpsertTransactions(ctx, parsed.Transactions[i:end])
		if err != nil {
			s.metrics.IncrExternalError("supabase")
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %v", i/s.batchSize, err))
			continue
		}
		result.Inserted += n
	}

	s.metrics.RecordIngest(result.Inserted, parsed.Skipped, parsed.Duplicates)
	s.recordHistory(ctx, fileName, source, result, time.Since(start))

	return result, nil
}

// IngestCustomers runs one customer CSV through the pipeline.
func (s *IngestService) IngestCustomers(ctx context.Context, fileName, source string, data []byte) (*domain.UploadResult, error) {
	ctx, span := ingestTracer.Start(ctx, "IngestService.IngestCustomers")
	defer span.End()
	span.SetAttributes(attribute.String("file.name", fileName))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("ingest_customers", time.Since(start)) }()

	parsed := ingest.ParseCustomers(string(data))

	result := &domain.UploadResult{
		FileType: ingest.FileTypeCustomers,
		Total:    parsed.Total,
		Skipped:  parsed.Skipped,
		Errors:   parsed.Errors,
	}

	for i := 0; i < len(parsed.Customers); i += s.batchSize {
		end := i + s.batchSize
		if end > len(parsed.Customers) {
			end = len(parsed.Customers)
		}
		n, err := s.custStore.UpsertCustomers(ctx, parsed.Customers[i:end])
		if err != nil {
			s.metrics.IncrExternalError("supabase")
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %v", i/s.batchSize, err))
			continue
		}
		result.Updated += n
	}

	s.metrics.RecordIngest(result.Updated, parsed.Skipped, 0)
	s.recordHistory(ctx, fileName, source, result, time.Since(start))

	return result, nil
}

// ListUploadHistory returns a page of ingest audit records.
func (s *IngestService) ListUploadHistory(ctx context.Context, page, pageSize int) ([]domain.UploadHistoryEntry, error) {
	ctx, span := ingestTracer.Start(ctx, "IngestService.ListUploadHistory")
	defer span.End()

	return s.historyStore.ListUploads(ctx, page, pageSize)
}

// recordHistory persists the audit record. Failures are logged, never
// surfaced; the ingest result stands on its own.
func (s *IngestService) recordHistory(ctx context.Context, fileName, source string, result *domain.UploadResult, elapsed time.Duration) {
	status := "success"
	if !result.Success() {
		status = "partial"
	}

	entry := &domain.UploadHistoryEntry{
		FileType:        result.FileType,
		FileName:        fileName,
		RecordsTotal:    result.Total,
		RecordsInserted: result.Inserted,
		RecordsUpdated:  result.Updated,
		RecordsSkipped:  result.Skipped,
		Errors:          result.Errors,
		Source:          source,
		DurationMs:      elapsed.Milliseconds(),
		Status:          status,
	}

	if err := s.historyStore.RecordUpload(ctx, entry); err != nil {
		s.logger.Warn("failed to record upload history",
			zap.String("file", fileName),
			zap.Error(err),
		)
	}
}
