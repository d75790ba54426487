// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// TransactionStore retrieves sales transactions and accepts ingested ones.
// Implemented by the Supabase adapter (or any other persistence layer).
type TransactionStore interface {
	// ListTransactions returns transactions within [from, to]. Nil bounds
	// mean unbounded on that side.
	ListTransactions(ctx context.Context, from, to *time.Time) ([]domain.Transaction, error)
	ListTransactionsByDocument(ctx context.Context, document string) ([]domain.Transaction, error)

	// UpsertTransactions inserts a batch, deduplicating on import_hash.
	UpsertTransactions(ctx context.Context, txs []domain.Transaction) (int, error)
}

// CustomerStore retrieves customer master records with their RFM segments.
type CustomerStore interface {
	GetCustomer(ctx context.Context, document string) (*domain.Customer, error)
	ListCustomers(ctx context.Context, page, pageSize int) ([]domain.Customer, error)
	UpsertCustomers(ctx context.Context, customers []domain.Customer) (int, error)
}

// WeatherStore retrieves daily weather observations for the store region.
type WeatherStore interface {
	ListDailyWeather(ctx context.Context, from, to *time.Time) ([]domain.DailyWeather, error)
}

// CommunicationLogStore records and lists customer outreach.
type CommunicationLogStore interface {
	ListCommunications(ctx context.Context, document string, page, pageSize int) ([]domain.CommunicationLog, error)
	CreateCommunication(ctx context.Context, log *domain.CommunicationLog) (*domain.CommunicationLog, error)
}

// UploadHistoryStore persists the audit trail of CSV ingest runs.
type UploadHistoryStore interface {
	RecordUpload(ctx context.Context, entry *domain.UploadHistoryEntry) error
	ListUploads(ctx context.Context, page, pageSize int) ([]domain.UploadHistoryEntry, error)
}

// SettingsStore retrieves dashboard-wide tunables (cashback policy).
type SettingsStore interface {
	GetAppSettings(ctx context.Context) (*domain.AppSettings, error)
}
