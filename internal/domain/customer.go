package domain

import "time"

// ============================================================
// Customer / Segmentation
// ============================================================

// Customer is the customer master record kept in Supabase. Segment is the
// RFM label assigned by the upstream segmentation job; this service
// consumes it but never computes it.
type Customer struct {
	Document      string     `json:"doc"` // normalized CPF, 11 digits
	Name          string     `json:"nome,omitempty"`
	Phone         string     `json:"telefone,omitempty"`
	Email         string     `json:"email,omitempty"`
	WalletBalance float64    `json:"saldo_carteira"`
	Segment       string     `json:"rfm_segment,omitempty"`
	RegisteredAt  *time.Time `json:"data_cadastro,omitempty"`
	FirstVisit    string     `json:"first_visit,omitempty"` // YYYY-MM-DD
	LastVisit     string     `json:"last_visit,omitempty"`
	TotalSpent    float64    `json:"total_spent"`
	VisitCount    int        `json:"transaction_count"`
}

// ============================================================
// Communication log
// ============================================================

// CommunicationLog is one outreach record (WhatsApp, SMS, call) tied to a
// customer document. Stored via the CommunicationLogStore port.
type CommunicationLog struct {
	ID       string    `json:"id"`
	Document string    `json:"doc_cliente"`
	Channel  string    `json:"channel"` // whatsapp, sms, phone, email
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
	SentBy   string    `json:"sent_by,omitempty"`
}

// ============================================================
// Ingest / upload history
// ============================================================

// UploadResult summarizes one CSV ingest run.
type UploadResult struct {
	FileType string   `json:"file_type"` // sales, customers
	Total    int      `json:"total"`
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Success reports whether the run finished without row errors.
func (r *UploadResult) Success() bool { return len(r.Errors) == 0 }

// UploadHistoryEntry is the persisted audit record of an ingest run.
type UploadHistoryEntry struct {
	ID              string    `json:"id,omitempty"`
	FileType        string    `json:"file_type"`
	FileName        string    `json:"file_name"`
	RecordsTotal    int       `json:"records_total"`
	RecordsInserted int       `json:"records_inserted"`
	RecordsUpdated  int       `json:"records_updated"`
	RecordsSkipped  int       `json:"records_skipped"`
	Errors          []string  `json:"errors,omitempty"`
	Source          string    `json:"source"`
	DurationMs      int64     `json:"duration_ms"`
	Status          string    `json:"status"` // success, partial
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// PipelineMetrics is a point-in-time snapshot of ingest and serving
// counters, exposed on the pipeline metrics endpoint for the ops panel.
type PipelineMetrics struct {
	RowsIngested   int64   `json:"rows_ingested"`
	RowsSkipped    int64   `json:"rows_skipped"`
	RowsDuplicate  int64   `json:"rows_duplicate"`
	TotalRequests  int64   `json:"total_requests"`
	ErrorRate      float64 `json:"error_rate"`
	CacheHitRate   float64 `json:"cache_hit_rate"`
	ExternalErrors int64   `json:"external_errors"`
	Period         string  `json:"period"`
}

// AppSettings holds dashboard-wide tunables kept in Supabase.
type AppSettings struct {
	CashbackPercent   float64 `json:"cashback_percent"`    // 7.5 means 7.5%
	CashbackStartDate string  `json:"cashback_start_date"` // YYYY-MM-DD
}

// ============================================================
// Health
// ============================================================

// ServiceHealth reports the status of one dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"` // healthy, degraded, unhealthy
	LatencyMs   int64  `json:"latency_ms"`
	LastChecked string `json:"last_checked"`
}

// HealthStatus is the aggregate health response.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}
