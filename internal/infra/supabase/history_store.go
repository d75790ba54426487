package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/resilience"
)

// historyRow maps the upload_history table columns. Errors are stored as
// a text array capped at 10 entries to keep the audit rows bounded.
type historyRow struct {
	ID              string   `json:"id,omitempty"`
	FileType        string   `json:"file_type"`
	FileName        string   `json:"file_name"`
	RecordsTotal    int      `json:"records_total"`
	RecordsInserted int      `json:"records_inserted"`
	RecordsUpdated  int      `json:"records_updated"`
	RecordsSkipped  int      `json:"records_skipped"`
	Errors          []string `json:"errors,omitempty"`
	Source          string   `json:"source"`
	DurationMs      int64    `json:"duration_ms"`
	Status          string   `json:"status"`
	CreatedAt       string   `json:"created_at,omitempty"`
}

const maxStoredErrors = 10

// RecordUpload persists the audit record of one ingest run.
func (c *Client) RecordUpload(ctx context.Context, entry *domain.UploadHistoryEntry) error {
	ctx, span := tracer.Start(ctx, "Supabase.RecordUpload")
	defer span.End()

	errs := entry.Errors
	if len(errs) > maxStoredErrors {
		errs = errs[:maxStoredErrors]
	}

	row := historyRow{
		FileType:        entry.FileType,
		FileName:        entry.FileName,
		RecordsTotal:    entry.RecordsTotal,
		RecordsInserted: entry.RecordsInserted,
		RecordsUpdated:  entry.RecordsUpdated,
		RecordsSkipped:  entry.RecordsSkipped,
		Errors:          errs,
		Source:          entry.Source,
		DurationMs:      entry.DurationMs,
		Status:          entry.Status,
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			_, err := c.doPost(ctx, "upload_history", row)
			return err
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/upload_history", Err: err}
	}
	return nil
}

// ListUploads fetches a page of ingest audit records, newest first.
func (c *Client) ListUploads(ctx context.Context, page, pageSize int) ([]domain.UploadHistoryEntry, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListUploads")
	defer span.End()

	var entries []domain.UploadHistoryEntry

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			offset := (page - 1) * pageSize
			path := fmt.Sprintf("upload_history?order=created_at.desc&limit=%d&offset=%d", pageSize, offset)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				entries = []domain.UploadHistoryEntry{}
				return nil
			}

			var rows []historyRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode upload history: %w", err)
			}

			entries = make([]domain.UploadHistoryEntry, 0, len(rows))
			for _, r := range rows {
				createdAt, _ := time.Parse(time.RFC3339, r.CreatedAt)
				entries = append(entries, domain.UploadHistoryEntry{
					ID:              r.ID,
					FileType:        r.FileType,
					FileName:        r.FileName,
					RecordsTotal:    r.RecordsTotal,
					RecordsInserted: r.RecordsInserted,
					RecordsUpdated:  r.RecordsUpdated,
					RecordsSkipped:  r.RecordsSkipped,
					Errors:          r.Errors,
					Source:          r.Source,
					DurationMs:      r.DurationMs,
					Status:          r.Status,
					CreatedAt:       createdAt,
				})
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/upload_history", Err: err}
	}

	return entries, nil
}

// GetAppSettings fetches the dashboard settings row, falling back to the
// cashback defaults when the table is missing or empty.
func (c *Client) GetAppSettings(ctx context.Context) (*domain.AppSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAppSettings")
	defer span.End()

	settings := &domain.AppSettings{
		CashbackPercent:   7.5,
		CashbackStartDate: "2024-06-01",
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, "app_settings?id=eq.default&limit=1")
			if err != nil {
				return err
			}
			if body == nil || strings.TrimSpace(string(body)) == "[]" {
				return nil
			}

			var rows []domain.AppSettings
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode app settings: %w", err)
			}
			if len(rows) > 0 {
				settings = &rows[0]
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/app_settings", Err: err}
	}

	return settings, nil
}
