package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/resilience"
)

// commRow maps the communication_log table columns.
type commRow struct {
	ID         string `json:"id,omitempty"`
	DocCliente string `json:"doc_cliente"`
	Channel    string `json:"channel"`
	Message    string `json:"message"`
	SentAt     string `json:"sent_at"`
	SentBy     string `json:"sent_by,omitempty"`
}

func (r commRow) toDomain() domain.CommunicationLog {
	sentAt, _ := time.Parse(time.RFC3339, r.SentAt)
	return domain.CommunicationLog{
		ID:       r.ID,
		Document: r.DocCliente,
		Channel:  r.Channel,
		Message:  r.Message,
		SentAt:   sentAt,
		SentBy:   r.SentBy,
	}
}

// ListCommunications fetches a page of outreach records for one customer,
// newest first.
func (c *Client) ListCommunications(ctx context.Context, document string, page, pageSize int) ([]domain.CommunicationLog, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCommunications")
	defer span.End()
	span.SetAttributes(attribute.String("customer.document", document))

	var logs []domain.CommunicationLog

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			offset := (page - 1) * pageSize
			path := fmt.Sprintf("communication_log?doc_cliente=eq.%s&order=sent_at.desc&limit=%d&offset=%d",
				url.QueryEscape(document), pageSize, offset)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				logs = []domain.CommunicationLog{}
				return nil
			}

			var rows []commRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode communications: %w", err)
			}

			logs = make([]domain.CommunicationLog, 0, len(rows))
			for _, r := range rows {
				logs = append(logs, r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/communications", Err: err}
	}

	return logs, nil
}

// CreateCommunication records one outreach event and returns the stored row.
func (c *Client) CreateCommunication(ctx context.Context, log *domain.CommunicationLog) (*domain.CommunicationLog, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCommunication")
	defer span.End()
	span.SetAttributes(attribute.String("customer.document", log.Document))

	row := commRow{
		ID:         uuid.NewString(),
		DocCliente: log.Document,
		Channel:    log.Channel,
		Message:    log.Message,
		SentAt:     log.SentAt.Format(time.RFC3339),
		SentBy:     log.SentBy,
	}

	var created *domain.CommunicationLog

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doPost(ctx, "communication_log", row)
			if err != nil {
				return err
			}

			var rows []commRow
			if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
				// Insert succeeded; fall back to what we sent.
				out := row.toDomain()
				created = &out
				return nil
			}

			out := rows[0].toDomain()
			created = &out
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/communications", Err: err}
	}

	return created, nil
}
