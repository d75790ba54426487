package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/resilience"
)

// customerRow maps the customers table columns.
type customerRow struct {
	Doc              string  `json:"doc"`
	Nome             string  `json:"nome,omitempty"`
	Telefone         string  `json:"telefone,omitempty"`
	Email            string  `json:"email,omitempty"`
	SaldoCarteira    float64 `json:"saldo_carteira"`
	RFMSegment       string  `json:"rfm_segment,omitempty"`
	DataCadastro     string  `json:"data_cadastro,omitempty"`
	FirstVisit       string  `json:"first_visit,omitempty"`
	LastVisit        string  `json:"last_visit,omitempty"`
	TotalSpent       float64 `json:"total_spent"`
	TransactionCount int     `json:"transaction_count"`
}

func (r customerRow) toDomain() domain.Customer {
	c := domain.Customer{
		Document:      r.Doc,
		Name:          r.Nome,
		Phone:         r.Telefone,
		Email:         r.Email,
		WalletBalance: r.SaldoCarteira,
		Segment:       r.RFMSegment,
		FirstVisit:    r.FirstVisit,
		LastVisit:     r.LastVisit,
		TotalSpent:    r.TotalSpent,
		VisitCount:    r.TransactionCount,
	}
	if r.DataCadastro != "" {
		if t, err := time.Parse(time.RFC3339, r.DataCadastro); err == nil {
			c.RegisteredAt = &t
		}
	}
	return c
}

func customerRowFromDomain(c domain.Customer) customerRow {
	r := customerRow{
		Doc:              c.Document,
		Nome:             c.Name,
		Telefone:         c.Phone,
		Email:            c.Email,
		SaldoCarteira:    c.WalletBalance,
		RFMSegment:       c.Segment,
		FirstVisit:       c.FirstVisit,
		LastVisit:        c.LastVisit,
		TotalSpent:       c.TotalSpent,
		TransactionCount: c.VisitCount,
	}
	if c.RegisteredAt != nil {
		r.DataCadastro = c.RegisteredAt.Format(time.RFC3339)
	}
	return r
}

// GetCustomer fetches one customer by normalized document.
func (c *Client) GetCustomer(ctx context.Context, document string) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("customer.document", document))

	var customer *domain.Customer

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("customers?doc=eq.%s&limit=1", url.QueryEscape(document))
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "customer", ID: document}
			}

			var rows []customerRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode customer: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "customer", ID: document}
			}

			cust := rows[0].toDomain()
			customer = &cust
			return nil
		})
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/customers", Err: err}
	}

	return customer, nil
}

// ListCustomers fetches a page of customers ordered by document.
func (c *Client) ListCustomers(ctx context.Context, page, pageSize int) ([]domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCustomers")
	defer span.End()

	var customers []domain.Customer

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			offset := (page - 1) * pageSize
			path := fmt.Sprintf("customers?order=doc.asc&limit=%d&offset=%d", pageSize, offset)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				customers = []domain.Customer{}
				return nil
			}

			var rows []customerRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode customers: %w", err)
			}

			customers = make([]domain.Customer, 0, len(rows))
			for _, r := range rows {
				customers = append(customers, r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/customers", Err: err}
	}

	return customers, nil
}

// UpsertCustomers inserts or updates a batch of customers keyed on doc.
func (c *Client) UpsertCustomers(ctx context.Context, customers []domain.Customer) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertCustomers")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(customers)))

	if len(customers) == 0 {
		return 0, nil
	}

	rows := make([]customerRow, 0, len(customers))
	for _, cust := range customers {
		rows = append(rows, customerRowFromDomain(cust))
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			_, err := c.doUpsert(ctx, "customers", "doc", rows)
			return err
		})
	})

	if err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase/customers", Err: err}
	}

	return len(rows), nil
}
