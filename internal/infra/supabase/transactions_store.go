package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/resilience"
)

// txRow maps the transactions table columns.
type txRow struct {
	ID              string  `json:"id,omitempty"`
	DataHora        string  `json:"data_hora"`
	ValorVenda      float64 `json:"valor_venda"`
	ValorPago       float64 `json:"valor_pago"`
	NetValue        float64 `json:"net_value"`
	CashbackAmount  float64 `json:"cashback_amount"`
	MeioDePagamento string  `json:"meio_de_pagamento,omitempty"`
	Loja            string  `json:"loja,omitempty"`
	DocCliente      string  `json:"doc_cliente"`
	Maquinas        string  `json:"maquinas,omitempty"`
	TransactionType string  `json:"transaction_type,omitempty"`
	WashCount       int     `json:"wash_count"`
	DryCount        int     `json:"dry_count"`
	RecargaCount    int     `json:"recarga_count"`
	ImportHash      string  `json:"import_hash"`
	SourceFile      string  `json:"source_file,omitempty"`
}

func (r txRow) toDomain() domain.Transaction {
	t, err := time.Parse(time.RFC3339, r.DataHora)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05", r.DataHora)
	}
	return domain.Transaction{
		ID:          r.ID,
		Document:    r.DocCliente,
		Date:        t,
		DateValid:   err == nil,
		GrossAmount: r.ValorVenda,
		PaidAmount:  r.ValorPago,
		NetAmount:   r.NetValue,
		Cashback:    r.CashbackAmount,
		Machines:    r.Maquinas,
		Usage: domain.MachineUsage{
			Wash:    r.WashCount,
			Dry:     r.DryCount,
			Recarga: r.RecargaCount,
		},
		Type:       r.TransactionType,
		Store:      r.Loja,
		Payment:    r.MeioDePagamento,
		ImportHash: r.ImportHash,
	}
}

func fromDomain(tx domain.Transaction, sourceFile string) txRow {
	return txRow{
		DataHora:        tx.Date.Format("2006-01-02T15:04:05"),
		ValorVenda:      tx.GrossAmount,
		ValorPago:       tx.PaidAmount,
		NetValue:        tx.NetAmount,
		CashbackAmount:  tx.Cashback,
		MeioDePagamento: tx.Payment,
		Loja:            tx.Store,
		DocCliente:      tx.Document,
		Maquinas:        tx.Machines,
		TransactionType: tx.Type,
		WashCount:       tx.Usage.Wash,
		DryCount:        tx.Usage.Dry,
		RecargaCount:    tx.Usage.Recarga,
		ImportHash:      tx.ImportHash,
		SourceFile:      sourceFile,
	}
}

// ListTransactions fetches transactions within the optional date range,
// ordered by data_hora ascending.
func (c *Client) ListTransactions(ctx context.Context, from, to *time.Time) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()

	path := "transactions?order=data_hora.asc"
	if from != nil {
		path += "&data_hora=gte." + url.QueryEscape(from.Format("2006-01-02T15:04:05"))
	}
	if to != nil {
		path += "&data_hora=lte." + url.QueryEscape(to.Format("2006-01-02T15:04:05"))
	}

	return c.fetchTransactions(ctx, path)
}

// ListTransactionsByDocument fetches all transactions for one customer.
func (c *Client) ListTransactionsByDocument(ctx context.Context, document string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactionsByDocument")
	defer span.End()
	span.SetAttributes(attribute.String("customer.document", document))

	path := fmt.Sprintf("transactions?doc_cliente=eq.%s&order=data_hora.asc", url.QueryEscape(document))
	return c.fetchTransactions(ctx, path)
}

func (c *Client) fetchTransactions(ctx context.Context, path string) ([]domain.Transaction, error) {
	var transactions []domain.Transaction

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				transactions = []domain.Transaction{}
				return nil
			}

			var rows []txRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode transactions: %w", err)
			}

			transactions = make([]domain.Transaction, 0, len(rows))
			for _, r := range rows {
				transactions = append(transactions, r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return transactions, nil
}

// UpsertTransactions inserts a batch of transactions, deduplicating on
// import_hash. Returns the number of rows sent.
func (c *Client) UpsertTransactions(ctx context.Context, txs []domain.Transaction) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertTransactions")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(txs)))

	if len(txs) == 0 {
		return 0, nil
	}

	rows := make([]txRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, fromDomain(tx, ""))
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			_, err := c.doUpsert(ctx, "transactions", "import_hash", rows)
			return err
		})
	})

	if err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return len(rows), nil
}
