package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/analytics"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

// CustomersResult reports the outcome of normalizing one customer export.
type CustomersResult struct {
	Customers []domain.Customer
	Total     int
	Skipped   int
	Errors    []string
}

// ParseCustomers normalizes a raw customer export. Rows without a usable
// document are skipped and later rows with the same document replace
// earlier ones, keeping the freshest profile per customer.
func ParseCustomers(text string) CustomersResult {
	var result CustomersResult

	rows, err := ParseRecords(text)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("parse csv: %v", err))
		return result
	}
	result.Total = len(rows)

	byDoc := make(map[string]domain.Customer, len(rows))
	order := make([]string, 0, len(rows))

	for _, row := range rows {
		doc := analytics.NormalizeDocument(row["Documento"])
		if doc == "" {
			result.Skipped++
			continue
		}

		c := domain.Customer{
			Document:      doc,
			Name:          row["Nome"],
			Phone:         row["Telefone"],
			Email:         row["Email"],
			WalletBalance: analytics.ParseBrazilianNumber(row["Saldo_Carteira"]),
			TotalSpent:    analytics.ParseBrazilianNumber(row["Total_Compras"]),
			VisitCount:    parseIntField(row["Quantidade_Compras"]),
		}
		if d, ok := analytics.ParseBrazilianDate(row["Data_Cadastro"]); ok {
			c.RegisteredAt = &d
			c.FirstVisit = d.Format("2006-01-02")
		}
		if d, ok := analytics.ParseBrazilianDate(row["Data_Ultima_Compra"]); ok {
			c.LastVisit = d.Format("2006-01-02")
		}

		if _, exists := byDoc[doc]; !exists {
			order = append(order, doc)
		}
		byDoc[doc] = c
	}

	result.Customers = make([]domain.Customer, 0, len(byDoc))
	for _, doc := range order {
		result.Customers = append(result.Customers, byDoc[doc])
	}
	return result
}

func parseIntField(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
