package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/analytics"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

// SalesOptions carries the cashback policy applied while normalizing
// sales rows. Rates are fractions (0.075 for 7.5%).
type SalesOptions struct {
	CashbackRate  float64
	CashbackStart time.Time
	SourceFile    string
}

// SalesResult reports the outcome of normalizing one sales export.
type SalesResult struct {
	Transactions []domain.Transaction
	Total        int
	Skipped      int
	Duplicates   int
	Errors       []string
}

// ImportHash derives the deduplication key for a sales row from its raw
// field values. Two rows with the same timestamp, document, gross value
// and machine string are the same sale re-exported.
func ImportHash(dataHora, docCliente, valorVenda, maquinas string) string {
	content := dataHora + "|" + docCliente + "|" + valorVenda + "|" + maquinas
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:32]
}

// ClassifyTransaction buckets a sales row by what it represents:
// TYPE_3 is a wallet recharge, TYPE_2 a purchase paid from the wallet
// (or any zero-gross purchase with machines), TYPE_1 a normal paid
// purchase, and UNKNOWN anything that fits none of those.
func ClassifyTransaction(machines, payment string, gross float64) string {
	machines = strings.ToLower(machines)
	payment = strings.ToLower(payment)

	if strings.Contains(machines, "recarga") {
		return domain.TypeRecarga
	}
	if strings.Contains(payment, "saldo da carteira") {
		return domain.TypeWallet
	}
	if gross == 0 && machines != "" {
		return domain.TypeWallet
	}
	if machines != "" && gross > 0 {
		return domain.TypePurchase
	}
	return domain.TypeUnknown
}

// ParseSales normalizes a raw sales export into domain transactions.
// Rows with unparseable dates or empty documents are skipped, duplicate
// rows (by ImportHash) are dropped, and per-row failures are collected
// without aborting the file.
func ParseSales(text string, opts SalesOptions) SalesResult {
	var result SalesResult

	rows, err := ParseRecords(text)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("parse csv: %v", err))
		return result
	}
	result.Total = len(rows)

	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		date, ok := analytics.ParseBrazilianDate(row["Data_Hora"])
		if !ok {
			result.Skipped++
			continue
		}
		doc := analytics.NormalizeDocument(row["Doc_Cliente"])
		if doc == "" {
			result.Skipped++
			continue
		}

		hash := ImportHash(row["Data_Hora"], row["Doc_Cliente"], row["Valor_Venda"], row["Maquinas"])
		if _, dup := seen[hash]; dup {
			result.Duplicates++
			continue
		}
		seen[hash] = struct{}{}

		gross := analytics.ParseBrazilianNumber(row["Valor_Venda"])
		paid := analytics.ParseBrazilianNumber(row["Valor_Pago"])
		machines := row["Maquinas"]

		cashback := 0.0
		net := paid
		if !date.Before(opts.CashbackStart) && gross > 0 {
			cashback = round2(gross * opts.CashbackRate)
			net = round2(paid - cashback)
		}

		tx := domain.Transaction{
			Document:    doc,
			Date:        date,
			DateValid:   true,
			GrossAmount: gross,
			PaidAmount:  paid,
			NetAmount:   net,
			Cashback:    cashback,
			Machines:    machines,
			Usage:       analytics.CountMachineUsage(machines),
			Type:        ClassifyTransaction(machines, row["Meio_de_Pagamento"], gross),
			Store:       row["Loja"],
			Payment:     row["Meio_de_Pagamento"],
			ImportHash:  hash,
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
