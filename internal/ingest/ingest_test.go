package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

// ============================================================
// CSV cleaning / sniffing
// ============================================================

func TestCleanCSVStripsBOMAndTerminalPrefix(t *testing.T) {
	raw := "\ufeffIMTString(1234): Data_Hora;Doc_Cliente\n01/03/2024 10:00:00;123"
	got := CleanCSV(raw)
	if !strings.HasPrefix(got, "Data_Hora") {
		t.Errorf("CleanCSV left prefix behind: %q", got)
	}
}

func TestDetectDelimiter(t *testing.T) {
	if d := DetectDelimiter("a;b;c\n1;2;3"); d != ';' {
		t.Errorf("expected semicolon, got %q", d)
	}
	if d := DetectDelimiter("a,b,c\n1,2,3"); d != ',' {
		t.Errorf("expected comma, got %q", d)
	}
}

func TestParseRecordsDropsShortRows(t *testing.T) {
	rows, err := ParseRecords("a;b;c\n1;2;3\nonly-one-field\n4;5;6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["a"] != "1" || rows[1]["c"] != "6" {
		t.Errorf("unexpected row content: %v", rows)
	}
}

func TestDetectFileType(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Data_Hora;Doc_Cliente;Valor_Venda;Maquinas", FileTypeSales},
		{"Documento;Nome;Saldo_Carteira", FileTypeCustomers},
		{"foo;bar;baz", FileTypeUnknown},
	}
	for _, tc := range cases {
		if got := DetectFileType(tc.header + "\n"); got != tc.want {
			t.Errorf("DetectFileType(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

// ============================================================
// Classification and hashing
// ============================================================

func TestClassifyTransaction(t *testing.T) {
	cases := []struct {
		name     string
		machines string
		payment  string
		gross    float64
		want     string
	}{
		{"recarga", "Recarga: 1", "Pix", 30.0, domain.TypeRecarga},
		{"recarga wins over wallet payment", "Recarga: 1", "Saldo da Carteira", 30.0, domain.TypeRecarga},
		{"wallet payment", "Lavadora: 1", "Saldo da Carteira", 15.0, domain.TypeWallet},
		{"zero gross with machines", "Secadora: 1", "Pix", 0, domain.TypeWallet},
		{"normal purchase", "Lavadora: 1, Secadora: 1", "Cartão", 35.80, domain.TypePurchase},
		{"no machines no recarga", "", "Pix", 10.0, domain.TypeUnknown},
		{"empty everything", "", "", 0, domain.TypeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyTransaction(tc.machines, tc.payment, tc.gross); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestImportHashStableAndDistinct(t *testing.T) {
	a := ImportHash("01/03/2024 10:00:00", "12345678901", "25,90", "Lavadora: 1")
	b := ImportHash("01/03/2024 10:00:00", "12345678901", "25,90", "Lavadora: 1")
	c := ImportHash("01/03/2024 10:00:00", "12345678901", "25,91", "Lavadora: 1")

	if a != b {
		t.Errorf("hash not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Error("distinct rows produced the same hash")
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}

// ============================================================
// Sales normalization
// ============================================================

const salesHeader = "Data_Hora;Doc_Cliente;Valor_Venda;Valor_Pago;Maquinas;Meio_de_Pagamento;Loja"

func TestParseSalesComputesDerivedFields(t *testing.T) {
	csv := salesHeader + "\n" +
		"15/03/2024 14:30:00;123.456.789-01;25,90;25,90;Lavadora: 1, Secadora: 1;Pix;Lavpop Centro\n"

	opts := SalesOptions{
		CashbackRate:  0.075,
		CashbackStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	result := ParseSales(csv, opts)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(result.Transactions))
	}

	tx := result.Transactions[0]
	if tx.Document != "12345678901" {
		t.Errorf("document = %q", tx.Document)
	}
	if tx.GrossAmount != 25.90 || tx.PaidAmount != 25.90 {
		t.Errorf("amounts = %v / %v", tx.GrossAmount, tx.PaidAmount)
	}
	if tx.Usage.Wash != 1 || tx.Usage.Dry != 1 {
		t.Errorf("usage = %+v", tx.Usage)
	}
	if tx.Type != domain.TypePurchase {
		t.Errorf("type = %q", tx.Type)
	}
	// Sale predates the cashback program.
	if tx.Cashback != 0 || tx.NetAmount != 25.90 {
		t.Errorf("cashback = %v, net = %v", tx.Cashback, tx.NetAmount)
	}
}

func TestParseSalesAppliesCashbackAfterStartDate(t *testing.T) {
	csv := salesHeader + "\n" +
		"15/07/2024 14:30:00;12345678901;20,00;20,00;Lavadora: 1;Pix;Centro\n"

	opts := SalesOptions{
		CashbackRate:  0.075,
		CashbackStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	result := ParseSales(csv, opts)
	if len(result.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(result.Transactions))
	}

	tx := result.Transactions[0]
	if tx.Cashback != 1.50 {
		t.Errorf("cashback = %v, want 1.50", tx.Cashback)
	}
	if tx.NetAmount != 18.50 {
		t.Errorf("net = %v, want 18.50", tx.NetAmount)
	}
}

func TestParseSalesSkipsAndDeduplicates(t *testing.T) {
	csv := salesHeader + "\n" +
		"15/03/2024 14:30:00;12345678901;25,90;25,90;Lavadora: 1;Pix;Centro\n" +
		"15/03/2024 14:30:00;12345678901;25,90;25,90;Lavadora: 1;Pix;Centro\n" + // exact duplicate
		"not-a-date;12345678901;10,00;10,00;Lavadora: 1;Pix;Centro\n" + // bad date
		"15/03/2024 15:00:00;;10,00;10,00;Lavadora: 1;Pix;Centro\n" // no document

	result := ParseSales(csv, SalesOptions{CashbackStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)})

	if result.Total != 4 {
		t.Errorf("total = %d, want 4", result.Total)
	}
	if len(result.Transactions) != 1 {
		t.Errorf("kept %d transactions, want 1", len(result.Transactions))
	}
	if result.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", result.Duplicates)
	}
	if result.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", result.Skipped)
	}
}

// ============================================================
// Customer normalization
// ============================================================

func TestParseCustomers(t *testing.T) {
	csv := "Documento;Nome;Telefone;Email;Saldo_Carteira;Data_Cadastro;Data_Ultima_Compra;Quantidade_Compras;Total_Compras\n" +
		"123.456.789-01;Maria Silva;11988887777;maria@example.com;12,50;10/01/2024 09:00:00;20/03/2024 18:00:00;8;215,40\n" +
		";Sem Documento;;;0,00;;;0;0,00\n"

	result := ParseCustomers(csv)
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if len(result.Customers) != 1 {
		t.Fatalf("expected 1 customer, got %d", len(result.Customers))
	}

	c := result.Customers[0]
	if c.Document != "12345678901" {
		t.Errorf("document = %q", c.Document)
	}
	if c.WalletBalance != 12.50 || c.TotalSpent != 215.40 || c.VisitCount != 8 {
		t.Errorf("parsed numbers wrong: %+v", c)
	}
	if c.FirstVisit != "2024-01-10" || c.LastVisit != "2024-03-20" {
		t.Errorf("visit dates = %q / %q", c.FirstVisit, c.LastVisit)
	}
}

func TestParseCustomersLastRowWinsPerDocument(t *testing.T) {
	csv := "Documento;Nome;Saldo_Carteira\n" +
		"12345678901;Old Name;5,00\n" +
		"12345678901;New Name;7,00\n"

	result := ParseCustomers(csv)
	if len(result.Customers) != 1 {
		t.Fatalf("expected 1 customer, got %d", len(result.Customers))
	}
	if result.Customers[0].Name != "New Name" || result.Customers[0].WalletBalance != 7.00 {
		t.Errorf("expected later row to win: %+v", result.Customers[0])
	}
}
