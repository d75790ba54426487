package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/analytics"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/cache"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/observability"
)

// ============================================================
// Mocks
// ============================================================

type mockTxStore struct {
	txs       []domain.Transaction
	listCalls int
	upserted  []domain.Transaction
	err       error
}

func (m *mockTxStore) ListTransactions(_ context.Context, from, to *time.Time) ([]domain.Transaction, error) {
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	return analytics.FilterByDateRange(m.txs, from, to), nil
}

func (m *mockTxStore) ListTransactionsByDocument(_ context.Context, document string) ([]domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Transaction
	for _, tx := range m.txs {
		if tx.Document == document {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *mockTxStore) UpsertTransactions(_ context.Context, txs []domain.Transaction) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.upserted = append(m.upserted, txs...)
	return len(txs), nil
}

type mockCustomerStore struct {
	customers map[string]*domain.Customer
	upserted  []domain.Customer
}

func (m *mockCustomerStore) GetCustomer(_ context.Context, document string) (*domain.Customer, error) {
	if c, ok := m.customers[document]; ok {
		return c, nil
	}
	return nil, &domain.ErrNotFound{Resource: "customer", ID: document}
}

func (m *mockCustomerStore) ListCustomers(_ context.Context, page, pageSize int) ([]domain.Customer, error) {
	out := make([]domain.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCustomerStore) UpsertCustomers(_ context.Context, customers []domain.Customer) (int, error) {
	m.upserted = append(m.upserted, customers...)
	return len(customers), nil
}

type mockCommStore struct {
	logs []domain.CommunicationLog
}

func (m *mockCommStore) ListCommunications(_ context.Context, document string, page, pageSize int) ([]domain.CommunicationLog, error) {
	var out []domain.CommunicationLog
	for _, l := range m.logs {
		if l.Document == document {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockCommStore) CreateCommunication(_ context.Context, log *domain.CommunicationLog) (*domain.CommunicationLog, error) {
	log.ID = "comm-1"
	m.logs = append(m.logs, *log)
	return log, nil
}

type mockWeatherStore struct {
	days []domain.DailyWeather
}

func (m *mockWeatherStore) ListDailyWeather(_ context.Context, from, to *time.Time) ([]domain.DailyWeather, error) {
	return m.days, nil
}

type mockHistoryStore struct {
	entries []domain.UploadHistoryEntry
}

func (m *mockHistoryStore) RecordUpload(_ context.Context, entry *domain.UploadHistoryEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHistoryStore) ListUploads(_ context.Context, page, pageSize int) ([]domain.UploadHistoryEntry, error) {
	return m.entries, nil
}

type mockSettingsStore struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsStore) GetAppSettings(_ context.Context) (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.settings, nil
}

// ============================================================
// Helpers
// ============================================================

func testTx(doc, dateStr string, paid float64, machines string) domain.Transaction {
	date, ok := analytics.ParseBrazilianDate(dateStr)
	return domain.Transaction{
		Document:   doc,
		Date:       date,
		DateValid:  ok,
		PaidAmount: paid,
		Machines:   machines,
		Usage:      analytics.CountMachineUsage(machines),
	}
}

func newTestCache() *cache.InMemory[any] {
	return cache.New[any](time.Minute)
}

// ============================================================
// DashboardService
// ============================================================

func TestDashboardSummaryUsesCache(t *testing.T) {
	store := &mockTxStore{txs: []domain.Transaction{
		testTx("11111111111", "01/03/2024 10:00:00", 25.90, "Lavadora: 1"),
		testTx("22222222222", "02/03/2024 14:00:00", 42.10, "Secadora: 1"),
	}}
	svc := NewDashboardService(store, newTestCache(), observability.NewMetrics(), zap.NewNop())

	sum1, err := svc.GetSummary(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum1.Totals.Revenue != 68.0 {
		t.Errorf("revenue = %v, want 68.0", sum1.Totals.Revenue)
	}
	if sum1.Totals.Transactions != 2 {
		t.Errorf("transactions = %d, want 2", sum1.Totals.Transactions)
	}

	// Second call hits the cache, not the store.
	if _, err := svc.GetSummary(context.Background(), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.listCalls != 1 {
		t.Errorf("store called %d times, want 1", store.listCalls)
	}
}

func TestDashboardHourlyAlwaysHas24Buckets(t *testing.T) {
	store := &mockTxStore{}
	svc := NewDashboardService(store, newTestCache(), observability.NewMetrics(), zap.NewNop())

	hourly, err := svc.GetHourlyRevenue(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hourly) != 24 {
		t.Fatalf("expected 24 buckets, got %d", len(hourly))
	}
	for _, h := range hourly {
		if h.Revenue != 0 || h.Transactions != 0 {
			t.Errorf("hour %d not zeroed: %+v", h.Hour, h)
		}
	}
}

// ============================================================
// CustomerService
// ============================================================

func newCustomerService(tx *mockTxStore, cust *mockCustomerStore, comm *mockCommStore) *CustomerService {
	return NewCustomerService(tx, cust, comm, analytics.NewRiskScorer(nil), observability.NewMetrics(), zap.NewNop())
}

func TestGetCustomerMetricsAttachesSegmentAndRisk(t *testing.T) {
	doc := "12345678901"
	tx := &mockTxStore{txs: []domain.Transaction{
		testTx(doc, "01/02/2024 10:00:00", 25.90, "Lavadora: 1"),
		testTx(doc, "15/02/2024 10:00:00", 35.80, "Lavadora: 1, Secadora: 1"),
	}}
	cust := &mockCustomerStore{customers: map[string]*domain.Customer{
		doc: {Document: doc, Segment: "At Risk"},
	}}
	svc := newCustomerService(tx, cust, &mockCommStore{})

	metrics, err := svc.GetCustomerMetrics(context.Background(), "123.456.789-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.TotalVisits != 2 {
		t.Errorf("visits = %d, want 2", metrics.TotalVisits)
	}
	if metrics.Segment != "At Risk" {
		t.Errorf("segment = %q, want At Risk", metrics.Segment)
	}
	if metrics.RiskScore <= 0 || metrics.RiskScore > 100 {
		t.Errorf("risk score out of range: %d", metrics.RiskScore)
	}
	if metrics.RiskLevel == nil {
		t.Fatal("risk level missing")
	}
}

func TestGetCustomerMetricsUnknownCustomer(t *testing.T) {
	svc := newCustomerService(&mockTxStore{}, &mockCustomerStore{}, &mockCommStore{})

	_, err := svc.GetCustomerMetrics(context.Background(), "99999999999")
	if err == nil {
		t.Fatal("expected not found error")
	}
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound, got %T", err)
	}
}

func TestGetCustomerMetricsMissingMasterRecordStillWorks(t *testing.T) {
	doc := "12345678901"
	tx := &mockTxStore{txs: []domain.Transaction{
		testTx(doc, "01/02/2024 10:00:00", 25.90, "Lavadora: 1"),
	}}
	svc := newCustomerService(tx, &mockCustomerStore{}, &mockCommStore{})

	metrics, err := svc.GetCustomerMetrics(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.Segment != "" {
		t.Errorf("segment = %q, want empty", metrics.Segment)
	}
	if metrics.TotalVisits != 1 {
		t.Errorf("visits = %d, want 1", metrics.TotalVisits)
	}
}

func TestRecordCommunicationValidates(t *testing.T) {
	svc := newCustomerService(&mockTxStore{}, &mockCustomerStore{}, &mockCommStore{})

	_, err := svc.RecordCommunication(context.Background(), &domain.CommunicationLog{
		Document: "12345678901",
		Channel:  "",
		Message:  "oi",
	})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Errorf("expected validation error, got %v", err)
	}

	created, err := svc.RecordCommunication(context.Background(), &domain.CommunicationLog{
		Document: "123.456.789-01",
		Channel:  "whatsapp",
		Message:  "volte sempre",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Document != "12345678901" {
		t.Errorf("document not normalized: %q", created.Document)
	}
	if created.SentAt.IsZero() {
		t.Error("sent_at not defaulted")
	}
}

// ============================================================
// WeatherService
// ============================================================

func TestGetWeatherImpactJoinsRevenue(t *testing.T) {
	tx := &mockTxStore{txs: []domain.Transaction{
		testTx("11111111111", "01/03/2024 10:00:00", 100, "Lavadora: 1"),
		testTx("22222222222", "02/03/2024 10:00:00", 150, "Secadora: 1"),
	}}
	wx := &mockWeatherStore{days: []domain.DailyWeather{
		{Date: "2024-03-01", TempC: 18, HumidityPct: 50},
		{Date: "2024-03-02", TempC: 18, HumidityPct: 50, PrecipitationMM: 10},
		{Date: "2024-03-03", TempC: 18, HumidityPct: 50}, // no sales that day
	}}
	svc := NewWeatherService(tx, wx, 1, observability.NewMetrics(), zap.NewNop())

	impact, err := svc.GetWeatherImpact(context.Background(), nil, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var mild, rainy *domain.ComfortCategory
	for i := range impact.Categories {
		switch impact.Categories[i].Name {
		case analytics.ComfortAmeno:
			mild = &impact.Categories[i]
		case analytics.ComfortChuvoso:
			rainy = &impact.Categories[i]
		}
	}
	if mild == nil || rainy == nil {
		t.Fatalf("missing categories: %+v", impact.Categories)
	}
	// Two mild days (100 + 0) against one rainy day (150).
	if mild.Days != 2 || mild.RevenuePerDay != 50 {
		t.Errorf("mild = %+v", mild)
	}
	if rainy.Days != 1 || rainy.RevenuePerDay != 150 {
		t.Errorf("rainy = %+v", rainy)
	}
}

// ============================================================
// GrowthService
// ============================================================

func TestGetGrowthTrends(t *testing.T) {
	tx := &mockTxStore{txs: []domain.Transaction{
		testTx("11111111111", "10/01/2024 10:00:00", 100, "Lavadora: 1"),
		testTx("22222222222", "10/02/2024 10:00:00", 150, "Lavadora: 1"),
	}}
	svc := NewGrowthService(tx, 3, 2.0, observability.NewMetrics(), zap.NewNop())

	trend, err := svc.GetGrowthTrends(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trend.Series) != 2 {
		t.Fatalf("expected 2 months, got %d", len(trend.Series))
	}
	if trend.BestMonth != "2024-02" {
		t.Errorf("best month = %q, want 2024-02", trend.BestMonth)
	}
}

// ============================================================
// IngestService
// ============================================================

func newIngestService(tx *mockTxStore, cust *mockCustomerStore, hist *mockHistoryStore, settings *mockSettingsStore) *IngestService {
	return NewIngestService(tx, cust, hist, settings, newTestCache(), 100, domain.AppSettings{}, observability.NewMetrics(), zap.NewNop())
}

func TestIngestSalesRecordsHistory(t *testing.T) {
	tx := &mockTxStore{}
	hist := &mockHistoryStore{}
	settings := &mockSettingsStore{settings: &domain.AppSettings{
		CashbackPercent:   7.5,
		CashbackStartDate: "2024-06-01",
	}}
	svc := newIngestService(tx, &mockCustomerStore{}, hist, settings)

	csv := "Data_Hora;Doc_Cliente;Valor_Venda;Valor_Pago;Maquinas;Meio_de_Pagamento;Loja\n" +
		"15/07/2024 14:30:00;12345678901;20,00;20,00;Lavadora: 1;Pix;Centro\n" +
		"not-a-date;12345678901;10,00;10,00;Lavadora: 1;Pix;Centro\n"

	result, err := svc.IngestSales(context.Background(), "vendas.csv", "api_upload", []byte(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inserted != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(tx.upserted) != 1 {
		t.Fatalf("upserted %d rows, want 1", len(tx.upserted))
	}
	if tx.upserted[0].Cashback != 1.50 {
		t.Errorf("cashback = %v, want 1.50", tx.upserted[0].Cashback)
	}

	if len(hist.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(hist.entries))
	}
	entry := hist.entries[0]
	if entry.Status != "success" || entry.FileType != "sales" || entry.FileName != "vendas.csv" {
		t.Errorf("history entry = %+v", entry)
	}
}

func TestIngestSalesSettingsFallback(t *testing.T) {
	tx := &mockTxStore{}
	settings := &mockSettingsStore{err: &domain.ErrExternalService{Service: "supabase/app_settings"}}
	svc := newIngestService(tx, &mockCustomerStore{}, &mockHistoryStore{}, settings)

	csv := "Data_Hora;Doc_Cliente;Valor_Venda;Valor_Pago;Maquinas;Meio_de_Pagamento;Loja\n" +
		"15/07/2024 14:30:00;12345678901;20,00;20,00;Lavadora: 1;Pix;Centro\n"

	result, err := svc.IngestSales(context.Background(), "vendas.csv", "api_upload", []byte(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Defaults still apply cashback (7.5% from 2024-06-01).
	if result.Inserted != 1 || tx.upserted[0].Cashback != 1.50 {
		t.Errorf("fallback cashback = %v", tx.upserted[0].Cashback)
	}
}

func TestIngestCustomers(t *testing.T) {
	cust := &mockCustomerStore{customers: map[string]*domain.Customer{}}
	hist := &mockHistoryStore{}
	svc := newIngestService(&mockTxStore{}, cust, hist, &mockSettingsStore{settings: &domain.AppSettings{}})

	csv := "Documento;Nome;Saldo_Carteira\n12345678901;Maria;5,00\n"
	result, err := svc.IngestCustomers(context.Background(), "clientes.csv", "api_upload", []byte(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Updated != 1 {
		t.Errorf("updated = %d, want 1", result.Updated)
	}
	if len(cust.upserted) != 1 || cust.upserted[0].Name != "Maria" {
		t.Errorf("upserted = %+v", cust.upserted)
	}
	if len(hist.entries) != 1 || hist.entries[0].FileType != "customers" {
		t.Errorf("history = %+v", hist.entries)
	}
}
