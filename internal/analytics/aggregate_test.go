package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

// tx builds a transaction the way the ingest adapter does: raw Brazilian
// strings run through the parse helpers.
func tx(doc, date, amount, machines string) domain.Transaction {
	parsed, ok := ParseBrazilianDate(date)
	return domain.Transaction{
		Document:   NormalizeDocument(doc),
		Date:       parsed,
		DateValid:  ok,
		PaidAmount: ParseBrazilianNumber(amount),
		Machines:   machines,
		Usage:      CountMachineUsage(machines),
	}
}

func TestAggregateTotals_Empty(t *testing.T) {
	got := AggregateTotals(nil)
	if got.Revenue != 0 || got.Transactions != 0 || got.AvgTicket != 0 {
		t.Fatalf("expected zero totals, got %+v", got)
	}
}

func TestAggregateTotals_ServiceRevenueAttribution(t *testing.T) {
	txs := []domain.Transaction{
		tx("111", "01/03/2024 10:00:00", "17,90", "Lavadora:1"),
		tx("222", "01/03/2024 11:00:00", "30,00", "Lavadora:1, Secadora:1"),
		tx("333", "01/03/2024 12:00:00", "12,10", "Secadora:1"),
	}
	got := AggregateTotals(txs)

	if got.Revenue != 60 {
		t.Errorf("revenue = %v, want 60", got.Revenue)
	}
	if got.Transactions != 3 {
		t.Errorf("transactions = %d, want 3", got.Transactions)
	}
	if got.AvgTicket != 20 {
		t.Errorf("avg ticket = %v, want 20", got.AvgTicket)
	}
	// A sale with both cycle types counts fully in both buckets.
	if got.WashRevenue != 47.90 {
		t.Errorf("wash revenue = %v, want 47.90", got.WashRevenue)
	}
	if got.DryRevenue != 42.10 {
		t.Errorf("dry revenue = %v, want 42.10", got.DryRevenue)
	}
	if got.WashCycles != 2 || got.DryCycles != 2 {
		t.Errorf("cycles = %d/%d, want 2/2", got.WashCycles, got.DryCycles)
	}
}

func TestFilterByDateRange(t *testing.T) {
	txs := []domain.Transaction{
		tx("111", "01/03/2024", "10,00", ""),
		tx("111", "15/03/2024", "10,00", ""),
		tx("111", "01/04/2024", "10,00", ""),
		tx("111", "data inválida", "10,00", ""),
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	got := FilterByDateRange(txs, &start, &end)
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}

	// nil start: unbounded on that side, invalid dates still excluded
	got = FilterByDateRange(txs, nil, &end)
	if len(got) != 2 {
		t.Fatalf("nil start: got %d, want 2", len(got))
	}

	// both bounds nil: pass-through copy
	got = FilterByDateRange(txs, nil, nil)
	if len(got) != 4 {
		t.Fatalf("unbounded: got %d, want 4", len(got))
	}
}

func TestFilterByDateRange_DoesNotMutateInput(t *testing.T) {
	txs := []domain.Transaction{tx("111", "01/03/2024", "10,00", "")}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = FilterByDateRange(txs, &start, nil)
	if txs[0].PaidAmount != 10 {
		t.Fatal("input slice was mutated")
	}
}

func TestGroupByHour_PreSeedsAllBuckets(t *testing.T) {
	txs := []domain.Transaction{
		tx("111", "01/03/2024 14:30:00", "17,90", "Lavadora:1"),
	}
	got := GroupByHour(txs)

	if len(got) != 24 {
		t.Fatalf("got %d buckets, want 24", len(got))
	}
	for h, b := range got {
		if b.Hour != h {
			t.Fatalf("bucket %d has hour %d", h, b.Hour)
		}
		wantCount := 0
		if h == 14 {
			wantCount = 1
		}
		if b.Transactions != wantCount {
			t.Errorf("hour %d: transactions = %d, want %d", h, b.Transactions, wantCount)
		}
	}
	if got[14].Revenue != 17.90 {
		t.Errorf("hour 14 revenue = %v, want 17.90", got[14].Revenue)
	}
}

func TestGroupByWeekday_PreSeedsAllBuckets(t *testing.T) {
	// 03/03/2024 is a Sunday.
	txs := []domain.Transaction{tx("111", "03/03/2024 09:00:00", "20,00", "")}
	got := GroupByWeekday(txs)

	if len(got) != 7 {
		t.Fatalf("got %d buckets, want 7", len(got))
	}
	if got[0].Transactions != 1 || got[0].Revenue != 20 {
		t.Errorf("sunday bucket = %+v, want 1 transaction of 20", got[0])
	}
	for d := 1; d < 7; d++ {
		if got[d].Transactions != 0 {
			t.Errorf("weekday %d should be empty", d)
		}
	}
}

func TestGroupByDay(t *testing.T) {
	txs := []domain.Transaction{
		tx("111", "02/03/2024 10:00:00", "10,00", ""),
		tx("222", "01/03/2024 10:00:00", "20,00", ""),
		tx("333", "01/03/2024 18:00:00", "30,00", ""),
		tx("444", "sem data", "99,00", ""),
	}
	got := GroupByDay(txs)

	if len(got) != 2 {
		t.Fatalf("got %d days, want 2", len(got))
	}
	if got[0].Date != "2024-03-01" || got[1].Date != "2024-03-02" {
		t.Fatalf("days not sorted ascending: %v, %v", got[0].Date, got[1].Date)
	}
	if got[0].Revenue != 50 || got[0].AvgTicket != 25 {
		t.Errorf("2024-03-01: revenue=%v avg=%v, want 50/25", got[0].Revenue, got[0].AvgTicket)
	}
}

func TestComputeCustomerLifetimeMetrics_SameDayVisits(t *testing.T) {
	txs := []domain.Transaction{
		tx("111", "01/03/2024 10:00:00", "17,90", "Lavadora:1"),
		tx("111", "01/03/2024 11:00:00", "17,90", "Secadora:1"),
	}
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	got := ComputeCustomerLifetimeMetrics(txs, "00000000111", now)

	if got.TotalVisits != 2 {
		t.Errorf("total visits = %d, want 2", got.TotalVisits)
	}
	if got.UniqueVisitDays != 1 {
		t.Errorf("unique visit days = %d, want 1", got.UniqueVisitDays)
	}
	if math.Abs(got.TotalSpent-35.80) > 1e-9 {
		t.Errorf("total spent = %v, want 35.80", got.TotalSpent)
	}
	if got.DaysSinceFirst != 14 || got.DaysSinceLast != 14 {
		t.Errorf("days since = %d/%d, want 14/14", got.DaysSinceFirst, got.DaysSinceLast)
	}
	wantFreq := 1.0 / (14.0 / 7.0)
	if math.Abs(got.VisitFrequency-wantFreq) > 1e-9 {
		t.Errorf("visit frequency = %v, want %v", got.VisitFrequency, wantFreq)
	}
}

func TestComputeCustomerLifetimeMetrics_NormalizesLookupKey(t *testing.T) {
	txs := []domain.Transaction{
		tx("123.456.789-01", "01/03/2024", "10,00", ""),
	}
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	got := ComputeCustomerLifetimeMetrics(txs, "12345678901", now)
	if got.TotalVisits != 1 {
		t.Fatalf("expected match after normalization, got %d visits", got.TotalVisits)
	}
}

func TestComputeCustomerLifetimeMetrics_NoMatch(t *testing.T) {
	txs := []domain.Transaction{tx("111", "01/03/2024", "10,00", "")}
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	got := ComputeCustomerLifetimeMetrics(txs, "999", now)
	if got.TotalVisits != 0 || got.TotalSpent != 0 {
		t.Fatalf("expected zeroed result, got %+v", got)
	}
	if got.FirstVisit != nil || got.LastVisit != nil {
		t.Fatal("expected nil visit dates for unknown customer")
	}
}

func TestComputeCustomerLifetimeMetrics_ZeroDaysSinceFirst(t *testing.T) {
	txs := []domain.Transaction{tx("111", "01/03/2024 08:00:00", "10,00", "")}
	now := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)

	got := ComputeCustomerLifetimeMetrics(txs, "111", now)
	if got.DaysSinceFirst != 0 {
		t.Fatalf("days since first = %d, want 0", got.DaysSinceFirst)
	}
	if got.VisitFrequency != 0 {
		t.Fatalf("visit frequency = %v, want 0 on acquisition day", got.VisitFrequency)
	}
}

func TestComputeCustomerLifetimeMetrics_ExcludesInvalidDates(t *testing.T) {
	txs := []domain.Transaction{
		tx("111", "01/03/2024", "10,00", ""),
		tx("111", "não é data", "99,00", ""),
	}
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	got := ComputeCustomerLifetimeMetrics(txs, "111", now)
	if got.TotalVisits != 1 {
		t.Errorf("total visits = %d, want 1", got.TotalVisits)
	}
	if got.TotalSpent != 10 {
		t.Errorf("total spent = %v, want 10", got.TotalSpent)
	}
}
