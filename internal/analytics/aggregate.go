package analytics

import (
	"sort"
	"time"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

// FilterByDateRange returns the transactions whose date falls inside the
// inclusive [start, end] range. A nil bound is unbounded on that side.
// Rows with an invalid date are dropped whenever any bound is set. The
// input slice is never modified.
func FilterByDateRange(txs []domain.Transaction, start, end *time.Time) []domain.Transaction {
	if start == nil && end == nil {
		out := make([]domain.Transaction, len(txs))
		copy(out, txs)
		return out
	}

	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.DateValid {
			continue
		}
		if start != nil && tx.Date.Before(*start) {
			continue
		}
		if end != nil && tx.Date.After(*end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// AggregateTotals sums revenue, counts transactions and machine cycles, and
// attributes revenue per service type. A transaction with both wash and
// dry cycles contributes its full paid amount to both revenue buckets (see
// domain.Totals). An empty input returns the zero value.
func AggregateTotals(txs []domain.Transaction) domain.Totals {
	var t domain.Totals
	for _, tx := range txs {
		t.Revenue += tx.PaidAmount
		t.Transactions++
		t.WashCycles += tx.Usage.Wash
		t.DryCycles += tx.Usage.Dry
		if tx.Usage.Wash > 0 {
			t.WashRevenue += tx.PaidAmount
		}
		if tx.Usage.Dry > 0 {
			t.DryRevenue += tx.PaidAmount
		}
	}
	if t.Transactions > 0 {
		t.AvgTicket = t.Revenue / float64(t.Transactions)
	}
	return t
}

// GroupByDay buckets transactions by calendar date, ascending. Rows with
// invalid dates are excluded. Average tickets are derived only after all
// rows are summed.
func GroupByDay(txs []domain.Transaction) []domain.DailyAggregate {
	buckets := make(map[string]*domain.DailyAggregate)
	for _, tx := range txs {
		if !tx.DateValid {
			continue
		}
		key := tx.Date.Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			b = &domain.DailyAggregate{Date: key}
			buckets[key] = b
		}
		b.Revenue += tx.PaidAmount
		b.Transactions++
	}

	out := make([]domain.DailyAggregate, 0, len(buckets))
	for _, b := range buckets {
		if b.Transactions > 0 {
			b.AvgTicket = b.Revenue / float64(b.Transactions)
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// GroupByHour buckets transactions by hour of day. The result always has
// 24 entries; hours with no transactions report zeros.
func GroupByHour(txs []domain.Transaction) []domain.HourlyAggregate {
	out := make([]domain.HourlyAggregate, 24)
	for h := range out {
		out[h].Hour = h
	}
	for _, tx := range txs {
		if !tx.DateValid {
			continue
		}
		h := tx.Date.Hour()
		out[h].Revenue += tx.PaidAmount
		out[h].Transactions++
	}
	for h := range out {
		if out[h].Transactions > 0 {
			out[h].AvgTicket = out[h].Revenue / float64(out[h].Transactions)
		}
	}
	return out
}

// GroupByWeekday buckets transactions by day of week (0=Sunday). The
// result always has 7 entries.
func GroupByWeekday(txs []domain.Transaction) []domain.WeekdayAggregate {
	out := make([]domain.WeekdayAggregate, 7)
	for d := range out {
		out[d].Weekday = d
	}
	for _, tx := range txs {
		if !tx.DateValid {
			continue
		}
		d := int(tx.Date.Weekday())
		out[d].Revenue += tx.PaidAmount
		out[d].Transactions++
	}
	for d := range out {
		if out[d].Transactions > 0 {
			out[d].AvgTicket = out[d].Revenue / float64(out[d].Transactions)
		}
	}
	return out
}

// calendarDays returns the number of whole calendar days from a to b,
// ignoring the time-of-day component.
func calendarDays(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// ComputeCustomerLifetimeMetrics derives the per-customer lifetime view
// from the full transaction list. customerID is normalized before
// matching; now is the evaluation instant supplied by the caller. Rows
// with invalid dates are excluded entirely so lifetime figures stay
// consistent with the time-series views. When no rows match, a zero-valued
// result is returned, never an error.
func ComputeCustomerLifetimeMetrics(txs []domain.Transaction, customerID string, now time.Time) domain.CustomerMetrics {
	doc := NormalizeDocument(customerID)
	m := domain.CustomerMetrics{Document: doc}

	mine := make([]domain.Transaction, 0)
	for _, tx := range txs {
		if tx.DateValid && tx.Document == doc {
			mine = append(mine, tx)
		}
	}
	if len(mine) == 0 {
		return m
	}

	sort.Slice(mine, func(i, j int) bool { return mine[i].Date.Before(mine[j].Date) })

	visitDays := make(map[string]struct{})
	for _, tx := range mine {
		m.TotalSpent += tx.PaidAmount
		m.WashCycles += tx.Usage.Wash
		m.DryCycles += tx.Usage.Dry
		if tx.Usage.Wash > 0 {
			m.WashRevenue += tx.PaidAmount
		}
		if tx.Usage.Dry > 0 {
			m.DryRevenue += tx.PaidAmount
		}
		visitDays[tx.Date.Format("2006-01-02")] = struct{}{}
	}

	first := mine[0].Date
	last := mine[len(mine)-1].Date

	m.TotalVisits = len(mine)
	m.AvgTicket = m.TotalSpent / float64(m.TotalVisits)
	m.FirstVisit = &first
	m.LastVisit = &last
	m.DaysSinceFirst = calendarDays(first, now)
	m.DaysSinceLast = calendarDays(last, now)
	m.UniqueVisitDays = len(visitDays)

	if m.DaysSinceFirst > 0 {
		weeks := float64(m.DaysSinceFirst) / 7
		m.VisitFrequency = float64(m.UniqueVisitDays) / weeks
	}
	return m
}
