package analytics

import (
	"sort"
	"strconv"
	"time"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

// Trend classification tunables. The dead-band keeps small fluctuations
// around zero from flipping the reported direction.
const (
	DefaultTrendWindowMonths = 3
	DefaultTrendDeadBandPct  = 2.0
)

// BuildMonthlySeries groups transactions into calendar months (YYYY-MM),
// sorted ascending, with MoM and YoY growth filled in. The month
// containing now is flagged Partial so callers don't compare it as if
// complete. Rows with invalid dates are excluded.
func BuildMonthlySeries(txs []domain.Transaction, now time.Time) []domain.GrowthTrendPoint {
	type bucket struct {
		revenue  float64
		services int
	}
	buckets := make(map[string]*bucket)
	for _, tx := range txs {
		if !tx.DateValid {
			continue
		}
		key := tx.Date.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.revenue += tx.PaidAmount
		b.services += tx.Usage.Total()
	}

	currentMonth := now.Format("2006-01")
	series := make([]domain.GrowthTrendPoint, 0, len(buckets))
	for key, b := range buckets {
		series = append(series, domain.GrowthTrendPoint{
			Month:    key,
			Revenue:  b.revenue,
			Services: b.services,
			Partial:  key == currentMonth,
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })

	mom := MonthOverMonthGrowth(series)
	for i := range series {
		series[i].MoMGrowth = mom[i]
		series[i].YoYGrowth = YearOverYearGrowth(series, series[i].Month)
	}
	return series
}

// MonthOverMonthGrowth returns the growth percentage of each month against
// the previous series entry. The first month and any month whose
// predecessor had zero revenue get nil (never infinity).
func MonthOverMonthGrowth(series []domain.GrowthTrendPoint) []*float64 {
	out := make([]*float64, len(series))
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Revenue
		if prev == 0 {
			continue
		}
		g := (series[i].Revenue - prev) / prev * 100
		out[i] = &g
	}
	return out
}

// YearOverYearGrowth compares a month's revenue against the same calendar
// month one year earlier. Returns nil when the year-ago month is absent
// from the series or had zero revenue.
func YearOverYearGrowth(series []domain.GrowthTrendPoint, month string) *float64 {
	prior := priorYearMonth(month)
	if prior == "" {
		return nil
	}

	var current, base *domain.GrowthTrendPoint
	for i := range series {
		switch series[i].Month {
		case month:
			current = &series[i]
		case prior:
			base = &series[i]
		}
	}
	if current == nil || base == nil || base.Revenue == 0 {
		return nil
	}
	g := (current.Revenue - base.Revenue) / base.Revenue * 100
	return &g
}

// priorYearMonth returns the YYYY-MM key one year before the given one,
// or "" when the key is malformed.
func priorYearMonth(month string) string {
	if len(month) != 7 || month[4] != '-' {
		return ""
	}
	year, err := strconv.Atoi(month[:4])
	if err != nil {
		return ""
	}
	return strconv.Itoa(year-1) + month[4:]
}

// ClassifyTrend reduces the trailing window of MoM growth rates to a
// direction. Partial months are skipped so an in-progress month never
// drags the average down. windowMonths <= 0 and deadBandPct <= 0 select
// the defaults.
func ClassifyTrend(series []domain.GrowthTrendPoint, windowMonths int, deadBandPct float64) string {
	if windowMonths <= 0 {
		windowMonths = DefaultTrendWindowMonths
	}
	if deadBandPct <= 0 {
		deadBandPct = DefaultTrendDeadBandPct
	}

	var sum float64
	var n int
	for i := len(series) - 1; i >= 0 && n < windowMonths; i-- {
		if series[i].Partial || series[i].MoMGrowth == nil {
			continue
		}
		sum += *series[i].MoMGrowth
		n++
	}
	if n == 0 {
		return domain.TrendStable
	}

	avg := sum / float64(n)
	switch {
	case avg > deadBandPct:
		return domain.TrendIncreasing
	case avg < -deadBandPct:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// BestMonth returns the month with the highest revenue, skipping partial
// months; ties resolve to the earliest month. Empty series yields "".
func BestMonth(series []domain.GrowthTrendPoint) string {
	best := ""
	var bestRevenue float64
	for _, p := range series {
		if p.Partial {
			continue
		}
		if best == "" || p.Revenue > bestRevenue {
			best = p.Month
			bestRevenue = p.Revenue
		}
	}
	return best
}

// WorstMonth returns the month with the lowest revenue, skipping partial
// months; ties resolve to the earliest month.
func WorstMonth(series []domain.GrowthTrendPoint) string {
	worst := ""
	var worstRevenue float64
	for _, p := range series {
		if p.Partial {
			continue
		}
		if worst == "" || p.Revenue < worstRevenue {
			worst = p.Month
			worstRevenue = p.Revenue
		}
	}
	return worst
}

// AnalyzeGrowth is the full growth view: monthly series plus best/worst
// months and the trend direction.
func AnalyzeGrowth(txs []domain.Transaction, now time.Time, windowMonths int, deadBandPct float64) domain.GrowthTrend {
	series := BuildMonthlySeries(txs, now)
	return domain.GrowthTrend{
		Series:     series,
		BestMonth:  BestMonth(series),
		WorstMonth: WorstMonth(series),
		Direction:  ClassifyTrend(series, windowMonths, deadBandPct),
	}
}
