package analytics

import (
	"math"
	"sort"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

// Comfort category labels. ComfortAmeno is the baseline every other
// category's revenue impact is measured against.
const (
	ComfortChuvoso = "Chuvoso" // rainy
	ComfortAbafado = "Abafado" // sweltering (high heat index)
	ComfortQuente  = "Quente"  // hot
	ComfortFrio    = "Frio"    // cold
	ComfortUmido   = "Úmido"   // humid
	ComfortAmeno   = "Ameno"   // mild, the baseline
)

// DefaultMinComfortDays is the minimum day count for a comfort category to
// participate in best/worst comparisons.
const DefaultMinComfortDays = 3

// HeatIndex returns the apparent temperature for the given dry-bulb
// temperature (°C) and relative humidity (%). Below 40% humidity dry heat
// does not adjust perceived temperature and the input is returned
// unchanged. Otherwise the Australian apparent-temperature form is used:
// vapor pressure 6.11*exp(17.27t/(t+237.3))*(h/100), then t+0.33*(vp-10).
func HeatIndex(tempC, humidityPct float64) float64 {
	if humidityPct < 40 {
		return tempC
	}
	vp := 6.11 * math.Exp(17.27*tempC/(tempC+237.3)) * (humidityPct / 100)
	return tempC + 0.33*(vp-10)
}

// PearsonCorrelation computes the product-moment correlation coefficient
// of two series. It returns nil, never NaN or an error, when the series
// have fewer than 2 points, unequal lengths, or zero variance.
func PearsonCorrelation(x, y []float64) *float64 {
	if len(x) < 2 || len(x) != len(y) {
		return nil
	}

	n := float64(len(x))
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return nil
	}

	r := cov / math.Sqrt(varX*varY)
	return &r
}

// ClassifyComfort assigns a day to exactly one comfort category using the
// priority-ordered rule set: rain beats everything, then heat index,
// temperature extremes, humidity, and finally the mild baseline.
func ClassifyComfort(w domain.DailyWeather) string {
	switch {
	case w.PrecipitationMM > 5:
		return ComfortChuvoso
	case HeatIndex(w.TempC, w.HumidityPct) >= 27:
		return ComfortAbafado
	case w.TempC >= 23:
		return ComfortQuente
	case w.TempC <= 10:
		return ComfortFrio
	case w.HumidityPct >= 80:
		return ComfortUmido
	default:
		return ComfortAmeno
	}
}

// AnalyzeWeatherImpact buckets days into comfort categories and measures
// each category's revenue against the mild baseline. Categories with fewer
// than minDays days are still reported with raw figures but flagged
// HasEnoughData=false and excluded from the best/worst comparison.
// minDays <= 0 selects DefaultMinComfortDays. The result also carries the
// Pearson correlation of temperature and heat index against daily revenue.
func AnalyzeWeatherImpact(days []domain.WeatherDay, minDays int) domain.WeatherImpact {
	if minDays <= 0 {
		minDays = DefaultMinComfortDays
	}

	type bucket struct {
		days     int
		revenue  float64
		services int
	}
	buckets := make(map[string]*bucket)

	temps := make([]float64, 0, len(days))
	heats := make([]float64, 0, len(days))
	revenues := make([]float64, 0, len(days))

	for _, d := range days {
		name := ClassifyComfort(d.Weather)
		b, ok := buckets[name]
		if !ok {
			b = &bucket{}
			buckets[name] = b
		}
		b.days++
		b.revenue += d.Revenue
		b.services += d.Services

		temps = append(temps, d.Weather.TempC)
		heats = append(heats, HeatIndex(d.Weather.TempC, d.Weather.HumidityPct))
		revenues = append(revenues, d.Revenue)
	}

	impact := domain.WeatherImpact{
		Baseline:        ComfortAmeno,
		TempCorrelation: PearsonCorrelation(temps, revenues),
		HeatCorrelation: PearsonCorrelation(heats, revenues),
	}

	var baselinePerDay float64
	if b, ok := buckets[ComfortAmeno]; ok && b.days > 0 {
		baselinePerDay = b.revenue / float64(b.days)
	}

	for name, b := range buckets {
		cat := domain.ComfortCategory{
			Name:          name,
			Days:          b.days,
			HasEnoughData: b.days >= minDays,
		}
		if b.days > 0 {
			cat.RevenuePerDay = b.revenue / float64(b.days)
			cat.ServicesPerDay = float64(b.services) / float64(b.days)
		}
		if name != ComfortAmeno && baselinePerDay > 0 {
			pct := (cat.RevenuePerDay - baselinePerDay) / baselinePerDay * 100
			cat.ImpactPct = &pct
		}
		impact.Categories = append(impact.Categories, cat)
	}

	sort.Slice(impact.Categories, func(i, j int) bool {
		return impact.Categories[i].RevenuePerDay > impact.Categories[j].RevenuePerDay
	})

	for _, cat := range impact.Categories {
		if !cat.HasEnoughData {
			continue
		}
		if impact.BestCategory == "" {
			impact.BestCategory = cat.Name
		}
		impact.WorstCategory = cat.Name
	}

	return impact
}
