package analytics

import (
	"math"
	"testing"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

func TestHeatIndex_DryAir(t *testing.T) {
	for _, h := range []float64{0, 10, 39.9} {
		if got := HeatIndex(30, h); got != 30 {
			t.Errorf("HeatIndex(30, %v) = %v, want 30 unchanged", h, got)
		}
	}
}

func TestHeatIndex_HumidAir(t *testing.T) {
	// 30°C at 80% humidity: vp = 6.11*exp(17.27*30/267.3)*0.8
	vp := 6.11 * math.Exp(17.27*30/(30+237.3)) * 0.8
	want := 30 + 0.33*(vp-10)

	got := HeatIndex(30, 80)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("HeatIndex(30, 80) = %v, want %v", got, want)
	}
	if got <= 30 {
		t.Fatalf("humid 30°C should feel hotter than 30°C, got %v", got)
	}
}

func TestPearsonCorrelation_Nulls(t *testing.T) {
	cases := []struct {
		name string
		x, y []float64
	}{
		{"nil inputs", nil, nil},
		{"too short", []float64{1}, []float64{2}},
		{"unequal length", []float64{1, 2, 3}, []float64{1, 2}},
		{"zero variance x", []float64{5, 5, 5}, []float64{1, 2, 3}},
		{"zero variance y", []float64{1, 2, 3}, []float64{7, 7, 7}},
	}
	for _, c := range cases {
		if got := PearsonCorrelation(c.x, c.y); got != nil {
			t.Errorf("%s: got %v, want nil", c.name, *got)
		}
	}
}

func TestPearsonCorrelation_PerfectLinear(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2*v + 3
	}
	got := PearsonCorrelation(x, y)
	if got == nil {
		t.Fatal("expected correlation, got nil")
	}
	if math.Abs(*got-1.0) > 1e-12 {
		t.Fatalf("got %v, want 1.0", *got)
	}
}

func TestPearsonCorrelation_NegativeLinear(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{8, 6, 4, 2}
	got := PearsonCorrelation(x, y)
	if got == nil || math.Abs(*got+1.0) > 1e-12 {
		t.Fatalf("got %v, want -1.0", got)
	}
}

func TestClassifyComfort_PriorityOrder(t *testing.T) {
	cases := []struct {
		name string
		w    domain.DailyWeather
		want string
	}{
		{"rain beats heat", domain.DailyWeather{TempC: 35, HumidityPct: 90, PrecipitationMM: 10}, ComfortChuvoso},
		{"sweltering", domain.DailyWeather{TempC: 28, HumidityPct: 75}, ComfortAbafado},
		{"hot but dry", domain.DailyWeather{TempC: 25, HumidityPct: 30}, ComfortQuente},
		{"cold", domain.DailyWeather{TempC: 8, HumidityPct: 50}, ComfortFrio},
		{"humid", domain.DailyWeather{TempC: 18, HumidityPct: 85}, ComfortUmido},
		{"mild", domain.DailyWeather{TempC: 18, HumidityPct: 60}, ComfortAmeno},
	}
	for _, c := range cases {
		if got := ClassifyComfort(c.w); got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func weatherDay(date string, temp, humidity, precip, revenue float64) domain.WeatherDay {
	return domain.WeatherDay{
		Date:    date,
		Weather: domain.DailyWeather{Date: date, TempC: temp, HumidityPct: humidity, PrecipitationMM: precip},
		Revenue: revenue,
	}
}

func TestAnalyzeWeatherImpact(t *testing.T) {
	days := []domain.WeatherDay{
		// Three mild baseline days at 100/day.
		weatherDay("2024-03-01", 18, 60, 0, 100),
		weatherDay("2024-03-02", 19, 55, 0, 100),
		weatherDay("2024-03-03", 17, 50, 0, 100),
		// Three rainy days at 150/day.
		weatherDay("2024-03-04", 20, 90, 12, 150),
		weatherDay("2024-03-05", 21, 85, 8, 150),
		weatherDay("2024-03-06", 16, 95, 20, 150),
		// A single cold day: below the min-day threshold.
		weatherDay("2024-03-07", 5, 50, 0, 30),
	}

	got := AnalyzeWeatherImpact(days, 3)

	byName := make(map[string]domain.ComfortCategory)
	for _, c := range got.Categories {
		byName[c.Name] = c
	}

	rainy, ok := byName[ComfortChuvoso]
	if !ok {
		t.Fatal("missing Chuvoso category")
	}
	if !rainy.HasEnoughData {
		t.Error("3 rainy days should be enough data")
	}
	if rainy.ImpactPct == nil || math.Abs(*rainy.ImpactPct-50) > 1e-9 {
		t.Errorf("rainy impact = %v, want +50%%", rainy.ImpactPct)
	}

	cold := byName[ComfortFrio]
	if cold.HasEnoughData {
		t.Error("1 cold day should be flagged as insufficient")
	}
	if cold.Days != 1 || cold.RevenuePerDay != 30 {
		t.Errorf("cold category raw figures wrong: %+v", cold)
	}

	baseline := byName[ComfortAmeno]
	if baseline.ImpactPct != nil {
		t.Error("baseline category must not carry an impact percentage")
	}

	if got.BestCategory != ComfortChuvoso {
		t.Errorf("best category = %q, want Chuvoso", got.BestCategory)
	}
	if got.WorstCategory != ComfortAmeno {
		t.Errorf("worst category = %q, want Ameno (cold day excluded)", got.WorstCategory)
	}
}

func TestAnalyzeWeatherImpact_Empty(t *testing.T) {
	got := AnalyzeWeatherImpact(nil, 0)
	if len(got.Categories) != 0 {
		t.Fatalf("expected no categories, got %d", len(got.Categories))
	}
	if got.TempCorrelation != nil || got.HeatCorrelation != nil {
		t.Fatal("expected nil correlations for empty input")
	}
}

func TestAnalyzeWeatherImpact_ZeroRevenueBaseline(t *testing.T) {
	days := []domain.WeatherDay{
		weatherDay("2024-03-01", 18, 60, 0, 0),
		weatherDay("2024-03-02", 18, 60, 0, 0),
		weatherDay("2024-03-03", 18, 60, 0, 0),
		weatherDay("2024-03-04", 30, 20, 0, 100),
		weatherDay("2024-03-05", 30, 20, 0, 100),
		weatherDay("2024-03-06", 30, 20, 0, 100),
	}
	got := AnalyzeWeatherImpact(days, 3)
	for _, c := range got.Categories {
		if c.ImpactPct != nil {
			t.Fatalf("zero-revenue baseline must yield nil impact, got %v for %s", *c.ImpactPct, c.Name)
		}
	}
}
