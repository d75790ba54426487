package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the analytics knobs operators can adjust without a
// redeploy: churn-risk decay multipliers per RFM segment, weather
// comfort thresholds and growth trend sensitivity.
type Tuning struct {
	Risk struct {
		SegmentMultipliers map[string]float64 `yaml:"segment_multipliers"`
	} `yaml:"risk"`

	Weather struct {
		MinComfortDays int `yaml:"min_comfort_days"`
	} `yaml:"weather"`

	Growth struct {
		TrendWindowMonths int     `yaml:"trend_window_months"`
		TrendDeadBandPct  float64 `yaml:"trend_dead_band_pct"`
	} `yaml:"growth"`

	Cashback struct {
		DefaultPercent   float64 `yaml:"default_percent"`
		DefaultStartDate string  `yaml:"default_start_date"`
	} `yaml:"cashback"`
}

// DefaultTuning returns the built-in knobs used when no tuning file is
// configured. The zero-valued maps mean "use package defaults".
func DefaultTuning() *Tuning {
	t := &Tuning{}
	t.Weather.MinComfortDays = 3
	t.Growth.TrendWindowMonths = 3
	t.Growth.TrendDeadBandPct = 2.0
	t.Cashback.DefaultPercent = 7.5
	t.Cashback.DefaultStartDate = "2024-06-01"
	return t
}

// LoadTuning reads the YAML tuning file at path, falling back to the
// defaults for any section the file omits.
func LoadTuning(path string) (*Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse tuning file: %w", err)
	}

	if t.Weather.MinComfortDays <= 0 {
		t.Weather.MinComfortDays = 3
	}
	if t.Growth.TrendWindowMonths <= 0 {
		t.Growth.TrendWindowMonths = 3
	}
	if t.Growth.TrendDeadBandPct <= 0 {
		t.Growth.TrendDeadBandPct = 2.0
	}
	return t, nil
}
