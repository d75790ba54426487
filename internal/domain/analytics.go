package domain

import "time"

// ============================================================
// Aggregates (dashboard time series)
// ============================================================

// Totals is the aggregate view over a set of transactions.
//
// WashRevenue and DryRevenue credit the FULL paid amount of a transaction
// to every service type it contains, so a sale with both wash and dry
// cycles counts fully in both buckets. This is deliberate service-mix
// attribution carried over from the source dashboard, not a partition of
// revenue; the two fields do not sum to Revenue.
type Totals struct {
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
	AvgTicket    float64 `json:"avg_ticket"`
	WashCycles   int     `json:"wash_cycles"`
	DryCycles    int     `json:"dry_cycles"`
	WashRevenue  float64 `json:"wash_revenue"`
	DryRevenue   float64 `json:"dry_revenue"`
}

// DailyAggregate is revenue bucketed by calendar date.
type DailyAggregate struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
	AvgTicket    float64 `json:"avg_ticket"`
}

// HourlyAggregate is revenue bucketed by hour of day. Results always carry
// all 24 buckets so empty hours report zero instead of being absent.
type HourlyAggregate struct {
	Hour         int     `json:"hour"` // 0..23
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
	AvgTicket    float64 `json:"avg_ticket"`
}

// WeekdayAggregate is revenue bucketed by day of week (0=Sunday..6=Saturday).
// Results always carry all 7 buckets.
type WeekdayAggregate struct {
	Weekday      int     `json:"weekday"`
	Revenue      float64 `json:"revenue"`
	Transactions int     `json:"transactions"`
	AvgTicket    float64 `json:"avg_ticket"`
}

// DashboardSummary is the headline view for the dashboard landing panel.
type DashboardSummary struct {
	From        string    `json:"from,omitempty"` // YYYY-MM-DD
	To          string    `json:"to,omitempty"`
	Totals      Totals    `json:"totals"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ============================================================
// Customer lifetime metrics
// ============================================================

// CustomerMetrics is the per-customer lifetime view, rebuilt from the
// transaction list on every query. Two transactions on the same calendar
// day count as a single visit day.
type CustomerMetrics struct {
	Document        string     `json:"document"`
	TotalVisits     int        `json:"total_visits"`
	TotalSpent      float64    `json:"total_spent"`
	AvgTicket       float64    `json:"avg_ticket"`
	FirstVisit      *time.Time `json:"first_visit,omitempty"`
	LastVisit       *time.Time `json:"last_visit,omitempty"`
	DaysSinceFirst  int        `json:"days_since_first"`
	DaysSinceLast   int        `json:"days_since_last"`
	UniqueVisitDays int        `json:"unique_visit_days"`
	VisitFrequency  float64    `json:"visit_frequency"` // visits per week
	WashCycles      int        `json:"wash_cycles"`
	DryCycles       int        `json:"dry_cycles"`
	WashRevenue     float64    `json:"wash_revenue"`
	DryRevenue      float64    `json:"dry_revenue"`
	Segment         string     `json:"segment,omitempty"` // RFM label, assigned upstream
	RiskScore       int        `json:"risk_score"`
	RiskLevel       *RiskLevel `json:"risk_level,omitempty"`
}

// ============================================================
// Churn risk
// ============================================================

// RiskLevel is the discrete churn-risk tier derived from a 0-100 score.
type RiskLevel struct {
	Level string `json:"level"` // high, medium, low
	Label string `json:"label"` // display label (pt-BR)
	Color string `json:"color"` // hex color for the dashboard
}

// ============================================================
// Weather impact
// ============================================================

// WeatherDay is one calendar day with weather and realized revenue,
// the input grain for comfort-category analysis.
type WeatherDay struct {
	Date     string       `json:"date"` // YYYY-MM-DD
	Weather  DailyWeather `json:"weather"`
	Revenue  float64      `json:"revenue"`
	Services int          `json:"services"`
}

// ComfortCategory aggregates the days sharing a comfort classification.
// ImpactPct is nil for the baseline category and whenever the baseline has
// zero revenue per day.
type ComfortCategory struct {
	Name           string   `json:"name"`
	Days           int      `json:"days"`
	RevenuePerDay  float64  `json:"revenue_per_day"`
	ServicesPerDay float64  `json:"services_per_day"`
	HasEnoughData  bool     `json:"has_enough_data"`
	ImpactPct      *float64 `json:"impact_pct,omitempty"`
}

// WeatherImpact is the full weather analysis for a period.
type WeatherImpact struct {
	Categories      []ComfortCategory `json:"categories"`
	Baseline        string            `json:"baseline"`
	BestCategory    string            `json:"best_category,omitempty"`
	WorstCategory   string            `json:"worst_category,omitempty"`
	TempCorrelation *float64          `json:"temp_correlation,omitempty"`
	HeatCorrelation *float64          `json:"heat_correlation,omitempty"`
}

// ============================================================
// Growth trends
// ============================================================

// GrowthTrendPoint is one month of the revenue series. Growth percentages
// are nil when the comparison base is missing or zero. Partial marks the
// still-accumulating current month.
type GrowthTrendPoint struct {
	Month     string   `json:"month"` // YYYY-MM
	Revenue   float64  `json:"revenue"`
	Services  int      `json:"services"`
	MoMGrowth *float64 `json:"mom_growth,omitempty"`
	YoYGrowth *float64 `json:"yoy_growth,omitempty"`
	Partial   bool     `json:"partial"`
}

// Trend directions produced by the growth analyzer.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// GrowthTrend is the monthly series plus derived best/worst/direction.
type GrowthTrend struct {
	Series     []GrowthTrendPoint `json:"series"`
	BestMonth  string             `json:"best_month,omitempty"`
	WorstMonth string             `json:"worst_month,omitempty"`
	Direction  string             `json:"direction"`
}
