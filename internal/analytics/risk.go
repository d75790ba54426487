package analytics

import (
	"math"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
)

// defaultSegmentMultipliers is the documented default bonus table: loyal
// segments suppress risk (<1), disengaged segments amplify it (>1).
// Segments missing from the table score neutrally (1.0).
var defaultSegmentMultipliers = map[string]float64{
	"Champion":           0.5,
	"Loyal":              0.6,
	"Potential Loyalist": 0.8,
	"New Customer":       0.9,
	"Promising":          0.9,
	"Need Attention":     1.1,
	"About to Sleep":     1.2,
	"At Risk":            1.3,
	"Hibernating":        1.3,
	"Cant Lose":          1.4,
	"Lost":               1.5,
}

// RiskScorer converts inactivity plus an upstream RFM segment label into a
// bounded churn-risk score. The multiplier table is injectable so new
// segments can be introduced without touching the scoring logic.
type RiskScorer struct {
	multipliers map[string]float64
}

// NewRiskScorer creates a scorer. Passing nil installs the default
// segment multiplier table.
func NewRiskScorer(multipliers map[string]float64) *RiskScorer {
	if multipliers == nil {
		multipliers = defaultSegmentMultipliers
	}
	return &RiskScorer{multipliers: multipliers}
}

// Score computes the churn-risk score in [0, 100]. The base curve
// 1-exp(-d/30) rises toward 1 as days of inactivity grow, is multiplied by
// the segment bonus, clamped to [0, 1] and scaled. Unknown segments are
// neutral; this function never fails.
func (s *RiskScorer) Score(daysSinceLastVisit float64, segment string) int {
	if daysSinceLastVisit < 0 {
		daysSinceLastVisit = 0
	}

	base := 1 - math.Exp(-daysSinceLastVisit/30)

	mult, ok := s.multipliers[segment]
	if !ok {
		mult = 1.0
	}

	risk := base * mult
	if risk < 0 {
		risk = 0
	}
	if risk > 1 {
		risk = 1
	}
	return int(math.Round(risk * 100))
}

// Risk level thresholds. Fixed constants: the dashboard's alert tiers
// depend on these exact cutoffs.
const (
	riskHighThreshold   = 80
	riskMediumThreshold = 50
)

// LevelFromScore maps a 0-100 risk score to its discrete tier.
func LevelFromScore(score int) domain.RiskLevel {
	switch {
	case score >= riskHighThreshold:
		return domain.RiskLevel{Level: "high", Label: "Crítico", Color: "#dc2626"}
	case score >= riskMediumThreshold:
		return domain.RiskLevel{Level: "medium", Label: "Atenção", Color: "#f59e0b"}
	default:
		return domain.RiskLevel{Level: "low", Label: "Saudável", Color: "#16a34a"}
	}
}
