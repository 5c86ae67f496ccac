package analytics

import (
	"math"

	"MarketPulse/internal/domain/models"
)

// DefaultWindow is the number of recent observations analytics operate on.
const DefaultWindow = 10

// Absolute-difference thresholds for the risk tiers. These are fixed
// constants, not per-asset settings; the known simplification is that they
// are scale-dependent.
const (
	highRiskDelta   = 500.0
	mediumRiskDelta = 200.0
)

// Risk classifies the volatility of a window (newest-first) by the absolute
// difference between its newest and oldest value. Windows shorter than two
// observations are reported as low risk with InsufficientData set.
func Risk(window []models.Observation) models.RiskAssessment {
	if len(window) < 2 {
		return models.RiskAssessment{Tier: models.RiskLow, InsufficientData: true}
	}

	newest := window[0].Value
	oldest := window[len(window)-1].Value
	d := math.Abs(newest - oldest)

	switch {
	case d > highRiskDelta:
		return models.RiskAssessment{Tier: models.RiskHigh}
	case d > mediumRiskDelta:
		return models.RiskAssessment{Tier: models.RiskMedium}
	default:
		return models.RiskAssessment{Tier: models.RiskLow}
	}
}

// Trend compares the newest value of a window (newest-first) against the
// oldest. Windows shorter than two observations are indeterminate.
func Trend(window []models.Observation) models.TrendDirection {
	if len(window) < 2 {
		return models.TrendIndeterminate
	}

	newest := window[0].Value
	oldest := window[len(window)-1].Value

	switch {
	case newest > oldest:
		return models.TrendUp
	case newest < oldest:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}
