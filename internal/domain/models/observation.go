package models

import "time"

// Observation is one timestamped price value for an asset. Immutable once
// appended to a series.
type Observation struct {
	Asset string    `json:"asset"`
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

// RiskTier classifies recent volatility of an asset window.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// RiskAssessment carries the tier plus whether the window was too short to
// say anything meaningful (fewer than two observations).
type RiskAssessment struct {
	Tier             RiskTier `json:"tier"`
	InsufficientData bool     `json:"insufficient_data,omitempty"`
}

// TrendDirection is the coarse direction of recent price movement.
type TrendDirection string

const (
	TrendUp            TrendDirection = "up"
	TrendDown          TrendDirection = "down"
	TrendSideways      TrendDirection = "sideways"
	TrendIndeterminate TrendDirection = "indeterminate"
)
