package models

// SummarySource labels which mode produced a market summary, so callers can
// tell degraded output from the real thing.
type SummarySource string

const (
	SourceSummarizer  SummarySource = "summarizer"
	SourceFallback    SummarySource = "fallback"
	SourceRateLimited SummarySource = "rate_limited"
	SourceError       SummarySource = "error"
)

// MarketSummary is the combined analytics view for one asset: risk tier,
// trend direction, and a free-text analysis from the summarization
// collaborator (or a deterministic fallback).
type MarketSummary struct {
	Asset    string         `json:"asset"`
	Risk     RiskAssessment `json:"risk"`
	Trend    TrendDirection `json:"trend"`
	Analysis string         `json:"analysis"`
	Source   SummarySource  `json:"source"`
}
