package service

import (
	"context"
	"fmt"

	"MarketPulse/internal/domain/models"
)

// SummaryErrorKind classifies summarization collaborator failures. The
// classification is typed at the interface boundary so the core never
// string-matches on an external service's error text.
type SummaryErrorKind string

const (
	SummaryUnavailable SummaryErrorKind = "unavailable"
	SummaryRateLimited SummaryErrorKind = "rate_limited"
	SummaryFailed      SummaryErrorKind = "failed"
)

// SummaryError is a typed failure from the summarization collaborator.
type SummaryError struct {
	Kind SummaryErrorKind
	Err  error
}

func (e *SummaryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("summarizer %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("summarizer %s", e.Kind)
}

func (e *SummaryError) Unwrap() error { return e.Err }

// Summarizer produces a free-text analysis of an asset's recent window.
// It may be slow, unavailable, or rate-limited; failures are reported as
// *SummaryError and callers degrade to a deterministic fallback.
type Summarizer interface {
	Summarize(ctx context.Context, asset string, window []models.Observation, risk models.RiskAssessment) (string, error)
}
