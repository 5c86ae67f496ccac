package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	domsvc "MarketPulse/internal/domain/service"
	"MarketPulse/internal/services/analytics"
	"MarketPulse/pkg/cache"
	xlogger "MarketPulse/pkg/logger"
)

// SummaryAggregator assembles the analytics view for one asset: windowed
// risk and trend plus a free-text analysis from the summarization
// collaborator. Collaborator failures never propagate; they degrade to a
// deterministic fallback labeled with its source.
type SummaryAggregator struct {
	store      drepo.SeriesStore
	summarizer domsvc.Summarizer // optional
	cache      cache.Service     // optional
	cacheTTL   time.Duration
	windowN    int
	logger     *xlogger.Logger
}

// SummaryOption configures SummaryAggregator.
type SummaryOption func(*SummaryAggregator)

// WithSummaryCache caches successful summarizer output per asset.
func WithSummaryCache(c cache.Service, ttl time.Duration) SummaryOption {
	return func(a *SummaryAggregator) {
		a.cache = c
		if ttl > 0 {
			a.cacheTTL = ttl
		}
	}
}

// WithWindowSize overrides the analytics window length.
func WithWindowSize(n int) SummaryOption {
	return func(a *SummaryAggregator) {
		if n > 0 {
			a.windowN = n
		}
	}
}

// NewSummaryAggregator creates a new SummaryAggregator instance.
func NewSummaryAggregator(store drepo.SeriesStore, summarizer domsvc.Summarizer, logger *xlogger.Logger, opts ...SummaryOption) *SummaryAggregator {
	a := &SummaryAggregator{
		store:      store,
		summarizer: summarizer,
		cacheTTL:   time.Minute,
		windowN:    analytics.DefaultWindow,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MarketSummary computes risk and trend over the recent window and attaches
// the collaborator's analysis, or a fallback embedding the risk tier.
func (a *SummaryAggregator) MarketSummary(ctx context.Context, asset string) (models.MarketSummary, error) {
	window, err := a.store.Window(ctx, asset, a.windowN)
	if err != nil {
		return models.MarketSummary{}, fmt.Errorf("window %s: %w", asset, err)
	}

	risk := analytics.Risk(window)
	trend := analytics.Trend(window)

	analysis, source := a.analyze(ctx, asset, window, risk)

	return models.MarketSummary{
		Asset:    asset,
		Risk:     risk,
		Trend:    trend,
		Analysis: analysis,
		Source:   source,
	}, nil
}

func (a *SummaryAggregator) analyze(ctx context.Context, asset string, window []models.Observation, risk models.RiskAssessment) (string, models.SummarySource) {
	if a.summarizer == nil {
		return fmt.Sprintf("Analysis service not configured. Current risk tier is %s.", risk.Tier), models.SourceFallback
	}

	cacheKey := "summary:" + asset
	if a.cache != nil {
		var cached string
		if err := a.cache.Get(ctx, cacheKey, &cached); err == nil && cached != "" {
			return cached, models.SourceSummarizer
		}
	}

	text, err := a.summarizer.Summarize(ctx, asset, window, risk)
	if err == nil {
		if a.cache != nil {
			if cerr := a.cache.Set(ctx, cacheKey, text, a.cacheTTL); cerr != nil {
				a.logger.Warn("summary cache set failed", xlogger.Error(cerr))
			}
		}
		return text, models.SourceSummarizer
	}

	a.logger.Warn("summarizer degraded", xlogger.String("asset", asset), xlogger.Error(err))

	var serr *domsvc.SummaryError
	if errors.As(err, &serr) {
		switch serr.Kind {
		case domsvc.SummaryRateLimited:
			return fmt.Sprintf("Analysis temporarily rate limited. Based on calculations: %s risk. Try again shortly.", risk.Tier), models.SourceRateLimited
		case domsvc.SummaryUnavailable:
			return fmt.Sprintf("Analysis service unavailable. Current risk tier is %s.", risk.Tier), models.SourceFallback
		}
	}
	return fmt.Sprintf("Analysis failed. Based on data: %s risk.", risk.Tier), models.SourceError
}
