package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/middleware"
	xlogger "MarketPulse/pkg/logger"
)

// Proc is the minimal downstream interface the producer needs. Process
// returns the observation as stored.
type Proc interface {
	Process(ctx context.Context, o models.Observation) (models.Observation, error)
}

// TickProducer synthesizes market activity: every interval it draws one
// uniform value per configured asset and hands it downstream. It owns an
// explicit start/stop lifecycle so tests can run it a bounded number of
// iterations. A failed append is logged and the loop continues; nothing
// short of Stop or context cancellation terminates it.
type TickProducer struct {
	proc     Proc
	metrics  drepo.Metrics
	logger   *xlogger.Logger
	assets   []string
	min, max float64
	interval time.Duration
	rnd      *rand.Rand

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

// ProducerOption configures TickProducer.
type ProducerOption func(*TickProducer)

// WithPriceRange sets the uniform draw range.
func WithPriceRange(min, max float64) ProducerOption {
	return func(p *TickProducer) {
		if max > min {
			p.min, p.max = min, max
		}
	}
}

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) ProducerOption {
	return func(p *TickProducer) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithAssets sets the assets to generate observations for.
func WithAssets(assets []string) ProducerOption {
	return func(p *TickProducer) {
		if len(assets) > 0 {
			p.assets = assets
		}
	}
}

// WithSeed fixes the RNG seed, used by tests.
func WithSeed(seed int64) ProducerOption {
	return func(p *TickProducer) { p.rnd = rand.New(rand.NewSource(seed)) }
}

// NewTickProducer creates a new TickProducer instance.
func NewTickProducer(proc Proc, metrics drepo.Metrics, logger *xlogger.Logger, opts ...ProducerOption) *TickProducer {
	p := &TickProducer{
		proc:     proc,
		metrics:  metrics,
		logger:   logger,
		assets:   []string{"BTC"},
		min:      40000,
		max:      45000,
		interval: 5 * time.Second,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the background tick loop. Calling Start on a running
// producer is a no-op.
func (p *TickProducer) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.run(ctx, stopCh, doneCh)
}

func (p *TickProducer) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// emit once at start so subscribers see data before the first interval
	p.emit(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			p.emit(ctx)
		}
	}
}

func (p *TickProducer) emit(ctx context.Context) {
	for _, asset := range p.assets {
		value := p.min + p.rnd.Float64()*(p.max-p.min)
		o := models.Observation{Asset: asset, Value: value}
		switch _, err := p.proc.Process(ctx, o); {
		case errors.Is(err, middleware.ErrThrottled):
			// already counted by the pipeline; nothing to report
		case err != nil:
			p.metrics.RecordError("producer_append")
			p.logger.Error("tick append failed", xlogger.String("asset", asset), xlogger.Error(err))
		default:
			p.logger.Debug("tick generated", xlogger.String("asset", asset), xlogger.Any("value", value))
		}
	}
}

// Stop stops the loop and waits for the in-flight iteration to finish.
func (p *TickProducer) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	doneCh := p.doneCh
	p.mu.Unlock()

	<-doneCh
}
