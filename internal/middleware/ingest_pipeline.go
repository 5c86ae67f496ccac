package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
)

// ErrThrottled marks an observation dropped by the per-asset rate limit.
// Interactive callers surface it; the synthetic producer treats it as a
// silent skip.
var ErrThrottled = errors.New("ingest throttled")

// Proc is the minimal processor interface the pipeline needs. Process
// returns the observation as stored, timestamp assigned.
type Proc interface {
	Process(ctx context.Context, o models.Observation) (models.Observation, error)
}

// IngestPipeline sits between an observation source and the processor.
// It validates, throttles per asset, and buffers when downstream fails,
// flushing the buffer in the background with backoff.
type IngestPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan models.Observation
	mu       sync.Mutex
	stopCh   chan struct{}
	started  bool
	lastSeen map[string]time.Time // per-asset last accepted time
}

type PipelineOption func(*IngestPipeline)

// WithMaxRPS sets the max observations per second per asset.
func WithMaxRPS(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewIngestPipeline creates a new pipeline.
func NewIngestPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,
		bufSize:  1000,
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan models.Observation, p.bufSize)
	return p
}

// Start launches background flushing of buffered observations. Each run
// gets its own stop channel, so a stopped pipeline can be started again.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	go p.flushLoop(ctx, stopCh)
}

func (p *IngestPipeline) flushLoop(ctx context.Context, stopCh chan struct{}) {
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-stopCh:
			return
		case o := <-p.bufCh:
			if _, err := p.proc.Process(ctx, o); err != nil {
				if backoff < 2*time.Second {
					backoff *= 2
				}
				p.metrics.RecordError("pipeline_flush")
				time.Sleep(backoff)
				// requeue if space; drop otherwise
				select {
				case p.bufCh <- o:
				default:
					p.metrics.RecordError("pipeline_buffer_drop")
				}
			} else {
				backoff = 50 * time.Millisecond
			}
		}
	}
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	p.mu.Unlock()
}

// Process validates, throttles, and forwards an observation downstream,
// buffering it for retry on failure. It returns the observation as stored.
// A throttled observation is dropped and reported as ErrThrottled.
func (p *IngestPipeline) Process(ctx context.Context, o models.Observation) (models.Observation, error) {
	start := time.Now()
	if err := validateObservation(o); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return models.Observation{}, err
	}
	if !p.allow(o.Asset, start) {
		p.metrics.RecordError("pipeline_throttle")
		return models.Observation{}, ErrThrottled
	}

	stored, err := p.proc.Process(ctx, o)
	if err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- o:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return models.Observation{}, fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return stored, nil
}

func validateObservation(o models.Observation) error {
	if o.Asset == "" {
		return fmt.Errorf("asset empty")
	}
	if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
		return fmt.Errorf("value not finite")
	}
	return nil
}

func (p *IngestPipeline) allow(asset string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[asset]
	if last.IsZero() || now.Sub(last) >= time.Second/time.Duration(p.maxRPS) {
		p.lastSeen[asset] = now
		return true
	}
	return false
}
