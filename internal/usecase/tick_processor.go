package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
)

// TickProcessor routes one observation to its sinks: the series store
// first (synchronous, source of truth), then best-effort relay to Kafka
// and the archive. A relay or archive failure never fails the append.
// Archive writes are batched; a partial batch flushes on Close.
type TickProcessor struct {
	store   drepo.SeriesStore
	pub     drepo.Publisher // optional
	archive drepo.Archive   // optional
	metrics drepo.Metrics

	mu        sync.Mutex
	batch     []models.Observation
	batchSize int
}

// ProcessorOption configures TickProcessor.
type ProcessorOption func(*TickProcessor)

// WithArchiveBatch sets how many observations accumulate before an
// archive flush.
func WithArchiveBatch(n int) ProcessorOption {
	return func(p *TickProcessor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// NewTickProcessor creates a new TickProcessor instance.
func NewTickProcessor(store drepo.SeriesStore, pub drepo.Publisher, archive drepo.Archive, metrics drepo.Metrics, opts ...ProcessorOption) *TickProcessor {
	p := &TickProcessor{
		store:     store,
		pub:       pub,
		archive:   archive,
		metrics:   metrics,
		batchSize: 16,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process appends one observation and fans it out to relay/archive sinks.
// It returns the observation as stored, timestamp assigned.
func (p *TickProcessor) Process(ctx context.Context, o models.Observation) (models.Observation, error) {
	start := time.Now()

	stored, err := p.store.Append(ctx, o.Asset, o.Value, o.At)
	if err != nil {
		p.metrics.RecordError("append")
		return models.Observation{}, fmt.Errorf("append observation: %w", err)
	}
	p.metrics.RecordObservation(stored.Asset, stored.Value)

	if p.pub != nil {
		if err := p.pub.Publish(ctx, stored); err != nil {
			p.metrics.RecordError("relay_publish")
		}
	}
	p.archiveObservation(ctx, stored)

	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return stored, nil
}

func (p *TickProcessor) archiveObservation(ctx context.Context, o models.Observation) {
	if p.archive == nil {
		return
	}

	p.mu.Lock()
	p.batch = append(p.batch, o)
	if len(p.batch) < p.batchSize {
		p.mu.Unlock()
		return
	}
	full := p.batch
	p.batch = nil
	p.mu.Unlock()

	if err := p.archive.StoreBatch(ctx, full); err != nil {
		p.metrics.RecordError("archive_store")
	}
}

// Close flushes the pending archive batch and closes underlying sinks.
func (p *TickProcessor) Close() {
	if p.archive != nil {
		p.mu.Lock()
		rest := p.batch
		p.batch = nil
		p.mu.Unlock()

		if len(rest) > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := p.archive.StoreBatch(ctx, rest); err != nil {
				p.metrics.RecordError("archive_store")
			}
		}
	}

	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.archive != nil {
		_ = p.archive.Close()
	}
}
