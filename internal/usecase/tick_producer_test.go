package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/middleware"
)

// captureProc records what the producer hands downstream.
type captureProc struct {
	mu   sync.Mutex
	obs  []models.Observation
	fail bool
}

func (p *captureProc) Process(_ context.Context, o models.Observation) (models.Observation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return models.Observation{}, fmt.Errorf("downstream unavailable")
	}
	p.obs = append(p.obs, o)
	return o, nil
}

func (p *captureProc) snapshot() []models.Observation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Observation, len(p.obs))
	copy(out, p.obs)
	return out
}

func TestTickProducerEmitsWithinRange(t *testing.T) {
	proc := &captureProc{}
	p := NewTickProducer(proc, noopMetrics{}, testLogger(),
		WithAssets([]string{"BTC", "ETH"}),
		WithPriceRange(40000, 45000),
		WithInterval(5*time.Millisecond),
		WithSeed(1),
	)

	p.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	p.Stop()

	obs := proc.snapshot()
	if len(obs) < 4 {
		t.Fatalf("emitted %d observations, want at least two rounds for two assets", len(obs))
	}
	seen := map[string]bool{}
	for _, o := range obs {
		seen[o.Asset] = true
		if o.Value < 40000 || o.Value > 45000 {
			t.Fatalf("value %v outside [40000,45000]", o.Value)
		}
	}
	if !seen["BTC"] || !seen["ETH"] {
		t.Errorf("assets seen = %v, want both BTC and ETH", seen)
	}
}

func TestTickProducerStopTerminates(t *testing.T) {
	proc := &captureProc{}
	p := NewTickProducer(proc, noopMetrics{}, testLogger(), WithInterval(5*time.Millisecond))

	p.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	p.Stop()

	n := len(proc.snapshot())
	time.Sleep(20 * time.Millisecond)
	if got := len(proc.snapshot()); got != n {
		t.Fatalf("producer kept emitting after Stop: %d -> %d", n, got)
	}

	// Stop on a stopped producer is a no-op.
	p.Stop()
}

func TestTickProducerContextCancelTerminates(t *testing.T) {
	proc := &captureProc{}
	p := NewTickProducer(proc, noopMetrics{}, testLogger(), WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	n := len(proc.snapshot())
	time.Sleep(20 * time.Millisecond)
	if got := len(proc.snapshot()); got != n {
		t.Fatalf("producer kept emitting after cancel: %d -> %d", n, got)
	}
}

func TestTickProducerSurvivesDownstreamFailure(t *testing.T) {
	proc := &captureProc{fail: true}
	p := NewTickProducer(proc, noopMetrics{}, testLogger(), WithInterval(5*time.Millisecond))

	p.Start(context.Background())
	time.Sleep(25 * time.Millisecond)

	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	time.Sleep(25 * time.Millisecond)
	p.Stop()

	if len(proc.snapshot()) == 0 {
		t.Fatal("producer stopped after downstream failures instead of continuing")
	}
}

// throttleProc rejects everything with the pipeline throttle sentinel.
type throttleProc struct{}

func (throttleProc) Process(context.Context, models.Observation) (models.Observation, error) {
	return models.Observation{}, middleware.ErrThrottled
}

func TestTickProducerTreatsThrottleAsSkip(t *testing.T) {
	m := &countingMetrics{}
	p := NewTickProducer(throttleProc{}, m, testLogger(), WithInterval(5*time.Millisecond))

	p.Start(context.Background())
	time.Sleep(25 * time.Millisecond)
	p.Stop()

	// Throttled ticks are dropped quietly, not counted as append failures.
	if n := m.errorCount("producer_append"); n != 0 {
		t.Fatalf("throttled ticks recorded %d producer_append errors, want 0", n)
	}
}

func TestTickProducerStartIdempotent(t *testing.T) {
	proc := &captureProc{}
	p := NewTickProducer(proc, noopMetrics{}, testLogger(), WithInterval(time.Hour))

	ctx := context.Background()
	p.Start(ctx)
	p.Start(ctx)
	p.Stop()
}
