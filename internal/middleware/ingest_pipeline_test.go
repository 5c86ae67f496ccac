package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

type noopMetrics struct{}

func (noopMetrics) RecordObservation(string, float64) {}
func (noopMetrics) RecordError(string) {}
func (noopMetrics) RecordLatency(string, float64) {}
func (noopMetrics) RecordAlertTriggered(string) {}
func (noopMetrics) SetActiveStreams(int) {}

// fakeProc records processed observations; Process fails while fail is set.
type fakeProc struct {
	mu   sync.Mutex
	obs  []models.Observation
	fail bool
}

func (p *fakeProc) Process(_ context.Context, o models.Observation) (models.Observation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return models.Observation{}, fmt.Errorf("store down")
	}
	if o.At.IsZero() {
		o.At = time.Now()
	}
	p.obs = append(p.obs, o)
	return o, nil
}

func (p *fakeProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.obs)
}

func (p *fakeProc) setFail(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = v
}

func TestPipelineForwards(t *testing.T) {
	proc := &fakeProc{}
	p := NewIngestPipeline(proc, noopMetrics{})

	o := models.Observation{Asset: "BTC", Value: 42000}
	stored, err := p.Process(context.Background(), o)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stored.At.IsZero() {
		t.Fatal("stored observation has no timestamp")
	}
	if proc.count() != 1 {
		t.Fatalf("downstream got %d observations, want 1", proc.count())
	}
}

func TestPipelineValidation(t *testing.T) {
	proc := &fakeProc{}
	p := NewIngestPipeline(proc, noopMetrics{})
	ctx := context.Background()

	cases := []models.Observation{
		{Asset: "", Value: 42000},
		{Asset: "BTC", Value: math.NaN()},
		{Asset: "BTC", Value: math.Inf(1)},
		{Asset: "BTC", Value: math.Inf(-1)},
	}
	for _, o := range cases {
		if _, err := p.Process(ctx, o); err == nil {
			t.Errorf("Process(%+v) = nil, want validation error", o)
		}
	}
	if proc.count() != 0 {
		t.Fatalf("invalid observations reached downstream: %d", proc.count())
	}
}

func TestPipelineThrottlesPerAsset(t *testing.T) {
	proc := &fakeProc{}
	p := NewIngestPipeline(proc, noopMetrics{}, WithMaxRPS(1))
	ctx := context.Background()

	// Two rapid observations for the same asset: the second is rejected
	// with the throttle sentinel so callers can tell a drop from success.
	if _, err := p.Process(ctx, models.Observation{Asset: "BTC", Value: 42000}); err != nil {
		t.Fatalf("first process: %v", err)
	}
	_, err := p.Process(ctx, models.Observation{Asset: "BTC", Value: 42001})
	if !errors.Is(err, ErrThrottled) {
		t.Fatalf("second process error = %v, want ErrThrottled", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream got %d, want 1 (second tick throttled)", proc.count())
	}

	// A different asset throttles independently.
	if _, err := p.Process(ctx, models.Observation{Asset: "ETH", Value: 2500}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("downstream got %d, want 2 (assets throttle independently)", proc.count())
	}
}

func TestPipelineBuffersOnFailureAndFlushes(t *testing.T) {
	proc := &fakeProc{fail: true}
	p := NewIngestPipeline(proc, noopMetrics{}, WithBufferSize(10))
	ctx := context.Background()

	o := models.Observation{Asset: "BTC", Value: 42000}
	if _, err := p.Process(ctx, o); err == nil {
		t.Fatal("expected downstream error")
	}
	if proc.count() != 0 {
		t.Fatalf("downstream got %d while failing", proc.count())
	}

	proc.setFail(false)
	p.Start(ctx)
	defer p.Stop()

	waitForCount(t, proc, 1)
}

func TestPipelineRestartsAfterStop(t *testing.T) {
	proc := &fakeProc{fail: true}
	p := NewIngestPipeline(proc, noopMetrics{}, WithBufferSize(10))
	ctx := context.Background()

	p.Start(ctx)
	p.Stop()

	if _, err := p.Process(ctx, models.Observation{Asset: "BTC", Value: 42000}); err == nil {
		t.Fatal("expected downstream error")
	}
	proc.setFail(false)

	// A second Start must flush what was buffered while stopped.
	p.Start(ctx)
	defer p.Stop()

	waitForCount(t, proc, 1)
}

func TestPipelineStartStopIdempotent(t *testing.T) {
	p := NewIngestPipeline(&fakeProc{}, noopMetrics{})
	ctx := context.Background()

	p.Start(ctx)
	p.Start(ctx)
	p.Stop()
	p.Stop()
}

func waitForCount(t *testing.T, proc *fakeProc, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if proc.count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("buffered observation never flushed, downstream count %d, want %d", proc.count(), want)
}
