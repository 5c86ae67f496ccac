package usecase

import (
	"context"
	"sync"

	xlogger "MarketPulse/pkg/logger"
)

func testLogger() *xlogger.Logger {
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}

// noopMetrics satisfies the metrics interface without recording anything.
type noopMetrics struct{}

func (noopMetrics) RecordObservation(string, float64) {}
func (noopMetrics) RecordError(string) {}
func (noopMetrics) RecordLatency(string, float64) {}
func (noopMetrics) RecordAlertTriggered(string) {}
func (noopMetrics) SetActiveStreams(int) {}

// countingMetrics tallies recorded errors by kind.
type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *countingMetrics) RecordObservation(string, float64) {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = make(map[string]int)
	}
	m.errors[kind]++
}
func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) RecordAlertTriggered(string) {}
func (m *countingMetrics) SetActiveStreams(int) {}

func (m *countingMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

// recordingQueue captures published notifications for assertions.
type recordingQueue struct {
	mu       sync.Mutex
	topics   []string
	payloads []interface{}
	err      error
}

func (q *recordingQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.topics = append(q.topics, msgType)
	q.payloads = append(q.payloads, payload)
	return nil
}

func (q *recordingQueue) published() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.topics)
}
