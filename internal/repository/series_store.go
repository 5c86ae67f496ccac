package repository

import (
	"context"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
)

// MemorySeriesStore implements SeriesStore with per-asset append-only
// slices. All reads copy, so returned snapshots are immune to later
// appends. A single RWMutex guards the whole map; append volume is one
// observation per asset per interval, so contention is not a concern.
type MemorySeriesStore struct {
	mu     sync.RWMutex
	series map[string][]models.Observation // oldest-first, append order
	maxLen int
}

// MemoryOption configures MemorySeriesStore.
type MemoryOption func(*MemorySeriesStore)

// WithMaxPerAsset bounds how many observations are retained per asset;
// oldest entries are dropped past the bound. Zero means unbounded.
func WithMaxPerAsset(n int) MemoryOption {
	return func(s *MemorySeriesStore) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

// NewMemorySeriesStore creates an in-memory series store.
func NewMemorySeriesStore(opts ...MemoryOption) *MemorySeriesStore {
	s := &MemorySeriesStore{
		series: make(map[string][]models.Observation),
		maxLen: 10000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records one observation. A zero `at` gets now; a caller-supplied
// `at` earlier than the series head is clamped so the series stays
// non-decreasing in time.
func (s *MemorySeriesStore) Append(_ context.Context, asset string, value float64, at time.Time) (models.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.series[asset]
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if n := len(seq); n > 0 && at.Before(seq[n-1].At) {
		at = seq[n-1].At
	}

	o := models.Observation{Asset: asset, Value: value, At: at}
	seq = append(seq, o)
	if s.maxLen > 0 && len(seq) > s.maxLen {
		// copy so the dropped prefix can be collected
		trimmed := make([]models.Observation, s.maxLen)
		copy(trimmed, seq[len(seq)-s.maxLen:])
		seq = trimmed
	}
	s.series[asset] = seq
	return o, nil
}

func (s *MemorySeriesStore) Latest(_ context.Context, asset string) (models.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.series[asset]
	if len(seq) == 0 {
		return models.Observation{}, domrepo.ErrNotFound
	}
	return seq[len(seq)-1], nil
}

func (s *MemorySeriesStore) Window(_ context.Context, asset string, n int) ([]models.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.series[asset]
	if n > len(seq) {
		n = len(seq)
	}
	if n <= 0 {
		return []models.Observation{}, nil
	}

	out := make([]models.Observation, n)
	for i := 0; i < n; i++ {
		out[i] = seq[len(seq)-1-i] // newest first
	}
	return out, nil
}

func (s *MemorySeriesStore) Range(_ context.Context, asset string, since time.Time) ([]models.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.series[asset]
	// series is time-ordered; find the first index at or after `since`
	lo, hi := 0, len(seq)
	for lo < hi {
		mid := (lo + hi) / 2
		if seq[mid].At.Before(since) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	out := make([]models.Observation, len(seq)-lo)
	copy(out, seq[lo:])
	return out, nil
}

var _ domrepo.SeriesStore = (*MemorySeriesStore)(nil)
