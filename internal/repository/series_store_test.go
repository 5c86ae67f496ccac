package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	domrepo "MarketPulse/internal/domain/repository"
)

func TestSeriesStoreLatestUnknownAsset(t *testing.T) {
	s := NewMemorySeriesStore()

	_, err := s.Latest(context.Background(), "BTC")
	if !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSeriesStoreAppendAndLatest(t *testing.T) {
	s := NewMemorySeriesStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, v := range []float64{100, 101, 102} {
		if _, err := s.Append(ctx, "BTC", v, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	latest, err := s.Latest(ctx, "BTC")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Value != 102 {
		t.Errorf("latest value = %v, want 102", latest.Value)
	}
}

func TestSeriesStoreAppendZeroTimeGetsTimestamp(t *testing.T) {
	s := NewMemorySeriesStore()

	o, err := s.Append(context.Background(), "BTC", 100, time.Time{})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if o.At.IsZero() {
		t.Fatal("expected assigned timestamp")
	}
}

func TestSeriesStoreAppendClampsBackwardsTime(t *testing.T) {
	s := NewMemorySeriesStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if _, err := s.Append(ctx, "BTC", 100, base); err != nil {
		t.Fatalf("append: %v", err)
	}
	o, err := s.Append(ctx, "BTC", 101, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if o.At.Before(base) {
		t.Errorf("timestamp went backwards: %v < %v", o.At, base)
	}
}

func TestSeriesStoreWindowNewestFirst(t *testing.T) {
	s := NewMemorySeriesStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := s.Append(ctx, "BTC", float64(100+i), base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	win, err := s.Window(ctx, "BTC", 3)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(win) != 3 {
		t.Fatalf("len = %d, want 3", len(win))
	}
	if win[0].Value != 104 || win[2].Value != 102 {
		t.Errorf("window order = %v,%v,%v, want 104,103,102", win[0].Value, win[1].Value, win[2].Value)
	}
}

func TestSeriesStoreWindowShorterThanRequested(t *testing.T) {
	s := NewMemorySeriesStore()
	ctx := context.Background()

	if _, err := s.Append(ctx, "BTC", 100, time.Time{}); err != nil {
		t.Fatalf("append: %v", err)
	}

	win, err := s.Window(ctx, "BTC", 10)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(win) != 1 {
		t.Errorf("len = %d, want 1", len(win))
	}
}

func TestSeriesStoreWindowUnknownAssetEmpty(t *testing.T) {
	s := NewMemorySeriesStore()

	win, err := s.Window(context.Background(), "DOGE", 5)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(win) != 0 {
		t.Errorf("len = %d, want 0", len(win))
	}
}

func TestSeriesStoreSnapshotStableUnderAppend(t *testing.T) {
	s := NewMemorySeriesStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, "BTC", float64(100+i), base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	win, err := s.Window(ctx, "BTC", 3)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	before := make([]float64, len(win))
	for i, o := range win {
		before[i] = o.Value
	}

	for i := 0; i < 50; i++ {
		if _, err := s.Append(ctx, "BTC", 999, base.Add(time.Duration(10+i)*time.Second)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	for i, o := range win {
		if o.Value != before[i] {
			t.Fatalf("snapshot mutated at %d: %v != %v", i, o.Value, before[i])
		}
	}
}

func TestSeriesStoreRange(t *testing.T) {
	s := NewMemorySeriesStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := s.Append(ctx, "BTC", float64(i), base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.Range(ctx, "BTC", base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Value != 2 || got[2].Value != 4 {
		t.Errorf("range order = %v..%v, want oldest-first 2..4", got[0].Value, got[2].Value)
	}
}

func TestSeriesStoreMaxPerAsset(t *testing.T) {
	s := NewMemorySeriesStore(WithMaxPerAsset(3))
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		if _, err := s.Append(ctx, "BTC", float64(i), base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	win, err := s.Window(ctx, "BTC", 100)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(win) != 3 {
		t.Fatalf("len = %d, want 3", len(win))
	}
	if win[0].Value != 9 {
		t.Errorf("newest = %v, want 9", win[0].Value)
	}
}
