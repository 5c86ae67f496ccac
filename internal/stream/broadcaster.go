package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	xlogger "MarketPulse/pkg/logger"
)

// Sink is the deliverable endpoint of one subscription. Deliver returning
// an error closes the subscription.
type Sink interface {
	Deliver(o models.Observation) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(o models.Observation) error

func (f SinkFunc) Deliver(o models.Observation) error { return f(o) }

// Subscription is one live client registration for an asset's stream.
// Lifecycle: created Streaming, transitions to Closed on cancellation or
// delivery error, and is then deregistered. Subscriptions never interact
// with each other; a slow or dead sink only ever affects itself.
type Subscription struct {
	id    uint64
	asset string
	sink  Sink

	closeOnce sync.Once
	closedCh  chan struct{}
}

// Asset returns the asset this subscription streams.
func (s *Subscription) Asset() string { return s.asset }

// Done is closed once the subscription has transitioned to Closed.
func (s *Subscription) Done() <-chan struct{} { return s.closedCh }

// Close cancels the subscription. Safe to call more than once and from
// any goroutine; the poll loop observes it at the next interval boundary.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { close(s.closedCh) })
}

// Broadcaster maintains per-asset subscriber sets and runs one poll loop
// per subscription: every interval it reads the latest observation and
// delivers it to the sink. Intervals with no data yet are skipped
// silently.
type Broadcaster struct {
	store    domrepo.SeriesStore
	metrics  domrepo.Metrics
	logger   *xlogger.Logger
	interval time.Duration

	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	wg     sync.WaitGroup
}

// BroadcasterOption configures Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithPushInterval sets the delivery cadence.
func WithPushInterval(d time.Duration) BroadcasterOption {
	return func(b *Broadcaster) {
		if d > 0 {
			b.interval = d
		}
	}
}

// NewBroadcaster creates a new Broadcaster instance.
func NewBroadcaster(store domrepo.SeriesStore, metrics domrepo.Metrics, logger *xlogger.Logger, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		store:    store,
		metrics:  metrics,
		logger:   logger,
		interval: 5 * time.Second,
		subs:     make(map[uint64]*Subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a sink for an asset and starts its poll loop. The
// returned subscription closes when the sink errors, Close is called, or
// ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, asset string, sink Sink) *Subscription {
	b.mu.Lock()
	b.nextID++
	sub := &Subscription{
		id:       b.nextID,
		asset:    asset,
		sink:     sink,
		closedCh: make(chan struct{}),
	}
	b.subs[sub.id] = sub
	n := len(b.subs)
	b.mu.Unlock()
	b.metrics.SetActiveStreams(n)

	b.wg.Add(1)
	go b.stream(ctx, sub)
	return sub
}

func (b *Broadcaster) stream(ctx context.Context, sub *Subscription) {
	defer b.wg.Done()
	defer b.deregister(sub)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.closedCh:
			return
		case <-ticker.C:
			latest, err := b.store.Latest(ctx, sub.asset)
			if errors.Is(err, domrepo.ErrNotFound) {
				continue // nothing observed yet; retry next interval
			}
			if err != nil {
				b.metrics.RecordError("stream_read")
				continue
			}
			if err := sub.sink.Deliver(latest); err != nil {
				b.logger.Debug("subscriber gone", xlogger.String("asset", sub.asset), xlogger.Error(err))
				return
			}
		}
	}
}

func (b *Broadcaster) deregister(sub *Subscription) {
	sub.Close()
	b.mu.Lock()
	delete(b.subs, sub.id)
	n := len(b.subs)
	b.mu.Unlock()
	b.metrics.SetActiveStreams(n)
}

// ActiveSubscriptions returns the current number of live subscriptions.
func (b *Broadcaster) ActiveSubscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Shutdown closes every subscription and waits for their loops to exit.
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	for _, sub := range b.subs {
		sub.Close()
	}
	b.mu.Unlock()
	b.wg.Wait()
}
