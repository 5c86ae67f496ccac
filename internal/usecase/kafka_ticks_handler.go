package usecase

import (
	"context"
	"encoding/json"
	"time"

	drepo "MarketPulse/internal/domain/repository"
	pkgkafka "MarketPulse/pkg/kafka"
)

// KafkaTicksHandler ingests relayed observations from the ticks topic into
// the local series store. It is used on instances that receive their feed
// from another producer instead of running a generator.
type KafkaTicksHandler struct {
	topic   string
	store   drepo.SeriesStore
	metrics drepo.Metrics
}

func NewKafkaTicksHandler(topic string, store drepo.SeriesStore, metrics drepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// incoming message schema: {asset, t, v}, t in ms or s
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Asset string  `json:"asset"`
		T     int64   `json:"t"`
		V     float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("relay_unmarshal")
		return err
	}

	at := time.UnixMilli(m.T)
	if m.T < 1e11 { // seconds
		at = time.Unix(m.T, 0)
	}
	h.metrics.RecordLatency("relay_e2e_seconds", time.Since(at).Seconds())

	o, err := h.store.Append(ctx, m.Asset, m.V, at.UTC())
	if err != nil {
		h.metrics.RecordError("relay_append")
		return err
	}
	h.metrics.RecordObservation(o.Asset, o.Value)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
