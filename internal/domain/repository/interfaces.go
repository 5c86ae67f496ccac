package repository

import (
	"context"
	"time"

	"MarketPulse/internal/domain/models"
)

// SeriesStore is the append-only, per-asset ordered log of observations.
// Append is the only mutator. Reads return snapshots: a slice returned by
// Window or Range never changes when a later append happens.
type SeriesStore interface {
	// Append records one observation. A zero `at` gets a monotonic
	// timestamp assigned by the store.
	Append(ctx context.Context, asset string, value float64, at time.Time) (models.Observation, error)

	// Latest returns the most recent observation, or ErrNotFound if the
	// asset has never been observed.
	Latest(ctx context.Context, asset string) (models.Observation, error)

	// Window returns the last n observations newest-first, length
	// min(n, available). Unknown assets yield an empty slice.
	Window(ctx context.Context, asset string, n int) ([]models.Observation, error)

	// Range returns observations with at >= since, oldest-first.
	Range(ctx context.Context, asset string, since time.Time) ([]models.Observation, error)
}

// AlertStore is the catalogue of user-owned threshold rules.
type AlertStore interface {
	Create(ctx context.Context, owner models.UserID, asset string, cmp models.Comparator, target float64) (models.AlertRule, error)
	ListFor(ctx context.Context, owner models.UserID) ([]models.AlertRule, error)

	// Delete removes a rule. ErrNotFound for an unknown id, ErrForbidden
	// when the caller does not own the rule.
	Delete(ctx context.Context, id uint64, owner models.UserID) error
}

// Archive is long-horizon persistence for observations. It is best-effort
// and never the source of truth for the in-memory series contracts.
// Writers batch: StoreBatch is the only insert path.
type Archive interface {
	StoreBatch(ctx context.Context, os []models.Observation) error
	Query(ctx context.Context, asset string, from, to time.Time, limit int) ([]models.Observation, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher relays observations to downstream consumers (other instances,
// external pipelines).
type Publisher interface {
	Publish(ctx context.Context, o models.Observation) error
	Close() error
}

type Metrics interface {
	RecordObservation(asset string, value float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordAlertTriggered(asset string)
	SetActiveStreams(n int)
}
