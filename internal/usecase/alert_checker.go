package usecase

import (
	"context"
	"errors"
	"fmt"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/pkg/queue"
)

// AlertChecker evaluates a user's rules against the latest observations.
// Evaluation is level-triggered: a satisfied condition is reported on
// every check for as long as it remains true. Triggered messages are also
// pushed onto the notification queue, best-effort, when one is configured.
type AlertChecker struct {
	store   drepo.SeriesStore
	alerts  drepo.AlertStore
	metrics drepo.Metrics
	notify  queue.QueueService // optional
}

// NewAlertChecker creates a new AlertChecker instance.
func NewAlertChecker(store drepo.SeriesStore, alerts drepo.AlertStore, metrics drepo.Metrics, notify queue.QueueService) *AlertChecker {
	return &AlertChecker{store: store, alerts: alerts, metrics: metrics, notify: notify}
}

// CheckAll evaluates every rule owned by owner against the latest
// observation of the rule's asset. Rules whose asset has no data yet are
// skipped silently. A user with zero rules gets an empty result.
func (c *AlertChecker) CheckAll(ctx context.Context, owner models.UserID) ([]models.TriggerMessage, error) {
	rules, err := c.alerts.ListFor(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	triggered := make([]models.TriggerMessage, 0)
	for _, rule := range rules {
		latest, err := c.store.Latest(ctx, rule.Asset)
		if errors.Is(err, drepo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("latest %s: %w", rule.Asset, err)
		}

		if !rule.Satisfied(latest.Value) {
			continue
		}

		msg := models.NewTriggerMessage(rule, latest.Value)
		triggered = append(triggered, msg)
		c.metrics.RecordAlertTriggered(rule.Asset)

		if c.notify != nil {
			if err := c.notify.PublishMessage(ctx, TopicAlertTriggered, msg); err != nil {
				c.metrics.RecordError("alert_notify")
			}
		}
	}
	return triggered, nil
}
