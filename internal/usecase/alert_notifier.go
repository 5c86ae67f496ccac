package usecase

import (
	"context"
	"fmt"

	"MarketPulse/internal/domain/models"
	"MarketPulse/pkg/logger"
	"MarketPulse/pkg/queue"
)

// TopicAlertTriggered is the queue message type for fired alert rules.
const TopicAlertTriggered = "alert.triggered"

// AlertNotifierJob drains triggered-alert messages off the notification
// queue and writes them to the application log. It is the delivery end of
// the alert pipeline; swapping in email or webhook delivery only means
// replacing Handle.
type AlertNotifierJob struct {
	logger *logger.Logger
}

// NewAlertNotifierJob creates the queue job for triggered alerts.
func NewAlertNotifierJob(lgr *logger.Logger) *AlertNotifierJob {
	return &AlertNotifierJob{logger: lgr}
}

func (j *AlertNotifierJob) Name() string { return "alert-notifier" }

func (j *AlertNotifierJob) Type() string { return TopicAlertTriggered }

func (j *AlertNotifierJob) Handle(_ context.Context, payload interface{}) error {
	msg, err := queue.ParsePayload[models.TriggerMessage](payload)
	if err != nil {
		return fmt.Errorf("parse trigger payload: %w", err)
	}

	j.logger.Info("alert triggered",
		logger.Int64("rule_id", int64(msg.RuleID)),
		logger.String("asset", msg.Asset),
		logger.Float64("value", msg.Value),
		logger.String("text", msg.Text))
	return nil
}
