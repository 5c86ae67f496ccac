package models

import "fmt"

// UserID is an opaque principal handed to us by the transport layer.
// The core never parses or validates identity tokens.
type UserID string

// Comparator is the threshold condition of an alert rule.
type Comparator string

const (
	ComparatorAbove Comparator = "above"
	ComparatorBelow Comparator = "below"
)

// AlertRule is a user-owned threshold condition on an asset's price.
// Rules are never mutated after creation; they are only deleted.
type AlertRule struct {
	ID     uint64     `json:"id"`
	Owner  UserID     `json:"-"`
	Asset  string     `json:"asset"`
	Cmp    Comparator `json:"condition"`
	Target float64    `json:"target"`
}

// Satisfied reports whether the rule's condition holds for the given value.
// Unknown comparators never trigger.
func (r AlertRule) Satisfied(value float64) bool {
	switch r.Cmp {
	case ComparatorAbove:
		return value > r.Target
	case ComparatorBelow:
		return value < r.Target
	default:
		return false
	}
}

// TriggerMessage reports one satisfied alert rule.
type TriggerMessage struct {
	RuleID     uint64     `json:"rule_id"`
	Asset      string     `json:"asset"`
	Value      float64    `json:"value"`
	Comparator Comparator `json:"condition"`
	Target     float64    `json:"target"`
	Text       string     `json:"text"`
}

// NewTriggerMessage renders the human-readable trigger text for a rule.
func NewTriggerMessage(r AlertRule, value float64) TriggerMessage {
	return TriggerMessage{
		RuleID:     r.ID,
		Asset:      r.Asset,
		Value:      value,
		Comparator: r.Cmp,
		Target:     r.Target,
		Text:       fmt.Sprintf("%s price is %.2f, alert condition met (%s %.2f)", r.Asset, value, r.Cmp, r.Target),
	}
}
