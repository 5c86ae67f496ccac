package models

// Requests for market HTTP endpoints. Defined in domain for consistency and reuse.

type PriceInput struct {
	Asset string  `json:"asset" validate:"required"`
	Value float64 `json:"value" validate:"required,gt=0"`
}

type LatestRequest struct {
	Asset string `param:"asset" json:"asset" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=1000"`
}

type HistoryRequest struct {
	Asset string `param:"asset" json:"asset" validate:"required"`
	Hours int    `query:"hours" json:"hours" default:"24" validate:"gte=1,lte=720"`
	// Since is an optional RFC3339 or unix-seconds timestamp. When set
	// and parseable it overrides Hours.
	Since string `query:"since" json:"since"`
}

type SummaryRequest struct {
	Asset string `param:"asset" json:"asset" validate:"required"`
}

type AlertCreateRequest struct {
	Asset     string  `json:"asset" validate:"required"`
	Condition string  `json:"condition" validate:"required,oneof=above below"`
	Target    float64 `json:"target"` // unconstrained; zero is a legitimate threshold
}
