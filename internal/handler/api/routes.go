package api

import (
	xhttp "MarketPulse/pkg/http"

	"github.com/labstack/echo/v4"
)

// Routes aggregates all API handlers into one route registrar.
type Routes struct {
	Health  *HealthHandler
	Market  *MarketHandler
	Alerts  *AlertsHandler
	Summary *SummaryHandler
	Stream  *StreamHandler
}

func NewRoutes(health *HealthHandler, market *MarketHandler, alerts *AlertsHandler, summary *SummaryHandler, stream *StreamHandler) *Routes {
	return &Routes{Health: health, Market: market, Alerts: alerts, Summary: summary, Stream: stream}
}

func (r *Routes) RegisterRoutes(e *echo.Echo) {
	r.Health.RegisterRoutes(e)
	r.Market.RegisterRoutes(e)
	r.Alerts.RegisterRoutes(e)
	r.Summary.RegisterRoutes(e)
	r.Stream.RegisterRoutes(e)
}

var _ xhttp.Handler = (*Routes)(nil)
