package api

import (
	"context"
	"net/http"
	"time"

	"MarketPulse/internal/domain/repository"
	xlogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness plus a short diagnostic tail: the state
// of the archive backend and the most recent aggregated error logs.
type HealthHandler struct {
	logger  *xlogger.Logger
	archive repository.Archive
}

func NewHealthHandler(logger *xlogger.Logger, archive repository.Archive) *HealthHandler {
	return &HealthHandler{logger: logger, archive: archive}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

type healthResponse struct {
	Status       string                       `json:"status"`
	Archive      string                       `json:"archive"`
	RecentErrors []xlogger.AggregatedLogEntry `json:"recent_errors,omitempty"`
}

func (h *HealthHandler) Health(c echo.Context) error {
	res := healthResponse{Status: "ok", Archive: "disabled"}

	if h.archive != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.archive.Health(ctx); err != nil {
			res.Status = "degraded"
			res.Archive = err.Error()
		} else {
			res.Archive = "ok"
		}
	}

	if collector := h.logger.Collector(); collector != nil {
		res.RecentErrors = collector.Recent()
	}

	return c.JSON(http.StatusOK, res)
}
