package api

import (
	"net/http"

	models "MarketPulse/internal/domain/models"
	"MarketPulse/internal/service/ratelimit"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SummaryHandler serves the combined analytics view. The summarization
// collaborator behind it is slow and rate-limited upstream, so requests
// are token-bucket limited per asset before they reach it.
type SummaryHandler struct {
	logger  *xlogger.Logger
	agg     *usecase.SummaryAggregator
	limiter *ratelimit.Limiter
}

func NewSummaryHandler(logger *xlogger.Logger, agg *usecase.SummaryAggregator) *SummaryHandler {
	return &SummaryHandler{logger: logger, agg: agg, limiter: ratelimit.New()}
}

func (h *SummaryHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ai/market-summary/:asset", h.MarketSummary)
}

func (h *SummaryHandler) MarketSummary(c echo.Context) error {
	req := &models.SummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// 1 request per 2s per asset, small burst
	if !h.limiter.Allow("summary:"+req.Asset, 3, 0.5) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "summary requests throttled, retry shortly")
	}

	res, err := h.agg.MarketSummary(c.Request().Context(), req.Asset)
	if err != nil {
		h.logger.Error("summary usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
