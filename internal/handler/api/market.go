package api

import (
	"errors"
	"net/http"
	"time"

	models "MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/middleware"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketHandler serves price ingestion and series queries.
type MarketHandler struct {
	logger  *xlogger.Logger
	store   domrepo.SeriesStore
	archive domrepo.Archive // optional, long-horizon history
	proc    usecase.Proc
}

func NewMarketHandler(logger *xlogger.Logger, store domrepo.SeriesStore, archive domrepo.Archive, proc usecase.Proc) *MarketHandler {
	return &MarketHandler{logger: logger, store: store, archive: archive, proc: proc}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/market")
	g.POST("/price", h.AddPrice)
	g.GET("/latest/:asset", h.Latest)
	g.GET("/history/:asset", h.History)
}

// AddPrice appends an externally supplied observation and returns it as
// stored, timestamp assigned. Throttled submissions are rejected, never
// silently acknowledged.
func (h *MarketHandler) AddPrice(c echo.Context) error {
	req := &models.PriceInput{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	o := models.Observation{Asset: req.Asset, Value: req.Value}
	stored, err := h.proc.Process(c.Request().Context(), o)
	if errors.Is(err, middleware.ErrThrottled) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "price submissions throttled, retry shortly")
	}
	if err != nil {
		h.logger.Error("add price failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, stored)
}

// Latest returns the most recent observations, newest-first.
func (h *MarketHandler) Latest(c echo.Context) error {
	req := &models.LatestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	obs, err := h.store.Window(c.Request().Context(), req.Asset, req.Limit)
	if err != nil {
		h.logger.Error("latest query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, obs)
}

// History returns observations from the last N hours, oldest-first. When
// the in-memory series has nothing for the range and an archive is
// configured, the archive serves it.
func (h *MarketHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	since := xhttp.ParseTimeDefault(req.Since, time.Now().UTC().Add(-time.Duration(req.Hours)*time.Hour))

	obs, err := h.store.Range(ctx, req.Asset, since)
	if err != nil {
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if len(obs) == 0 && h.archive != nil {
		archived, aerr := h.archive.Query(ctx, req.Asset, since, time.Now().UTC(), 10000)
		if aerr != nil {
			h.logger.Warn("archive query failed", xlogger.Error(aerr))
		} else {
			obs = archived
		}
	}
	return xhttp.SuccessResponse(c, obs)
}
