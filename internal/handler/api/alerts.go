package api

import (
	"errors"
	"strconv"

	models "MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertsHandler serves rule management and the check-now endpoint. Every
// route requires a resolved principal.
type AlertsHandler struct {
	logger  *xlogger.Logger
	alerts  domrepo.AlertStore
	checker *usecase.AlertChecker
}

func NewAlertsHandler(logger *xlogger.Logger, alerts domrepo.AlertStore, checker *usecase.AlertChecker) *AlertsHandler {
	return &AlertsHandler{logger: logger, alerts: alerts, checker: checker}
}

func (h *AlertsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/alerts")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.DELETE("/:id", h.Delete)
	g.GET("/check", h.Check)
}

func (h *AlertsHandler) Create(c echo.Context) error {
	owner := principal(c)
	if owner == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}

	req := &models.AlertCreateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rule, err := h.alerts.Create(c.Request().Context(), owner, req.Asset, models.Comparator(req.Condition), req.Target)
	if err != nil {
		h.logger.Error("alert create failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, rule)
}

func (h *AlertsHandler) List(c echo.Context) error {
	owner := principal(c)
	if owner == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}

	rules, err := h.alerts.ListFor(c.Request().Context(), owner)
	if err != nil {
		h.logger.Error("alert list failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rules, int64(len(rules)))
}

func (h *AlertsHandler) Delete(c echo.Context) error {
	owner := principal(c)
	if owner == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return xhttp.BadRequestResponse(c, "invalid rule id")
	}

	switch err := h.alerts.Delete(c.Request().Context(), id, owner); {
	case errors.Is(err, domrepo.ErrNotFound):
		return xhttp.NotFoundResponse(c, "rule not found")
	case errors.Is(err, domrepo.ErrForbidden):
		return xhttp.ForbiddenResponse(c, "not the rule owner")
	case err != nil:
		h.logger.Error("alert delete failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

// Check evaluates the caller's rules against the latest observations.
func (h *AlertsHandler) Check(c echo.Context) error {
	owner := principal(c)
	if owner == "" {
		return xhttp.UnauthorizedResponse(c, "missing user identity")
	}

	triggered, err := h.checker.CheckAll(c.Request().Context(), owner)
	if err != nil {
		h.logger.Error("alert check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"alerts": triggered})
}
