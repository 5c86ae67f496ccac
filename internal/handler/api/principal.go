package api

import (
	"MarketPulse/internal/domain/models"

	"github.com/labstack/echo/v4"
)

// The identity collaborator in front of this service resolves credentials
// and forwards an opaque user id. The core never parses tokens.
const principalHeader = "X-User-ID"

// principal extracts the request owner. Empty means unauthenticated.
func principal(c echo.Context) models.UserID {
	return models.UserID(c.Request().Header.Get(principalHeader))
}
