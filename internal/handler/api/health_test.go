package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	xlogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ailingArchive reports an unhealthy backend.
type ailingArchive struct{ err error }

func (a *ailingArchive) StoreBatch(context.Context, []models.Observation) error { return nil }
func (a *ailingArchive) Query(context.Context, string, time.Time, time.Time, int) ([]models.Observation, error) {
	return nil, nil
}
func (a *ailingArchive) Health(context.Context) error { return a.err }
func (a *ailingArchive) Close() error { return nil }

func healthFixture(t *testing.T, lgr *xlogger.Logger, archive *ailingArchive) *echo.Echo {
	t.Helper()
	e := echo.New()
	if archive == nil {
		NewHealthHandler(lgr, nil).RegisterRoutes(e)
	} else {
		NewHealthHandler(lgr, archive).RegisterRoutes(e)
	}
	return e
}

type healthBody struct {
	Status       string                       `json:"status"`
	Archive      string                       `json:"archive"`
	RecentErrors []xlogger.AggregatedLogEntry `json:"recent_errors"`
}

func getHealth(t *testing.T, e *echo.Echo) (int, healthBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v\n%s", err, rec.Body.String())
	}
	return rec.Code, body
}

func TestHealthWithoutArchive(t *testing.T) {
	e := healthFixture(t, testLogger(t), nil)

	code, body := getHealth(t, e)
	if code != http.StatusOK {
		t.Fatalf("code = %d, want 200", code)
	}
	if body.Status != "ok" || body.Archive != "disabled" {
		t.Errorf("body = %+v", body)
	}
}

func TestHealthDegradedOnArchiveFailure(t *testing.T) {
	e := healthFixture(t, testLogger(t), &ailingArchive{err: fmt.Errorf("connection refused")})

	code, body := getHealth(t, e)
	if code != http.StatusOK {
		t.Fatalf("code = %d, want 200", code)
	}
	if body.Status != "degraded" {
		t.Errorf("status = %q, want degraded", body.Status)
	}
	if body.Archive != "connection refused" {
		t.Errorf("archive = %q", body.Archive)
	}
}

func TestHealthReportsRecentErrors(t *testing.T) {
	lgr := testLogger(t)
	lgr.AddCollector(&xlogger.CollectionConfig{TimeInterval: time.Hour})
	defer lgr.RemoveCollector()

	lgr.Error("relay publish failed", xlogger.String("asset", "BTC"))

	e := healthFixture(t, lgr, &ailingArchive{})
	code, body := getHealth(t, e)
	if code != http.StatusOK {
		t.Fatalf("code = %d, want 200", code)
	}
	if body.Status != "ok" || body.Archive != "ok" {
		t.Errorf("body = %+v", body)
	}
	if len(body.RecentErrors) != 1 || body.RecentErrors[0].Message != "relay publish failed" {
		t.Errorf("recent errors = %+v, want the relay failure", body.RecentErrors)
	}
}
