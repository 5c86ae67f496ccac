package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/repository"
	"MarketPulse/internal/usecase"

	"github.com/labstack/echo/v4"
)

func alertsFixture(t *testing.T) (*echo.Echo, *repository.MemorySeriesStore, *repository.MemoryAlertStore) {
	t.Helper()
	series := repository.NewMemorySeriesStore()
	alerts := repository.NewMemoryAlertStore()
	checker := usecase.NewAlertChecker(series, alerts, noopMetrics{}, nil)
	h := NewAlertsHandler(testLogger(t), alerts, checker)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, series, alerts
}

func asUser(user string) map[string]string {
	return map[string]string{"X-User-ID": user}
}

func TestAlertsRequireIdentity(t *testing.T) {
	e, _, _ := alertsFixture(t)

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodPost, "/alerts", `{"asset":"BTC","condition":"above","target":45000}`},
		{http.MethodGet, "/alerts", ""},
		{http.MethodDelete, "/alerts/1", ""},
		{http.MethodGet, "/alerts/check", ""},
	} {
		_, env := doRequest(t, e, tc.method, tc.target, tc.body, nil)
		if env.Status != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", tc.method, tc.target, env.Status)
		}
	}
}

func TestAlertCreateAndList(t *testing.T) {
	e, _, _ := alertsFixture(t)

	_, env := doRequest(t, e, http.MethodPost, "/alerts", `{"asset":"BTC","condition":"above","target":45000}`, asUser("alice"))
	if env.Status != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", env.Status)
	}
	var rule models.AlertRule
	if err := json.Unmarshal(env.Data, &rule); err != nil {
		t.Fatalf("decode rule: %v", err)
	}
	if rule.ID == 0 || rule.Asset != "BTC" || rule.Cmp != models.ComparatorAbove {
		t.Errorf("rule = %+v", rule)
	}

	_, env = doRequest(t, e, http.MethodGet, "/alerts", "", asUser("alice"))
	var list struct {
		Rows  []models.AlertRule `json:"rows"`
		Total int64              `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Rows) != 1 {
		t.Fatalf("list = %+v, want one rule", list)
	}

	// Another user sees nothing.
	_, env = doRequest(t, e, http.MethodGet, "/alerts", "", asUser("bob"))
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 0 {
		t.Errorf("bob sees %d rules, want 0", list.Total)
	}
}

func TestAlertCreateValidation(t *testing.T) {
	e, _, _ := alertsFixture(t)

	for _, body := range []string{
		`{"condition":"above","target":45000}`,
		`{"asset":"BTC","condition":"between","target":45000}`,
	} {
		_, env := doRequest(t, e, http.MethodPost, "/alerts", body, asUser("alice"))
		if env.Status != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, env.Status)
		}
	}
}

func TestAlertCreateZeroTarget(t *testing.T) {
	e, _, _ := alertsFixture(t)

	// A threshold of zero is a legitimate target ("alert when it drops
	// below zero"), not a missing field.
	_, env := doRequest(t, e, http.MethodPost, "/alerts", `{"asset":"FUNDING","condition":"below","target":0}`, asUser("alice"))
	if env.Status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", env.Status)
	}
	var rule models.AlertRule
	if err := json.Unmarshal(env.Data, &rule); err != nil {
		t.Fatalf("decode rule: %v", err)
	}
	if rule.Target != 0 || rule.Cmp != models.ComparatorBelow {
		t.Errorf("rule = %+v, want below/0", rule)
	}
}

func TestAlertDelete(t *testing.T) {
	e, _, alerts := alertsFixture(t)
	ctx := context.Background()

	rule, err := alerts.Create(ctx, "alice", "BTC", models.ComparatorAbove, 45000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	target := "/alerts/" + strconv.FormatUint(rule.ID, 10)

	// Wrong owner.
	_, env := doRequest(t, e, http.MethodDelete, target, "", asUser("bob"))
	if env.Status != http.StatusForbidden {
		t.Fatalf("wrong owner status = %d, want 403", env.Status)
	}

	// Owner deletes; endpoint answers 204 with no body.
	rec, _ := doRequest(t, e, http.MethodDelete, target, "", asUser("alice"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete code = %d, want 204", rec.Code)
	}

	// Gone now.
	_, env = doRequest(t, e, http.MethodDelete, target, "", asUser("alice"))
	if env.Status != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", env.Status)
	}
}

func TestAlertDeleteBadID(t *testing.T) {
	e, _, _ := alertsFixture(t)

	_, env := doRequest(t, e, http.MethodDelete, "/alerts/abc", "", asUser("alice"))
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}

func TestAlertCheckEndpoint(t *testing.T) {
	e, series, alerts := alertsFixture(t)
	ctx := context.Background()

	if _, err := series.Append(ctx, "BTC", 46000, time.Time{}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := alerts.Create(ctx, "alice", "BTC", models.ComparatorAbove, 45000); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, env := doRequest(t, e, http.MethodGet, "/alerts/check", "", asUser("alice"))
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d", env.Status)
	}
	var data struct {
		Alerts []models.TriggerMessage `json:"alerts"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(data.Alerts))
	}
	if data.Alerts[0].Text == "" {
		t.Error("trigger text empty")
	}
}
