package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/middleware"
	"MarketPulse/internal/repository"
	xlogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type noopMetrics struct{}

func (noopMetrics) RecordObservation(string, float64) {}
func (noopMetrics) RecordError(string) {}
func (noopMetrics) RecordLatency(string, float64) {}
func (noopMetrics) RecordAlertTriggered(string) {}
func (noopMetrics) SetActiveStreams(int) {}

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// apiEnvelope mirrors the wire shape of every endpoint response.
type apiEnvelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, e *echo.Echo, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env apiEnvelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, env
}

func marketFixture(t *testing.T) (*echo.Echo, *repository.MemorySeriesStore) {
	t.Helper()
	store := repository.NewMemorySeriesStore()
	pipeline := middleware.NewIngestPipeline(
		&storeProc{store: store},
		noopMetrics{},
		middleware.WithMaxRPS(1000),
	)
	h := NewMarketHandler(testLogger(t), store, nil, pipeline)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, store
}

// storeProc appends straight into the series store.
type storeProc struct {
	store *repository.MemorySeriesStore
}

func (p *storeProc) Process(ctx context.Context, o models.Observation) (models.Observation, error) {
	return p.store.Append(ctx, o.Asset, o.Value, o.At)
}

func TestAddPrice(t *testing.T) {
	e, store := marketFixture(t)

	_, env := doRequest(t, e, http.MethodPost, "/market/price", `{"asset":"BTC","value":42000.5}`, nil)
	if env.Status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", env.Status)
	}

	// The response echoes the observation as stored, timestamp assigned.
	var stored models.Observation
	if err := json.Unmarshal(env.Data, &stored); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if stored.At.IsZero() {
		t.Error("response observation has a zero timestamp")
	}

	latest, err := store.Latest(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Value != 42000.5 {
		t.Errorf("stored value = %v", latest.Value)
	}
	if !stored.At.Equal(latest.At) {
		t.Errorf("response at = %v, store holds %v", stored.At, latest.At)
	}
}

func TestAddPriceThrottledReturns429(t *testing.T) {
	store := repository.NewMemorySeriesStore()
	pipeline := middleware.NewIngestPipeline(
		&storeProc{store: store},
		noopMetrics{},
		middleware.WithMaxRPS(1),
	)
	h := NewMarketHandler(testLogger(t), store, nil, pipeline)
	e := echo.New()
	h.RegisterRoutes(e)

	_, first := doRequest(t, e, http.MethodPost, "/market/price", `{"asset":"BTC","value":42000}`, nil)
	if first.Status != http.StatusCreated {
		t.Fatalf("first status = %d, want 201", first.Status)
	}

	// The second submission lands inside the same rate-limit window and
	// must be rejected, not acknowledged as created.
	_, second := doRequest(t, e, http.MethodPost, "/market/price", `{"asset":"BTC","value":42001}`, nil)
	if second.Status != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Status)
	}

	window, err := store.Window(context.Background(), "BTC", 10)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(window) != 1 {
		t.Fatalf("store holds %d observations, want 1", len(window))
	}
}

func TestAddPriceRejectsInvalid(t *testing.T) {
	e, _ := marketFixture(t)

	for _, body := range []string{
		`{"value":42000}`,
		`{"asset":"BTC"}`,
		`{"asset":"BTC","value":-5}`,
	} {
		_, env := doRequest(t, e, http.MethodPost, "/market/price", body, nil)
		if env.Status != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, env.Status)
		}
	}
}

func TestLatestDefaultLimit(t *testing.T) {
	e, store := marketFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		if _, err := store.Append(ctx, "BTC", float64(41000+i), base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	_, env := doRequest(t, e, http.MethodGet, "/market/latest/BTC", "", nil)
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d", env.Status)
	}

	var obs []models.Observation
	if err := json.Unmarshal(env.Data, &obs); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(obs) != 10 {
		t.Fatalf("len = %d, want default limit 10", len(obs))
	}
	if obs[0].Value != 41014 {
		t.Errorf("newest = %v, want 41014 (newest-first)", obs[0].Value)
	}
}

func TestLatestCustomLimit(t *testing.T) {
	e, store := marketFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := store.Append(ctx, "BTC", float64(41000+i), base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	_, env := doRequest(t, e, http.MethodGet, "/market/latest/BTC?limit=2", "", nil)
	var obs []models.Observation
	if err := json.Unmarshal(env.Data, &obs); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("len = %d, want 2", len(obs))
	}
}

func TestLatestUnknownAssetEmptyList(t *testing.T) {
	e, _ := marketFixture(t)

	_, env := doRequest(t, e, http.MethodGet, "/market/latest/DOGE", "", nil)
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200 with empty list", env.Status)
	}
	var obs []models.Observation
	if err := json.Unmarshal(env.Data, &obs); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("len = %d, want 0", len(obs))
	}
}

func TestHistoryOldestFirst(t *testing.T) {
	e, store := marketFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		at := now.Add(-time.Duration(3-i) * time.Hour)
		if _, err := store.Append(ctx, "BTC", float64(41000+i), at); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	_, env := doRequest(t, e, http.MethodGet, "/market/history/BTC?hours=24", "", nil)
	var obs []models.Observation
	if err := json.Unmarshal(env.Data, &obs); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("len = %d, want 3", len(obs))
	}
	if obs[0].Value != 41000 || obs[2].Value != 41002 {
		t.Errorf("order = %v..%v, want oldest-first", obs[0].Value, obs[2].Value)
	}
}

func TestHistorySinceOverridesHours(t *testing.T) {
	e, store := marketFixture(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old := now.Add(-10 * time.Hour)
	recent := now.Add(-30 * time.Minute)
	if _, err := store.Append(ctx, "BTC", 41000, old); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.Append(ctx, "BTC", 42000, recent); err != nil {
		t.Fatalf("append: %v", err)
	}

	since := now.Add(-time.Hour).Format(time.RFC3339)
	_, env := doRequest(t, e, http.MethodGet, "/market/history/BTC?hours=24&since="+since, "", nil)
	var obs []models.Observation
	if err := json.Unmarshal(env.Data, &obs); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(obs) != 1 || obs[0].Value != 42000 {
		t.Fatalf("obs = %v, want only the recent observation", obs)
	}
}
