package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-briefing/internal/ledger"
	"github.com/i474232898/weather-briefing/internal/weather"
)

var (
	zone = time.FixedZone("MSK", 3*60*60)
	// 07:20 local, inside the morning window.
	now = time.Date(2026, 4, 13, 4, 20, 0, 0, time.UTC)
)

func newApp(t *testing.T, store ledger.Store) *fiber.App {
	t.Helper()

	reg := prometheus.NewRegistry()
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_runs_total", Help: "test"})
	reg.MustRegister(runs)
	runs.Inc()

	app := fiber.New()
	RegisterRoutes(app, Deps{
		Store:    store,
		Location: weather.Location{Name: "Pinsk", Timezone: zone},
		Periods:  weather.DefaultPeriods(),
		Clock:    clockwork.NewFakeClockAt(now),
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return app
}

func getJSON(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func seededStore() *ledger.MemoryStore {
	key := ledger.Key(now.In(zone), weather.PeriodMorning)
	return ledger.NewMemoryStore(ledger.RunRecord{
		LastSentKey:        key,
		LastPeriod:         weather.PeriodMorning,
		LastPeriodSnapshot: ledger.Summary{"temperature": 4.5},
		Periods: map[weather.Period]ledger.Entry{
			weather.PeriodMorning: {Key: key, Period: weather.PeriodMorning, SentAt: now},
		},
	})
}

func TestHealth(t *testing.T) {
	status, body := getJSON(t, newApp(t, ledger.NewMemoryStore(ledger.RunRecord{})), "/health")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Pinsk", body["location"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newApp(t, ledger.NewMemoryStore(ledger.RunRecord{}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "test_runs_total 1")
}

func TestLedgerRecord(t *testing.T) {
	status, body := getJSON(t, newApp(t, seededStore()), "/api/v1/ledger")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2026-04-13/morning", body["last_sent_key"])
	assert.Equal(t, map[string]any{"temperature": 4.5}, body["last_period_snapshot"])
}

func TestLedgerStatus(t *testing.T) {
	app := newApp(t, seededStore())

	tests := []struct {
		name   string
		target string
		period string
		sent   bool
	}{
		{name: "current period defaults to now", target: "/api/v1/ledger/status", period: "morning", sent: true},
		{name: "explicit period not yet sent", target: "/api/v1/ledger/status?period=evening", period: "evening", sent: false},
		{name: "next day", target: "/api/v1/ledger/status?at=2026-04-14T05:00:00Z", period: "morning", sent: false},
		{name: "unix seconds", target: "/api/v1/ledger/status?at=1776054000", period: "morning", sent: true},
		{name: "outside every window", target: "/api/v1/ledger/status?at=2026-04-13T22:30:00Z", period: "", sent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := getJSON(t, app, tt.target)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.period, body["period"])
			assert.Equal(t, tt.sent, body["already_sent"])
		})
	}
}

func TestLedgerStatusValidation(t *testing.T) {
	app := newApp(t, seededStore())

	for _, target := range []string{
		"/api/v1/ledger/status?at=yesterday",
		"/api/v1/ledger/status?period=night",
	} {
		status, _ := getJSON(t, app, target)
		assert.Equal(t, http.StatusBadRequest, status, target)
	}
}

func TestLedgerCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	status, _ := getJSON(t, newApp(t, ledger.NewFileStore(path)), "/api/v1/ledger")
	assert.Equal(t, http.StatusConflict, status)
}
