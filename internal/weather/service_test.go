package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-briefing/internal/observability"
)

type fakeProvider[T any] struct {
	name  string
	value T
	err   error
	delay time.Duration
	calls int
}

func (f *fakeProvider[T]) Name() string { return f.name }

func (f *fakeProvider[T]) Fetch(ctx context.Context, _ Location) (T, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	return f.value, f.err
}

var (
	testLoc = Location{Name: "Pinsk", Lat: 52.12, Lon: 26.10, Timezone: time.UTC}
	testNow = time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)
)

func testForecast(temp float64) Forecast {
	return Forecast{
		Current: Current{Temperature: Some(temp), WindSpeed: Some(12)},
		Hourly: HourlySeries{
			Now:       testNow.Truncate(time.Hour),
			Humidity:  SeriesOf([]float64{80, 81, 82}, 1),
			DewPoint:  SeriesOf([]float64{1, 2, 3}, 1),
			WindGusts: SeriesOf([]float64{30, 40, 50}, 1),
		},
	}
}

func newTestGateway(fc []Provider[Forecast], geo []Provider[Geomagnetic], air []Provider[AirQuality]) *Gateway {
	return NewGateway(fc, geo, air, 50*time.Millisecond, observability.NopLogger(), observability.NewMetricsForTesting())
}

func TestGateway_FallsBackInOrder(t *testing.T) {
	first := &fakeProvider[Forecast]{name: "icon", err: errors.New("boom")}
	second := &fakeProvider[Forecast]{name: "best_match", value: testForecast(5)}
	third := &fakeProvider[Forecast]{name: "unused", value: testForecast(9)}

	g := newTestGateway(
		[]Provider[Forecast]{first, second, third},
		[]Provider[Geomagnetic]{&fakeProvider[Geomagnetic]{name: "swpc", value: Geomagnetic{Scale: SomeCode(1)}}},
		[]Provider[AirQuality]{&fakeProvider[AirQuality]{name: "air", value: AirQuality{AQI: Some(25)}}},
	)

	acq, err := g.Acquire(context.Background(), testLoc, testNow)
	require.NoError(t, err)

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Zero(t, third.calls, "chain stops at the first success")

	snap := acq.Snapshot
	assert.Equal(t, testNow, snap.Time)
	assert.Equal(t, Some(5), snap.Temperature)
	assert.Equal(t, "best_match", snap.Sources[CategoryWeather])
	assert.Equal(t, SomeCode(1), snap.Geomagnetic.Scale)
	assert.Equal(t, Some(25), snap.AirQuality.AQI)
	assert.Empty(t, snap.Gaps)

	// Missing current readings come from offset 0 of the hourly window.
	assert.Equal(t, Some(81), snap.Humidity)
	assert.Equal(t, Some(40), snap.WindGusts)
}

func TestGateway_NonFoundationalDegrades(t *testing.T) {
	g := newTestGateway(
		[]Provider[Forecast]{&fakeProvider[Forecast]{name: "icon", value: testForecast(5)}},
		[]Provider[Geomagnetic]{&fakeProvider[Geomagnetic]{name: "swpc", err: errors.New("503")}},
		nil,
	)

	acq, err := g.Acquire(context.Background(), testLoc, testNow)
	require.NoError(t, err)

	snap := acq.Snapshot
	assert.True(t, snap.HasGap(CategoryGeomagnetic))
	assert.True(t, snap.HasGap(CategoryAirQuality), "an empty chain is a gap")
	assert.False(t, snap.Geomagnetic.Scale.Valid)
	assert.False(t, snap.AirQuality.AQI.Valid)
	assert.Equal(t, Some(5), snap.Temperature)
}

func TestGateway_FoundationalExhaustedIsFatal(t *testing.T) {
	geo := &fakeProvider[Geomagnetic]{name: "swpc", value: Geomagnetic{Scale: SomeCode(0)}}
	g := newTestGateway(
		[]Provider[Forecast]{
			&fakeProvider[Forecast]{name: "icon", err: ErrInvalidPayload},
			&fakeProvider[Forecast]{name: "best_match", err: errors.New("connection refused")},
		},
		[]Provider[Geomagnetic]{geo},
		nil,
	)

	_, err := g.Acquire(context.Background(), testLoc, testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatalAcquisition)

	var acqErr *AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, CategoryWeather, acqErr.Category)
	assert.Equal(t, "best_match", acqErr.Provider)
	assert.Zero(t, geo.calls, "nothing else is fetched after a fatal failure")
}

func TestGateway_ProviderTimeout(t *testing.T) {
	slow := &fakeProvider[Forecast]{name: "slow", value: testForecast(1), delay: time.Second}
	fast := &fakeProvider[Forecast]{name: "fast", value: testForecast(2)}

	g := newTestGateway([]Provider[Forecast]{slow, fast}, nil, nil)

	acq, err := g.Acquire(context.Background(), testLoc, testNow)
	require.NoError(t, err)
	assert.Equal(t, "fast", acq.Snapshot.Sources[CategoryWeather])
}

func TestClassifyOutcome(t *testing.T) {
	assert.Equal(t, "success", classifyOutcome(nil))
	assert.Equal(t, "skipped", classifyOutcome(ErrNotConfigured))
	assert.Equal(t, "timeout", classifyOutcome(context.DeadlineExceeded))
	assert.Equal(t, "invalid", classifyOutcome(ErrShortSeries))
	assert.Equal(t, "error", classifyOutcome(errors.New("x")))
}

func TestGateway_LogsForecastCoverage(t *testing.T) {
	fc := testForecast(5)
	fc.Hourly.Temperature = SeriesOf([]float64{1, 2, 3, 4, 5}, 3)
	fc.Daily = NewDailySummary([]Day{{}, {}, {}}, 0)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	g := NewGateway(
		[]Provider[Forecast]{&fakeProvider[Forecast]{name: "icon", value: fc}},
		nil, nil, time.Second, logger, observability.NewMetricsForTesting(),
	)

	_, err := g.Acquire(context.Background(), testLoc, testNow)
	require.NoError(t, err)

	var found map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "forecast acquired" {
			found = entry
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "icon", found["provider"])
	assert.Equal(t, 3.0, found["hours_past"])
	assert.Equal(t, 1.0, found["hours_ahead"])
	assert.Equal(t, 2.0, found["days_ahead"])
}
