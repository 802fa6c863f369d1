package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/weather-briefing/internal/observability"
)

// Gateway acquires each telemetry category from an ordered provider chain.
// Providers are tried strictly in order and there are no retries: the next
// provider is the only recovery.
type Gateway struct {
	forecasts   []Provider[Forecast]
	geomagnetic []Provider[Geomagnetic]
	airQuality  []Provider[AirQuality]

	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewGateway creates a Gateway. timeout bounds every single provider call.
func NewGateway(
	forecasts []Provider[Forecast],
	geomagnetic []Provider[Geomagnetic],
	airQuality []Provider[AirQuality],
	timeout time.Duration,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Gateway {
	return &Gateway{
		forecasts:   forecasts,
		geomagnetic: geomagnetic,
		airQuality:  airQuality,
		timeout:     timeout,
		logger:      logger,
		metrics:     metrics,
	}
}

// Acquire builds the snapshot and series for loc at now. Losing the
// foundational weather chain returns an *AcquisitionError wrapping
// ErrFatalAcquisition; other categories degrade into Snapshot.Gaps.
func (g *Gateway) Acquire(ctx context.Context, loc Location, now time.Time) (Acquisition, error) {
	fc, fcSource, err := fetchFirst(ctx, g, CategoryWeather, loc, g.forecasts)
	if err != nil {
		return Acquisition{}, err
	}

	g.logger.Debug("forecast acquired",
		"provider", fcSource,
		"hours_past", fc.Hourly.Temperature.Past(),
		"hours_ahead", fc.Hourly.Temperature.Future(),
		"days_ahead", fc.Daily.Ahead(),
	)

	var gaps []Category
	sources := map[Category]string{CategoryWeather: fcSource}

	var geoPtr *Geomagnetic
	geo, geoSource, err := fetchFirst(ctx, g, CategoryGeomagnetic, loc, g.geomagnetic)
	if err != nil {
		g.logger.Warn("category degraded", "category", CategoryGeomagnetic, "error", err)
		gaps = append(gaps, CategoryGeomagnetic)
	} else {
		geoPtr = &geo
		sources[CategoryGeomagnetic] = geoSource
	}

	var airPtr *AirQuality
	air, airSource, err := fetchFirst(ctx, g, CategoryAirQuality, loc, g.airQuality)
	if err != nil {
		g.logger.Warn("category degraded", "category", CategoryAirQuality, "error", err)
		gaps = append(gaps, CategoryAirQuality)
	} else {
		airPtr = &air
		sources[CategoryAirQuality] = airSource
	}

	snap := AssembleSnapshot(loc, now, fc.Current, geoPtr, airPtr)
	snap = FillFromSeries(snap, fc.Hourly)
	snap.Sources = sources
	snap.Gaps = gaps

	return Acquisition{Snapshot: snap, Hourly: fc.Hourly, Daily: fc.Daily}, nil
}

// fetchFirst walks the chain and returns the first well-formed payload.
func fetchFirst[T any](ctx context.Context, g *Gateway, cat Category, loc Location, providers []Provider[T]) (T, string, error) {
	var (
		zero    T
		lastErr error = errors.New("no providers configured")
		last    string
	)

	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		last = p.Name()
		v, err := fetchOne(ctx, g.timeout, p, loc)
		outcome := classifyOutcome(err)
		g.metrics.ProviderRequests.WithLabelValues(string(cat), p.Name(), outcome).Inc()

		if err == nil {
			g.logger.Debug("provider succeeded", "category", cat, "provider", p.Name())
			return v, p.Name(), nil
		}

		g.logger.Warn("provider failed, trying next",
			"category", cat,
			"provider", p.Name(),
			"outcome", outcome,
			"error", err,
		)
		lastErr = err
	}

	if cat.Foundational() {
		lastErr = errors.Join(ErrFatalAcquisition, lastErr)
	}
	return zero, "", &AcquisitionError{Category: cat, Provider: last, Err: lastErr}
}

// fetchOne bounds a single provider call with the per-call timeout.
func fetchOne[T any](ctx context.Context, timeout time.Duration, p Provider[T], loc Location) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	v, err := p.Fetch(ctx, loc)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", p.Name(), err)
	}
	return v, nil
}

func classifyOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotConfigured):
		return "skipped"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrShortSeries):
		return "invalid"
	default:
		return "error"
	}
}
