package analysis

import (
	"math"

	"github.com/i474232898/weather-briefing/internal/weather"
)

// pressureDayHours is the horizon of the informational pressure delta.
const pressureDayHours = 24

// Derive computes Metrics. It is pure: same inputs, same output.
func Derive(snap weather.Snapshot, hourly weather.HourlySeries, daily weather.DailySummary, th Thresholds) Metrics {
	m := Metrics{
		TemperatureDeltas:        make([]Delta, 0, len(th.TemperatureHorizons)),
		Pressure:                 trend(delta(snap.Pressure, hourly.Pressure, th.PressureWindow), th.PressureStep),
		PressureDay:              delta(snap.Pressure, hourly.Pressure, pressureDayHours),
		Humidity:                 trend(delta(snap.Humidity, hourly.Humidity, th.HumidityWindow), th.HumidityStep),
		AccumulatedPrecipitation: accumulate(hourly.Precipitation, th.AccumulationHours),
		Surface:                  surface(snap, th),
		Precipitation:            nextPrecipitation(hourly, th),
	}
	for _, h := range th.TemperatureHorizons {
		m.TemperatureDeltas = append(m.TemperatureDeltas, delta(snap.Temperature, hourly.Temperature, h))
	}

	m.Tomorrow, m.TomorrowValid = daily.Day(1)
	for i := 1; i <= min(th.OutlookDays, daily.Ahead()); i++ {
		d, _ := daily.Day(i)
		m.Outlook = append(m.Outlook, d)
	}
	return m
}

// delta is now - series(-hours). Either side missing makes it unavailable.
func delta(now weather.Measure, s weather.Series, hours int) Delta {
	d := Delta{Hours: hours}
	past, ok := s.At(-hours)
	if !ok || !now.Valid {
		return d
	}
	d.Value = now.Value - past
	d.Valid = true
	return d
}

func trend(d Delta, step float64) TrendDelta {
	td := TrendDelta{Delta: d}
	if !d.Valid {
		return td
	}
	switch {
	case d.Value <= -step:
		td.Trend = TrendFalling
	case d.Value >= step:
		td.Trend = TrendRising
	default:
		td.Trend = TrendStable
	}
	return td
}

// accumulate sums offsets -hours..-1. A single missing hour voids the sum.
func accumulate(s weather.Series, hours int) Delta {
	d := Delta{Hours: hours}
	if hours <= 0 {
		return d
	}
	var sum float64
	for off := -hours; off < 0; off++ {
		v, ok := s.At(off)
		if !ok {
			return d
		}
		sum += v
	}
	d.Value = sum
	d.Valid = true
	return d
}

func surface(snap weather.Snapshot, th Thresholds) Surface {
	t, okT := snap.Temperature.Get()
	td, okTd := snap.DewPoint.Get()
	if !okT || !okTd {
		return Surface{}
	}

	s := Surface{Spread: math.Abs(t - td), Valid: true, Risk: RiskNone}
	if s.Spread > th.FogSpread {
		return s
	}
	s.Risk = RiskFog
	if soil, ok := snap.SoilTemperature.Get(); ok && soil <= th.IcingSurface {
		s.Risk = RiskIcing
	}
	return s
}

// nextPrecipitation scans forward from the current hour. The first
// qualifying hour starts the window, which then extends over consecutive
// qualifying hours inside the horizon.
func nextPrecipitation(h weather.HourlySeries, th Thresholds) PrecipitationWindow {
	if !h.Precipitation.Available() && !h.PrecipitationProbability.Available() {
		return PrecipitationWindow{}
	}

	qualifies := func(off int) bool {
		if v, ok := h.Precipitation.At(off); ok && v > th.PrecipitationIntensity {
			return true
		}
		if v, ok := h.PrecipitationProbability.At(off); ok && v > th.PrecipitationProbability {
			return true
		}
		return false
	}

	w := PrecipitationWindow{Valid: true}
	start := -1
	for off := 0; off < th.PrecipitationHorizon; off++ {
		if qualifies(off) {
			start = off
			break
		}
	}
	if start < 0 {
		return w
	}

	end := start
	for end+1 < th.PrecipitationHorizon && qualifies(end+1) {
		end++
	}

	w.Found = true
	w.StartOffset = start
	w.EndOffset = end
	w.Start = h.HourAt(start)
	w.End = h.HourAt(end)
	w.Probability = h.PrecipitationProbability.Measure(start)
	w.Intensity = h.Precipitation.Measure(start)
	w.Type = precipitationType(h.Temperature.Measure(start), th)
	return w
}

func precipitationType(t weather.Measure, th Thresholds) PrecipitationType {
	v, ok := t.Get()
	switch {
	case !ok:
		return PrecipitationUnknown
	case v <= th.SnowMax:
		return PrecipitationSnow
	case v <= th.MixedMax:
		return PrecipitationMixed
	default:
		return PrecipitationRain
	}
}
