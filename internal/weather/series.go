package weather

import (
	"errors"
	"fmt"
	"time"
)

// ErrShortSeries is returned when a provider array does not cover the
// required window around the current hour.
var ErrShortSeries = errors.New("series does not cover required window")

// Series is an hourly (or daily) array addressed by signed offset from the
// current slot. The zero value is an unavailable series.
type Series struct {
	values []float64
	anchor int
}

// NewSeries builds a series from raw provider values where anchor is the
// index of the current slot. Every value in [anchor-past, anchor+future]
// must be present; a null anywhere inside that window rejects the field.
// Values outside the window are dropped.
func NewSeries(raw []*float64, anchor, past, future int) (Series, error) {
	if anchor < 0 || anchor >= len(raw) {
		return Series{}, fmt.Errorf("%w: anchor %d outside %d values", ErrShortSeries, anchor, len(raw))
	}
	lo, hi := anchor-past, anchor+future
	if lo < 0 || hi >= len(raw) {
		return Series{}, fmt.Errorf("%w: need -%d..+%d around index %d, have %d values",
			ErrShortSeries, past, future, anchor, len(raw))
	}

	values := make([]float64, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		if raw[i] == nil {
			return Series{}, fmt.Errorf("%w: gap at offset %d", ErrShortSeries, i-anchor)
		}
		values = append(values, *raw[i])
	}
	return Series{values: values, anchor: past}, nil
}

// SeriesOf builds a series from already validated values.
func SeriesOf(values []float64, anchor int) Series {
	if anchor < 0 || anchor >= len(values) {
		return Series{}
	}
	return Series{values: append([]float64(nil), values...), anchor: anchor}
}

// Available reports whether the series holds any data.
func (s Series) Available() bool {
	return len(s.values) > 0
}

// At returns the value at offset hours from now. Out-of-range access
// reports false instead of indexing past the window.
func (s Series) At(offset int) (float64, bool) {
	i := s.anchor + offset
	if len(s.values) == 0 || i < 0 || i >= len(s.values) {
		return 0, false
	}
	return s.values[i], true
}

// Measure is At wrapped as an optional reading.
func (s Series) Measure(offset int) Measure {
	v, ok := s.At(offset)
	if !ok {
		return Measure{}
	}
	return Some(v)
}

// Past is the number of slots available before now.
func (s Series) Past() int {
	if len(s.values) == 0 {
		return 0
	}
	return s.anchor
}

// Future is the number of slots available after now.
func (s Series) Future() int {
	if len(s.values) == 0 {
		return 0
	}
	return len(s.values) - s.anchor - 1
}

// HourlySeries holds the retrospective and prospective hourly window,
// one series per variable. Now is the start of the current hour.
type HourlySeries struct {
	Now time.Time

	Temperature              Series
	Humidity                 Series
	DewPoint                 Series
	Pressure                 Series
	Precipitation            Series
	PrecipitationProbability Series
	WindGusts                Series
	CloudCover               Series
	SoilTemperature          Series
	WeatherCode              Series
}

// HourAt returns the wall time of the slot at offset.
func (h HourlySeries) HourAt(offset int) time.Time {
	return h.Now.Add(time.Duration(offset) * time.Hour)
}

// Day holds per-day aggregates.
type Day struct {
	Date                     time.Time
	TemperatureMax           Measure
	TemperatureMin           Measure
	PrecipitationSum         Measure
	PrecipitationProbability Measure
	WindSpeedMax             Measure
	WindGustsMax             Measure
	Sunrise                  time.Time
	Sunset                   time.Time
}

// DailySummary is indexed by day offset from today.
type DailySummary struct {
	days  []Day
	today int
}

// NewDailySummary builds a summary where today is the index of the current day.
func NewDailySummary(days []Day, today int) DailySummary {
	if today < 0 || today >= len(days) {
		return DailySummary{}
	}
	return DailySummary{days: days, today: today}
}

// Day returns the aggregates offset days from today.
func (d DailySummary) Day(offset int) (Day, bool) {
	i := d.today + offset
	if len(d.days) == 0 || i < 0 || i >= len(d.days) {
		return Day{}, false
	}
	return d.days[i], true
}

// Ahead is the number of days available after today.
func (d DailySummary) Ahead() int {
	if len(d.days) == 0 {
		return 0
	}
	return len(d.days) - d.today - 1
}
