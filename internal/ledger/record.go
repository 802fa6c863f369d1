// Package ledger persists which (date, period) reports were published and
// the summary of the last one, so reruns inside a period are no-ops and the
// next period can compare against it.
package ledger

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/i474232898/weather-briefing/internal/weather"
)

// ErrCorrupt is returned when the persisted record cannot be decoded.
var ErrCorrupt = errors.New("ledger record is corrupt")

// Summary is the small set of scalar readings kept between periods.
type Summary map[string]float64

// Entry records one successful publication.
type Entry struct {
	Key     string         `json:"key"`
	Period  weather.Period `json:"period"`
	SentAt  time.Time      `json:"sent_at"`
	Summary Summary        `json:"summary,omitempty"`
}

// RunRecord is the persisted state.
type RunRecord struct {
	LastSentKey        string         `json:"last_sent_key"`
	LastPeriod         weather.Period `json:"last_period,omitempty"`
	LastPeriodSnapshot Summary        `json:"last_period_snapshot"`
	// Periods holds the latest entry per period name.
	Periods map[weather.Period]Entry `json:"periods,omitempty"`
	// History is a rolling list of sends, newest last.
	History []Entry `json:"history,omitempty"`
}

// Store loads and saves the record. Load on a store that was never written
// returns an empty record.
type Store interface {
	Load(ctx context.Context) (RunRecord, error)
	Save(ctx context.Context, rec RunRecord) error
}

// Key formats the deduplication key for a local date and period.
func Key(date time.Time, p weather.Period) string {
	return date.Format(time.DateOnly) + "/" + string(p)
}

// Summarize extracts the summary fields from a snapshot. Absent readings
// are left out.
func Summarize(s weather.Snapshot) Summary {
	out := make(Summary)
	put := func(k string, m weather.Measure) {
		if v, ok := m.Get(); ok {
			out[k] = v
		}
	}
	put("temperature", s.Temperature)
	put("apparent_temperature", s.ApparentTemperature)
	put("pressure", s.Pressure)
	put("humidity", s.Humidity)
	put("wind_speed", s.WindSpeed)
	put("wind_gusts", s.WindGusts)
	put("aqi", s.AirQuality.AQI)
	if s.Geomagnetic.Scale.Valid {
		out["geomagnetic_scale"] = float64(s.Geomagnetic.Scale.Value)
	}
	return out
}

// minChange is the smallest difference that survives one-decimal rounding.
const minChange = 0.05

// Change is the movement of one summary field since the previous report.
type Change struct {
	Field string
	Delta float64
}

// Diff compares the fields present in both summaries, sorted by name.
// Movements that would print as zero are left out.
func Diff(prev, cur Summary) []Change {
	if len(prev) == 0 {
		return nil
	}
	fields := make([]string, 0, len(cur))
	for k := range cur {
		if _, ok := prev[k]; ok {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)

	var out []Change
	for _, k := range fields {
		if d := cur[k] - prev[k]; math.Abs(d) >= minChange {
			out = append(out, Change{Field: k, Delta: d})
		}
	}
	return out
}
