package narrative

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-briefing/internal/analysis"
	"github.com/i474232898/weather-briefing/internal/ledger"
	"github.com/i474232898/weather-briefing/internal/severity"
	"github.com/i474232898/weather-briefing/internal/weather"
)

func factValue(f Facts, label string) (string, bool) {
	for _, it := range f.Items {
		if it.Label == label {
			return it.Value, true
		}
	}
	return "", false
}

func TestBuildFacts(t *testing.T) {
	now := time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)
	in := Input{
		Snapshot: weather.Snapshot{
			Location:    weather.Location{Name: "Pinsk"},
			Time:        now,
			Temperature: weather.Some(4.5),
			Pressure:    weather.Some(1004),
		},
		Metrics: analysis.Metrics{
			Pressure: analysis.TrendDelta{
				Delta: analysis.Delta{Hours: 3, Value: -2.4, Valid: true},
				Trend: analysis.TrendFalling,
			},
			Outlook: []weather.Day{
				{Date: now.AddDate(0, 0, 1), TemperatureMax: weather.Some(7)},
				{Date: now.AddDate(0, 0, 2), TemperatureMax: weather.Some(9)},
			},
		},
		Alerts:         []severity.Alert{{Hazard: severity.HazardWind, Tier: severity.TierCaution, Reason: "gusts 60 km/h"}},
		Previous:       ledger.Summary{"temperature": 2.5, "pressure": 1004.03},
		PreviousPeriod: weather.PeriodMidday,
		Weekly:         true,
	}

	f := BuildFacts(in)
	assert.Equal(t, "Pinsk", f.Location)

	v, ok := factValue(f, "pressure trend")
	require.True(t, ok)
	assert.Equal(t, "falling, -2.4 hPa over 3h", v)

	v, ok = factValue(f, "alert")
	require.True(t, ok)
	assert.Equal(t, "caution wind: gusts 60 km/h", v)

	v, ok = factValue(f, "week ahead (max)")
	require.True(t, ok)
	assert.Equal(t, "Mon 7°C, Tue 9°C", v)

	v, ok = factValue(f, "since last midday report")
	require.True(t, ok)
	assert.Equal(t, "temperature +2.0", v, "changes that round to zero are not mentioned")

	_, ok = factValue(f, "humidity")
	assert.False(t, ok, "absent readings produce no fact")
}

func TestBuildRequest(t *testing.T) {
	req := BuildRequest(testFacts, Style{Period: weather.PeriodEvening, Language: "Russian"})
	assert.True(t, strings.HasPrefix(req.Prompt, "Location: Pinsk\n"))
	assert.Contains(t, req.System, "overnight")
	assert.Contains(t, req.System, "Write in Russian.")

	weekly := Style{Period: weather.PeriodEvening, Weekly: true}.Instruction()
	assert.Contains(t, weekly, "coming week")
}
