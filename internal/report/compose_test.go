package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/weather-briefing/internal/analysis"
	"github.com/i474232898/weather-briefing/internal/ledger"
	"github.com/i474232898/weather-briefing/internal/severity"
	"github.com/i474232898/weather-briefing/internal/weather"
)

var now = time.Date(2026, 3, 8, 7, 10, 0, 0, time.UTC)

func fullInput() Input {
	return Input{
		Snapshot: weather.Snapshot{
			Location:            weather.Location{Name: "Pinsk"},
			Time:                now,
			Temperature:         weather.Some(4.5),
			ApparentTemperature: weather.Some(1.2),
			WindSpeed:           weather.Some(18),
			WindDirection:       weather.Some(200),
			WindGusts:           weather.Some(60),
			Pressure:            weather.Some(1004),
			Humidity:            weather.Some(81),
			Geomagnetic:         weather.Geomagnetic{Scale: weather.SomeCode(1)},
			AirQuality:          weather.AirQuality{AQI: weather.Some(35)},
			Sources: map[weather.Category]string{
				weather.CategoryWeather:     "openmeteo:icon_seamless",
				weather.CategoryGeomagnetic: "swpc-scales",
			},
		},
		Metrics: analysis.Metrics{
			Pressure: analysis.TrendDelta{Delta: analysis.Delta{Hours: 3, Value: -1.6, Valid: true}, Trend: analysis.TrendFalling},
			Precipitation: analysis.PrecipitationWindow{
				Valid: true, Found: true, Type: analysis.PrecipitationRain,
				Start: now.Truncate(time.Hour).Add(5 * time.Hour), End: now.Truncate(time.Hour).Add(7 * time.Hour),
				Probability: weather.Some(70),
			},
			TomorrowValid: true,
			Tomorrow: weather.Day{
				TemperatureMin:           weather.Some(-1),
				TemperatureMax:           weather.Some(6),
				PrecipitationProbability: weather.Some(40),
			},
		},
		Alerts:           []severity.Alert{{Hazard: severity.HazardWind, Tier: severity.TierCaution, Reason: "gusts 60 km/h"}},
		Period:           weather.PeriodMorning,
		Narrative:        "Cyclone_approaching. Take an umbrella.",
		IncludeNarrative: true,
		Previous:         ledger.Summary{"temperature": 2.5},
		Hashtag:          "#weather",
	}
}

func TestCompose_Morning(t *testing.T) {
	msg := Compose(fullInput())

	for _, want := range []string{
		"#weather\n\n*🛰️ MORNING REVIEW PINSK*",
		"🌡️ Temperature: 4.5°C (feels like 1.2°C)",
		"💨 Wind: 18 km/h S, gusts 60 km/h",
		"🧭 Pressure: 1004 hPa ↓ -1.6 in 3h",
		"🧲 Geomagnetic: G1 (minor storm)",
		"🏭 Air quality: 35 (fair)",
		"☔ Rain 12:00-15:00, 70%",
		"⚠️ CAUTION wind: gusts 60 km/h",
		"📊 Since last report: temperature +2.0",
		`Cyclone\_approaching. Take an umbrella.`,
		"🌡️ from -1° to 6°C",
		`Source: openmeteo:icon\_seamless, swpc-scales`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestCompose_GeomagneticGapOmitsLine(t *testing.T) {
	in := fullInput()
	in.Snapshot.Geomagnetic = weather.Geomagnetic{}
	in.Snapshot.Gaps = []weather.Category{weather.CategoryGeomagnetic}
	delete(in.Snapshot.Sources, weather.CategoryGeomagnetic)

	msg := Compose(in)
	assert.NotContains(t, msg, "Geomagnetic")
	assert.Contains(t, msg, "Temperature: 4.5°C")
	assert.Contains(t, msg, "Air quality")
}

func TestCompose_MiddayIsShort(t *testing.T) {
	in := fullInput()
	in.Period = weather.PeriodMidday
	in.IncludeNarrative = false

	msg := Compose(in)
	assert.Contains(t, msg, "OPERATIONAL UPDATE")
	assert.Contains(t, msg, "Temperature")
	assert.NotContains(t, msg, "Pressure")
	assert.NotContains(t, msg, "Tomorrow")
	assert.NotContains(t, msg, "umbrella")
}

func TestCompose_UnavailableNarrativeStillComposes(t *testing.T) {
	in := fullInput()
	in.Narrative = "Analysis is unavailable right now."

	msg := Compose(in)
	assert.Contains(t, msg, "Forecaster's analysis:*\nAnalysis is unavailable right now.")
}

func TestCompose_WeeklyOutlook(t *testing.T) {
	in := fullInput()
	in.Period = weather.PeriodEvening
	in.Weekly = true
	in.Metrics.Outlook = []weather.Day{
		{Date: now.AddDate(0, 0, 1), TemperatureMax: weather.Some(7)},
		{Date: now.AddDate(0, 0, 2), TemperatureMax: weather.Some(9.4)},
	}

	msg := Compose(in)
	assert.Contains(t, msg, "WEEKLY FORECAST")
	assert.Contains(t, msg, "Mon 7°, Tue 9°")
}

func TestCompose_NoPrecipitation(t *testing.T) {
	in := fullInput()
	in.Metrics.Precipitation = analysis.PrecipitationWindow{Valid: true}
	assert.Contains(t, Compose(in), "☔ No precipitation expected")

	in.Metrics.Precipitation = analysis.PrecipitationWindow{}
	assert.NotContains(t, Compose(in), "☔")
}

func TestCompass(t *testing.T) {
	tests := map[float64]string{0: "N", 22.4: "N", 22.5: "NE", 90: "E", 200: "S", 270: "W", 337.5: "N", 359: "N", -45: "NW"}
	for deg, want := range tests {
		assert.Equal(t, want, Compass(deg), "deg=%v", deg)
	}
}

func TestPlainText(t *testing.T) {
	msg := Compose(fullInput())
	plain := PlainText(msg)

	assert.NotContains(t, plain, "*")
	assert.Contains(t, plain, "MORNING REVIEW PINSK")
	assert.Contains(t, plain, "openmeteo:icon_seamless", "escaped underscores survive as text")
	assert.False(t, strings.Contains(plain, `\_`))
}
