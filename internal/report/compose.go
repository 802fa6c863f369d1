// Package report renders the run state into a Telegram Markdown message.
// It performs no I/O.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/i474232898/weather-briefing/internal/analysis"
	"github.com/i474232898/weather-briefing/internal/ledger"
	"github.com/i474232898/weather-briefing/internal/severity"
	"github.com/i474232898/weather-briefing/internal/weather"
)

// Input is everything a report shows.
type Input struct {
	Snapshot weather.Snapshot
	Metrics  analysis.Metrics
	Alerts   []severity.Alert
	Period   weather.Period
	Weekly   bool

	// Narrative is rendered only when IncludeNarrative is set.
	Narrative        string
	IncludeNarrative bool

	Previous       ledger.Summary
	PreviousPeriod weather.Period

	Hashtag string
	Banner  string
}

// Compose builds the message. Midday reports are a short operational
// bulletin; morning and evening reports are the full analytic layout.
func Compose(in Input) string {
	var b strings.Builder

	if in.Banner != "" {
		b.WriteString(in.Banner)
		b.WriteString("\n")
	}
	if in.Hashtag != "" {
		b.WriteString(in.Hashtag)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "*%s*\n\n", title(in))

	if in.Period == weather.PeriodMidday {
		writeOperational(&b, in)
	} else {
		writeAnalytic(&b, in)
	}

	if src := sources(in.Snapshot); src != "" {
		fmt.Fprintf(&b, "\nSource: %s", src)
	}
	return strings.TrimRight(b.String(), "\n")
}

func title(in Input) string {
	name := Escape(in.Snapshot.Location.Name)
	switch {
	case in.Weekly:
		return "📅 WEEKLY FORECAST " + strings.ToUpper(name)
	case in.Period == weather.PeriodMidday:
		return "📍 OPERATIONAL UPDATE " + strings.ToUpper(name)
	case in.Period == weather.PeriodEvening:
		return "🌙 EVENING REVIEW " + strings.ToUpper(name)
	default:
		return "🛰️ MORNING REVIEW " + strings.ToUpper(name)
	}
}

func writeOperational(b *strings.Builder, in Input) {
	s := in.Snapshot
	writeLine(b, temperatureLine(s))
	writeLine(b, windLine(s))
	writeLine(b, geomagneticLine(s))
	writeLine(b, precipitationLine(in.Metrics.Precipitation))
	writeAlerts(b, in.Alerts)
}

func writeAnalytic(b *strings.Builder, in Input) {
	s := in.Snapshot
	m := in.Metrics

	b.WriteString("*1. Current conditions:*\n")
	writeLine(b, temperatureLine(s))
	writeLine(b, windLine(s))
	writeLine(b, pressureLine(s, m.Pressure))
	if v, ok := s.Humidity.Get(); ok {
		writeLine(b, fmt.Sprintf("💧 Humidity: %.0f%%", v))
	}
	if v, ok := s.UVIndex.Get(); ok {
		writeLine(b, fmt.Sprintf("☀️ UV index: %.0f", v))
	}
	if v, ok := s.Visibility.Get(); ok {
		writeLine(b, fmt.Sprintf("👁 Visibility: %.1f km", v/1000))
	}
	writeLine(b, geomagneticLine(s))
	writeLine(b, airQualityLine(s))
	writeLine(b, precipitationLine(m.Precipitation))
	if m.Surface.Valid && m.Surface.Risk != analysis.RiskNone {
		writeLine(b, fmt.Sprintf("🌫 Surface risk: %s", m.Surface.Risk))
	}
	writeAlerts(b, in.Alerts)
	writeLine(b, comparisonLine(s, in.Previous))

	if in.IncludeNarrative {
		b.WriteString("\n*2. Forecaster's analysis:*\n")
		b.WriteString(Escape(in.Narrative))
		b.WriteString("\n")
	}

	if m.TomorrowValid {
		if line := tomorrowLine(m.Tomorrow); line != "" {
			b.WriteString("\n*3. Tomorrow:*\n")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if in.Weekly && len(m.Outlook) > 0 {
		b.WriteString("\n*Week ahead (max):*\n")
		days := make([]string, 0, len(m.Outlook))
		for _, d := range m.Outlook {
			if v, ok := d.TemperatureMax.Get(); ok {
				days = append(days, fmt.Sprintf("%s %.0f°", d.Date.Format("Mon"), v))
			}
		}
		b.WriteString(strings.Join(days, ", "))
		b.WriteString("\n")
	}
}

func writeLine(b *strings.Builder, line string) {
	if line == "" {
		return
	}
	b.WriteString(line)
	b.WriteString("\n")
}

func writeAlerts(b *strings.Builder, alerts []severity.Alert) {
	for _, a := range alerts {
		icon := "⚠️"
		if a.Tier == severity.TierSevere {
			icon = "🚨"
		}
		writeLine(b, fmt.Sprintf("%s %s %s: %s", icon, strings.ToUpper(a.Tier.String()), a.Hazard, Escape(a.Reason)))
	}
}

func temperatureLine(s weather.Snapshot) string {
	t, ok := s.Temperature.Get()
	if !ok {
		return ""
	}
	line := fmt.Sprintf("🌡️ Temperature: %.1f°C", t)
	if feels, ok := s.ApparentTemperature.Get(); ok {
		line += fmt.Sprintf(" (feels like %.1f°C)", feels)
	}
	return line
}

func windLine(s weather.Snapshot) string {
	v, ok := s.WindSpeed.Get()
	if !ok {
		return ""
	}
	line := fmt.Sprintf("💨 Wind: %.0f km/h", v)
	if deg, ok := s.WindDirection.Get(); ok {
		line += " " + Compass(deg)
	}
	if g, ok := s.WindGusts.Get(); ok {
		line += fmt.Sprintf(", gusts %.0f km/h", g)
	}
	return line
}

func pressureLine(s weather.Snapshot, tr analysis.TrendDelta) string {
	p, ok := s.Pressure.Get()
	if !ok {
		return ""
	}
	line := fmt.Sprintf("🧭 Pressure: %.0f hPa", p)
	if tr.Valid {
		line += fmt.Sprintf(" %s %+.1f in %dh", trendArrow(tr.Trend), tr.Value, tr.Hours)
	}
	return line
}

func trendArrow(t analysis.Trend) string {
	switch t {
	case analysis.TrendFalling:
		return "↓"
	case analysis.TrendRising:
		return "↑"
	default:
		return "→"
	}
}

// geomagneticLine is empty on a gap; a degraded category is not reported.
func geomagneticLine(s weather.Snapshot) string {
	if s.HasGap(weather.CategoryGeomagnetic) || !s.Geomagnetic.Scale.Valid {
		return ""
	}
	g := s.Geomagnetic.Scale.Value
	return fmt.Sprintf("🧲 Geomagnetic: G%d (%s)", g, gScaleLabel(g))
}

func gScaleLabel(g int) string {
	switch {
	case g <= 0:
		return "quiet"
	case g == 1:
		return "minor storm"
	case g == 2:
		return "moderate storm"
	case g == 3:
		return "strong storm"
	case g == 4:
		return "severe storm"
	default:
		return "extreme storm"
	}
}

func airQualityLine(s weather.Snapshot) string {
	if s.HasGap(weather.CategoryAirQuality) {
		return ""
	}
	v, ok := s.AirQuality.AQI.Get()
	if !ok {
		return ""
	}
	return fmt.Sprintf("🏭 Air quality: %.0f (%s)", v, aqiLabel(v))
}

func aqiLabel(v float64) string {
	switch {
	case v <= 20:
		return "good"
	case v <= 40:
		return "fair"
	case v <= 60:
		return "moderate"
	case v <= 80:
		return "poor"
	case v <= 100:
		return "very poor"
	default:
		return "extremely poor"
	}
}

func precipitationLine(w analysis.PrecipitationWindow) string {
	if !w.Valid {
		return ""
	}
	if !w.Found {
		return "☔ No precipitation expected"
	}
	line := fmt.Sprintf("☔ %s %s-%s", capitalize(string(w.Type)), w.Start.Format("15:04"), w.End.Add(time.Hour).Format("15:04"))
	if p, ok := w.Probability.Get(); ok {
		line += fmt.Sprintf(", %.0f%%", p)
	}
	return line
}

func comparisonLine(s weather.Snapshot, prev ledger.Summary) string {
	var parts []string
	for _, c := range ledger.Diff(prev, ledger.Summarize(s)) {
		parts = append(parts, fmt.Sprintf("%s %+.1f", strings.ReplaceAll(c.Field, "_", " "), c.Delta))
	}
	if len(parts) == 0 {
		return ""
	}
	return "📊 Since last report: " + strings.Join(parts, ", ")
}

func tomorrowLine(d weather.Day) string {
	var parts []string
	if lo, hi := d.TemperatureMin, d.TemperatureMax; lo.Valid && hi.Valid {
		parts = append(parts, fmt.Sprintf("🌡️ from %.0f° to %.0f°C", lo.Value, hi.Value))
	}
	if p, ok := d.PrecipitationProbability.Get(); ok {
		parts = append(parts, fmt.Sprintf("☔ precipitation %.0f%%", p))
	}
	return strings.Join(parts, "\n")
}

func sources(s weather.Snapshot) string {
	var names []string
	for _, c := range []weather.Category{weather.CategoryWeather, weather.CategoryGeomagnetic, weather.CategoryAirQuality} {
		if n, ok := s.Sources[c]; ok {
			names = append(names, Escape(n))
		}
	}
	return strings.Join(names, ", ")
}

// Compass maps degrees to an 8-point direction.
func Compass(deg float64) string {
	dirs := [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	i := int(math.Floor((math.Mod(deg, 360)+360+22.5)/45)) % 8
	return dirs[i]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
