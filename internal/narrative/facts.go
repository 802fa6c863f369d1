package narrative

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/weather-briefing/internal/analysis"
	"github.com/i474232898/weather-briefing/internal/ledger"
	"github.com/i474232898/weather-briefing/internal/severity"
	"github.com/i474232898/weather-briefing/internal/weather"
)

// Fact is one labelled statement handed to the backend.
type Fact struct {
	Label string
	Value string
}

// Facts is the structured input of a narrative.
type Facts struct {
	Location string
	Time     time.Time
	Items    []Fact
}

// Add appends a fact.
func (f *Facts) Add(label, format string, args ...any) {
	f.Items = append(f.Items, Fact{Label: label, Value: fmt.Sprintf(format, args...)})
}

// Style selects the tone for a period.
type Style struct {
	Period   weather.Period
	Weekly   bool
	Language string
}

// Instruction is the system preamble for the style.
func (s Style) Instruction() string {
	lang := s.Language
	if lang == "" {
		lang = "English"
	}
	var b strings.Builder
	b.WriteString("You are a professional meteorologist writing for a local news channel. ")
	switch {
	case s.Weekly:
		b.WriteString("Summarize the coming week: the main trend, the warmest and coldest days. ")
	case s.Period == weather.PeriodMorning:
		b.WriteString("Explain what the day holds and how the pressure situation will affect it. ")
	case s.Period == weather.PeriodEvening:
		b.WriteString("Review how the day changed and what to expect overnight and tomorrow. ")
	default:
		b.WriteString("Give a brief situational update. ")
	}
	b.WriteString("Use 2-3 sentences and finish with one practical tip. ")
	b.WriteString("Use only the facts provided. Write in ")
	b.WriteString(lang)
	b.WriteString(".")
	return b.String()
}

// Input is everything BuildFacts reads.
type Input struct {
	Snapshot weather.Snapshot
	Metrics  analysis.Metrics
	Alerts   []severity.Alert
	// Previous is the summary stored for the last published period.
	Previous       ledger.Summary
	PreviousPeriod weather.Period
	Weekly         bool
}

// BuildFacts flattens the run state into plain statements. Thresholds and
// tiers are already resolved; the backend only phrases them.
func BuildFacts(in Input) Facts {
	s := in.Snapshot
	m := in.Metrics
	f := Facts{Location: s.Location.Name, Time: s.Time}

	if v, ok := s.Temperature.Get(); ok {
		f.Add("temperature", "%.1f°C", v)
	}
	if v, ok := s.ApparentTemperature.Get(); ok {
		f.Add("feels like", "%.1f°C", v)
	}
	if v, ok := s.Pressure.Get(); ok {
		f.Add("pressure", "%.0f hPa (standard 1013)", v)
	}
	if m.Pressure.Valid {
		f.Add("pressure trend", "%s, %+.1f hPa over %dh", m.Pressure.Trend, m.Pressure.Value, m.Pressure.Hours)
	}
	if m.PressureDay.Valid {
		f.Add("pressure change", "%+.1f hPa over %dh", m.PressureDay.Value, m.PressureDay.Hours)
	}
	if v, ok := s.Humidity.Get(); ok {
		f.Add("humidity", "%.0f%%", v)
	}
	if m.Humidity.Valid {
		f.Add("humidity trend", "%s over %dh", m.Humidity.Trend, m.Humidity.Hours)
	}
	if v, ok := s.WindSpeed.Get(); ok {
		f.Add("wind", "%.0f km/h", v)
	}
	if v, ok := s.WindGusts.Get(); ok {
		f.Add("gusts", "%.0f km/h", v)
	}
	if s.Condition.Valid {
		f.Add("condition", "%s", weather.ConditionFromWMO(s.Condition.Value))
	}
	for _, d := range m.TemperatureDeltas {
		if d.Valid {
			f.Add("temperature change", "%+.1f°C vs %dh ago", d.Value, d.Hours)
		}
	}
	if m.AccumulatedPrecipitation.Valid {
		f.Add("precipitation last hours", "%.1f mm over %dh", m.AccumulatedPrecipitation.Value, m.AccumulatedPrecipitation.Hours)
	}
	if m.Surface.Valid && m.Surface.Risk != analysis.RiskNone {
		f.Add("surface risk", "%s", m.Surface.Risk)
	}
	if w := m.Precipitation; w.Valid {
		if w.Found {
			f.Add("next precipitation", "%s from %s to %s", w.Type, w.Start.Format("15:04"), w.End.Add(time.Hour).Format("15:04"))
		} else {
			f.Add("next precipitation", "none expected")
		}
	}
	if s.Geomagnetic.Scale.Valid {
		f.Add("geomagnetic", "G%d", s.Geomagnetic.Scale.Value)
	}
	if v, ok := s.AirQuality.AQI.Get(); ok {
		f.Add("air quality", "European AQI %.0f", v)
	}
	for _, a := range in.Alerts {
		f.Add("alert", "%s %s: %s", a.Tier, a.Hazard, a.Reason)
	}
	if m.TomorrowValid {
		if lo, hi := m.Tomorrow.TemperatureMin, m.Tomorrow.TemperatureMax; lo.Valid && hi.Valid {
			f.Add("tomorrow", "%.0f..%.0f°C", lo.Value, hi.Value)
		}
		if p, ok := m.Tomorrow.PrecipitationProbability.Get(); ok {
			f.Add("tomorrow precipitation chance", "%.0f%%", p)
		}
	}
	if in.Weekly {
		var days []string
		for _, d := range m.Outlook {
			if v, ok := d.TemperatureMax.Get(); ok {
				days = append(days, fmt.Sprintf("%s %.0f°C", d.Date.Format("Mon"), v))
			}
		}
		if len(days) > 0 {
			f.Add("week ahead (max)", "%s", strings.Join(days, ", "))
		}
	}
	for _, c := range compare(s, in.Previous) {
		f.Add(fmt.Sprintf("since %s", orPeriod(in.PreviousPeriod)), "%s", c)
	}
	return f
}

func orPeriod(p weather.Period) string {
	if p == weather.PeriodNone {
		return "last report"
	}
	return "last " + string(p) + " report"
}

// compare lists the fields that changed relative to prev.
func compare(s weather.Snapshot, prev ledger.Summary) []string {
	var out []string
	for _, c := range ledger.Diff(prev, ledger.Summarize(s)) {
		out = append(out, fmt.Sprintf("%s %+.1f", c.Field, c.Delta))
	}
	return out
}

// BuildRequest renders facts and style into a backend request.
func BuildRequest(f Facts, s Style) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n", f.Location)
	if !f.Time.IsZero() {
		fmt.Fprintf(&b, "Local time: %s\n", f.Time.Format("Mon 2 Jan 15:04"))
	}
	b.WriteString("Facts:\n")
	for _, it := range f.Items {
		fmt.Fprintf(&b, "- %s: %s\n", it.Label, it.Value)
	}
	return Request{System: s.Instruction(), Prompt: b.String()}
}
