package weather

import "time"

// Acquisition is everything the gateway gathered for one invocation.
type Acquisition struct {
	Snapshot Snapshot
	Hourly   HourlySeries
	Daily    DailySummary
}

// AssembleSnapshot merges the per-category readings into a single Snapshot.
// A nil geomagnetic or air-quality reading leaves those fields absent.
// now is always carried, regardless of the provider timestamp.
func AssembleSnapshot(loc Location, now time.Time, cur Current, geo *Geomagnetic, air *AirQuality) Snapshot {
	snap := Snapshot{
		Location:            loc,
		Time:                now,
		Temperature:         cur.Temperature,
		ApparentTemperature: cur.ApparentTemperature,
		Humidity:            cur.Humidity,
		Pressure:            cur.Pressure,
		WindSpeed:           cur.WindSpeed,
		WindDirection:       cur.WindDirection,
		WindGusts:           cur.WindGusts,
		CloudCover:          cur.CloudCover,
		UVIndex:             cur.UVIndex,
		Visibility:          cur.Visibility,
		DewPoint:            cur.DewPoint,
		Precipitation:       cur.Precipitation,
		SoilTemperature:     cur.SoilTemperature,
		Condition:           cur.Condition,
		Sources:             make(map[Category]string),
	}
	if geo != nil {
		snap.Geomagnetic = *geo
	}
	if air != nil {
		snap.AirQuality = *air
	}
	return snap
}

// FillFromSeries completes missing current readings from the hourly window
// at offset 0. Providers that omit a current field but deliver the hour
// still produce real data; nothing is invented when both are absent.
func FillFromSeries(snap Snapshot, h HourlySeries) Snapshot {
	fill := func(m *Measure, s Series) {
		if !m.Valid {
			*m = s.Measure(0)
		}
	}
	fill(&snap.Temperature, h.Temperature)
	fill(&snap.Humidity, h.Humidity)
	fill(&snap.DewPoint, h.DewPoint)
	fill(&snap.Pressure, h.Pressure)
	fill(&snap.WindGusts, h.WindGusts)
	fill(&snap.CloudCover, h.CloudCover)
	fill(&snap.SoilTemperature, h.SoilTemperature)
	if !snap.Condition.Valid {
		if v, ok := h.WeatherCode.At(0); ok {
			snap.Condition = SomeCode(int(v))
		}
	}
	return snap
}
