package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown  Condition = "unknown"
	ConditionClear    Condition = "clear"
	ConditionCloudy   Condition = "cloudy"
	ConditionFog      Condition = "fog"
	ConditionDrizzle  Condition = "drizzle"
	ConditionRain     Condition = "rain"
	ConditionFreezing Condition = "freezing rain"
	ConditionSnow     Condition = "snow"
	ConditionStorm    Condition = "storm"
)

// ConditionFromWMO maps a WMO weather interpretation code to a Condition.
func ConditionFromWMO(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionFog
	case code == 56 || code == 57 || code == 66 || code == 67:
		return ConditionFreezing
	case code >= 51 && code <= 55:
		return ConditionDrizzle
	case (code >= 61 && code <= 65) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}

// Category identifies one independently acquired group of telemetry.
type Category string

const (
	CategoryWeather     Category = "weather"
	CategoryGeomagnetic Category = "geomagnetic"
	CategoryAirQuality  Category = "air_quality"
)

// Foundational reports whether losing the category must abort the run.
func (c Category) Foundational() bool {
	return c == CategoryWeather
}

// Location is the single place the briefing is produced for.
type Location struct {
	Name     string         `json:"name"`
	Lat      float64        `json:"lat"`
	Lon      float64        `json:"lon"`
	Timezone *time.Location `json:"-"`
}

// Measure is a reading that may be absent. The zero value is absent.
type Measure struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Some wraps a present reading.
func Some(v float64) Measure {
	return Measure{Value: v, Valid: true}
}

// FromPtr converts a decoded nullable JSON number.
func FromPtr(v *float64) Measure {
	if v == nil {
		return Measure{}
	}
	return Some(*v)
}

// Get returns the value and whether it is present.
func (m Measure) Get() (float64, bool) {
	return m.Value, m.Valid
}

// Code is an optional integer code (WMO weather code, G-scale).
type Code struct {
	Value int  `json:"value"`
	Valid bool `json:"valid"`
}

// SomeCode wraps a present code.
func SomeCode(v int) Code {
	return Code{Value: v, Valid: true}
}

// Geomagnetic is the space-weather reading.
type Geomagnetic struct {
	// Scale is the NOAA G-scale, 0..5.
	Scale Code    `json:"scale"`
	Kp    Measure `json:"kp"`
}

// AirQuality holds the air pollution reading.
type AirQuality struct {
	// AQI uses the European AQI scale when the provider offers it, otherwise
	// the provider's own index mapped onto it.
	AQI  Measure `json:"aqi"`
	PM25 Measure `json:"pm2_5"`
	PM10 Measure `json:"pm10"`
}

// Current holds the instantaneous readings of the foundational provider.
type Current struct {
	Time                time.Time
	Temperature         Measure
	ApparentTemperature Measure
	Humidity            Measure
	Pressure            Measure
	WindSpeed           Measure
	WindDirection       Measure
	WindGusts           Measure
	CloudCover          Measure
	UVIndex             Measure
	Visibility          Measure
	DewPoint            Measure
	Precipitation       Measure
	SoilTemperature     Measure
	Condition           Code
}

// Forecast is the foundational payload: current readings plus the
// retrospective/prospective hourly window and the daily aggregates.
type Forecast struct {
	Current Current
	Hourly  HourlySeries
	Daily   DailySummary
}

// Snapshot is the fused current-instant view used by every later stage.
// Time is always set; every reading is individually optional.
type Snapshot struct {
	Location Location  `json:"location"`
	Time     time.Time `json:"time"`

	Temperature         Measure `json:"temperature"`
	ApparentTemperature Measure `json:"apparentTemperature"`
	Humidity            Measure `json:"humidity"`
	Pressure            Measure `json:"pressure"`
	WindSpeed           Measure `json:"windSpeed"`
	WindDirection       Measure `json:"windDirection"`
	WindGusts           Measure `json:"windGusts"`
	CloudCover          Measure `json:"cloudCover"`
	UVIndex             Measure `json:"uvIndex"`
	Visibility          Measure `json:"visibility"`
	DewPoint            Measure `json:"dewPoint"`
	Precipitation       Measure `json:"precipitation"`
	SoilTemperature     Measure `json:"soilTemperature"`
	Condition           Code    `json:"condition"`

	Geomagnetic Geomagnetic `json:"geomagnetic"`
	AirQuality  AirQuality  `json:"airQuality"`

	// Sources records which provider supplied each acquired category.
	Sources map[Category]string `json:"sources,omitempty"`
	// Gaps lists the non-foundational categories that could not be acquired.
	Gaps []Category `json:"gaps,omitempty"`
}

// HasGap reports whether the category degraded during acquisition.
func (s Snapshot) HasGap(c Category) bool {
	for _, g := range s.Gaps {
		if g == c {
			return true
		}
	}
	return false
}
