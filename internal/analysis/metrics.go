// Package analysis derives trends, risks and the next precipitation window
// from the fused snapshot and the hourly/daily series. Every output is
// individually optional: a missing input leaves its output unavailable.
package analysis

import (
	"time"

	"github.com/i474232898/weather-briefing/internal/weather"
)

// Trend classifies a delta against a symmetric step.
type Trend string

const (
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
	TrendRising  Trend = "rising"
)

// SurfaceRisk is the fog/icing indicator.
type SurfaceRisk string

const (
	RiskNone  SurfaceRisk = "none"
	RiskFog   SurfaceRisk = "fog"
	RiskIcing SurfaceRisk = "icing"
)

// PrecipitationType is derived from the temperature at the window start.
type PrecipitationType string

const (
	PrecipitationRain    PrecipitationType = "rain"
	PrecipitationMixed   PrecipitationType = "mixed"
	PrecipitationSnow    PrecipitationType = "snow"
	PrecipitationUnknown PrecipitationType = "unknown"
)

// Delta is now minus the value Hours ago.
type Delta struct {
	Hours int
	Value float64
	Valid bool
}

// TrendDelta is a Delta with its classification.
type TrendDelta struct {
	Delta
	Trend Trend
}

// Surface holds the dew-point spread and the resulting risk.
type Surface struct {
	Risk   SurfaceRisk
	Spread float64
	Valid  bool
}

// PrecipitationWindow describes the next run of qualifying hours.
// Valid=false means the inputs were missing; Found=false with Valid=true
// means no hour qualified within the horizon.
type PrecipitationWindow struct {
	Valid       bool
	Found       bool
	Type        PrecipitationType
	Probability weather.Measure
	// Intensity is the amount at the start hour in mm.
	Intensity   weather.Measure
	StartOffset int
	EndOffset   int
	Start       time.Time
	End         time.Time
}

// Metrics is recomputed on every run.
type Metrics struct {
	TemperatureDeltas        []Delta
	Pressure                 TrendDelta
	PressureDay              Delta
	Humidity                 TrendDelta
	AccumulatedPrecipitation Delta
	Surface                  Surface
	Precipitation            PrecipitationWindow

	// Tomorrow and Outlook come from the daily summary; Outlook lists the
	// days after today in order.
	Tomorrow      weather.Day
	TomorrowValid bool
	Outlook       []weather.Day
}

// TemperatureDelta returns the delta for the given horizon.
func (m Metrics) TemperatureDelta(hours int) (float64, bool) {
	for _, d := range m.TemperatureDeltas {
		if d.Hours == hours && d.Valid {
			return d.Value, true
		}
	}
	return 0, false
}

// Thresholds holds the numeric constants of every derivation.
type Thresholds struct {
	TemperatureHorizons []int

	PressureWindow int
	PressureStep   float64

	HumidityWindow int
	HumidityStep   float64

	AccumulationHours int

	FogSpread    float64
	IcingSurface float64

	PrecipitationHorizon     int
	PrecipitationIntensity   float64
	PrecipitationProbability float64
	SnowMax                  float64
	MixedMax                 float64

	OutlookDays int
}

// DefaultThresholds returns the stock configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TemperatureHorizons:      []int{24, 72},
		PressureWindow:           3,
		PressureStep:             1.0,
		HumidityWindow:           24,
		HumidityStep:             10,
		AccumulationHours:        24,
		FogSpread:                2.0,
		IcingSurface:             0,
		PrecipitationHorizon:     24,
		PrecipitationIntensity:   0.1,
		PrecipitationProbability: 50,
		SnowMax:                  -1,
		MixedMax:                 1,
		OutlookDays:              6,
	}
}
