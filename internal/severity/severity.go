// Package severity evaluates independent hazard ladders against the
// snapshot and the derived metrics.
package severity

import (
	"fmt"
	"slices"

	"github.com/i474232898/weather-briefing/internal/analysis"
	"github.com/i474232898/weather-briefing/internal/weather"
)

// Hazard is an alert category.
type Hazard string

const (
	HazardWind        Hazard = "wind"
	HazardGeomagnetic Hazard = "geomagnetic"
	HazardTemperature Hazard = "temperature"
	HazardIcing       Hazard = "icing"
)

// Tier orders alert levels; a higher value is more severe.
type Tier int

const (
	TierNone Tier = iota
	TierCaution
	TierSevere
)

func (t Tier) String() string {
	switch t {
	case TierCaution:
		return "caution"
	case TierSevere:
		return "severe"
	default:
		return "none"
	}
}

// ParseTier accepts "caution" or "severe".
func ParseTier(s string) (Tier, error) {
	switch s {
	case "caution":
		return TierCaution, nil
	case "severe":
		return TierSevere, nil
	}
	return TierNone, fmt.Errorf("unknown alert tier %q", s)
}

// Alert is one active hazard. Reason is a short factual description.
type Alert struct {
	Hazard Hazard
	Tier   Tier
	Reason string
}

// Thresholds are the named limits of every ladder.
type Thresholds struct {
	GustCaution float64
	GustSevere  float64

	GeomagneticCaution int
	GeomagneticSevere  int

	HeatCaution float64
	HeatSevere  float64
	ColdCaution float64
	ColdSevere  float64

	// FreezingCodes are WMO codes for freezing drizzle and rain.
	FreezingCodes []int
	FreezingTier  Tier
	// The condition-based icing rule: temperature at or below IcingAirMax,
	// soil below IcingSoilBelow and some precipitation in the last hours.
	IcingAirMax    float64
	IcingSoilBelow float64
	IcingTier      Tier
}

// DefaultThresholds returns the stock ladders.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GustCaution:        54,
		GustSevere:         90,
		GeomagneticCaution: 1,
		GeomagneticSevere:  3,
		HeatCaution:        30,
		HeatSevere:         35,
		ColdCaution:        -15,
		ColdSevere:         -25,
		FreezingCodes:      []int{56, 57, 66, 67},
		FreezingTier:       TierSevere,
		IcingAirMax:        1,
		IcingSoilBelow:     0,
		IcingTier:          TierCaution,
	}
}

// Classify returns at most one alert per hazard, in hazard order. Hazards
// whose inputs are missing are skipped.
func Classify(snap weather.Snapshot, m analysis.Metrics, th Thresholds) []Alert {
	var alerts []Alert
	for _, a := range []Alert{
		wind(snap, th),
		geomagnetic(snap, th),
		temperature(snap, th),
		icing(snap, m, th),
	} {
		if a.Tier > TierNone {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

func wind(snap weather.Snapshot, th Thresholds) Alert {
	a := Alert{Hazard: HazardWind}
	gust, ok := snap.WindGusts.Get()
	if !ok {
		return a
	}
	switch {
	case gust >= th.GustSevere:
		a.Tier = TierSevere
	case gust >= th.GustCaution:
		a.Tier = TierCaution
	default:
		return a
	}
	a.Reason = fmt.Sprintf("gusts %.0f km/h", gust)
	return a
}

func geomagnetic(snap weather.Snapshot, th Thresholds) Alert {
	a := Alert{Hazard: HazardGeomagnetic}
	if !snap.Geomagnetic.Scale.Valid {
		return a
	}
	g := snap.Geomagnetic.Scale.Value
	switch {
	case g >= th.GeomagneticSevere:
		a.Tier = TierSevere
	case g >= th.GeomagneticCaution:
		a.Tier = TierCaution
	default:
		return a
	}
	a.Reason = fmt.Sprintf("geomagnetic storm G%d", g)
	return a
}

func temperature(snap weather.Snapshot, th Thresholds) Alert {
	a := Alert{Hazard: HazardTemperature}
	t, ok := snap.Temperature.Get()
	if !ok {
		return a
	}
	switch {
	case t >= th.HeatSevere || t <= th.ColdSevere:
		a.Tier = TierSevere
	case t >= th.HeatCaution || t <= th.ColdCaution:
		a.Tier = TierCaution
	default:
		return a
	}
	if t > 0 {
		a.Reason = fmt.Sprintf("heat %.1f°C", t)
	} else {
		a.Reason = fmt.Sprintf("frost %.1f°C", t)
	}
	return a
}

func icing(snap weather.Snapshot, m analysis.Metrics, th Thresholds) Alert {
	a := Alert{Hazard: HazardIcing}
	if snap.Condition.Valid && slices.Contains(th.FreezingCodes, snap.Condition.Value) {
		a.Tier = th.FreezingTier
		a.Reason = fmt.Sprintf("freezing precipitation (WMO %d)", snap.Condition.Value)
		return a
	}

	t, okT := snap.Temperature.Get()
	soil, okSoil := snap.SoilTemperature.Get()
	acc := m.AccumulatedPrecipitation
	if !okT || !okSoil || !acc.Valid {
		return a
	}
	if t <= th.IcingAirMax && soil < th.IcingSoilBelow && acc.Value > 0 {
		a.Tier = th.IcingTier
		a.Reason = fmt.Sprintf("wet surface %.1f mm at soil %.1f°C", acc.Value, soil)
	}
	return a
}
