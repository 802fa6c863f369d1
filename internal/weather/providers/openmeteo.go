package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/weather-briefing/internal/transport"
	"github.com/i474232898/weather-briefing/internal/weather"
)

const (
	openMeteoForecastURL   = "https://api.open-meteo.com/v1/forecast"
	openMeteoAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

	currentFields = "temperature_2m,relative_humidity_2m,apparent_temperature,surface_pressure," +
		"precipitation,wind_speed_10m,wind_direction_10m,wind_gusts_10m,cloud_cover,uv_index," +
		"visibility,dew_point_2m,soil_temperature_0cm,weather_code"
	hourlyFields = "temperature_2m,relative_humidity_2m,dew_point_2m,surface_pressure,precipitation," +
		"precipitation_probability,wind_gusts_10m,cloud_cover,soil_temperature_0cm,weather_code"
	dailyFields = "temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max," +
		"wind_speed_10m_max,wind_gusts_10m_max,sunrise,sunset"
)

// Window is the number of hours required on each side of the current hour.
type Window struct {
	Past   int
	Future int
}

// DefaultWindow covers the 72h retrospective and 72h prospective horizons.
var DefaultWindow = Window{Past: 72, Future: 72}

// OpenMeteoProvider supplies the foundational forecast for one Open-Meteo model.
type OpenMeteoProvider struct {
	name    string
	model   string
	baseURL string
	window  Window
	client  *transport.Client
}

// NewOpenMeteoProvider creates a forecast provider pinned to model
// (e.g. "icon_seamless"). An empty baseURL selects the public API.
func NewOpenMeteoProvider(client *transport.Client, model, baseURL string, window Window) *OpenMeteoProvider {
	name := "openmeteo"
	if model != "" {
		name = "openmeteo:" + model
	}
	return &OpenMeteoProvider{
		name:    name,
		model:   model,
		baseURL: orDefault(baseURL, openMeteoForecastURL),
		window:  window,
		client:  client,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoForecast struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Current          struct {
		Time                int64    `json:"time" validate:"required"`
		Temperature         *float64 `json:"temperature_2m" validate:"required"`
		Humidity            *float64 `json:"relative_humidity_2m"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
		Pressure            *float64 `json:"surface_pressure"`
		Precipitation       *float64 `json:"precipitation"`
		WindSpeed           *float64 `json:"wind_speed_10m"`
		WindDirection       *float64 `json:"wind_direction_10m"`
		WindGusts           *float64 `json:"wind_gusts_10m"`
		CloudCover          *float64 `json:"cloud_cover"`
		UVIndex             *float64 `json:"uv_index"`
		Visibility          *float64 `json:"visibility"`
		DewPoint            *float64 `json:"dew_point_2m"`
		SoilTemperature     *float64 `json:"soil_temperature_0cm"`
		WeatherCode         *float64 `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		Time                     []int64    `json:"time" validate:"required,min=1"`
		Temperature              []*float64 `json:"temperature_2m" validate:"required"`
		Humidity                 []*float64 `json:"relative_humidity_2m"`
		DewPoint                 []*float64 `json:"dew_point_2m"`
		Pressure                 []*float64 `json:"surface_pressure"`
		Precipitation            []*float64 `json:"precipitation"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		WindGusts                []*float64 `json:"wind_gusts_10m"`
		CloudCover               []*float64 `json:"cloud_cover"`
		SoilTemperature          []*float64 `json:"soil_temperature_0cm"`
		WeatherCode              []*float64 `json:"weather_code"`
	} `json:"hourly"`
	Daily struct {
		Time                     []int64    `json:"time"`
		TemperatureMax           []*float64 `json:"temperature_2m_max"`
		TemperatureMin           []*float64 `json:"temperature_2m_min"`
		PrecipitationSum         []*float64 `json:"precipitation_sum"`
		PrecipitationProbability []*float64 `json:"precipitation_probability_max"`
		WindSpeedMax             []*float64 `json:"wind_speed_10m_max"`
		WindGustsMax             []*float64 `json:"wind_gusts_10m_max"`
		Sunrise                  []int64    `json:"sunrise"`
		Sunset                   []int64    `json:"sunset"`
	} `json:"daily"`
}

// Fetch requests current, hourly and daily data in one call. The current
// temperature and a gap-free hourly temperature window are required; every
// other variable degrades to absent on its own.
func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Forecast, error) {
	values := url.Values{}
	values.Set("latitude", coord(loc.Lat))
	values.Set("longitude", coord(loc.Lon))
	values.Set("current", currentFields)
	values.Set("hourly", hourlyFields)
	values.Set("daily", dailyFields)
	values.Set("timeformat", "unixtime")
	values.Set("timezone", timezoneName(loc))
	values.Set("wind_speed_unit", "kmh")
	values.Set("past_days", fmt.Sprint(daysFor(p.window.Past)))
	values.Set("forecast_days", fmt.Sprint(daysFor(p.window.Future)+1))
	if p.model != "" {
		values.Set("models", p.model)
	}

	var payload openMeteoForecast
	if err := getJSON(ctx, p.client, p.baseURL, values, &payload); err != nil {
		return weather.Forecast{}, err
	}

	tz := loc.Timezone
	if tz == nil {
		tz = time.FixedZone("provider", payload.UTCOffsetSeconds)
	}
	currentTime := time.Unix(payload.Current.Time, 0).In(tz)

	hourly, err := p.hourly(payload, currentTime)
	if err != nil {
		return weather.Forecast{}, err
	}

	c := payload.Current
	cur := weather.Current{
		Time:                currentTime,
		Temperature:         weather.FromPtr(c.Temperature),
		ApparentTemperature: weather.FromPtr(c.ApparentTemperature),
		Humidity:            weather.FromPtr(c.Humidity),
		Pressure:            weather.FromPtr(c.Pressure),
		WindSpeed:           weather.FromPtr(c.WindSpeed),
		WindDirection:       weather.FromPtr(c.WindDirection),
		WindGusts:           weather.FromPtr(c.WindGusts),
		CloudCover:          weather.FromPtr(c.CloudCover),
		UVIndex:             weather.FromPtr(c.UVIndex),
		Visibility:          weather.FromPtr(c.Visibility),
		DewPoint:            weather.FromPtr(c.DewPoint),
		Precipitation:       weather.FromPtr(c.Precipitation),
		SoilTemperature:     weather.FromPtr(c.SoilTemperature),
	}
	if c.WeatherCode != nil {
		cur.Condition = weather.SomeCode(int(*c.WeatherCode))
	}

	return weather.Forecast{
		Current: cur,
		Hourly:  hourly,
		Daily:   daily(payload, currentTime, tz),
	}, nil
}

func (p *OpenMeteoProvider) hourly(payload openMeteoForecast, current time.Time) (weather.HourlySeries, error) {
	h := payload.Hourly
	// The axis follows local wall-clock hours; Truncate would round in UTC
	// and miss it in zones with a fractional offset.
	hour := startOfHour(current).Unix()

	anchor := -1
	for i, ts := range h.Time {
		if ts == hour {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return weather.HourlySeries{}, fmt.Errorf("%w: current hour %d not in hourly axis", weather.ErrInvalidPayload, hour)
	}

	temperature, err := weather.NewSeries(h.Temperature, anchor, p.window.Past, p.window.Future)
	if err != nil {
		return weather.HourlySeries{}, fmt.Errorf("temperature_2m: %w", err)
	}

	optional := func(raw []*float64) weather.Series {
		s, err := weather.NewSeries(raw, anchor, p.window.Past, p.window.Future)
		if err != nil {
			return weather.Series{}
		}
		return s
	}

	return weather.HourlySeries{
		Now:                      time.Unix(hour, 0).In(current.Location()),
		Temperature:              temperature,
		Humidity:                 optional(h.Humidity),
		DewPoint:                 optional(h.DewPoint),
		Pressure:                 optional(h.Pressure),
		Precipitation:            optional(h.Precipitation),
		PrecipitationProbability: optional(h.PrecipitationProbability),
		WindGusts:                optional(h.WindGusts),
		CloudCover:               optional(h.CloudCover),
		SoilTemperature:          optional(h.SoilTemperature),
		WeatherCode:              optional(h.WeatherCode),
	}, nil
}

func startOfHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func daily(payload openMeteoForecast, current time.Time, tz *time.Location) weather.DailySummary {
	d := payload.Daily
	at := func(raw []*float64, i int) weather.Measure {
		if i >= len(raw) {
			return weather.Measure{}
		}
		return weather.FromPtr(raw[i])
	}
	unix := func(raw []int64, i int) time.Time {
		if i >= len(raw) || raw[i] == 0 {
			return time.Time{}
		}
		return time.Unix(raw[i], 0).In(tz)
	}

	y, m, dd := current.Date()
	today := -1
	days := make([]weather.Day, 0, len(d.Time))
	for i, ts := range d.Time {
		date := time.Unix(ts, 0).In(tz)
		if dy, dm, ddd := date.Date(); dy == y && dm == m && ddd == dd {
			today = i
		}
		days = append(days, weather.Day{
			Date:                     date,
			TemperatureMax:           at(d.TemperatureMax, i),
			TemperatureMin:           at(d.TemperatureMin, i),
			PrecipitationSum:         at(d.PrecipitationSum, i),
			PrecipitationProbability: at(d.PrecipitationProbability, i),
			WindSpeedMax:             at(d.WindSpeedMax, i),
			WindGustsMax:             at(d.WindGustsMax, i),
			Sunrise:                  unix(d.Sunrise, i),
			Sunset:                   unix(d.Sunset, i),
		})
	}
	return weather.NewDailySummary(days, today)
}

func timezoneName(loc weather.Location) string {
	if loc.Timezone == nil || loc.Timezone.String() == "Local" {
		return "auto"
	}
	return loc.Timezone.String()
}

func daysFor(hours int) int {
	if hours <= 0 {
		return 0
	}
	return (hours + 23) / 24
}

// OpenMeteoAirQualityProvider supplies the European AQI from the
// Open-Meteo air-quality API. It needs no credential.
type OpenMeteoAirQualityProvider struct {
	name    string
	baseURL string
	client  *transport.Client
}

func NewOpenMeteoAirQualityProvider(client *transport.Client, baseURL string) *OpenMeteoAirQualityProvider {
	return &OpenMeteoAirQualityProvider{
		name:    "openmeteo-air",
		baseURL: orDefault(baseURL, openMeteoAirQualityURL),
		client:  client,
	}
}

func (p *OpenMeteoAirQualityProvider) Name() string {
	return p.name
}

func (p *OpenMeteoAirQualityProvider) Fetch(ctx context.Context, loc weather.Location) (weather.AirQuality, error) {
	values := url.Values{}
	values.Set("latitude", coord(loc.Lat))
	values.Set("longitude", coord(loc.Lon))
	values.Set("current", strings.Join([]string{"european_aqi", "pm2_5", "pm10"}, ","))

	var payload struct {
		Current struct {
			EuropeanAQI *float64 `json:"european_aqi" validate:"required"`
			PM25        *float64 `json:"pm2_5"`
			PM10        *float64 `json:"pm10"`
		} `json:"current"`
	}
	if err := getJSON(ctx, p.client, p.baseURL, values, &payload); err != nil {
		return weather.AirQuality{}, err
	}

	return weather.AirQuality{
		AQI:  weather.FromPtr(payload.Current.EuropeanAQI),
		PM25: weather.FromPtr(payload.Current.PM25),
		PM10: weather.FromPtr(payload.Current.PM10),
	}, nil
}
