package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/i474232898/weather-briefing/internal/transport"
	"github.com/i474232898/weather-briefing/internal/weather"
)

const openWeatherAirURL = "https://api.openweathermap.org/data/2.5/air_pollution"

// OpenWeatherProvider supplies air quality from the OpenWeatherMap
// air-pollution API.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *transport.Client
}

func NewOpenWeatherProvider(client *transport.Client, apiKey, baseURL string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: orDefault(baseURL, openWeatherAirURL),
		client:  client,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Fetch maps the OpenWeather 1..5 index onto the European AQI bands.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.AirQuality, error) {
	if p.apiKey == "" {
		return weather.AirQuality{}, fmt.Errorf("openweather api key: %w", weather.ErrNotConfigured)
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("lat", coord(loc.Lat))
	values.Set("lon", coord(loc.Lon))

	var payload struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi" validate:"min=1,max=5"`
			} `json:"main"`
			Components struct {
				PM25 *float64 `json:"pm2_5"`
				PM10 *float64 `json:"pm10"`
			} `json:"components"`
		} `json:"list" validate:"min=1,dive"`
	}
	if err := getJSON(ctx, p.client, p.baseURL, values, &payload); err != nil {
		return weather.AirQuality{}, err
	}

	item := payload.List[0]
	return weather.AirQuality{
		AQI:  indexToEAQI(item.Main.AQI),
		PM25: weather.FromPtr(item.Components.PM25),
		PM10: weather.FromPtr(item.Components.PM10),
	}, nil
}
