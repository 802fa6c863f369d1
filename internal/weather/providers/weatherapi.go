package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/i474232898/weather-briefing/internal/transport"
	"github.com/i474232898/weather-briefing/internal/weather"
)

const weatherAPICurrentURL = "https://api.weatherapi.com/v1/current.json"

// WeatherAPIProvider supplies air quality from WeatherAPI.com's current
// conditions endpoint with aqi=yes.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *transport.Client
}

func NewWeatherAPIProvider(client *transport.Client, apiKey, baseURL string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: orDefault(baseURL, weatherAPICurrentURL),
		client:  client,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// Fetch maps the US EPA 1..6 index onto the European AQI bands.
func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.AirQuality, error) {
	if p.apiKey == "" {
		return weather.AirQuality{}, fmt.Errorf("weatherapi api key: %w", weather.ErrNotConfigured)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; "lat,lon" avoids name lookups.
	values.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
	values.Set("aqi", "yes")

	var payload struct {
		Current struct {
			AirQuality *struct {
				PM25     *float64 `json:"pm2_5"`
				PM10     *float64 `json:"pm10"`
				EPAIndex int      `json:"us-epa-index" validate:"min=1,max=6"`
			} `json:"air_quality" validate:"required"`
		} `json:"current"`
	}
	if err := getJSON(ctx, p.client, p.baseURL, values, &payload); err != nil {
		return weather.AirQuality{}, err
	}

	aq := payload.Current.AirQuality
	return weather.AirQuality{
		AQI:  indexToEAQI(aq.EPAIndex),
		PM25: weather.FromPtr(aq.PM25),
		PM10: weather.FromPtr(aq.PM10),
	}, nil
}
