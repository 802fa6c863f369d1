package providers

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/i474232898/weather-briefing/internal/transport"
	"github.com/i474232898/weather-briefing/internal/weather"
)

const (
	swpcScalesURL = "https://services.swpc.noaa.gov/products/noaa-scales.json"
	swpcKpURL     = "https://services.swpc.noaa.gov/json/planetary_k_index_1m.json"

	maxGScale = 5
)

// SWPCScalesProvider reads the current NOAA G-scale from noaa-scales.json.
type SWPCScalesProvider struct {
	name    string
	baseURL string
	client  *transport.Client
}

func NewSWPCScalesProvider(client *transport.Client, baseURL string) *SWPCScalesProvider {
	return &SWPCScalesProvider{
		name:    "swpc-scales",
		baseURL: orDefault(baseURL, swpcScalesURL),
		client:  client,
	}
}

func (p *SWPCScalesProvider) Name() string {
	return p.name
}

type swpcScale struct {
	Scale *string `json:"Scale"`
	Text  *string `json:"Text"`
}

// Fetch uses entry "0", the observed-now slot; "-1" is yesterday and
// positive keys are forecasts.
func (p *SWPCScalesProvider) Fetch(ctx context.Context, _ weather.Location) (weather.Geomagnetic, error) {
	var entries map[string]struct {
		G swpcScale `json:"G"`
	}
	if err := fetchJSON(ctx, p.client, p.baseURL, nil, &entries); err != nil {
		return weather.Geomagnetic{}, err
	}

	now, ok := entries["0"]
	if !ok || now.G.Scale == nil {
		return weather.Geomagnetic{}, fmt.Errorf("%w: no current G entry", weather.ErrInvalidPayload)
	}
	scale, err := strconv.Atoi(strings.TrimSpace(*now.G.Scale))
	if err != nil || scale < 0 || scale > maxGScale {
		return weather.Geomagnetic{}, fmt.Errorf("%w: G scale %q", weather.ErrInvalidPayload, *now.G.Scale)
	}

	return weather.Geomagnetic{Scale: weather.SomeCode(scale)}, nil
}

// SWPCKpProvider derives the G-scale from the latest planetary K-index
// sample: G = Kp - 4 for Kp >= 5, otherwise 0.
type SWPCKpProvider struct {
	name    string
	baseURL string
	client  *transport.Client
}

func NewSWPCKpProvider(client *transport.Client, baseURL string) *SWPCKpProvider {
	return &SWPCKpProvider{
		name:    "swpc-kp",
		baseURL: orDefault(baseURL, swpcKpURL),
		client:  client,
	}
}

func (p *SWPCKpProvider) Name() string {
	return p.name
}

type kpSample struct {
	TimeTag     string   `json:"time_tag" validate:"required"`
	KpIndex     *float64 `json:"kp_index"`
	EstimatedKp *float64 `json:"estimated_kp"`
}

func (p *SWPCKpProvider) Fetch(ctx context.Context, _ weather.Location) (weather.Geomagnetic, error) {
	var samples []kpSample
	if err := fetchJSON(ctx, p.client, p.baseURL, nil, &samples); err != nil {
		return weather.Geomagnetic{}, err
	}
	if err := validate.Var(samples, "min=1,dive"); err != nil {
		return weather.Geomagnetic{}, fmt.Errorf("%w: %v", weather.ErrInvalidPayload, err)
	}

	last := samples[len(samples)-1]
	kpPtr := last.EstimatedKp
	if kpPtr == nil {
		kpPtr = last.KpIndex
	}
	if kpPtr == nil || *kpPtr < 0 || *kpPtr > 9 {
		return weather.Geomagnetic{}, fmt.Errorf("%w: latest sample %s has no Kp", weather.ErrInvalidPayload, last.TimeTag)
	}

	return weather.Geomagnetic{
		Scale: weather.SomeCode(GScaleFromKp(*kpPtr)),
		Kp:    weather.Some(*kpPtr),
	}, nil
}

// GScaleFromKp maps a planetary K-index onto the NOAA G-scale.
func GScaleFromKp(kp float64) int {
	g := int(math.Floor(kp)) - 4
	if g < 0 {
		return 0
	}
	if g > maxGScale {
		return maxGScale
	}
	return g
}
