package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-briefing/internal/transport"
	"github.com/i474232898/weather-briefing/internal/weather"
)

var validate = validator.New()

// getJSON issues a GET through the breaker-wrapped client, decodes the body
// into the struct pointed to by out and runs its validate tags. A payload that
// decodes but fails validation is reported as weather.ErrInvalidPayload.
func getJSON(ctx context.Context, client *transport.Client, endpoint string, params url.Values, out any) error {
	if err := fetchJSON(ctx, client, endpoint, params, out); err != nil {
		return err
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", weather.ErrInvalidPayload, err)
	}
	return nil
}

// fetchJSON is getJSON for top-level arrays and maps, which callers
// validate themselves.
func fetchJSON(ctx context.Context, client *transport.Client, endpoint string, params url.Values, out any) error {
	u := endpoint
	if len(params) > 0 {
		u = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return client.DoJSON(req, out)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func coord(v float64) string {
	return fmt.Sprintf("%f", v)
}

// indexToEAQI maps a 1-based banded index onto the upper bound of the
// matching European AQI band (20 per band).
func indexToEAQI(idx int) weather.Measure {
	if idx < 1 {
		return weather.Measure{}
	}
	if idx > 6 {
		idx = 6
	}
	return weather.Some(float64(idx * 20))
}
