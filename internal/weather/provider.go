package weather

import (
	"context"
	"errors"
	"fmt"
)

// Provider abstracts one backend able to supply a category of telemetry
// (e.g. Open-Meteo for the forecast, NOAA SWPC for the G-scale).
type Provider[T any] interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (T, error)
}

var (
	// ErrFatalAcquisition marks the loss of the foundational category.
	ErrFatalAcquisition = errors.New("foundational weather data unavailable")
	// ErrInvalidPayload is returned by providers whose response failed validation.
	ErrInvalidPayload = errors.New("invalid provider payload")
	// ErrNotConfigured is returned by providers that lack a credential.
	ErrNotConfigured = errors.New("provider not configured")
)

// AcquisitionError describes the failure of a whole category chain.
// Provider names the last provider tried.
type AcquisitionError struct {
	Category Category
	Provider string
	Err      error
}

func (e *AcquisitionError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("acquire %s: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("acquire %s (last provider %s): %v", e.Category, e.Provider, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}
