// Package narrative asks an ordered list of text-generation backends for a
// short analytic summary. The first non-empty answer wins; exhausting the
// list yields a fixed sentinel text. Generate never returns an error.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/i474232898/weather-briefing/internal/observability"
)

// UnavailableText is published when no backend produced a narrative.
const UnavailableText = "Analysis is unavailable right now."

var (
	// ErrMissingCredential is returned by backends configured without a key.
	ErrMissingCredential = errors.New("backend credential not configured")
	// ErrEmptyResponse is returned when a backend answers without text.
	ErrEmptyResponse = errors.New("backend returned empty text")
	errBackendPanic  = errors.New("backend panicked")
)

// Request is what every backend receives.
type Request struct {
	System string
	Prompt string
}

// Result is the cascade outcome. Available is false when Text is the
// sentinel.
type Result struct {
	Text      string
	Backend   string
	Available bool
}

// Backend generates text for a request.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Cascade tries backends in order.
type Cascade struct {
	backends []Backend
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewCascade creates a Cascade. timeout bounds each backend call.
func NewCascade(backends []Backend, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Cascade {
	return &Cascade{
		backends: backends,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Generate builds the prompt from facts and style and returns the first
// successful narrative.
func (c *Cascade) Generate(ctx context.Context, facts Facts, style Style) Result {
	req := BuildRequest(facts, style)

	for _, b := range c.backends {
		text, err := c.try(ctx, b, req)
		outcome := outcomeOf(err)
		c.metrics.NarrativeAttempts.WithLabelValues(b.Name(), outcome).Inc()

		if err == nil {
			c.logger.Info("narrative generated", "backend", b.Name(), "chars", len(text))
			return Result{Text: text, Backend: b.Name(), Available: true}
		}
		c.logger.Warn("narrative backend failed, trying next",
			"backend", b.Name(),
			"outcome", outcome,
			"error", err,
		)
	}

	c.logger.Warn("narrative unavailable", "backends", len(c.backends))
	return Result{Text: UnavailableText}
}

func (c *Cascade) try(ctx context.Context, b Backend, req Request) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", errBackendPanic, r)
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err = b.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrMissingCredential):
		return "skipped"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.Is(err, errBackendPanic):
		return "panic"
	default:
		return "error"
	}
}
