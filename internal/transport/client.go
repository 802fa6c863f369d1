// Package transport executes outbound HTTP calls for providers, text
// backends and the publisher. Each upstream gets its own circuit breaker.
// There are no retries: callers recover by moving to their next fallback.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const maxErrorBody = 4 << 10

var (
	// ErrCircuitOpen is returned without calling the upstream while its breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")
	errNoClient    = errors.New("http client not configured")
)

// StatusError is returned for non-2xx responses. Body holds the first few
// KiB of the response for diagnostics and error classification.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status indicates an upstream-side problem.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client wraps an *http.Client with a circuit breaker.
type Client struct {
	name      string
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
	userAgent string
}

// New creates a Client for one upstream. name labels the breaker.
func New(name string, client *http.Client, userAgent string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			// Client errors (bad request, auth) say nothing about upstream health.
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Retryable()
			}
			return err == nil
		},
	})

	return &Client{
		name:      name,
		client:    client,
		circuit:   cb,
		userAgent: userAgent,
	}
}

// Name returns the upstream name.
func (c *Client) Name() string {
	return c.name
}

// Do executes the request exactly once through the breaker. On success the
// caller owns the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c == nil || c.client == nil {
		return nil, errNoClient
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", ErrCircuitOpen, c.name, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// DoJSON executes the request and decodes a 2xx JSON body into out.
func (c *Client) DoJSON(req *http.Request, out any) error {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}
