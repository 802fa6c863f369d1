package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-briefing/internal/observability"
	"github.com/i474232898/weather-briefing/internal/transport"
	"github.com/i474232898/weather-briefing/internal/weather"
)

type stubBackend struct {
	name  string
	text  string
	err   error
	block bool
	panic bool
	calls int
	got   Request
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Generate(ctx context.Context, req Request) (string, error) {
	s.calls++
	s.got = req
	if s.panic {
		panic("nil map write")
	}
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.text, s.err
}

func newTestCascade(backends ...Backend) *Cascade {
	return NewCascade(backends, 20*time.Millisecond, observability.NopLogger(), observability.NewMetricsForTesting())
}

var testFacts = Facts{Location: "Pinsk", Items: []Fact{{Label: "temperature", Value: "4.5°C"}}}

func TestCascade_FallsBackAfterTimeout(t *testing.T) {
	a := &stubBackend{name: "a", block: true}
	b := &stubBackend{name: "b", text: "  Anticyclone holds. Take a scarf.  "}
	c := &stubBackend{name: "c", text: "unused"}

	res := newTestCascade(a, b, c).Generate(context.Background(), testFacts, Style{Period: weather.PeriodMorning})

	assert.True(t, res.Available)
	assert.Equal(t, "b", res.Backend)
	assert.Equal(t, "Anticyclone holds. Take a scarf.", res.Text)
	assert.Equal(t, 1, a.calls)
	assert.Zero(t, c.calls)
	assert.Contains(t, b.got.Prompt, "- temperature: 4.5°C")
}

func TestCascade_Exhausted(t *testing.T) {
	res := newTestCascade(
		&stubBackend{name: "missing", err: ErrMissingCredential},
		&stubBackend{name: "broken", err: errors.New("502")},
		&stubBackend{name: "blank", text: "   "},
		&stubBackend{name: "crashy", panic: true},
	).Generate(context.Background(), testFacts, Style{})

	assert.False(t, res.Available)
	assert.Equal(t, UnavailableText, res.Text)
	assert.Empty(t, res.Backend)
}

func TestCascade_NoBackends(t *testing.T) {
	res := newTestCascade().Generate(context.Background(), testFacts, Style{})
	assert.Equal(t, Result{Text: UnavailableText}, res)
}

func TestCascade_PanicIsRecovered(t *testing.T) {
	crashy := &stubBackend{name: "crashy", panic: true}
	ok := &stubBackend{name: "ok", text: "fine"}

	require.NotPanics(t, func() {
		res := newTestCascade(crashy, ok).Generate(context.Background(), testFacts, Style{})
		assert.Equal(t, "fine", res.Text)
	})
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "skipped", outcomeOf(ErrMissingCredential))
	assert.Equal(t, "timeout", outcomeOf(context.DeadlineExceeded))
	assert.Equal(t, "empty", outcomeOf(ErrEmptyResponse))
	assert.Equal(t, "panic", outcomeOf(errBackendPanic))
	assert.Equal(t, "error", outcomeOf(&transport.StatusError{Code: 500}))
}

func newTestClient() *transport.Client {
	return transport.New("test", &http.Client{Timeout: time.Second}, "")
}

func TestChatBackend_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "google/gemini-2.0-flash-001", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Pressure is rising."}}]}`))
	}))
	defer srv.Close()

	b := NewChatBackend("openrouter", srv.URL+"/api/v1/", "google/gemini-2.0-flash-001", "secret", newTestClient())
	text, err := b.Generate(context.Background(), Request{System: "sys", Prompt: "facts"})
	require.NoError(t, err)
	assert.Equal(t, "Pressure is rising.", text)
}

func TestChatBackend_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		b := NewChatBackend("groq", GroqBaseURL, "llama", "", newTestClient())
		_, err := b.Generate(context.Background(), Request{Prompt: "x"})
		assert.ErrorIs(t, err, ErrMissingCredential)
	})

	t.Run("rate limited", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"rate limit"}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		b := NewChatBackend("groq", srv.URL, "llama", "k", newTestClient())
		_, err := b.Generate(context.Background(), Request{Prompt: "x"})
		var se *transport.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusTooManyRequests, se.Code)
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		b := NewChatBackend("groq", srv.URL, "llama", "k", newTestClient())
		_, err := b.Generate(context.Background(), Request{Prompt: "x"})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestGeminiBackend_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)
		assert.Equal(t, "gkey", r.Header.Get("x-goog-api-key"))

		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotNil(t, body.SystemInstruction)
		assert.Equal(t, "facts", body.Contents[0].Parts[0].Text)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Calm "},{"text":"week ahead."}]}}]}`))
	}))
	defer srv.Close()

	b := NewGeminiBackend(srv.URL, "gemini-2.0-flash", "gkey", newTestClient())
	text, err := b.Generate(context.Background(), Request{System: "sys", Prompt: "facts"})
	require.NoError(t, err)
	assert.Equal(t, "Calm week ahead.", text)
}
