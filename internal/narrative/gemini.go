package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/weather-briefing/internal/transport"
)

const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiBackend calls the Google Gemini generateContent API.
type GeminiBackend struct {
	baseURL string
	model   string
	apiKey  string
	client  *transport.Client
}

func NewGeminiBackend(baseURL, model, apiKey string, client *transport.Client) *GeminiBackend {
	if baseURL == "" {
		baseURL = GeminiBaseURL
	}
	return &GeminiBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  client,
	}
}

func (b *GeminiBackend) Name() string {
	return "gemini"
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (b *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	if b.apiKey == "" {
		return "", fmt.Errorf("gemini: %w", ErrMissingCredential)
	}

	payload := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	if req.System != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	payload.GenerationConfig.Temperature = 0.7

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", b.baseURL, url.PathEscape(b.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", b.apiKey)

	var resp geminiResponse
	if err := b.client.DoJSON(httpReq, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
