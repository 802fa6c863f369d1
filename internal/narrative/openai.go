package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/i474232898/weather-briefing/internal/transport"
)

const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	GroqBaseURL       = "https://api.groq.com/openai/v1"
)

// ChatBackend talks to any OpenAI-compatible chat completions API
// (OpenRouter, Groq).
type ChatBackend struct {
	name        string
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	client      *transport.Client
}

// NewChatBackend creates a chat completions backend rooted at baseURL.
func NewChatBackend(name, baseURL, model, apiKey string, client *transport.Client) *ChatBackend {
	return &ChatBackend{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		apiKey:      apiKey,
		temperature: 0.7,
		client:      client,
	}
}

func (b *ChatBackend) Name() string {
	return b.name
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (b *ChatBackend) Generate(ctx context.Context, req Request) (string, error) {
	if b.apiKey == "" {
		return "", fmt.Errorf("%s: %w", b.name, ErrMissingCredential)
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{Model: b.model, Messages: messages, Temperature: b.temperature})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	var resp chatResponse
	if err := b.client.DoJSON(httpReq, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
