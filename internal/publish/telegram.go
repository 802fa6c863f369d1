// Package publish delivers composed reports to the Telegram channel.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/i474232898/weather-briefing/internal/common"
	"github.com/i474232898/weather-briefing/internal/observability"
	"github.com/i474232898/weather-briefing/internal/report"
	"github.com/i474232898/weather-briefing/internal/transport"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	FormatRich  = "rich"
	FormatPlain = "plain"
)

// ErrFormat marks a rejection caused by the message markup.
var ErrFormat = errors.New("message formatting rejected")

// DeliveryError is a delivery failure that the plain-text fallback could
// not recover. Format is the format of the last attempt.
type DeliveryError struct {
	Format string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s message: %v", e.Format, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Receipt describes a delivered message.
type Receipt struct {
	MessageID int64
	Format    string
}

// Publisher delivers one message.
type Publisher interface {
	Deliver(ctx context.Context, text string) (Receipt, error)
}

// Telegram sends through the Bot API sendMessage method.
type Telegram struct {
	client  *transport.Client
	baseURL string
	token   string
	chatID  string
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewTelegram(client *transport.Client, baseURL, token, chatID string, logger *slog.Logger, metrics *observability.Metrics) *Telegram {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Telegram{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		logger:  logger,
		metrics: metrics,
	}
}

// Deliver sends text with Markdown. When Telegram rejects the markup it
// retries exactly once as plain text. Any other failure is returned.
func (t *Telegram) Deliver(ctx context.Context, text string) (Receipt, error) {
	id, err := t.send(ctx, text, "Markdown")
	t.observe(FormatRich, err)
	if err == nil {
		return Receipt{MessageID: id, Format: FormatRich}, nil
	}
	if !errors.Is(err, ErrFormat) {
		return Receipt{}, &DeliveryError{Format: FormatRich, Err: err}
	}

	t.logger.Warn("markdown rejected, retrying as plain text", "error", err)
	id, err = t.send(ctx, report.PlainText(text), "")
	t.observe(FormatPlain, err)
	if err != nil {
		return Receipt{}, &DeliveryError{Format: FormatPlain, Err: err}
	}
	return Receipt{MessageID: id, Format: FormatPlain}, nil
}

func (t *Telegram) observe(format string, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, ErrFormat):
		outcome = "format_error"
	case err != nil:
		outcome = "error"
	}
	t.metrics.PublishAttempts.WithLabelValues(format, outcome).Inc()
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (t *Telegram) send(ctx context.Context, text, parseMode string) (int64, error) {
	body, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text, ParseMode: parseMode})
	if err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp sendMessageResponse
	if err := t.client.DoJSON(req, &resp); err != nil {
		var se *transport.StatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest && isFormatError(se.Body) {
			return 0, fmt.Errorf("%w: %s", ErrFormat, se.Body)
		}
		return 0, redact(err, t.token)
	}
	if !resp.OK {
		if isFormatError(resp.Description) {
			return 0, fmt.Errorf("%w: %s", ErrFormat, resp.Description)
		}
		return 0, fmt.Errorf("telegram: %s", resp.Description)
	}
	return resp.Result.MessageID, nil
}

func isFormatError(desc string) bool {
	return common.ContainsAny(desc, "can't parse entities", "can't find end of the entity", "unsupported start tag")
}

// redact keeps the bot token out of transport errors, which embed the URL.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "***"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
