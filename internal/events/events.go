// Package events streams a record of every completed run to Kafka so
// downstream consumers can archive or chart reports.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Alert is the wire form of an alert.
type Alert struct {
	Hazard string `json:"hazard"`
	Tier   string `json:"tier"`
}

// RunEvent describes one published report.
type RunEvent struct {
	ID               string             `json:"id"`
	Location         string             `json:"location"`
	Key              string             `json:"key"`
	Period           string             `json:"period"`
	Status           string             `json:"status"`
	PublishedAt      time.Time          `json:"published_at"`
	Format           string             `json:"format"`
	MessageID        int64              `json:"message_id"`
	NarrativeBackend string             `json:"narrative_backend,omitempty"`
	Alerts           []Alert            `json:"alerts,omitempty"`
	Gaps             []string           `json:"gaps,omitempty"`
	Summary          map[string]float64 `json:"summary,omitempty"`
}

// Emitter publishes run events.
type Emitter interface {
	Emit(ctx context.Context, ev RunEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaEmitter writes run events to a topic.
type KafkaEmitter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaEmitter creates a producer for topic on brokers.
func NewKafkaEmitter(brokers []string, topic string, logger *slog.Logger) *KafkaEmitter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaEmitter{writer: w, logger: logger}
}

func (e *KafkaEmitter) Emit(ctx context.Context, ev RunEvent) error {
	msg, err := serializeToMessage(ev)
	if err != nil {
		return err
	}
	if err := e.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write run event: %w", err)
	}
	e.logger.Debug("run event written", "run_id", ev.ID, "key", ev.Key)
	return nil
}

func (e *KafkaEmitter) Close() error {
	return e.writer.Close()
}

// serializeToMessage keys the message by run ID and exposes the period and
// status as headers for cheap filtering.
func serializeToMessage(ev RunEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.ID),
		Value: data,
		Time:  ev.PublishedAt,
		Headers: []kafkago.Header{
			{Key: "period", Value: []byte(ev.Period)},
			{Key: "status", Value: []byte(ev.Status)},
		},
	}, nil
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Emit(context.Context, RunEvent) error { return nil }
func (Nop) Close() error                         { return nil }
