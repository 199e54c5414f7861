// Package events forwards issuance callbacks to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"medcred/internal/issuance/models"
	"medcred/internal/platform/kafka/producer"
)

// Record header names carried on every published callback.
const (
	HeaderRequestStatus = "request_status"
	HeaderRequestID     = "request_id"
)

// Publisher accepts callback events after the session has been updated.
type Publisher interface {
	Publish(ctx context.Context, ev models.CallbackEvent) error
}

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	ProduceAsync(ctx context.Context, msg *producer.Message) error
}

// KafkaPublisher writes callbacks to a Kafka topic keyed by state, so every
// notification for one request lands on the same partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher publishes to topic. An empty topic uses the producer's
// default topic.
func NewKafkaPublisher(p Producer, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &KafkaPublisher{producer: p, topic: topic, logger: logger}
}

// Publish buffers the event. The original callback bytes are forwarded when
// available; otherwise the decoded event is re-encoded.
func (p *KafkaPublisher) Publish(ctx context.Context, ev models.CallbackEvent) error {
	value := []byte(ev.Raw)
	if len(value) == 0 {
		encoded, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode callback event: %w", err)
		}
		value = encoded
	}

	msg := &producer.Message{
		Topic: p.topic,
		Key:   []byte(ev.State),
		Value: value,
		Headers: map[string]string{
			HeaderRequestStatus: ev.RequestStatus,
			HeaderRequestID:     ev.RequestID,
		},
	}
	if err := p.producer.ProduceAsync(ctx, msg); err != nil {
		return fmt.Errorf("publish callback event: %w", err)
	}
	p.logger.DebugContext(ctx, "callback event published",
		"state", ev.State,
		"request_status", ev.RequestStatus,
	)
	return nil
}

// NoopPublisher drops events. It is used when Kafka is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.CallbackEvent) error { return nil }
