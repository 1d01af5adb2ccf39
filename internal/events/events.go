// Package events defines the sync and assignment events the gateway emits
// and the notifier consumes.
package events

import (
	"context"
	"fmt"
	"time"

	"motorhub/pkg/kafka"
	"motorhub/pkg/logger"
	"motorhub/pkg/middleware"
)

const (
	RecordSynced         = "record.synced"
	RecordDegraded       = "record.degraded"
	JobCreated           = "job.created"
	JobAccepted          = "job.accepted"
	JobReleased          = "job.released"
	JobStatusChanged     = "job.status_changed"
	BookingCreated       = "booking.created"
	BookingUpdated       = "booking.updated"
	BookingStatusChanged = "booking.status_changed"
)

const source = "motorhub-gateway"

type Event struct {
	Type       string    `json:"type"`
	RecordID   string    `json:"record_id"`
	RestRef    string    `json:"rest_ref,omitempty"`
	Collection string    `json:"collection"`
	ActorID    string    `json:"actor_id,omitempty"`
	// Recipients are the user ids that should hear about the event.
	Recipients []string  `json:"recipients,omitempty"`
	Status     string    `json:"status,omitempty"`
	Notice     string    `json:"notice,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events. Used when Kafka is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type kafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) Publisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	msg, err := NewMessage(e, correlationID(ctx))
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

// NewMessage encodes e as a Kafka message keyed by record id.
func NewMessage(e Event, correlationID string) (kafka.Message, error) {
	return kafka.NewMessage().
		WithKey(e.RecordID).
		WithValue(e).
		WithEventType(e.Type).
		WithCorrelationID(correlationID).
		WithSource(source).
		Build()
}

// Decode reads an Event from a consumed message.
func Decode(msg kafka.Message) (Event, error) {
	var e Event
	if err := msg.DecodeValue(&e); err != nil {
		return Event{}, kafka.NewPermanentError("failed to decode event", err)
	}
	if e.Type == "" {
		e.Type = msg.GetEventType()
	}
	return e, nil
}

// Emit publishes e and logs a failure instead of returning it. Writes have
// already succeeded by the time events go out.
func Emit(ctx context.Context, p Publisher, log *logger.Logger, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Warn("Failed to publish event", "type", e.Type, "record_id", e.RecordID, "error", err)
	}
}

type correlationKey struct{}

// WithCorrelationID tags ctx so published events carry the request id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// correlationID falls back to the HTTP request id.
func correlationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
		return id
	}
	return middleware.RequestID(ctx)
}
