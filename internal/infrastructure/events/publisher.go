// Package events publishes order/batch/courier lifecycle events to Kafka for downstream
// consumers (notifications, analytics) that sit outside this core.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types this module emits. Consumers outside the core (notifications, analytics)
// key off these.
const (
	TypeOrderAssigned        = "order.assigned"
	TypeOrderDelivered       = "order.delivered"
	TypeOrderCancelled       = "order.cancelled"
	TypeBatchCreated         = "batch.created"
	TypeBatchCompleted       = "batch.completed"
	TypeCourierStatusChanged = "courier.status_changed"
)

const clientID = "dispatchd"

// Publisher publishes lifecycle events to Kafka. A nil *Publisher is valid and silently
// drops every Publish call, so components can be constructed without Kafka configured
// (e.g. in tests or the in-memory standalone mode) without special-casing every call
// site.
type Publisher struct {
	writer *kafka.Writer
}

// New constructs a Publisher writing to topic across brokers.
func New(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// envelope is the wire shape every published event shares.
type envelope struct {
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	ClientID  string      `json:"client_id"`
	Version   string      `json:"version"`
}

// Publish emits one lifecycle event keyed by entityID. Failures are returned, not
// panicked on; callers in the dispatch/state-machine layers log and continue rather than
// aborting a mutation that already committed to the Store, since an event-publish
// failure must never roll back a completed state transition.
func (p *Publisher) Publish(ctx context.Context, eventType, entityID string, data interface{}, now time.Time) error {
	if p == nil || p.writer == nil {
		return nil
	}

	env := envelope{
		EventType: eventType,
		Data:      data,
		Timestamp: now,
		Source:    "dispatchd",
		ClientID:  clientID,
		Version:   "1.0",
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(entityID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
			{Key: "entity-id", Value: []byte(entityID)},
			{Key: "source", Value: []byte("dispatchd")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", eventType, err)
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
