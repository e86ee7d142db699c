package metrics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// EventKind names the event notification categories spec §6 groups under
// "event notifications for monitoring": kill switch activations, risk
// violations, and fills are the three an external consumer cares about.
type EventKind string

const (
	EventKillSwitch    EventKind = "kill_switch"
	EventRiskViolation EventKind = "risk_violation"
	EventFill          EventKind = "fill"
)

// Event is the JSON-encoded payload published to Kafka.
type Event struct {
	Kind    EventKind `json:"kind"`
	Symbol  string    `json:"symbol"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// EventPublisher optionally forwards Events to a Kafka topic via sarama,
// matching go-coffee's event-bus pattern. A nil producer makes Publish a
// no-op, so callers don't need to branch on whether Kafka is configured.
type EventPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewEventPublisher dials brokers and returns a publisher for topic.
func NewEventPublisher(brokers []string, topic string) (*EventPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to kafka: %w", err)
	}
	return &EventPublisher{producer: producer, topic: topic}, nil
}

// NewNoopEventPublisher returns a publisher whose Publish does nothing,
// for when metrics.kafka_enabled is false.
func NewNoopEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

// Publish marshals evt to JSON and sends it to the configured topic.
// Errors are returned, not swallowed, so callers can log/count them;
// this is deliberately best-effort relative to the trading hot path —
// callers should never block order flow waiting on Publish.
func (p *EventPublisher) Publish(evt Event) error {
	if p.producer == nil {
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close releases the underlying producer, if any.
func (p *EventPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
