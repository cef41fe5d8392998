package bookings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Booking event types published to the booking topic
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventTicketReturned   = "ticket.returned"
)

// BookingEvent is the message published on booking lifecycle changes,
// consumed by downstream notification workers.
type BookingEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	BookingRef string    `json:"booking_ref"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher publishes booking lifecycle events. Best-effort: a failed
// publish never fails the booking.
type Publisher interface {
	PublishBookingEvent(ctx context.Context, event BookingEvent) error
	Close() error
}

// NoopPublisher discards events, used when Kafka is disabled
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingEvent(context.Context, BookingEvent) error { return nil }
func (NoopPublisher) Close() error                                            { return nil }

// KafkaPublisher publishes booking events keyed by user so one user's
// notifications stay ordered.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher creates a Kafka-backed booking event publisher
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Retry.Max = 3
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking event producer: %w", err)
	}

	log.Printf("📤 Booking event publisher created successfully")
	return &KafkaPublisher{producer: producer, topic: topic}, nil
}

// PublishBookingEvent publishes one lifecycle event
func (p *KafkaPublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(messageBytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("booking_id"), Value: []byte(event.BookingID)},
		},
		Timestamp: event.OccurredAt,
	}

	if _, _, err := p.producer.SendMessage(message); err != nil {
		return fmt.Errorf("failed to send booking event to Kafka: %w", err)
	}
	return nil
}

// Close closes the producer
func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
