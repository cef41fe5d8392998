package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"seatwave/internal/layout"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Auditor publishes seat transitions to the audit pipeline. Publishing is
// best-effort: a failed publish never rolls back a ledger transition.
type Auditor interface {
	SeatTransition(ctx context.Context, eventID string, seat layout.SeatRef, from, to layout.SeatStatus, holdID string) error
	Close() error
}

// NoopAuditor discards transitions, used when Kafka is disabled
type NoopAuditor struct{}

func (NoopAuditor) SeatTransition(context.Context, string, layout.SeatRef, layout.SeatStatus, layout.SeatStatus, string) error {
	return nil
}
func (NoopAuditor) Close() error { return nil }

// SeatTransitionEvent is the audit record published per seat status change
type SeatTransitionEvent struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Section    string    `json:"section"`
	Row        string    `json:"row"`
	SeatNumber string    `json:"seat_number"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	HoldID     string    `json:"hold_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KafkaAuditConfig contains configuration for the audit producer
type KafkaAuditConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

// DefaultKafkaAuditConfig returns a default audit producer configuration
func DefaultKafkaAuditConfig() *KafkaAuditConfig {
	return &KafkaAuditConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "seat-transitions",
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// KafkaAuditor publishes seat transitions to a Kafka topic. Messages are
// keyed by event ID so one event's transitions stay ordered within a
// partition.
type KafkaAuditor struct {
	producer sarama.SyncProducer
	config   *KafkaAuditConfig
}

// NewKafkaAuditor creates a Kafka-backed transition auditor
func NewKafkaAuditor(config *KafkaAuditConfig) (*KafkaAuditor, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner so every transition of one event lands on the
	// same partition
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka audit producer: %w", err)
	}

	log.Printf("📤 Kafka seat transition auditor created successfully")
	return &KafkaAuditor{producer: producer, config: config}, nil
}

// SeatTransition publishes a single transition record
func (a *KafkaAuditor) SeatTransition(ctx context.Context, eventID string, seat layout.SeatRef, from, to layout.SeatStatus, holdID string) error {
	record := SeatTransitionEvent{
		ID:         uuid.New().String(),
		EventID:    eventID,
		Section:    seat.Section,
		Row:        seat.Row,
		SeatNumber: seat.SeatNumber,
		From:       string(from),
		To:         string(to),
		HoldID:     holdID,
		OccurredAt: time.Now().UTC(),
	}

	messageBytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal seat transition: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: a.config.Topic,
		Key:   sarama.StringEncoder(eventID),
		Value: sarama.ByteEncoder(messageBytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("transition_id"), Value: []byte(record.ID)},
			{Key: []byte("event_id"), Value: []byte(eventID)},
			{Key: []byte("from"), Value: []byte(record.From)},
			{Key: []byte("to"), Value: []byte(record.To)},
		},
		Timestamp: record.OccurredAt,
	}

	if _, _, err := a.producer.SendMessage(message); err != nil {
		return fmt.Errorf("failed to send seat transition to Kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (a *KafkaAuditor) Close() error {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka audit producer: %w", err)
		}
		log.Printf("📤 Kafka seat transition auditor closed")
	}
	return nil
}
