// Package events publishes recorded bills to Kafka
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/garyjia/billwatch/internal/domain/entity"
	"go.uber.org/zap"
)

// EventBillRecorded is the type of the event emitted for each stored bill
const EventBillRecorded = "bill.recorded"

// ChargeEvent is one consolidated charge in a BillRecordedEvent
type ChargeEvent struct {
	Key    string `json:"key"`
	Amount string `json:"amount"`
	Rate   string `json:"rate,omitempty"`
}

// BillRecordedEvent is the message value written to the topic
type BillRecordedEvent struct {
	EventType   string        `json:"event_type"`
	BillID      string        `json:"bill_id"`
	UserID      string        `json:"user_id"`
	ContentHash string        `json:"content_hash"`
	Period      string        `json:"period"`
	Charges     []ChargeEvent `json:"charges"`
	RecordedAt  time.Time     `json:"recorded_at"`
}

// NewBillRecordedEvent converts a record to its event form. Amounts are
// decimal strings so consumers do not lose precision.
func NewBillRecordedEvent(record *entity.BillRecord, at time.Time) BillRecordedEvent {
	charges := make([]ChargeEvent, 0, len(record.Charges))
	for _, c := range record.Charges {
		charges = append(charges, ChargeEvent{Key: string(c.Key), Amount: c.Amount.String(), Rate: c.Rate})
	}
	return BillRecordedEvent{
		EventType:   EventBillRecorded,
		BillID:      record.BillID,
		UserID:      record.UserID,
		ContentHash: record.ContentHash,
		Period:      record.Metadata.PeriodMonthYear,
		Charges:     charges,
		RecordedAt:  at.UTC(),
	}
}

// KafkaPublisher implements port.RecordPublisher with a synchronous producer.
// Messages are keyed by user id so one account's bills stay in order.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
	logger   *zap.Logger
}

// NewKafkaPublisher connects to the configured brokers
func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	saramaConfig, err := newSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating Sarama SyncProducer: %w", err)
	}

	logger.Info("Kafka publisher connected",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic))

	return newKafkaPublisher(producer, cfg.Topic, logger), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, now: time.Now, logger: logger}
}

// PublishRecord sends one BillRecordedEvent
func (p *KafkaPublisher) PublishRecord(ctx context.Context, record *entity.BillRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(NewBillRecordedEvent(record, p.now()))
	if err != nil {
		return fmt.Errorf("failed to marshal bill event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(record.UserID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(EventBillRecorded)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send bill event: %w", err)
	}

	p.logger.Debug("Bill event published",
		zap.String("bill_id", record.BillID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close flushes and closes the producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher discards every record
type NoopPublisher struct{}

// PublishRecord does nothing
func (NoopPublisher) PublishRecord(context.Context, *entity.BillRecord) error { return nil }

// Close does nothing
func (NoopPublisher) Close() error { return nil }
