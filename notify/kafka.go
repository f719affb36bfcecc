package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-storefront/models"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the event notifier uses.
//
//go:generate mockgen -destination=mock_writer_test.go -package=notify go-storefront/notify MessageWriter
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns a synchronous writer for topic.
func NewKafkaWriter(brokers []string, topic string, logger zerolog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Str("component", "kafka").Msgf(msg, args...)
		}),
	}
}

// EventNotifier publishes order events as JSON, keyed by order id so every
// event of one order lands on the same partition.
type EventNotifier struct {
	writer MessageWriter
}

func NewEventNotifier(writer MessageWriter) *EventNotifier {
	return &EventNotifier{writer: writer}
}

func (n *EventNotifier) Notify(ctx context.Context, event models.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Order.ID.Hex()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt.Time,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

func (n *EventNotifier) Close() error {
	return n.writer.Close()
}
