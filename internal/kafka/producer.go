package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"venue-cms/internal/logger"
	"venue-cms/internal/models"
)

// Producer publishes order lifecycle events. Each event type has its own
// topic; messages are keyed by order ID so one order's events stay in order.
type Producer struct {
	writers map[string]*kafka.Writer
	log     *logger.Logger
}

func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writers := make(map[string]*kafka.Writer, len(AllTopics))
	for _, topic := range AllTopics {
		writers[topic] = kafka.NewWriter(kafka.WriterConfig{
			Brokers:      brokers,
			Topic:        topic,
			BatchTimeout: 50 * time.Millisecond,
		})
	}
	return &Producer{writers: writers, log: log}
}

type orderEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	ShowID      string    `json:"show_id"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (p *Producer) publish(ctx context.Context, topic string, order *models.Order) error {
	event := orderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		ShowID:      order.ShowID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		OccurredAt:  time.Now().UTC(),
	}
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	writer, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("no writer for topic %s", topic)
	}
	if err := writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: msgBytes,
	}); err != nil {
		return err
	}
	p.log.Info("KAFKA", fmt.Sprintf("published %s for order %s", topic, order.OrderNumber))
	return nil
}

func (p *Producer) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, TopicOrderCreated, order)
}

func (p *Producer) PublishOrderCancelled(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, TopicOrderCancelled, order)
}

func (p *Producer) Close() error {
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
