package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicOrderCreated   = "venue.order.created"
	TopicOrderCancelled = "venue.order.cancelled"
)

var AllTopics = []string{TopicOrderCreated, TopicOrderCancelled}

// EnsureTopicsExist creates the order topics if the broker doesn't have
// them yet. Safe to call on every startup.
func EnsureTopicsExist(brokers []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	configs := make([]kafka.TopicConfig, 0, len(AllTopics))
	for _, topic := range AllTopics {
		configs = append(configs, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}
	if err := controllerConn.CreateTopics(configs...); err != nil &&
		!strings.Contains(err.Error(), "already exists") {
		return err
	}

	// Give the broker a moment to propagate metadata.
	time.Sleep(1 * time.Second)
	return nil
}
