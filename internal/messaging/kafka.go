package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDeviceClient writes events to a topic keyed by device id.
type KafkaDeviceClient struct {
	writer   messageWriter
	deviceID string
	log      *logrus.Logger
}

func NewKafkaDeviceClient(brokers []string, topic, deviceID string, log *logrus.Logger) *KafkaDeviceClient {
	return &KafkaDeviceClient{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		deviceID: deviceID,
		log:      log,
	}
}

func (c *KafkaDeviceClient) SendEvent(ctx context.Context, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(c.deviceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}

	if err := c.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	c.log.WithFields(logrus.Fields{"deviceId": c.deviceID, "bytes": len(payload)}).Debug("event written")
	return nil
}

func (c *KafkaDeviceClient) Close() error {
	return c.writer.Close()
}
