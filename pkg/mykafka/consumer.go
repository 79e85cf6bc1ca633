package mykafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Handler processes one message. A returned error is logged and the message is skipped.
type Handler func(ctx context.Context, msg kafka.Message) error

type Consumer struct {
	reader *kafka.Reader
	log    *slog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		log: log.With("topic", topic, "group_id", groupID),
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	c.log.Info("consumer_started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				c.log.Info("consumer_stopped")
				return nil
			}
			c.log.Error("consumer_read_error", "error", err)
			return err
		}
		if err := h(ctx, msg); err != nil {
			c.log.Warn("consumer_handle_error", "offset", msg.Offset, "key", string(msg.Key), "error", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
