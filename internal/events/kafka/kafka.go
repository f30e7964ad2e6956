// Package kafka publishes and consumes record change messages on a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"fieldlog/internal/events"
)

const headerAction = "action"

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Reader is the subset of kafka.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes change messages keyed by company so a company's messages
// stay ordered within one partition.
type Publisher struct {
	writer Writer
	topic  string
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string) *Publisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}, topic)
}

func NewPublisherWithWriter(w Writer, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

func (p *Publisher) PublishRecordChanged(ctx context.Context, msg *events.RecordChangedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Company),
		Value: body,
		Time:  msg.Timestamp,
		Headers: []kafka.Header{
			{Key: headerAction, Value: []byte(msg.Action)},
		},
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	slog.InfoContext(ctx, "Published record changed message",
		"message_id", msg.ID,
		"company", msg.Company,
		"action", msg.Action,
		"topic", p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Consumer reads change messages as part of a consumer group. Offsets are
// committed only after the handler succeeds; malformed messages are committed
// and skipped.
type Consumer struct {
	reader Reader
}

var _ events.Consumer = (*Consumer)(nil)

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return NewConsumerWithReader(kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}))
}

func NewConsumerWithReader(r Reader) *Consumer {
	return &Consumer{reader: r}
}

func (c *Consumer) Consume(ctx context.Context, handler events.Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("reader closed: %w", err)
			}
			slog.WarnContext(ctx, "Kafka fetch failed", "error", err)
			continue
		}

		msg, err := events.RecordChangedMessageFromJSON(m.Value)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to decode message, skipping",
				"error", err, "partition", m.Partition, "offset", m.Offset)
			if err := c.reader.CommitMessages(ctx, m); err != nil {
				slog.ErrorContext(ctx, "Commit after decode failure failed", "error", err)
			}
			continue
		}
		msg.ReceivedAt = time.Now()

		if err := handler(ctx, msg); err != nil {
			// Uncommitted offsets are redelivered after a rebalance or restart.
			slog.ErrorContext(ctx, "Failed to handle message",
				"error", err, "message_id", msg.ID, "company", msg.Company)
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			slog.ErrorContext(ctx, "Commit failed", "error", err, "offset", m.Offset)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
