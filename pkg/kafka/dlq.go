package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DLQTopicPrefix prefixes every dead-letter topic.
const DLQTopicPrefix = "recam.dlq"

// maxDLQErrorLen bounds the dlq.error header.
const maxDLQErrorLen = 1024

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DLQProducer copies messages that could not be processed to a dead-letter
// topic derived from their source topic.
type DLQProducer struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// NewDLQProducer creates a synchronous DLQ producer that waits for all
// in-sync replicas.
func NewDLQProducer(brokers []string, logger *slog.Logger) *DLQProducer {
	return &DLQProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchSize:    1,
			BatchTimeout: 100 * time.Millisecond,
			RequiredAcks: kafka.RequireAll,
		},
		logger: logger,
		now:    time.Now,
	}
}

// DLQTopic returns the dead-letter topic for originalTopic.
func DLQTopic(originalTopic string) string {
	return DLQTopicPrefix + "." + originalTopic
}

// dlqMessage keeps the original key, value and headers and appends the
// source coordinates and failure cause.
func (d *DLQProducer) dlqMessage(msg kafka.Message, cause error, group string) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+6)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.original_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "dlq.original_partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "dlq.original_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "dlq.consumer_group", Value: []byte(group)},
		kafka.Header{Key: "dlq.failed_at", Value: []byte(d.now().UTC().Format(time.RFC3339))},
	)
	if cause != nil {
		text := cause.Error()
		if len(text) > maxDLQErrorLen {
			text = text[:maxDLQErrorLen]
		}
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(text)})
	}

	return kafka.Message{
		Topic:   DLQTopic(msg.Topic),
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}

// Publish writes msg to its dead-letter topic.
func (d *DLQProducer) Publish(ctx context.Context, msg kafka.Message, cause error, group string) error {
	out := d.dlqMessage(msg, cause, group)
	log := d.logger.With(
		slog.String("dlq_topic", out.Topic),
		slog.String("original_topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)

	if err := d.writer.WriteMessages(ctx, out); err != nil {
		log.ErrorContext(ctx, "failed to publish message to DLQ", slog.String("error", err.Error()))
		return fmt.Errorf("publish to DLQ %s: %w", out.Topic, err)
	}

	log.WarnContext(ctx, "message sent to DLQ", slog.String("consumer_group", group))
	return nil
}

// Close flushes and closes the underlying writer.
func (d *DLQProducer) Close() error {
	return d.writer.Close()
}
