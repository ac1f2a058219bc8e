package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	defaultHandlerAttempts = 3
	defaultHandlerBackoff  = 100 * time.Millisecond
)

// Handler processes one decoded event. A non-nil error makes the consumer
// retry the event and finally dead-letter it.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig configures a group consumer of one topic.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int

	// MaxAttempts bounds handler calls per message. Defaults to 3.
	MaxAttempts int
	// RetryBackoff is multiplied by the attempt number between calls.
	// Defaults to 100ms.
	RetryBackoff time.Duration
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type deadLetterer interface {
	Publish(ctx context.Context, msg kafka.Message, cause error, groupID string) error
}

// Consumer fetches messages one at a time, hands them to a Handler and
// commits each offset once the message is either handled or dead-lettered.
type Consumer struct {
	reader   messageReader
	handler  Handler
	dlq      deadLetterer
	logger   *slog.Logger
	topic    string
	groupID  string
	attempts int
	backoff  time.Duration

	closeOnce sync.Once
	closeErr  error
}

// NewConsumer creates a consumer. dlq may be nil, in which case poison
// messages are logged and committed.
func NewConsumer(cfg ConsumerConfig, handler Handler, dlq *DLQProducer, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	c := newConsumer(reader, cfg, handler, logger)
	if dlq != nil {
		c.dlq = dlq
	}
	return c
}

func newConsumer(reader messageReader, cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultHandlerAttempts
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultHandlerBackoff
	}
	return &Consumer{
		reader:   reader,
		handler:  handler,
		logger:   logger.With(slog.String("topic", cfg.Topic), slog.String("group", cfg.GroupID)),
		topic:    cfg.Topic,
		groupID:  cfg.GroupID,
		attempts: attempts,
		backoff:  backoff,
	}
}

// Start consumes until ctx is canceled, then closes the reader. Fetch errors
// are logged and retried; they never end the loop.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.logger.Info("consumer stopped")

	for ctx.Err() == nil {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.logger.Error("fetch message failed", slog.String("error", err.Error()))
			if !sleep(ctx, c.backoff) {
				break
			}
			continue
		}
		c.process(ctx, msg)
	}
	return c.Close()
}

// process handles one message. The offset is left uncommitted when ctx ends
// mid-retry so the message is redelivered after a restart.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	consumerReceived.WithLabelValues(msg.Topic, c.groupID).Inc()
	log := c.logger.With(slog.Int("partition", msg.Partition), slog.Int64("offset", msg.Offset))

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		log.Error("undecodable message", slog.String("error", err.Error()))
		c.fail(ctx, msg, err)
		return
	}

	start := time.Now()
	err = c.handle(extractTraceContext(ctx, msg.Headers), log, event)
	if ctx.Err() != nil {
		return
	}
	consumerDuration.WithLabelValues(msg.Topic, c.groupID).Observe(time.Since(start).Seconds())

	if err != nil {
		log.Error("handler gave up, dead-lettering",
			slog.String("event_id", event.EventID),
			slog.String("event_type", event.EventType),
			slog.Int("attempts", c.attempts),
			slog.String("error", err.Error()),
		)
		c.fail(ctx, msg, err)
		return
	}

	consumerProcessed.WithLabelValues(msg.Topic, c.groupID).Inc()
	c.commit(ctx, msg)
}

func (c *Consumer) handle(ctx context.Context, log *slog.Logger, event *Event) error {
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = c.handler(ctx, event); err == nil {
			return nil
		}
		if attempt == c.attempts {
			break
		}
		log.Warn("handler failed, retrying",
			slog.String("event_id", event.EventID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if !sleep(ctx, time.Duration(attempt)*c.backoff) {
			return ctx.Err()
		}
	}
	return err
}

func (c *Consumer) fail(ctx context.Context, msg kafka.Message, cause error) {
	consumerFailed.WithLabelValues(msg.Topic, c.groupID).Inc()
	if c.dlq != nil {
		if err := c.dlq.Publish(ctx, msg, cause, c.groupID); err == nil {
			consumerDeadLettered.WithLabelValues(msg.Topic, c.groupID).Inc()
		}
	}
	c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("commit failed",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the reader. Later calls return the first result.
func (c *Consumer) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.reader.Close()
	})
	return c.closeErr
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
