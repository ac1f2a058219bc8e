// Package history carries append-only audit records from the services to
// their document store. Writers go through a Recorder, which never lets an
// audit failure reach the primary operation.
package history

import (
	"context"
	"fmt"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	pkgkafka "github.com/CindyCUI423/Recam-sub000/pkg/kafka"
	"github.com/CindyCUI423/Recam-sub000/pkg/logger"
)

// Sink appends one history record.
type Sink interface {
	Append(ctx context.Context, rec domain.HistoryRecord) error
}

// Publisher is the subset of the Kafka producer used by KafkaSink.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// KafkaSink publishes history records as events on a single topic. The
// event type is the record kind and the key is the aggregate id, so all
// records of one listing case or asset land on the same partition.
type KafkaSink struct {
	publisher Publisher
	topic     string
	source    string
}

// NewKafkaSink creates a sink publishing to topic.
func NewKafkaSink(publisher Publisher, topic, source string) *KafkaSink {
	return &KafkaSink{publisher: publisher, topic: topic, source: source}
}

// Append wraps rec in an event envelope and publishes it.
func (s *KafkaSink) Append(ctx context.Context, rec domain.HistoryRecord) error {
	event, err := pkgkafka.NewEvent(rec.HistoryKind(), rec.AggregateID(), aggregateType(rec), s.source, rec)
	if err != nil {
		return fmt.Errorf("build history event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := s.publisher.Publish(ctx, s.topic, event); err != nil {
		return fmt.Errorf("publish %s: %w", rec.HistoryKind(), err)
	}
	return nil
}

func aggregateType(rec domain.HistoryRecord) string {
	switch rec.HistoryKind() {
	case domain.HistoryKindCase:
		return "listing_case"
	case domain.HistoryKindMedia:
		return "media_asset"
	default:
		return "user"
	}
}
