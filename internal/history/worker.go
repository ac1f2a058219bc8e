package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	pkgkafka "github.com/CindyCUI423/Recam-sub000/pkg/kafka"
)

// Store persists history documents.
type Store interface {
	Insert(ctx context.Context, kind, eventID, aggregateID string, document []byte, occurredAt time.Time) error
}

// NewHandler returns the consumer handler that writes history events to
// store. Unknown kinds and malformed payloads are returned as errors so the
// consumer can dead-letter them.
func NewHandler(store Store, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, event *pkgkafka.Event) error {
		occurredAt, err := decode(event)
		if err != nil {
			return err
		}

		if err := store.Insert(ctx, event.EventType, event.EventID, event.AggregateID, event.Data, occurredAt); err != nil {
			return fmt.Errorf("store %s %s: %w", event.EventType, event.EventID, err)
		}

		logger.DebugContext(ctx, "history record stored",
			slog.String("kind", event.EventType),
			slog.String("event_id", event.EventID),
			slog.String("aggregate_id", event.AggregateID),
		)
		return nil
	}
}

// decode checks that the payload matches its declared kind and returns the
// time the change happened, falling back to the event timestamp.
func decode(event *pkgkafka.Event) (time.Time, error) {
	var at time.Time
	switch event.EventType {
	case domain.HistoryKindCase:
		var rec domain.CaseHistory
		if err := json.Unmarshal(event.Data, &rec); err != nil {
			return at, fmt.Errorf("decode case history: %w", err)
		}
		at = rec.OccurredAt
	case domain.HistoryKindMedia:
		var rec domain.MediaAssetHistory
		if err := json.Unmarshal(event.Data, &rec); err != nil {
			return at, fmt.Errorf("decode media asset history: %w", err)
		}
		at = rec.OccurredAt
	case domain.HistoryKindActivity:
		var rec domain.UserActivityLog
		if err := json.Unmarshal(event.Data, &rec); err != nil {
			return at, fmt.Errorf("decode user activity log: %w", err)
		}
		at = rec.OccurredAt
	default:
		return at, fmt.Errorf("unknown history kind %q", event.EventType)
	}

	if at.IsZero() {
		at = event.Timestamp
	}
	return at, nil
}
