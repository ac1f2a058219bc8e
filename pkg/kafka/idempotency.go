package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers processed event ids. Implementations must be
// safe for concurrent use.
type IdempotencyStore interface {
	Contains(ctx context.Context, eventID string) (bool, error)
	Add(ctx context.Context, eventID string) error
}

// sweepEvery is how many Adds pass between sweeps of expired memory entries.
const sweepEvery = 1024

// MemoryIdempotencyStore keeps event ids in process memory. It only dedupes
// within one process lifetime.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	ttl     time.Duration
	adds    int
	now     func() time.Time
}

// NewMemoryIdempotencyStore creates a store whose entries live for ttl.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Contains reports whether eventID was added and has not expired.
func (s *MemoryIdempotencyStore) Contains(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expires[eventID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.expires, eventID)
		return false, nil
	}
	return true, nil
}

// Add records eventID for the store TTL.
func (s *MemoryIdempotencyStore) Add(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expires[eventID] = now.Add(s.ttl)
	s.adds++
	if s.adds%sweepEvery == 0 {
		for id, exp := range s.expires {
			if !now.Before(exp) {
				delete(s.expires, id)
			}
		}
	}
	return nil
}

// Len returns the number of entries, expired ones included.
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

// RedisIdempotencyStore keeps event ids in Redis so worker replicas share
// one dedupe window.
type RedisIdempotencyStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a store that namespaces keys under prefix.
func NewRedisIdempotencyStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisIdempotencyStore) key(eventID string) string {
	return s.prefix + ":" + eventID
}

// Contains reports whether the event key exists.
func (s *RedisIdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Add sets the event key with the store TTL.
func (s *RedisIdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, s.key(eventID), 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// IdempotentHandler skips events whose id the store has already seen and
// records an id only after inner succeeds. A store lookup failure processes
// the event anyway: a duplicate history row is preferable to a lost one.
// Events without an id always pass through.
func IdempotentHandler(store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.EventID == "" {
			return inner(ctx, event)
		}
		log := logger.With(
			slog.String("event_id", event.EventID),
			slog.String("event_type", event.EventType),
		)

		seen, err := store.Contains(ctx, event.EventID)
		switch {
		case err != nil:
			log.WarnContext(ctx, "idempotency lookup failed, processing anyway", slog.String("error", err.Error()))
		case seen:
			duplicatesSkipped.WithLabelValues(event.EventType).Inc()
			log.DebugContext(ctx, "skipping duplicate event", slog.String("aggregate_id", event.AggregateID))
			return nil
		}

		if err := inner(ctx, event); err != nil {
			return err
		}
		if err := store.Add(ctx, event.EventID); err != nil {
			log.WarnContext(ctx, "failed to record processed event", slog.String("error", err.Error()))
		}
		return nil
	}
}
