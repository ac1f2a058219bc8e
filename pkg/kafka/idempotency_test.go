package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newClockedStore(ttl time.Duration) (*MemoryIdempotencyStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := NewMemoryIdempotencyStore(ttl)
	s.now = clock.now
	return s, clock
}

func TestMemoryIdempotencyStore_AddAndExpire(t *testing.T) {
	store, clock := newClockedStore(time.Minute)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	require.NoError(t, store.Add(ctx, "evt-1"))
	assert.Equal(t, 1, store.Len())

	clock.t = clock.t.Add(59 * time.Second)
	seen, _ = store.Contains(ctx, "evt-1")
	assert.True(t, seen)

	clock.t = clock.t.Add(time.Second)
	seen, _ = store.Contains(ctx, "evt-1")
	assert.False(t, seen)
	assert.Zero(t, store.Len(), "expired entry is dropped on lookup")
}

func TestMemoryIdempotencyStore_SweepsOnAdd(t *testing.T) {
	store, clock := newClockedStore(time.Minute)
	ctx := context.Background()

	for i := range sweepEvery - 1 {
		require.NoError(t, store.Add(ctx, fmt.Sprintf("old-%d", i)))
	}
	clock.t = clock.t.Add(time.Hour)
	require.NoError(t, store.Add(ctx, "fresh"))

	assert.Equal(t, 1, store.Len())
}

func TestMemoryIdempotencyStore_Concurrent(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Add(ctx, fmt.Sprintf("evt-%d", i%5))
			_, _ = store.Contains(ctx, "evt-0")
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
}

type failingStore struct{}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store unavailable")
}
func (failingStore) Add(context.Context, string) error { return errors.New("store unavailable") }

func countingHandler(calls *int, err error) Handler {
	return func(context.Context, *Event) error {
		*calls++
		return err
	}
}

func TestIdempotentHandler(t *testing.T) {
	handlerErr := errors.New("insert history: deadlock")

	tests := []struct {
		name      string
		store     IdempotencyStore
		events    []string
		innerErr  error
		wantCalls int
	}{
		{"first delivery processed", NewMemoryIdempotencyStore(time.Minute), []string{"evt-1"}, nil, 1},
		{"redelivery skipped", NewMemoryIdempotencyStore(time.Minute), []string{"evt-1", "evt-1"}, nil, 1},
		{"distinct ids both processed", NewMemoryIdempotencyStore(time.Minute), []string{"evt-1", "evt-2"}, nil, 2},
		{"missing id always processed", NewMemoryIdempotencyStore(time.Minute), []string{"", "", ""}, nil, 3},
		{"failure is retried", NewMemoryIdempotencyStore(time.Minute), []string{"evt-1", "evt-1"}, handlerErr, 2},
		{"store down fails open", failingStore{}, []string{"evt-1", "evt-1"}, nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			h := IdempotentHandler(tt.store, countingHandler(&calls, tt.innerErr), testLogger())

			for _, id := range tt.events {
				err := h(context.Background(), &Event{EventID: id, EventType: "CaseHistory", AggregateID: "42"})
				if tt.innerErr != nil {
					assert.ErrorIs(t, err, tt.innerErr)
				} else {
					assert.NoError(t, err)
				}
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRedisIdempotencyStore_Key(t *testing.T) {
	store := NewRedisIdempotencyStore(nil, "recam:history:seen", time.Hour)
	assert.Equal(t, "recam:history:seen:evt-1", store.key("evt-1"))
}
