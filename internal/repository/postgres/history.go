package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/pkg/database"
)

var historyTables = map[string]string{
	domain.HistoryKindCase:     "case_histories",
	domain.HistoryKindMedia:    "media_asset_histories",
	domain.HistoryKindActivity: "user_activity_logs",
}

// HistoryRepository stores audit documents as JSONB, one table per kind.
type HistoryRepository struct {
	pool database.DBTX
}

// NewHistoryRepository creates a new PostgreSQL-backed history document store.
func NewHistoryRepository(pool database.DBTX) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Insert writes one document. Re-delivered events with a known event id
// are ignored.
func (r *HistoryRepository) Insert(ctx context.Context, kind, eventID, aggregateID string, document []byte, occurredAt time.Time) (err error) {
	table, ok := historyTables[kind]
	if !ok {
		return fmt.Errorf("unknown history kind %q", kind)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (event_id, aggregate_id, document, occurred_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING`, table)

	ctx, end := database.TraceQuery(ctx, "InsertHistory", query)
	defer func() { end(err) }()

	if _, err = database.Conn(ctx, r.pool).Exec(ctx, query, eventID, aggregateID, document, occurredAt); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}
