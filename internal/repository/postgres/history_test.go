package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
)

func TestHistoryRepository_Insert(t *testing.T) {
	mock := newMock(t)
	repo := NewHistoryRepository(mock)
	at := time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC)
	doc := []byte(`{"change":"Creation"}`)

	mock.ExpectExec("INSERT INTO case_histories (.+) ON CONFLICT \\(event_id\\) DO NOTHING").
		WithArgs("evt-1", "1", doc, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Insert(context.Background(), domain.HistoryKindCase, "evt-1", "1", doc, at)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_Insert_RoutesByKind(t *testing.T) {
	mock := newMock(t)
	repo := NewHistoryRepository(mock)

	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO user_activity_logs").
		WithArgs("evt-2", "u1", []byte(`{}`), at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Insert(context.Background(), domain.HistoryKindActivity, "evt-2", "u1", []byte(`{}`), at)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_Insert_UnknownKind(t *testing.T) {
	mock := newMock(t)
	repo := NewHistoryRepository(mock)

	err := repo.Insert(context.Background(), "history.unknown", "evt-3", "x", nil, time.Now())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown history kind")
	assert.NoError(t, mock.ExpectationsWereMet())
}
