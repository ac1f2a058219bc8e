package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error { return nil }

func probe(t *testing.T, h http.HandlerFunc) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLiveness(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", func(context.Context) error { return errors.New("down") })

	code, resp := probe(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadiness(t *testing.T) {
	refused := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	tests := []struct {
		name        string
		postgres    Checker
		kafka       Checker
		wantCode    int
		wantOverall Status
	}{
		{"all up", up, up, http.StatusOK, StatusUp},
		{"kafka down degrades", up, refused, http.StatusOK, StatusDegraded},
		{"postgres down fails", refused, up, http.StatusServiceUnavailable, StatusDown},
		{"both down fails", refused, refused, http.StatusServiceUnavailable, StatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			h.RegisterCritical("postgres", tt.postgres)
			h.RegisterNonCritical("kafka", tt.kafka)

			code, resp := probe(t, h.ReadinessHandler())
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantOverall, resp.Status)
			require.Len(t, resp.Checks, 2)
			assert.True(t, resp.Checks["postgres"].Critical)
			assert.False(t, resp.Checks["kafka"].Critical)
		})
	}
}

func TestReadiness_ReportsCheckError(t *testing.T) {
	h := NewHandler()
	h.RegisterNonCritical("history_sink", func(context.Context) error { return errors.New("circuit open") })

	_, resp := probe(t, h.ReadinessHandler())
	assert.Equal(t, StatusDown, resp.Checks["history_sink"].Status)
	assert.Equal(t, "circuit open", resp.Checks["history_sink"].Error)
}

func TestReadiness_NoChecks(t *testing.T) {
	code, resp := probe(t, NewHandler().ReadinessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
}

func TestReadiness_ChecksShareTimeout(t *testing.T) {
	h := NewHandler().WithTimeout(20 * time.Millisecond)
	h.RegisterCritical("postgres", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	code, resp := probe(t, h.ReadinessHandler())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["postgres"].Error)
}

func TestRegister_ReplacesByName(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("redis", func(context.Context) error { return errors.New("down") })
	h.RegisterNonCritical("redis", up)

	code, resp := probe(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Checks["redis"].Critical)
	assert.Equal(t, StatusUp, resp.Checks["redis"].Status)
}
