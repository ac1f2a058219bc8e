package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
)

// DefaultAppendTimeout bounds a single append.
const DefaultAppendTimeout = 2 * time.Second

var appendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recam_history_append_failures_total",
	Help: "History records that could not be appended, by kind.",
}, []string{"kind"})

// Recorder appends history records on behalf of a primary operation. It
// has no error return: failures are logged and counted, then dropped.
type Recorder struct {
	sink    Sink
	logger  *slog.Logger
	timeout time.Duration
}

// NewRecorder creates a Recorder writing to sink.
func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger, timeout: DefaultAppendTimeout}
}

// WithTimeout returns a copy of r using the given per-append timeout.
func (r *Recorder) WithTimeout(d time.Duration) *Recorder {
	cpy := *r
	cpy.timeout = d
	return &cpy
}

// Record appends each record in order. The appends outlive cancellation of
// ctx so that a client disconnect after a committed write still leaves an
// audit trail.
func (r *Recorder) Record(ctx context.Context, recs ...domain.HistoryRecord) {
	if r == nil || r.sink == nil {
		return
	}

	base := context.WithoutCancel(ctx)
	for _, rec := range recs {
		appendCtx, cancel := context.WithTimeout(base, r.timeout)
		err := r.sink.Append(appendCtx, rec)
		cancel()

		if err != nil {
			appendFailures.WithLabelValues(rec.HistoryKind()).Inc()
			r.logger.ErrorContext(ctx, "failed to append history record",
				slog.String("kind", rec.HistoryKind()),
				slog.String("aggregate_id", rec.AggregateID()),
				slog.String("error", err.Error()),
			)
		}
	}
}
