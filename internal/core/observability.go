package core

import (
	"context"
	"time"

	"rankcore/pkg/rankings"
)

// Logger is the minimal structured logging surface the service consumes.
// Args are alternating key/value pairs in the slog convention.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the current time. Injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the function's current time.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// MetricsRecorder observes query outcomes and the rank rows excluded while
// building range tables. Dropped rows never change functional output; the
// recorder is the only place the exclusions become visible.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	ObserveDroppedRanks(ctx context.Context, source rankings.Source, column string, missing, unparsable int64)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
func (noopMetrics) ObserveDroppedRanks(context.Context, rankings.Source, string, int64, int64) {
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan finishes a span started by a Tracer.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// AuditStatus marks an audit entry outcome.
type AuditStatus string

// Audit entry outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry records one table reload: the snapshot version it produced,
// the content fingerprint, and how long the load took. Reload is the only
// state transition the service performs, so it is the only audited
// operation.
type AuditEntry struct {
	Operation   string        `json:"operation"`
	Status      AuditStatus   `json:"status"`
	Version     uint64        `json:"version"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Duration    time.Duration `json:"duration"`
	Timestamp   time.Time     `json:"timestamp"`
	Error       string        `json:"error,omitempty"`
}

// AuditRecorder receives reload audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, AuditEntry) {}

// begin instruments one service operation: it opens a span and returns the
// closer that records metrics and finishes the span.
func (s *Service) begin(ctx context.Context, operation string) (context.Context, func(err error)) {
	started := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	return ctx, func(err error) {
		duration := s.clock.Now().Sub(started)
		s.metrics.Observe(ctx, operation, err == nil, duration)
		span.End(err)
	}
}
