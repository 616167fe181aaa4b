package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/consts"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// Metrics holds all application metrics
type Metrics struct {
	// Task lifecycle
	TasksSubmitted metric.Int64Counter
	TaskAttempts   metric.Int64Counter
	TaskRetries    metric.Int64Counter
	TasksFinished  metric.Int64Counter
	TaskDuration   metric.Float64Histogram
	ActiveTasks    metric.Int64UpDownCounter

	// Per-file pipeline
	FileAnalyses    metric.Int64Counter
	AnalyzerLatency metric.Float64Histogram

	// Store maintenance
	TasksExpired metric.Int64Counter
}

var (
	globalMetrics *Metrics
	metricsMu     sync.Mutex
)

// GetMetrics returns the global metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if globalMetrics == nil {
		m, err := initMetrics()
		if err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			m = &Metrics{}
		}
		globalMetrics = m
	}
	return globalMetrics
}

// ResetMetricsForTesting drops the cached instruments so the next GetMetrics
// binds to the current global meter provider.
func ResetMetricsForTesting() {
	metricsMu.Lock()
	globalMetrics = nil
	metricsMu.Unlock()
}

func initMetrics() (*Metrics, error) {
	meter := otel.Meter(consts.ModulePath)
	m := &Metrics{}
	var err error

	if m.TasksSubmitted, err = meter.Int64Counter(
		"codereview_tasks_submitted_total",
		metric.WithDescription("Total number of submitted analysis tasks"),
		metric.WithUnit("{task}"),
	); err != nil {
		return nil, err
	}

	if m.TaskAttempts, err = meter.Int64Counter(
		"codereview_task_attempts_total",
		metric.WithDescription("Total number of task execution attempts"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}

	if m.TaskRetries, err = meter.Int64Counter(
		"codereview_task_retries_total",
		metric.WithDescription("Total number of scheduled task retries"),
		metric.WithUnit("{retry}"),
	); err != nil {
		return nil, err
	}

	if m.TasksFinished, err = meter.Int64Counter(
		"codereview_tasks_finished_total",
		metric.WithDescription("Total number of tasks reaching a terminal state"),
		metric.WithUnit("{task}"),
	); err != nil {
		return nil, err
	}

	if m.TaskDuration, err = meter.Float64Histogram(
		"codereview_task_duration_seconds",
		metric.WithDescription("Time from submission to terminal state"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 5, 10, 30, 60, 120, 300, 600),
	); err != nil {
		return nil, err
	}

	if m.ActiveTasks, err = meter.Int64UpDownCounter(
		"codereview_active_tasks",
		metric.WithDescription("Number of attempts currently executing"),
		metric.WithUnit("{task}"),
	); err != nil {
		return nil, err
	}

	if m.FileAnalyses, err = meter.Int64Counter(
		"codereview_file_analyses_total",
		metric.WithDescription("Total number of per-file analyses by outcome"),
		metric.WithUnit("{file}"),
	); err != nil {
		return nil, err
	}

	if m.AnalyzerLatency, err = meter.Float64Histogram(
		"codereview_analyzer_latency_seconds",
		metric.WithDescription("Latency of analyzer invocations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60),
	); err != nil {
		return nil, err
	}

	if m.TasksExpired, err = meter.Int64Counter(
		"codereview_tasks_expired_total",
		metric.WithDescription("Total number of expired task records evicted"),
		metric.WithUnit("{task}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordTaskSubmitted records a new submission
func (m *Metrics) RecordTaskSubmitted(ctx context.Context, kind string) {
	if m.TasksSubmitted == nil {
		return
	}
	m.TasksSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordAttemptStarted records the start of an attempt
func (m *Metrics) RecordAttemptStarted(ctx context.Context, kind string, attempt int) {
	if m.TaskAttempts != nil {
		m.TaskAttempts.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.Int("attempt", attempt),
		))
	}
	if m.ActiveTasks != nil {
		m.ActiveTasks.Add(ctx, 1)
	}
}

// RecordAttemptFinished balances RecordAttemptStarted
func (m *Metrics) RecordAttemptFinished(ctx context.Context) {
	if m.ActiveTasks != nil {
		m.ActiveTasks.Add(ctx, -1)
	}
}

// RecordRetryScheduled records a re-enqueue after a failed attempt
func (m *Metrics) RecordRetryScheduled(ctx context.Context, kind, errorCode string) {
	if m.TaskRetries == nil {
		return
	}
	m.TaskRetries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("error_code", errorCode),
	))
}

// RecordTaskFinished records a terminal transition and its end-to-end duration
func (m *Metrics) RecordTaskFinished(ctx context.Context, kind, state string, durationSeconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("state", state),
	)
	if m.TasksFinished != nil {
		m.TasksFinished.Add(ctx, 1, attrs)
	}
	if m.TaskDuration != nil {
		m.TaskDuration.Record(ctx, durationSeconds, attrs)
	}
}

// RecordFileAnalysis records the outcome of one file in the pipeline
func (m *Metrics) RecordFileAnalysis(ctx context.Context, outcome string) {
	if m.FileAnalyses == nil {
		return
	}
	m.FileAnalyses.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordAnalyzerCall records analyzer latency by backend and success
func (m *Metrics) RecordAnalyzerCall(ctx context.Context, backend string, success bool, durationSeconds float64) {
	if m.AnalyzerLatency == nil {
		return
	}
	m.AnalyzerLatency.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.Bool("success", success),
	))
}

// RecordExpired records evicted task records
func (m *Metrics) RecordExpired(ctx context.Context, count int64) {
	if m.TasksExpired == nil || count <= 0 {
		return
	}
	m.TasksExpired.Add(ctx, count)
}
