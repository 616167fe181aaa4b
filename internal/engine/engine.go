// This file implements the Engine: task submission, the per-attempt state
// machine with retries, and status lookups.
package engine

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/recovery"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/retry"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/notification"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/store"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/idgen"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/telemetry"
)

// Task lifecycle events written to the log
const (
	eventSubmitted      = "task_submitted"
	eventAttemptStarted = "attempt_started"
	eventRetryScheduled = "retry_scheduled"
	eventSucceeded      = "task_succeeded"
	eventFailed         = "task_failed"
)

const (
	defaultWaitPollInterval = 100 * time.Millisecond
	notifyTimeout           = 10 * time.Second

	// maxStoreFailures bounds consecutive store errors for one task before it
	// is left for recovery on the next start
	maxStoreFailures       = 5
	defaultStoreRetryDelay = 100 * time.Millisecond
)

// Options configures an Engine
type Options struct {
	Workers   int
	QueueSize int
	// MaxRetries is the number of re-executions after the first failed attempt
	MaxRetries int
	RetryDelay time.Duration
	// AttemptTimeout bounds one attempt; zero means no bound
	AttemptTimeout time.Duration
	// ResultTTL is how long a terminal record stays readable
	ResultTTL        time.Duration
	WaitPollInterval time.Duration
}

// OptionsFromConfig converts task configuration to engine options
func OptionsFromConfig(cfg config.TaskConfig) Options {
	return Options{
		Workers:          cfg.Workers,
		QueueSize:        cfg.QueueSize,
		MaxRetries:       cfg.MaxRetries,
		RetryDelay:       cfg.RetryDelayDuration(),
		AttemptTimeout:   cfg.AttemptTimeoutDuration(),
		ResultTTL:        cfg.ResultTTLDuration(),
		WaitPollInterval: cfg.WaitPollIntervalDuration(),
	}
}

// Engine accepts tasks and drives them to a terminal state.
// The store is the source of truth; the queue only carries task ids and payloads.
type Engine struct {
	opts     Options
	store    store.ResultStore
	executor Executor
	notifier Notifier
	policy   *retry.Policy

	queue      *TaskQueue
	dispatcher *Dispatcher
	recovery   *recovery.Service

	// timers holds pending retry timers by task id
	timersMu sync.Mutex
	timers   map[string]*time.Timer
	stopping bool

	// notifyWg tracks in-flight notification deliveries
	notifyWg sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine creates a new engine. notifier may be nil.
func NewEngine(opts Options, s store.ResultStore, exec Executor, notifier Notifier) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.WaitPollInterval <= 0 {
		opts.WaitPollInterval = defaultWaitPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	queue := NewTaskQueue(ctx)
	policy := retry.NewPolicy(opts.MaxRetries, opts.RetryDelay)

	e := &Engine{
		opts:     opts,
		store:    s,
		executor: exec,
		notifier: notifier,
		policy:   policy,
		queue:    queue,
		timers:   make(map[string]*time.Timer),
		ctx:      ctx,
		cancel:   cancel,
	}

	e.dispatcher = NewDispatcher(ctx, queue, &DispatcherConfig{
		MaxWorkers: opts.Workers,
		QueueSize:  opts.QueueSize,
	}, e.processTask)
	e.recovery = recovery.NewService(s, queue, policy.MaxAttempts(), opts.ResultTTL)

	return e
}

// Start starts the workers and re-queues tasks left unfinished by a previous run.
func (e *Engine) Start() {
	logger.Info("Starting task engine",
		zap.Int("workers", e.opts.Workers),
		zap.Int("max_retries", e.policy.MaxRetries),
		zap.Duration("retry_delay", e.policy.Delay),
	)

	e.dispatcher.Start()
	e.recovery.RecoverToQueue(e.ctx)

	logger.Info("Task engine started")
}

// Stop cancels pending retries, stops accepting work and waits for running
// attempts and notification deliveries until ctx is done. Attempts still
// running after that are cancelled and left for recovery.
func (e *Engine) Stop(ctx context.Context) error {
	logger.Info("Stopping task engine")

	e.timersMu.Lock()
	e.stopping = true
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	e.timersMu.Unlock()

	e.queue.Stop()

	done := make(chan struct{})
	go func() {
		e.dispatcher.Stop()
		e.notifyWg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("Grace period expired, cancelling running attempts")
		err = ctx.Err()
		e.cancel()
		<-done
	}

	e.cancel()
	logger.Info("Task engine stopped")
	return err
}

// Submit validates req, stores a pending record and queues it.
// It returns the new task id.
func (e *Engine) Submit(ctx context.Context, req task.Request) (string, error) {
	if req == nil {
		return "", errors.ErrInvalidRequest("request is required")
	}
	if err := e.executor.Validate(req); err != nil {
		return "", err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", errors.ErrInternal("failed to encode task payload", err)
	}

	rec := &model.TaskRecord{
		ID:      idgen.NewTaskID(),
		Kind:    req.Kind(),
		State:   model.TaskStatePending,
		Payload: model.JSONRaw(payload),
	}
	if err := e.store.Create(ctx, rec); err != nil {
		return "", err
	}

	if !e.queue.Enqueue(task.FromRecord(rec)) {
		// The record stays pending and is recovered on the next start.
		logger.Warn("Task stored but not queued, engine is stopping",
			zap.String(logger.FieldTaskID, rec.ID),
		)
	}

	telemetry.GetMetrics().RecordTaskSubmitted(ctx, string(rec.Kind))
	logger.LogTaskEvent(eventSubmitted, rec.ID, string(rec.Kind), 0)
	return rec.ID, nil
}

// Status returns the external projection of a task. Unknown and expired ids
// project to "unknown" without error.
func (e *Engine) Status(ctx context.Context, id string) (task.Status, error) {
	rec, err := e.store.Read(ctx, id)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeTaskNotFound) {
			return task.ProjectStatus(id, nil), nil
		}
		return task.Status{}, err
	}
	return task.ProjectStatus(id, rec), nil
}

// Wait polls the store until the task is terminal or ctx is done.
// On ctx expiry it returns an ErrCodeTimeout error; the task keeps running.
func (e *Engine) Wait(ctx context.Context, id string) (*model.TaskRecord, error) {
	ticker := time.NewTicker(e.opts.WaitPollInterval)
	defer ticker.Stop()

	for {
		rec, err := e.store.Read(ctx, id)
		if err != nil && !isContextError(err) {
			return nil, err
		}
		if rec != nil && rec.State.IsTerminal() {
			return rec, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.ErrCodeTimeout, fmt.Sprintf("task %s did not finish in time", id), ctx.Err())
		case <-ticker.C:
		}
	}
}

// QueueStats returns the in-memory queue counters
func (e *Engine) QueueStats() QueueStats {
	return e.queue.GetStats()
}

// processTask runs one attempt of t and records its outcome.
// It is called by dispatcher workers.
func (e *Engine) processTask(t *task.Task) {
	ctx, span := telemetry.StartSpan(e.ctx, "engine.process_task",
		trace.WithAttributes(
			attribute.String("task.id", t.ID),
			attribute.String("task.kind", string(t.Kind)),
		),
	)
	defer span.End()

	rec, err := e.store.Read(ctx, t.ID)
	if err != nil {
		telemetry.SetSpanError(span, err)
		if errors.HasCode(err, errors.ErrCodeTaskNotFound) {
			logger.Warn("Skipping task without a stored record",
				zap.String(logger.FieldTaskID, t.ID),
			)
			return
		}
		e.requeueAfterStoreError(t, "read task record", err)
		return
	}
	if rec.State.IsTerminal() {
		return
	}

	if e.policy.Exhausted(rec.Attempt) {
		e.finishFailed(ctx, t, rec, rec.Attempt, lastFailure(rec))
		return
	}
	attempt := rec.Attempt + 1

	now := time.Now()
	rec.State = model.TaskStateRunning
	rec.Attempt = attempt
	if rec.StartedAt == nil {
		rec.StartedAt = &now
	}
	if err := e.store.Transition(ctx, rec); err != nil {
		telemetry.SetSpanError(span, err)
		e.requeueAfterStoreError(t, "mark task running", err)
		return
	}
	t.StoreFailures = 0

	span.SetAttributes(attribute.Int("task.attempt", attempt))
	logger.LogTaskEvent(eventAttemptStarted, rec.ID, string(rec.Kind), attempt)

	metrics := telemetry.GetMetrics()
	metrics.RecordAttemptStarted(ctx, string(rec.Kind), attempt)
	result, runErr := e.runAttempt(ctx, rec)
	metrics.RecordAttemptFinished(ctx)

	if runErr != nil && e.ctx.Err() != nil {
		// Shutdown cancelled the attempt. The record stays running for recovery.
		logger.Warn("Attempt interrupted by shutdown",
			zap.String(logger.FieldTaskID, rec.ID),
			zap.Int(logger.FieldAttempt, attempt),
		)
		return
	}

	if runErr == nil {
		err := e.finishSucceeded(ctx, rec, result)
		if err == nil {
			telemetry.SetSpanOK(span)
			return
		}
		if errors.HasCode(err, errors.ErrCodeStateConflict) {
			logDropped(rec.ID, err)
			return
		}
		// The result never reached the store, so the attempt counts as failed.
		runErr = err
	}

	telemetry.SetSpanError(span, runErr)

	decision := e.policy.Next(attempt, runErr)
	if !decision.ShouldRetry() {
		e.finishFailed(ctx, t, rec, attempt, runErr)
		return
	}

	rec.LastError = runErr.Error()
	if err := e.store.Transition(ctx, rec); err != nil {
		if errors.HasCode(err, errors.ErrCodeStateConflict) {
			logDropped(rec.ID, err)
			return
		}
		// The retry below still runs; only the recorded cause is lost.
		logger.Error("Failed to record attempt failure",
			zap.String(logger.FieldTaskID, rec.ID),
			zap.Error(err),
		)
	}

	code := errors.CodeOf(runErr)
	metrics.RecordRetryScheduled(ctx, string(rec.Kind), string(code))
	logger.LogTaskEvent(eventRetryScheduled, rec.ID, string(rec.Kind), attempt,
		zap.String("error_code", string(code)),
		zap.Duration("delay", decision.Delay),
		zap.Error(runErr),
	)
	e.scheduleRetry(t, decision.Delay)
}

// requeueAfterStoreError runs t again after a failed store operation so its
// record still reaches a terminal state. A state conflict means another
// writer already moved the record on, and t is dropped.
func (e *Engine) requeueAfterStoreError(t *task.Task, op string, err error) {
	if errors.HasCode(err, errors.ErrCodeStateConflict) {
		logDropped(t.ID, err)
		return
	}

	t.StoreFailures++
	if t.StoreFailures > maxStoreFailures {
		logger.Error("Store keeps failing, leaving task for recovery",
			zap.String(logger.FieldTaskID, t.ID),
			zap.String("operation", op),
			zap.Int("failures", t.StoreFailures),
			zap.Error(err),
		)
		return
	}

	delay := e.policy.Delay
	if delay <= 0 {
		delay = defaultStoreRetryDelay
	}
	logger.Warn("Store operation failed, re-queueing task",
		zap.String(logger.FieldTaskID, t.ID),
		zap.String("operation", op),
		zap.Int("failures", t.StoreFailures),
		zap.Duration("delay", delay),
		zap.Error(err),
	)
	e.scheduleRetry(t, delay)
}

func logDropped(id string, err error) {
	logger.Info("Task record already moved on, dropping stale attempt",
		zap.String(logger.FieldTaskID, id),
		zap.Error(err),
	)
}

// runAttempt executes the work function under the attempt timeout.
// A panic becomes an internal error and a deadline becomes ErrCodeTimeout.
func (e *Engine) runAttempt(ctx context.Context, rec *model.TaskRecord) (result json.RawMessage, err error) {
	attemptCtx := ctx
	if e.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, e.opts.AttemptTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic during task attempt",
				zap.String(logger.FieldTaskID, rec.ID),
				zap.Any("panic", r),
			)
			result = nil
			err = errors.ErrInternal("task attempt panicked", fmt.Errorf("%v", r))
		}
	}()

	result, err = e.executor.Execute(attemptCtx, rec.Kind, rec.Payload)
	if err != nil && stderrors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.HasCode(err, errors.ErrCodeTimeout) {
		err = errors.Wrap(errors.ErrCodeTimeout, fmt.Sprintf("attempt exceeded %s", e.opts.AttemptTimeout), err)
	}
	return result, err
}

// scheduleRetry re-queues t after delay unless the engine stops first
func (e *Engine) scheduleRetry(t *task.Task, delay time.Duration) {
	e.timersMu.Lock()
	defer e.timersMu.Unlock()

	if e.stopping {
		return
	}
	e.timers[t.ID] = e.policy.Schedule(e.ctx, delay, func() {
		e.timersMu.Lock()
		delete(e.timers, t.ID)
		e.timersMu.Unlock()

		if !e.queue.Enqueue(t) {
			logger.Warn("Retry not queued", zap.String(logger.FieldTaskID, t.ID))
		}
	})
}

// finishSucceeded stores the result. rec is left unchanged when the write fails.
func (e *Engine) finishSucceeded(ctx context.Context, rec *model.TaskRecord, result json.RawMessage) error {
	now := time.Now()
	expiresAt := now.Add(e.opts.ResultTTL)

	done := *rec
	done.State = model.TaskStateSucceeded
	done.Result = model.JSONRaw(result)
	done.Error = ""
	done.LastError = ""
	done.CompletedAt = &now
	done.ExpiresAt = &expiresAt

	if err := e.store.Transition(ctx, &done); err != nil {
		logger.Error("Failed to store task result",
			zap.String(logger.FieldTaskID, rec.ID),
			zap.Error(err),
		)
		return err
	}

	telemetry.GetMetrics().RecordTaskFinished(ctx, string(done.Kind), string(done.State), e.elapsed(&done, now))
	logger.LogTaskEvent(eventSucceeded, done.ID, string(done.Kind), done.Attempt)
	e.notify(&done, notification.EventTaskCompleted)
	return nil
}

// finishFailed stores the terminal failure. When the write fails, t is
// re-queued and the next run finds the record exhausted or retries it.
func (e *Engine) finishFailed(ctx context.Context, t *task.Task, rec *model.TaskRecord, attempts int, cause error) {
	now := time.Now()
	expiresAt := now.Add(e.opts.ResultTTL)

	failed := *rec
	failed.State = model.TaskStateFailed
	failed.Result = nil
	failed.Error = errors.Wrap(errors.ErrCodeTaskExhausted,
		fmt.Sprintf("task failed after %d attempt(s)", attempts), cause).Error()
	failed.LastError = ""
	failed.CompletedAt = &now
	failed.ExpiresAt = &expiresAt

	if err := e.store.Transition(ctx, &failed); err != nil {
		e.requeueAfterStoreError(t, "store task failure", err)
		return
	}

	telemetry.GetMetrics().RecordTaskFinished(ctx, string(failed.Kind), string(failed.State), e.elapsed(&failed, now))
	logger.LogTaskEvent(eventFailed, failed.ID, string(failed.Kind), attempts,
		zap.String("error_code", string(errors.CodeOf(cause))),
		zap.String("error", failed.Error),
	)
	e.notify(&failed, notification.EventTaskFailed)
}

func (e *Engine) elapsed(rec *model.TaskRecord, now time.Time) float64 {
	if rec.StartedAt == nil {
		return 0
	}
	return now.Sub(*rec.StartedAt).Seconds()
}

// notify sends a task outcome event without blocking the worker
func (e *Engine) notify(rec *model.TaskRecord, eventType notification.EventType) {
	if e.notifier == nil {
		return
	}

	event := &notification.Event{
		Type:         eventType,
		TaskID:       rec.ID,
		TaskKind:     string(rec.Kind),
		RepoURL:      repoOf(rec),
		Attempts:     rec.Attempt,
		ErrorMessage: rec.Error,
		Timestamp:    time.Now(),
	}
	if rec.StartedAt != nil && rec.CompletedAt != nil {
		event.Extra = map[string]interface{}{
			"duration_ms": rec.CompletedAt.Sub(*rec.StartedAt).Milliseconds(),
		}
	}

	// Deliveries outlive the worker but not the engine: Stop waits for them
	// and cancels them when its grace period ends.
	e.notifyWg.Add(1)
	go func() {
		defer e.notifyWg.Done()
		ctx, cancel := context.WithTimeout(e.ctx, notifyTimeout)
		defer cancel()
		_ = e.notifier.Notify(ctx, event)
	}()
}

// repoOf reads the repository URL from a stored payload
func repoOf(rec *model.TaskRecord) string {
	req, err := task.DecodeRequest(rec.Kind, rec.Payload)
	if err != nil {
		return ""
	}
	return req.Repo()
}

// lastFailure rebuilds the cause of a record's most recent failed attempt
func lastFailure(rec *model.TaskRecord) error {
	if rec.LastError == "" {
		return errors.New(errors.ErrCodeTaskExhausted, "no attempts remaining")
	}
	return stderrors.New(rec.LastError)
}

func isContextError(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
