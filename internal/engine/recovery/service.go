// Package recovery re-queues unfinished tasks on startup.
package recovery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/store"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// TaskEnqueuer allows components to enqueue tasks for processing.
type TaskEnqueuer interface {
	Enqueue(task *task.Task) bool
}

// Service handles recovery of pending and running tasks on startup.
type Service struct {
	store       store.ResultStore
	enqueuer    TaskEnqueuer
	maxAttempts int
	resultTTL   time.Duration
}

// NewService creates a new recovery Service instance.
// maxAttempts is the total number of executions a task may use.
func NewService(s store.ResultStore, enqueuer TaskEnqueuer, maxAttempts int, resultTTL time.Duration) *Service {
	return &Service{
		store:       s,
		enqueuer:    enqueuer,
		maxAttempts: maxAttempts,
		resultTTL:   resultTTL,
	}
}

// RecoverToQueue loads unfinished records and re-queues them. A record whose
// attempts are used up, or whose kind is unknown, is marked failed instead.
// The interrupted attempt of a running record counts as used.
func (s *Service) RecoverToQueue(ctx context.Context) (recovered, failed int) {
	records, err := s.store.ListUnfinished(ctx)
	if err != nil {
		logger.Error("Failed to query unfinished tasks for recovery", zap.Error(err))
		return 0, 0
	}

	if len(records) == 0 {
		logger.Info("No unfinished tasks to recover")
		return 0, 0
	}

	logger.Info("Recovering unfinished tasks to memory queue", zap.Int("count", len(records)))

	for _, rec := range records {
		if ok, reason := s.shouldRecover(rec); !ok {
			logger.Warn("Task cannot be recovered, marking as failed",
				zap.String(logger.FieldTaskID, rec.ID),
				zap.String("state", string(rec.State)),
				zap.Int(logger.FieldAttempt, rec.Attempt),
				zap.String("reason", reason),
			)
			if err := s.markFailed(ctx, rec, reason); err != nil {
				logger.Error("Failed to mark unrecoverable task as failed",
					zap.String(logger.FieldTaskID, rec.ID),
					zap.Error(err),
				)
			}
			failed++
			continue
		}

		if s.enqueuer.Enqueue(task.FromRecord(rec)) {
			recovered++
			logger.Info("Task recovered to queue",
				zap.String(logger.FieldTaskID, rec.ID),
				zap.String(logger.FieldTaskKind, string(rec.Kind)),
				zap.String("state", string(rec.State)),
			)
		}
	}

	logger.Info("Task recovery completed",
		zap.Int("total", len(records)),
		zap.Int("recovered", recovered),
		zap.Int("failed", failed),
	)
	return recovered, failed
}

// shouldRecover checks whether a record can run again
func (s *Service) shouldRecover(rec *model.TaskRecord) (bool, string) {
	if !rec.Kind.Valid() {
		return false, fmt.Sprintf("unknown task kind %q", rec.Kind)
	}
	if rec.Attempt >= s.maxAttempts {
		return false, fmt.Sprintf("all %d attempt(s) used before restart", rec.Attempt)
	}
	return true, ""
}

func (s *Service) markFailed(ctx context.Context, rec *model.TaskRecord, reason string) error {
	now := time.Now()
	expiresAt := now.Add(s.resultTTL)

	cause := errors.New(errors.ErrCodeTaskExhausted, "recovery failed: "+reason)
	if rec.LastError != "" {
		cause.Err = fmt.Errorf("%s", rec.LastError)
	}

	rec.State = model.TaskStateFailed
	rec.Error = cause.Error()
	rec.Result = nil
	rec.CompletedAt = &now
	rec.ExpiresAt = &expiresAt
	return s.store.Transition(ctx, rec)
}
