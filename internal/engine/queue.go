// Package engine runs submitted analysis tasks: it queues them, dispatches
// them to a bounded worker pool and drives each record through its retry
// state machine.
// This file implements the TaskQueue for memory-based task queue management.
package engine

import (
	"container/list"
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// TaskQueue is a FIFO of tasks waiting for a worker.
// A task id is held at most once: either pending, running, or parked
// waiting for its running attempt to finish.
type TaskQueue struct {
	mu sync.Mutex

	// pending is the FIFO of tasks not yet dispatched
	pending *list.List

	// pendingByID allows quick lookup by task id to prevent duplicates
	pendingByID map[string]*list.Element

	// running holds ids currently executing on a worker
	running map[string]struct{}

	// parked holds tasks re-enqueued while their previous attempt was still running.
	// They move to pending in MarkComplete.
	parked map[string]*task.Task

	// taskReady signals that there are tasks ready to be processed
	taskReady chan struct{}

	// ctx and cancel for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc

	stopOnce sync.Once
}

// NewTaskQueue creates a new TaskQueue instance
func NewTaskQueue(ctx context.Context) *TaskQueue {
	queueCtx, cancel := context.WithCancel(ctx)

	q := &TaskQueue{
		pending:     list.New(),
		pendingByID: make(map[string]*list.Element),
		running:     make(map[string]struct{}),
		parked:      make(map[string]*task.Task),
		taskReady:   make(chan struct{}, 1),
		ctx:         queueCtx,
		cancel:      cancel,
	}

	logger.Debug("TaskQueue initialized")
	return q
}

// Enqueue adds a task to the back of the queue.
// Returns false if the task is nil, already pending, or already parked.
// A task whose previous attempt is still running is parked and becomes
// pending once that attempt completes.
func (q *TaskQueue) Enqueue(t *task.Task) bool {
	if t == nil || t.ID == "" {
		logger.Warn("Attempted to enqueue nil task or task without id")
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ctx.Err() != nil {
		return false
	}

	if _, exists := q.pendingByID[t.ID]; exists {
		logger.Debug("Task already in queue, skipping", zap.String(logger.FieldTaskID, t.ID))
		return false
	}
	if _, exists := q.parked[t.ID]; exists {
		logger.Debug("Task already parked, skipping", zap.String(logger.FieldTaskID, t.ID))
		return false
	}

	if _, running := q.running[t.ID]; running {
		q.parked[t.ID] = t
		logger.Debug("Task parked until its running attempt completes",
			zap.String(logger.FieldTaskID, t.ID),
		)
		return true
	}

	q.pendingByID[t.ID] = q.pending.PushBack(t)
	q.signalTaskReady()
	return true
}

// Dequeue returns the next pending task and marks it running.
// Returns nil if no tasks are pending.
func (q *TaskQueue) Dequeue() *task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	elem := q.pending.Front()
	if elem == nil {
		return nil
	}

	t := elem.Value.(*task.Task)
	q.pending.Remove(elem)
	delete(q.pendingByID, t.ID)
	q.running[t.ID] = struct{}{}

	return t
}

// MarkComplete clears the running mark for id and releases a parked re-enqueue.
// This should be called when a task attempt finishes (success or failure).
func (q *TaskQueue) MarkComplete(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.running, id)

	if t, ok := q.parked[id]; ok {
		delete(q.parked, id)
		if q.ctx.Err() == nil {
			q.pendingByID[id] = q.pending.PushBack(t)
			logger.Debug("Parked task released to queue", zap.String(logger.FieldTaskID, id))
		}
	}

	q.signalTaskReady()
}

// TaskReady returns the channel that signals when tasks are ready
func (q *TaskQueue) TaskReady() <-chan struct{} {
	return q.taskReady
}

// signalTaskReady sends a non-blocking signal to the taskReady channel
func (q *TaskQueue) signalTaskReady() {
	select {
	case q.taskReady <- struct{}{}:
	default:
		// Channel is full, which means there's already a pending signal
	}
}

// QueueStats holds queue statistics
type QueueStats struct {
	Pending int // Tasks waiting for a worker
	Running int // Tasks currently executing
	Parked  int // Re-enqueued tasks waiting for their running attempt
}

// GetStats returns queue statistics
func (q *TaskQueue) GetStats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	return QueueStats{
		Pending: q.pending.Len(),
		Running: len(q.running),
		Parked:  len(q.parked),
	}
}

// IsEmpty returns true if nothing is pending, running or parked
func (q *TaskQueue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len() == 0 && len(q.running) == 0 && len(q.parked) == 0
}

// Stop stops the queue and cancels the context. Further enqueues are rejected.
func (q *TaskQueue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.cancel()
		q.mu.Unlock()
		logger.Info("TaskQueue stopped")
	})
}
