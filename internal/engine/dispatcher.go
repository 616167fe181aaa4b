// This file implements the Dispatcher for event-driven task scheduling.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// Dispatcher handles event-driven task dispatching from the queue to workers.
// It listens for task ready signals and dispatches tasks to available workers.
type Dispatcher struct {
	queue      *TaskQueue
	taskQueue  chan *task.Task // output channel to workers
	maxWorkers int
	workerWg   sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc

	// processFunc is the function called to process each task
	processFunc func(*task.Task)

	// running indicates if the dispatcher is running
	running bool
	mu      sync.Mutex
}

// DispatcherConfig holds configuration for the Dispatcher
type DispatcherConfig struct {
	MaxWorkers int // Maximum number of concurrent workers
	QueueSize  int // Size of the task channel buffer
}

// DefaultDispatcherConfig returns default dispatcher configuration
func DefaultDispatcherConfig() *DispatcherConfig {
	return &DispatcherConfig{
		MaxWorkers: 4,
		QueueSize:  100,
	}
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(ctx context.Context, queue *TaskQueue, config *DispatcherConfig, processFunc func(*task.Task)) *Dispatcher {
	if config == nil {
		config = DefaultDispatcherConfig()
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 1
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}

	dispatcherCtx, cancel := context.WithCancel(ctx)

	d := &Dispatcher{
		queue:       queue,
		taskQueue:   make(chan *task.Task, config.QueueSize),
		maxWorkers:  config.MaxWorkers,
		ctx:         dispatcherCtx,
		cancel:      cancel,
		processFunc: processFunc,
	}

	logger.Info("Dispatcher created",
		zap.Int("max_workers", config.MaxWorkers),
		zap.Int("queue_size", config.QueueSize),
	)

	return d
}

// Start starts the dispatcher and workers
func (d *Dispatcher) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	logger.Info("Starting Dispatcher", zap.Int("workers", d.maxWorkers))

	for i := 0; i < d.maxWorkers; i++ {
		d.workerWg.Add(1)
		go d.worker(i)
	}

	go d.dispatchLoop()
}

// dispatchLoop is the main loop that listens for task ready signals
// and dispatches tasks to workers
func (d *Dispatcher) dispatchLoop() {
	logger.Debug("Dispatch loop started")

	for {
		select {
		case <-d.ctx.Done():
			logger.Debug("Dispatch loop stopping")
			return

		case <-d.queue.TaskReady():
			d.tryDispatch()
		}
	}
}

// tryDispatch attempts to dispatch available tasks from the queue
func (d *Dispatcher) tryDispatch() {
	for {
		t := d.queue.Dequeue()
		if t == nil {
			return
		}

		select {
		case d.taskQueue <- t:
			logger.Debug("Task dispatched to worker",
				zap.String(logger.FieldTaskID, t.ID),
				zap.String(logger.FieldTaskKind, string(t.Kind)),
			)
		case <-d.ctx.Done():
			// The stored record is still pending or running; recovery picks it up on the next start.
			logger.Warn("Dispatcher stopped while dispatching task",
				zap.String(logger.FieldTaskID, t.ID),
			)
			d.queue.MarkComplete(t.ID)
			return
		}
	}
}

// worker is a goroutine that processes tasks from the task channel
func (d *Dispatcher) worker(id int) {
	defer d.workerWg.Done()

	logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-d.ctx.Done():
			logger.Debug("Worker stopping", zap.Int("worker_id", id))
			return

		case t := <-d.taskQueue:
			if t == nil {
				continue
			}
			d.run(id, t)
		}
	}
}

// run processes one task and always releases it in the queue
func (d *Dispatcher) run(workerID int, t *task.Task) {
	defer d.queue.MarkComplete(t.ID)

	logger.Debug("Worker processing task",
		zap.Int("worker_id", workerID),
		zap.String(logger.FieldTaskID, t.ID),
	)

	startTime := time.Now()
	d.processFunc(t)

	logger.Debug("Worker completed task",
		zap.Int("worker_id", workerID),
		zap.String(logger.FieldTaskID, t.ID),
		zap.Duration("duration", time.Since(startTime)),
	)
}

// Stop stops the dispatcher and waits for all workers to finish their current task
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	logger.Info("Stopping Dispatcher")

	d.cancel()
	d.workerWg.Wait()

	logger.Info("Dispatcher stopped")
}
