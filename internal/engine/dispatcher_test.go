package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
)

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func isRunning(d *Dispatcher) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// TestDefaultDispatcherConfig tests the default dispatcher configuration
func TestDefaultDispatcherConfig(t *testing.T) {
	config := DefaultDispatcherConfig()

	if config.MaxWorkers != 4 {
		t.Errorf("MaxWorkers = %d, want 4", config.MaxWorkers)
	}
	if config.QueueSize != 100 {
		t.Errorf("QueueSize = %d, want 100", config.QueueSize)
	}
}

// TestNewDispatcher tests config normalization
func TestNewDispatcher(t *testing.T) {
	q := NewTaskQueue(context.Background())

	d := NewDispatcher(context.Background(), q, &DispatcherConfig{MaxWorkers: 0, QueueSize: -1}, func(*task.Task) {})
	if d.maxWorkers != 1 {
		t.Errorf("maxWorkers = %d, want 1", d.maxWorkers)
	}
	if cap(d.taskQueue) != 0 {
		t.Errorf("channel capacity = %d, want 0", cap(d.taskQueue))
	}

	d = NewDispatcher(context.Background(), q, nil, func(*task.Task) {})
	if d.maxWorkers != 4 {
		t.Errorf("maxWorkers with nil config = %d, want 4", d.maxWorkers)
	}
}

// TestDispatcher_StartStop tests the dispatcher lifecycle
func TestDispatcher_StartStop(t *testing.T) {
	q := NewTaskQueue(context.Background())
	d := NewDispatcher(context.Background(), q, nil, func(*task.Task) {})

	if isRunning(d) {
		t.Error("Dispatcher should not be running before Start()")
	}

	d.Start()
	d.Start()
	if !isRunning(d) {
		t.Error("Dispatcher should be running after Start()")
	}

	d.Stop()
	d.Stop()
	if isRunning(d) {
		t.Error("Dispatcher should not be running after Stop()")
	}
}

// TestDispatcher_ProcessTask tests that tasks are processed and released
func TestDispatcher_ProcessTask(t *testing.T) {
	q := NewTaskQueue(context.Background())

	var processed int32
	d := NewDispatcher(context.Background(), q, &DispatcherConfig{MaxWorkers: 2, QueueSize: 10}, func(*task.Task) {
		atomic.AddInt32(&processed, 1)
	})
	d.Start()
	defer d.Stop()

	q.Enqueue(createTestTask("1"))
	q.Enqueue(createTestTask("2"))

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&processed) == 2 })
	waitFor(t, time.Second, q.IsEmpty)
}

// TestDispatcher_WorkerBound tests that no more than MaxWorkers tasks run at once
func TestDispatcher_WorkerBound(t *testing.T) {
	q := NewTaskQueue(context.Background())

	var inFlight, peak, done int32
	d := NewDispatcher(context.Background(), q, &DispatcherConfig{MaxWorkers: 2, QueueSize: 0}, func(*task.Task) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		atomic.AddInt32(&done, 1)
	})
	d.Start()
	defer d.Stop()

	for i := 0; i < 6; i++ {
		q.Enqueue(createTestTask(fmt.Sprintf("%d", i)))
	}

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&done) == 6 })
	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

// TestDispatcher_ParkedTaskRunsAfterAttempt tests that a re-enqueue during a run executes afterwards
func TestDispatcher_ParkedTaskRunsAfterAttempt(t *testing.T) {
	q := NewTaskQueue(context.Background())

	var (
		mu    sync.Mutex
		runs  int
		first = make(chan struct{})
		hold  = make(chan struct{})
	)
	d := NewDispatcher(context.Background(), q, &DispatcherConfig{MaxWorkers: 2, QueueSize: 1}, func(*task.Task) {
		mu.Lock()
		runs++
		n := runs
		mu.Unlock()
		if n == 1 {
			close(first)
			<-hold
		}
	})
	d.Start()
	defer d.Stop()

	q.Enqueue(createTestTask("1"))
	<-first

	if !q.Enqueue(createTestTask("1")) {
		t.Fatal("re-enqueue during the attempt should be parked")
	}
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	if runs != 1 {
		t.Errorf("runs = %d while first attempt is running, want 1", runs)
	}
	mu.Unlock()

	close(hold)
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 2
	})
}

// TestDispatcher_StopWaitsForRunningTask tests that Stop lets the current task finish
func TestDispatcher_StopWaitsForRunningTask(t *testing.T) {
	q := NewTaskQueue(context.Background())

	started := make(chan struct{})
	var finished int32
	d := NewDispatcher(context.Background(), q, &DispatcherConfig{MaxWorkers: 1}, func(*task.Task) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
	})
	d.Start()

	q.Enqueue(createTestTask("1"))
	<-started
	d.Stop()

	if atomic.LoadInt32(&finished) != 1 {
		t.Error("Stop() returned before the running task finished")
	}
}

// TestDispatcher_SequentialStartStop tests sequential start/stop calls
func TestDispatcher_SequentialStartStop(t *testing.T) {
	q := NewTaskQueue(context.Background())

	for i := 0; i < 3; i++ {
		d := NewDispatcher(context.Background(), q, nil, func(*task.Task) {})

		d.Start()
		if !isRunning(d) {
			t.Errorf("Iteration %d: Dispatcher should be running after Start()", i)
		}

		d.Stop()
		if isRunning(d) {
			t.Errorf("Iteration %d: Dispatcher should not be running after Stop()", i)
		}
	}
}
