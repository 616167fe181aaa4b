package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/engine/task"
	"github.com/Tushar-r12345/ai-code-review-analysis/internal/model"
)

// createTestTask creates a task for testing
func createTestTask(id string) *task.Task {
	return &task.Task{
		ID:        id,
		Kind:      model.TaskKindPRMetadata,
		Payload:   []byte(`{"repo_url":"octo/hello","pr_number":1}`),
		CreatedAt: time.Now(),
	}
}

// TestNewTaskQueue tests creating a new queue
func TestNewTaskQueue(t *testing.T) {
	q := NewTaskQueue(context.Background())

	if q == nil {
		t.Fatal("NewTaskQueue() returned nil")
	}
	if q.pending == nil || q.pendingByID == nil || q.running == nil || q.parked == nil {
		t.Error("queue maps are not initialized")
	}
	if q.taskReady == nil {
		t.Error("taskReady channel is nil")
	}
	if !q.IsEmpty() {
		t.Error("new queue should be empty")
	}
}

// TestTaskQueue_Enqueue tests enqueueing tasks
func TestTaskQueue_Enqueue(t *testing.T) {
	q := NewTaskQueue(context.Background())

	t.Run("enqueue task", func(t *testing.T) {
		if !q.Enqueue(createTestTask("1")) {
			t.Error("Enqueue() returned false")
		}
		if got := q.GetStats().Pending; got != 1 {
			t.Errorf("GetStats().Pending = %d, want 1", got)
		}
	})

	t.Run("duplicate task", func(t *testing.T) {
		if q.Enqueue(createTestTask("1")) {
			t.Error("Enqueue() should reject a task that is already pending")
		}
	})

	t.Run("nil task", func(t *testing.T) {
		if q.Enqueue(nil) {
			t.Error("Enqueue(nil) should return false")
		}
	})

	t.Run("task without id", func(t *testing.T) {
		if q.Enqueue(&task.Task{}) {
			t.Error("Enqueue() should reject a task without id")
		}
	})
}

// TestTaskQueue_Dequeue tests dequeueing tasks
func TestTaskQueue_Dequeue(t *testing.T) {
	q := NewTaskQueue(context.Background())

	if got := q.Dequeue(); got != nil {
		t.Errorf("Dequeue() on empty queue = %v, want nil", got)
	}

	q.Enqueue(createTestTask("1"))
	got := q.Dequeue()
	if got == nil || got.ID != "1" {
		t.Fatalf("Dequeue() = %v, want task 1", got)
	}

	stats := q.GetStats()
	if stats.Pending != 0 || stats.Running != 1 {
		t.Errorf("GetStats() = %+v, want 0 pending, 1 running", stats)
	}
}

// TestTaskQueue_MarkComplete tests clearing the running mark
func TestTaskQueue_MarkComplete(t *testing.T) {
	q := NewTaskQueue(context.Background())

	q.Enqueue(createTestTask("1"))
	q.Dequeue()
	q.MarkComplete("1")

	if stats := q.GetStats(); stats.Running != 0 {
		t.Errorf("GetStats().Running = %d after MarkComplete(), want 0", stats.Running)
	}
	if !q.IsEmpty() {
		t.Error("queue should be empty after MarkComplete()")
	}

	// Unknown ids are ignored
	q.MarkComplete("missing")
}

// TestTaskQueue_ParkWhileRunning tests that a re-enqueue during an attempt waits for it
func TestTaskQueue_ParkWhileRunning(t *testing.T) {
	q := NewTaskQueue(context.Background())

	q.Enqueue(createTestTask("1"))
	q.Dequeue()

	if !q.Enqueue(createTestTask("1")) {
		t.Fatal("Enqueue() of a running task should park it")
	}
	if q.Enqueue(createTestTask("1")) {
		t.Error("second Enqueue() of a parked task should be rejected")
	}
	if got := q.Dequeue(); got != nil {
		t.Errorf("parked task must not be dequeued while running, got %v", got.ID)
	}

	stats := q.GetStats()
	if stats.Parked != 1 {
		t.Errorf("Parked = %d, want 1", stats.Parked)
	}

	q.MarkComplete("1")

	got := q.Dequeue()
	if got == nil || got.ID != "1" {
		t.Fatalf("Dequeue() after MarkComplete() = %v, want task 1", got)
	}
}

// TestTaskQueue_GetStats tests queue statistics
func TestTaskQueue_GetStats(t *testing.T) {
	q := NewTaskQueue(context.Background())

	q.Enqueue(createTestTask("1"))
	q.Enqueue(createTestTask("2"))
	q.Enqueue(createTestTask("3"))
	q.Dequeue()

	stats := q.GetStats()
	if stats.Pending != 2 {
		t.Errorf("Pending = %d, want 2", stats.Pending)
	}
	if stats.Running != 1 {
		t.Errorf("Running = %d, want 1", stats.Running)
	}
}

// TestTaskQueue_TaskReady tests the ready signal
func TestTaskQueue_TaskReady(t *testing.T) {
	q := NewTaskQueue(context.Background())
	q.Enqueue(createTestTask("1"))

	select {
	case <-q.TaskReady():
	case <-time.After(100 * time.Millisecond):
		t.Error("TaskReady() did not signal after Enqueue()")
	}
}

// TestTaskQueue_Stop tests that a stopped queue rejects new tasks
func TestTaskQueue_Stop(t *testing.T) {
	q := NewTaskQueue(context.Background())
	q.Stop()
	q.Stop()

	if q.Enqueue(createTestTask("1")) {
		t.Error("Enqueue() should fail after Stop()")
	}
	if q.ctx.Err() == nil {
		t.Error("queue context should be cancelled after Stop()")
	}
}

// TestTaskQueue_FIFOOrder tests tasks leave in arrival order
func TestTaskQueue_FIFOOrder(t *testing.T) {
	q := NewTaskQueue(context.Background())

	for i := 0; i < 5; i++ {
		q.Enqueue(createTestTask(fmt.Sprintf("%d", i)))
	}

	for i := 0; i < 5; i++ {
		got := q.Dequeue()
		want := fmt.Sprintf("%d", i)
		if got == nil || got.ID != want {
			t.Fatalf("Dequeue() #%d = %v, want %s", i, got, want)
		}
	}
}

// TestTaskQueue_ConcurrentEnqueue tests concurrent enqueueing
func TestTaskQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewTaskQueue(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Enqueue(createTestTask(fmt.Sprintf("%d", i)))
		}(i)
	}
	wg.Wait()

	if got := q.GetStats().Pending; got != 100 {
		t.Errorf("GetStats().Pending = %d, want 100", got)
	}
}

// TestTaskQueue_ConcurrentDequeue tests that each task is handed out once
func TestTaskQueue_ConcurrentDequeue(t *testing.T) {
	q := NewTaskQueue(context.Background())
	for i := 0; i < 50; i++ {
		q.Enqueue(createTestTask(fmt.Sprintf("%d", i)))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]int)
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				got := q.Dequeue()
				if got == nil {
					return
				}
				mu.Lock()
				seen[got.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 50 {
		t.Errorf("dequeued %d distinct tasks, want 50", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("task %s dequeued %d times", id, n)
		}
	}
}
