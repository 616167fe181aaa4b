// Package retry decides whether a failed task attempt is re-run and schedules
// the re-enqueue.
package retry

import (
	"context"
	"time"

	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// Action is the outcome of a retry decision
type Action int

const (
	// GiveUp marks the task failed
	GiveUp Action = iota
	// RetryAfter re-enqueues the task after Decision.Delay
	RetryAfter
)

// String returns the action name for logs
func (a Action) String() string {
	if a == RetryAfter {
		return "retry"
	}
	return "give_up"
}

// Decision is returned by Policy.Next
type Decision struct {
	Action Action
	Delay  time.Duration
}

// ShouldRetry reports whether the task is re-enqueued
func (d Decision) ShouldRetry() bool {
	return d.Action == RetryAfter
}

// Policy bounds whole-task retries. MaxRetries counts re-executions, so a
// permanently failing task runs MaxRetries+1 times.
type Policy struct {
	MaxRetries int
	Delay      time.Duration
}

// NewPolicy creates a Policy, clamping negative values to zero
func NewPolicy(maxRetries int, delay time.Duration) *Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if delay < 0 {
		delay = 0
	}
	return &Policy{MaxRetries: maxRetries, Delay: delay}
}

// MaxAttempts returns the total number of executions allowed
func (p *Policy) MaxAttempts() int {
	return p.MaxRetries + 1
}

// Next decides what follows a failed attempt. attempt is 1-indexed and is
// the attempt that just failed. Invalid requests fail the same way on every
// attempt and are never retried.
func (p *Policy) Next(attempt int, err error) Decision {
	if err == nil || attempt > p.MaxRetries || errors.HasCode(err, errors.ErrCodeInvalidRequest) {
		return Decision{Action: GiveUp}
	}
	return Decision{Action: RetryAfter, Delay: p.Delay}
}

// Exhausted reports whether no attempts remain after attempt
func (p *Policy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts()
}

// Schedule runs fn after delay unless ctx is done by then.
// The returned timer can be stopped to cancel the callback.
func (p *Policy) Schedule(ctx context.Context, delay time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		fn()
	})
}
