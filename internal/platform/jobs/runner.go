package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrRunnerClosed is returned when a task is submitted after Shutdown began.
var ErrRunnerClosed = errors.New("jobs: runner is shut down")

// Task is a unit of detached background work. It is an alias so callers can declare
// runner interfaces without importing this package.
type Task = func(ctx context.Context) error

// Outcome labels how a task finished.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomePanicked  Outcome = "panicked"
)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Timeout bounds each task. Zero means no per-task deadline.
	Timeout time.Duration
	// Logger receives one event per task failure or panic.
	Logger func(ctx context.Context, event string, fields map[string]any)
	// OnFinish is invoked after every task with its name, outcome and duration.
	OnFinish func(name string, outcome Outcome, elapsed time.Duration)
}

// Runner executes fire-and-forget tasks detached from the request that spawned them.
// Task errors and panics are logged and dropped; they never reach the caller.
type Runner struct {
	opts RunnerOptions

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewRunner constructs a Runner.
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{opts: opts}
}

// Go schedules fn in a new goroutine. The task context keeps the values of ctx (logger, trace ids)
// but not its cancellation, so it outlives the HTTP request.
func (r *Runner) Go(ctx context.Context, name string, fn Task) (string, error) {
	if fn == nil {
		return "", errors.New("jobs: task is nil")
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrRunnerClosed
	}
	r.wg.Add(1)
	r.mu.Unlock()

	taskID := ulid.Make().String()
	go r.run(context.WithoutCancel(ctx), taskID, name, fn)
	return taskID, nil
}

func (r *Runner) run(ctx context.Context, taskID, name string, fn Task) {
	defer r.wg.Done()

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	started := time.Now()
	outcome := OutcomeSucceeded
	defer func() {
		if rec := recover(); rec != nil {
			outcome = OutcomePanicked
			r.log(ctx, "jobs.task.panic", map[string]any{
				"task":   name,
				"taskId": taskID,
				"panic":  fmt.Sprint(rec),
				"stack":  string(debug.Stack()),
			})
		}
		if r.opts.OnFinish != nil {
			r.opts.OnFinish(name, outcome, time.Since(started))
		}
	}()

	if err := fn(ctx); err != nil {
		outcome = OutcomeFailed
		r.log(ctx, "jobs.task.failed", map[string]any{
			"task":   name,
			"taskId": taskID,
			"error":  err.Error(),
		})
	}
}

// Shutdown stops accepting tasks and waits for in-flight ones until ctx is done.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) log(ctx context.Context, event string, fields map[string]any) {
	if r.opts.Logger != nil {
		r.opts.Logger(ctx, event, fields)
	}
}
