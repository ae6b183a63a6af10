package poll

import (
	"context"
)

// Poller runs named tasks on their own interval.
type Poller interface {
	// Start launches every registered task. It returns immediately.
	Start(ctx context.Context) error
	// Stop halts all tasks and waits for running ones to return
	Stop() error
	// RegisterTask adds a task; it must be called before Start
	RegisterTask(name string, task TaskFunc, config TaskConfig) error
}

// TaskFunc is one run of a periodic task.
type TaskFunc func(ctx context.Context) error
