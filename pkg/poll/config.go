package poll

import (
	"errors"
	"time"
)

var (
	ErrInvalidTask    = errors.New("invalid poll task")
	ErrTaskExists     = errors.New("poll task already registered")
	ErrAlreadyStarted = errors.New("poller already started")
)

// TaskConfig holds the schedule of one task
type TaskConfig struct {
	// Interval between runs
	Interval time.Duration
	// RunOnStart runs the task once as soon as the poller starts
	RunOnStart bool
}

// DefaultTaskConfig returns a TaskConfig with sensible defaults
func DefaultTaskConfig() TaskConfig {
	return TaskConfig{
		Interval: 30 * time.Second,
	}
}
