package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
)

type task struct {
	run    TaskFunc
	config TaskConfig
}

// poller implements the Poller interface
type poller struct {
	logger *logger.CanonicalLogger

	mu       sync.Mutex
	tasks    map[string]task
	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPoller creates a new Poller instance
func NewPoller(log *logger.CanonicalLogger) Poller {
	return &poller{
		logger: log,
		tasks:  make(map[string]task),
		stopCh: make(chan struct{}),
	}
}

// RegisterTask registers a task with its schedule
func (p *poller) RegisterTask(name string, run TaskFunc, config TaskConfig) error {
	if name == "" || run == nil || config.Interval <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidTask, name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}
	if _, exists := p.tasks[name]; exists {
		return fmt.Errorf("%w: %s", ErrTaskExists, name)
	}
	p.tasks[name] = task{run: run, config: config}

	p.logger.Info("poll task registered", zap.String(logger.FieldPollName, name), zap.Duration("interval", config.Interval))
	return nil
}

// Start launches one goroutine per task
func (p *poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true

	for name, t := range p.tasks {
		p.wg.Add(1)
		go p.loop(ctx, name, t)
	}
	return nil
}

// Stop gracefully stops the poller
func (p *poller) Stop() error {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
	return nil
}

func (p *poller) loop(ctx context.Context, name string, t task) {
	defer p.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	p.logger.Info("started polling", zap.String(logger.FieldPollName, name), zap.Duration("interval", t.config.Interval))

	if t.config.RunOnStart {
		p.runOnce(ctx, name, t)
	}

	for {
		select {
		case <-p.stopCh:
			p.logger.Info("stopping poll task", zap.String(logger.FieldPollName, name))
			return
		case <-ctx.Done():
			p.logger.Info("poll context done", zap.String(logger.FieldPollName, name))
			return
		case <-ticker.C:
			p.runOnce(ctx, name, t)
		}
	}
}

// runOnce executes a single run and records the outcome on the log context
func (p *poller) runOnce(ctx context.Context, name string, t task) {
	logCtx := logger.NewLogContext()
	runCtx := logger.WithLogContext(ctx, logCtx)
	logger.AddToContext(runCtx, zap.String(logger.FieldPollName, name))

	start := time.Now()
	err := t.run(runCtx)
	fields := append(logCtx.Fields(), zap.Int64(logger.FieldDuration, time.Since(start).Milliseconds()))

	if err != nil {
		fields = append(fields, zap.Error(err), zap.Bool(logger.FieldSuccess, false))
		p.logger.Error("poll task failed", fields...)
		return
	}
	fields = append(fields, zap.Bool(logger.FieldSuccess, true))
	p.logger.Debug("poll task completed", fields...)
}
