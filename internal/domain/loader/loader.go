package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/logging"
)

// ProgressSink receives the weighted-average completion fraction in [0,1]
// and the name of the task that just ran. Invoked synchronously between
// tasks; must not block.
type ProgressSink func(fraction float64, taskName string)

// Task is one named startup step.
type Task struct {
	Name   string
	Weight float64
	Run    func(ctx context.Context) error
}

// Loader sequences named startup tasks and reports weighted progress.
// Individual task failures are logged and do not stop the sequence;
// context cancellation does.
type Loader struct {
	log  *logging.Logger
	sink ProgressSink

	mu    sync.Mutex
	tasks []Task
	done  bool
}

// New creates a loader. A nil sink disables progress reporting.
func New(logger *logging.Logger, sink ProgressSink) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loader{log: logger, sink: sink}
}

// Add appends a task to the sequence. Weights at or below zero count
// as 1. Adding after Execute has run is a no-op.
func (l *Loader) Add(name string, weight float64, run func(ctx context.Context) error) {
	if weight <= 0 {
		weight = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.tasks = append(l.tasks, Task{Name: name, Weight: weight, Run: run})
}

// Execute runs the sequence in registration order. Returns the joined
// task failures, or the context error when cancelled between tasks.
// Progress is reported after each task whether it succeeded or not.
func (l *Loader) Execute(ctx context.Context) error {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return errors.New("loader already executed")
	}
	l.done = true
	tasks := l.tasks
	l.mu.Unlock()

	var total float64
	for _, t := range tasks {
		total += t.Weight
	}
	if total == 0 {
		l.report(1, "")
		return nil
	}

	var completed float64
	var failures []error

	l.report(0, "")
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			l.log.Warn("startup loading cancelled",
				zap.String("next_task", t.Name),
				zap.Error(err),
			)
			return err
		}

		start := time.Now()
		if err := l.runTask(ctx, t); err != nil {
			l.log.Error("startup task failed",
				zap.String("task", t.Name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			failures = append(failures, err)
		} else {
			l.log.Info("startup task completed",
				zap.String("task", t.Name),
				zap.Duration("elapsed", time.Since(start)),
			)
		}

		completed += t.Weight
		l.report(completed/total, t.Name)
	}

	return errors.Join(failures...)
}

// runTask isolates task panics the same way observer dispatch does.
func (l *Loader) runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{task: t.Name, value: r}
		}
	}()
	return t.Run(ctx)
}

func (l *Loader) report(fraction float64, taskName string) {
	if l.sink != nil {
		l.sink(fraction, taskName)
	}
}

type panicError struct {
	task  string
	value interface{}
}

func (e *panicError) Error() string {
	return "task " + e.task + " panicked"
}
