package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Base provides the hook plumbing and cooperative cancellation shared by
// every concrete task handle. Cancellation is context based: Stop and
// Terminate both cancel the task context; the task body decides how
// quickly it honors that.
type Base struct {
	run func(ctx context.Context) error

	mu          sync.Mutex
	started     bool
	finishedFns []func()
	progressFns []func(message string)
	errorFns    []func(message string)
	completeFns []func(success bool)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBase wraps a task body. The body runs on its own goroutine after
// Start and must return promptly once its context is cancelled.
func NewBase(run func(ctx context.Context) error) *Base {
	ctx, cancel := context.WithCancel(context.Background())
	return &Base{
		run:    run,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start launches the task body. Fails synchronously on a nil body,
// a second Start, or a handle already cancelled.
func (b *Base) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return errors.New("no task body")
	}
	if b.started {
		return errors.New("task already started")
	}
	if err := b.ctx.Err(); err != nil {
		return fmt.Errorf("task cancelled before start: %w", err)
	}
	b.started = true

	go b.loop()
	return nil
}

func (b *Base) loop() {
	defer close(b.done)
	defer b.fireFinished()

	err := b.safeRun()
	switch {
	case err == nil:
		b.fireComplete(true)
	case errors.Is(err, context.Canceled):
		// Cancellation is not a task failure.
	default:
		b.fireError(err.Error())
		b.fireComplete(false)
	}
}

func (b *Base) safeRun() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return b.run(b.ctx)
}

// Stop requests cooperative cancellation.
func (b *Base) Stop() error {
	b.cancel()
	return nil
}

// Terminate requests cancellation. At this layer it is identical to
// Stop; the distinction matters only for handles with harder kill paths.
func (b *Base) Terminate() error {
	b.cancel()
	return nil
}

// Wait blocks until the task body has returned. Start must have
// succeeded first.
func (b *Base) Wait() {
	<-b.done
}

// OnFinished registers a hook fired exactly once when the task's
// goroutine exits, regardless of outcome.
func (b *Base) OnFinished(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finishedFns = append(b.finishedFns, fn)
}

// OnProgress registers a coarse progress hook.
func (b *Base) OnProgress(fn func(message string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.progressFns = append(b.progressFns, fn)
}

// OnError registers a runtime-error hook.
func (b *Base) OnError(fn func(message string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorFns = append(b.errorFns, fn)
}

// OnComplete registers a definitive success/failure hook.
func (b *Base) OnComplete(fn func(success bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completeFns = append(b.completeFns, fn)
}

// ReportProgress lets task bodies emit progress messages through the
// registered hooks.
func (b *Base) ReportProgress(message string) {
	b.mu.Lock()
	fns := append([]func(string){}, b.progressFns...)
	b.mu.Unlock()

	for _, fn := range fns {
		fn(message)
	}
}

func (b *Base) fireFinished() {
	b.mu.Lock()
	fns := append([]func(){}, b.finishedFns...)
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (b *Base) fireError(message string) {
	b.mu.Lock()
	fns := append([]func(string){}, b.errorFns...)
	b.mu.Unlock()

	for _, fn := range fns {
		fn(message)
	}
}

func (b *Base) fireComplete(success bool) {
	b.mu.Lock()
	fns := append([]func(bool){}, b.completeFns...)
	b.mu.Unlock()

	for _, fn := range fns {
		fn(success)
	}
}

// Func is the simplest concrete handle: an arbitrary function run as a
// background task.
type Func struct {
	*Base
}

// NewFunc wraps fn as a task handle.
func NewFunc(fn func(ctx context.Context) error) *Func {
	return &Func{Base: NewBase(fn)}
}
