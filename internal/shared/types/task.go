package types

import "fmt"

// TaskHandle is the minimum contract for a background task tracked by the
// coordination core. Start may fail synchronously; the finished hook fires
// exactly once when the task's execution context exits, regardless of cause.
type TaskHandle interface {
	Start() error
	OnFinished(fn func())
}

// Optional capabilities. Handles expose whichever subset they support;
// the managers probe once at registration and degrade gracefully when a
// capability is absent.

// Stopper requests a cooperative stop.
type Stopper interface {
	Stop() error
}

// Terminator requests a forceful termination. Preferred over Stop when
// both are present.
type Terminator interface {
	Terminate() error
}

// ProgressNotifier lets the manager observe coarse progress messages.
type ProgressNotifier interface {
	OnProgress(fn func(message string))
}

// ErrorNotifier lets the manager observe task runtime errors.
type ErrorNotifier interface {
	OnError(fn func(message string))
}

// CompletionNotifier lets the task signal definitive success or failure
// ahead of the generic finished hook.
type CompletionNotifier interface {
	OnComplete(fn func(success bool))
}

// TerminateHandle invokes whichever termination capability the handle
// exposes, preferring Terminate when both are present. A handle exposing
// neither is a no-op: cancellation is cooperative and a task that ignores
// both requests cannot be killed at this layer. Panics raised by the
// capability are converted to errors so best-effort shutdown paths never
// crash the coordinator.
func TerminateHandle(handle TaskHandle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("termination panic: %v", r)
		}
	}()

	switch h := handle.(type) {
	case Terminator:
		return h.Terminate()
	case Stopper:
		return h.Stop()
	default:
		return nil
	}
}
