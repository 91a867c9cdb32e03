package checkout

import "context"

// Task is a deferred unit of work that can be cancelled and awaited.
// The function receives a context that is cancelled by Cancel or once fn returns.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Defer starts fn on its own goroutine.
func Defer(parent context.Context, fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		fn(ctx)
	}()
	return t
}

// Cancel asks the task to stop. Safe to call more than once.
func (t *Task) Cancel() { t.cancel() }

// Done is closed once fn has returned.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until fn has returned.
func (t *Task) Wait() { <-t.done }
