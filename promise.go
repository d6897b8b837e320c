package agents

import "context"

// Promise is a deferred agent result: the Go rendering of an awaitable. An
// async agent function returns one immediately and delivers the value later;
// the dispatcher awaits it the same way it awaits a blocking function.
//
// A Promise is single-use: Await consumes the delivered value, and a second
// Await on the same Promise blocks until ctx is cancelled.
type Promise[R any] struct {
	ch chan outcome[R]
}

type outcome[R any] struct {
	value R
	err   error
}

// Async runs fn in its own goroutine and returns a Promise for its result.
// The goroutine always terminates once fn returns, whether or not the
// Promise is ever awaited.
func Async[R any](fn func() (R, error)) *Promise[R] {
	p := newPromise[R]()
	go func() {
		value, err := fn()
		p.ch <- outcome[R]{value: value, err: err}
	}()
	return p
}

// Resolve returns an already-fulfilled Promise.
func Resolve[R any](value R) *Promise[R] {
	p := newPromise[R]()
	p.ch <- outcome[R]{value: value}
	return p
}

// Reject returns an already-failed Promise.
func Reject[R any](err error) *Promise[R] {
	p := newPromise[R]()
	p.ch <- outcome[R]{err: err}
	return p
}

func newPromise[R any]() *Promise[R] {
	return &Promise[R]{ch: make(chan outcome[R], 1)}
}

// Await blocks until the result is delivered or ctx is done, whichever
// comes first.
func (p *Promise[R]) Await(ctx context.Context) (R, error) {
	select {
	case out := <-p.ch:
		return out.value, out.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
