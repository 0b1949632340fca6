package model

import "context"

// Future is an in-flight asynchronous result. When a method returns one,
// the invoker awaits it before building the response.
type Future interface {
	Await(ctx context.Context) (any, error)
}

type future struct {
	done   chan struct{}
	result any
	err    error
}

// Go runs fn in its own goroutine and returns its Future.
func Go(fn func() (any, error)) Future {
	f := &future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = &PanicError{Value: r}
			}
		}()
		f.result, f.err = fn()
	}()
	return f
}

func (f *future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
