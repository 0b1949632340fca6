// Package tasks tracks detached fire-and-forget units of work, such as
// notification handlers, so that shutdown can wait for them.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrShuttingDown = errors.New("task pool is shutting down")
	ErrDrainTimeout = errors.New("task pool drain timed out")
)

type Pool struct {
	mu       sync.Mutex
	inflight map[uint64]string // id -> task name
	nextID   uint64
	stopping bool
	drained  chan struct{} // closed by the last finishing task once stopping

	log *zap.Logger
}

func New(log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		inflight: make(map[uint64]string),
		log:      log.Named("tasks"),
	}
}

// Submit starts fn in its own goroutine and tracks it until it returns.
// Errors and panics of fn are logged, nobody waits for them.
func (p *Pool) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		return ErrShuttingDown
	}
	p.nextID++
	id := p.nextID
	p.inflight[id] = name
	p.mu.Unlock()

	go p.run(ctx, id, name, fn)
	return nil
}

func (p *Pool) run(ctx context.Context, id uint64, name string, fn func(ctx context.Context) error) {
	defer p.release(id)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked", zap.String("task", name), zap.Any("panic", r))
		}
	}()

	if err := fn(ctx); err != nil {
		p.log.Error("task failed", zap.String("task", name), zap.Error(err))
	}
}

func (p *Pool) release(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.inflight, id)
	if p.stopping && len(p.inflight) == 0 && p.drained != nil {
		close(p.drained)
		p.drained = nil
	}
}

// InFlight returns the number of running tasks.
func (p *Pool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

// DrainAndStop stops accepting tasks and waits up to timeout for the running
// ones. Tasks still running after the timeout are abandoned, not cancelled.
func (p *Pool) DrainAndStop(timeout time.Duration) error {
	p.mu.Lock()
	p.stopping = true
	if len(p.inflight) == 0 {
		p.mu.Unlock()
		return nil
	}
	if p.drained == nil {
		p.drained = make(chan struct{})
	}
	drained := p.drained
	p.mu.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-drained:
		p.log.Debug("all tasks finished")
		return nil
	case <-t.C:
	}

	p.mu.Lock()
	left := len(p.inflight)
	names := make([]string, 0, min(left, 10))
	for _, name := range p.inflight {
		if len(names) == cap(names) {
			break
		}
		names = append(names, name)
	}
	p.mu.Unlock()

	if left == 0 {
		return nil
	}
	p.log.Warn("abandoning unfinished tasks",
		zap.Int("count", left),
		zap.Strings("tasks", names),
		zap.Duration("timeout", timeout),
	)
	return fmt.Errorf("%w: %d tasks abandoned", ErrDrainTimeout, left)
}
