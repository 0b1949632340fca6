package pool

import "sync"

// SlicePool keeps released items for reuse. When limit > 0 at most limit
// items are retained, the rest are left to the GC.
type SlicePool[T any] struct {
	mu    sync.Mutex
	s     []T
	limit int
}

func NewSlicePool[T any]() *SlicePool[T] {
	return new(SlicePool[T])
}

func NewSlicePoolSize[T any](size int) *SlicePool[T] {
	return &SlicePool[T]{s: make([]T, 0, size), limit: size}
}

func (p *SlicePool[T]) Acquire() (v T, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l := len(p.s)
	if l == 0 {
		return v, false
	}

	v = p.s[l-1]
	var zero T
	p.s[l-1] = zero
	p.s = p.s[:l-1]
	return v, true
}

func (p *SlicePool[T]) Release(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.limit > 0 && len(p.s) >= p.limit {
		return
	}
	p.s = append(p.s, v)
}

func (p *SlicePool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.s)
}

// BufferPool hands out byte buffers and refuses to keep oversized ones.
type BufferPool struct {
	pool    *SlicePool[[]byte]
	initCap int
	maxCap  int
}

func NewBufferPool(size, initCap, maxCap int) *BufferPool {
	return &BufferPool{NewSlicePoolSize[[]byte](size), initCap, maxCap}
}

func (p *BufferPool) Acquire() []byte {
	b, ok := p.pool.Acquire()
	if !ok {
		return make([]byte, 0, p.initCap)
	}
	return b[:0]
}

func (p *BufferPool) Release(b []byte) {
	if cap(b) > p.maxCap {
		return
	}
	p.pool.Release(b[:0])
}
