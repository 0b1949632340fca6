package lru

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key      K
	value    V
	deadline time.Time
}

// LRU is a bounded cache with an absolute per-entry TTL. ttl <= 0 disables expiration.
type LRU[K comparable, V any] struct {
	maxSize int
	ttl     time.Duration
	items   map[K]*list.Element
	list    *list.List
	mu      sync.Mutex

	now func() time.Time
}

func New[K comparable, V any](maxSize int, ttl time.Duration) *LRU[K, V] {
	if maxSize < 1 {
		panic("assertion error: maxSize < 1")
	}
	return &LRU[K, V]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[K]*list.Element, maxSize),
		list:    list.New(),
		now:     time.Now,
	}
}

// Get fetch item from lru and increase eviction order. Expired items are dropped.
func (l *LRU[K, V]) Get(key K) (v V, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	element, ok := l.items[key]
	if !ok {
		return v, false
	}
	e := element.Value.(*entry[K, V])
	if l.ttl > 0 && l.now().After(e.deadline) {
		l.remove(element)
		return v, false
	}
	l.list.MoveToFront(element)
	return e.value, true
}

// Add inserts or replaces an item, evicting the least recently used one on overflow.
func (l *LRU[K, V]) Add(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	deadline := l.now().Add(l.ttl)
	if element, ok := l.items[key]; ok {
		e := element.Value.(*entry[K, V])
		e.value, e.deadline = value, deadline
		l.list.MoveToFront(element)
		return
	}

	if len(l.items) >= l.maxSize {
		l.remove(l.list.Back())
	}

	l.items[key] = l.list.PushFront(&entry[K, V]{key, value, deadline})
}

func (l *LRU[K, V]) Remove(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if element, ok := l.items[key]; ok {
		l.remove(element)
	}
}

func (l *LRU[K, V]) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make(map[K]*list.Element, l.maxSize)
	l.list.Init()
}

func (l *LRU[K, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *LRU[K, V]) remove(element *list.Element) {
	l.list.Remove(element)
	delete(l.items, element.Value.(*entry[K, V]).key)
}
