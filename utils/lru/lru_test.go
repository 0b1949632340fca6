package lru

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRU(t *testing.T) {
	t.Parallel()

	a := assert.New(t)
	l := New[string, int](3, 0)
	l.Add("one", 1)
	l.Add("two", 2)
	l.Add("three", 3)
	_, ok := l.Get("one")
	a.True(ok)
	a.Len(l.items, 3)
	a.Equal(l.list.Len(), 3)
	l.Add("four", 4)
	a.Len(l.items, 3)
	a.Equal(l.list.Len(), 3)

	_, ok = l.Get("two")
	a.False(ok, "least recently used item must be evicted")

	lruOrder := []string{"four", "one", "three"}
	el := l.list.Front()
	for _, v := range lruOrder {
		_, ok := l.items[v]
		a.True(ok)
		a.Equal(v, el.Value.(*entry[string, int]).key)
		el = el.Next()
	}
}

func TestLRUReplace(t *testing.T) {
	t.Parallel()

	a := assert.New(t)
	l := New[string, int](2, 0)
	l.Add("k", 1)
	l.Add("k", 2)
	v, ok := l.Get("k")
	a.True(ok)
	a.Equal(2, v)
	a.Equal(1, l.Len())

	l.Remove("k")
	a.Equal(0, l.Len())

	l.Add("x", 1)
	l.Purge()
	a.Equal(0, l.Len())
	a.Equal(0, l.list.Len())
}

func TestLRUExpiration(t *testing.T) {
	t.Parallel()

	a := assert.New(t)
	l := New[string, int](2, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Add("k", 1)
	_, ok := l.Get("k")
	a.True(ok)

	now = now.Add(2 * time.Minute)
	_, ok = l.Get("k")
	a.False(ok)
	a.Equal(0, l.Len())
}

func TestLRUPanicsOnZeroSize(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { New[string, int](0, 0) })
}
