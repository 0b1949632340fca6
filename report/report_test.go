package report

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	c := NewCounters()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o := Observation{Method: "Add", Duration: time.Millisecond}
			if i%4 == 0 {
				o.Code = -32601
			}
			if i%10 == 0 {
				o.Notification = true
			}
			c.Observe(o)
		}(i)
	}
	wg.Wait()

	s := c.Snapshot()
	a.Equal(uint64(75), s.OK)
	a.Equal(uint64(25), s.Failed)
	a.Equal(uint64(10), s.Notifications)
	a.Equal(uint64(25), s.ByCode[-32601])
	a.Equal(100*time.Millisecond, s.Busy)
	a.Equal("total=100 ok=75 failed=25 notifications=10 avg=1ms code[-32601]=25", s.String())
}

func TestCountersRun(t *testing.T) {
	t.Parallel()

	c := NewCounters()
	c.Observe(Observation{Method: "Echo"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := new(bytes.Buffer)
	assert.NoError(t, c.Run(ctx, out, time.Hour))
	assert.Contains(t, out.String(), "total total=1 ok=1 failed=0")
}

func TestNoop(t *testing.T) {
	t.Parallel()
	var r Reporter = Noop{}
	r.Observe(Observation{})
}
