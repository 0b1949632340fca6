package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Observation describes one finished request.
type Observation struct {
	Method       string
	Code         int // 0 on success
	Notification bool
	Duration     time.Duration
}

type Reporter interface {
	Observe(o Observation)
}

type Noop struct{}

func (Noop) Observe(Observation) {}

// Counters accumulates observations and prints them periodically.
type Counters struct {
	start time.Time

	ok            atomic.Uint64
	failed        atomic.Uint64
	notifications atomic.Uint64
	busy          atomic.Int64 // суммарное время выполнения, нс

	mu     sync.Mutex
	byCode map[int]uint64

	last     Snapshot
	lastTime time.Time
}

func NewCounters() *Counters {
	now := time.Now()
	return &Counters{start: now, lastTime: now, byCode: make(map[int]uint64)}
}

func (c *Counters) Observe(o Observation) {
	c.busy.Add(int64(o.Duration))
	if o.Notification {
		c.notifications.Add(1)
	}
	if o.Code == 0 {
		c.ok.Add(1)
		return
	}
	c.failed.Add(1)
	c.mu.Lock()
	c.byCode[o.Code]++
	c.mu.Unlock()
}

type Snapshot struct {
	OK            uint64
	Failed        uint64
	Notifications uint64
	Busy          time.Duration
	ByCode        map[int]uint64
}

func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		OK:            c.ok.Load(),
		Failed:        c.failed.Load(),
		Notifications: c.notifications.Load(),
		Busy:          time.Duration(c.busy.Load()),
		ByCode:        make(map[int]uint64),
	}
	c.mu.Lock()
	for code, n := range c.byCode {
		s.ByCode[code] = n
	}
	c.mu.Unlock()
	return s
}

func (s Snapshot) Total() uint64 { return s.OK + s.Failed }

func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "total=%s ok=%s failed=%s notifications=%s",
		humanize.Comma(int64(s.Total())),
		humanize.Comma(int64(s.OK)),
		humanize.Comma(int64(s.Failed)),
		humanize.Comma(int64(s.Notifications)),
	)
	if total := s.Total(); total > 0 {
		fmt.Fprintf(&b, " avg=%s", s.Busy/time.Duration(total))
	}
	codes := make([]int, 0, len(s.ByCode))
	for code := range s.ByCode {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(&b, " code[%d]=%s", code, humanize.Comma(int64(s.ByCode[code])))
	}
	return b.String()
}

// Run writes a line per period with the requests seen during that period
// and the totals once ctx is done.
func (c *Counters) Run(ctx context.Context, w io.Writer, period time.Duration) error {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			c.report(w, now)
		case <-ctx.Done():
			_, err := fmt.Fprintf(w, "total %s uptime=%s\n", c.Snapshot(), time.Since(c.start).Round(time.Millisecond))
			return err
		}
	}
}

func (c *Counters) report(w io.Writer, now time.Time) {
	s := c.Snapshot()
	period := now.Sub(c.lastTime)
	delta := s.Total() - c.last.Total()
	rate := float64(delta) / period.Seconds()
	fmt.Fprintf(w, "period total=%s ok=%s failed=%s req/s=%.2f\n",
		humanize.Comma(int64(delta)),
		humanize.Comma(int64(s.OK-c.last.OK)),
		humanize.Comma(int64(s.Failed-c.last.Failed)),
		rate,
	)
	c.last, c.lastTime = s, now
}
