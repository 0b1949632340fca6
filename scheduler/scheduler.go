// Package scheduler decides when the n-th payload of a bench run is due.
package scheduler

import (
	"errors"
	"math"
	"time"
)

var (
	ErrRate     = errors.New("rate must be positive")
	ErrDuration = errors.New("duration must be positive")
)

// Scheduler returns the offset from the start of the run at which payload
// n (counting from 1) is due. ok is false once the run is over.
type Scheduler interface {
	Next(n int64) (at time.Duration, ok bool)
}

// CountLimiter stops s after limit payloads.
type CountLimiter struct {
	s     Scheduler
	limit int64
}

func NewCountLimiter(s Scheduler, limit int64) CountLimiter {
	return CountLimiter{s, limit}
}

func (cl CountLimiter) Next(n int64) (time.Duration, bool) {
	if n > cl.limit {
		return 0, false
	}
	return cl.s.Next(n)
}

// Constant spreads payloads evenly at a fixed rate.
type Constant struct {
	interval time.Duration
}

func NewConstant(perSecond uint64) (Constant, error) {
	if perSecond == 0 {
		return Constant{}, ErrRate
	}
	return Constant{time.Second / time.Duration(perSecond)}, nil
}

func (c Constant) Next(n int64) (time.Duration, bool) {
	return time.Duration(n-1) * c.interval, true
}

// Unlimited makes every payload due immediately.
type Unlimited struct{}

func (Unlimited) Next(int64) (time.Duration, bool) {
	return 0, true
}

// Line ramps the rate linearly from one value to another over a duration.
// Payload n is due when the area under the rate line reaches n-1.
type Line struct {
	from  float64
	slope float64 // прирост rps за секунду
}

func NewLine(from, to float64, d time.Duration) (Line, error) {
	if d <= 0 {
		return Line{}, ErrDuration
	}
	if from < 0 || to < 0 || from+to == 0 {
		return Line{}, ErrRate
	}
	return Line{from: from, slope: (to - from) / d.Seconds()}, nil
}

func (l Line) Next(n int64) (time.Duration, bool) {
	done := float64(n - 1)
	if l.slope == 0 {
		return time.Duration(done / l.from * float64(time.Second)), true
	}
	// from*t + slope*t²/2 = done
	d := l.from*l.from + 2*l.slope*done
	if d < 0 {
		return 0, false
	}
	t := (math.Sqrt(d) - l.from) / l.slope
	return time.Duration(t * float64(time.Second)), true
}
