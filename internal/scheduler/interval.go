// Package scheduler holds the interval arithmetic shared by conflict detection and
// availability slots. Intervals are half-open: [Start, End).
package scheduler

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrInvalidStep is returned by Partition when the slot length is not positive.
	ErrInvalidStep = errors.New("slot length must be positive")
	// ErrWindowTooLong is returned by Partition when End-Start does not fit in a time.Duration.
	ErrWindowTooLong = errors.New("window is too long to partition")
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports a.Start < b.End && a.End > b.Start. Touching intervals do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Duration of the interval; negative when End precedes Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// span returns End-Start; ok is false when Sub saturated because the gap exceeds about 292 years.
func (i Interval) span() (d time.Duration, ok bool) {
	d = i.End.Sub(i.Start)
	return d, i.Start.Add(d).Equal(i.End)
}

// ceilDiv divides without the d+step-1 overflow.
func ceilDiv(d, step time.Duration) int {
	n := d / step
	if d%step != 0 {
		n++
	}
	return int(n)
}

// Partition splits window into consecutive slots of length step. The last slot is clipped
// to window.End rather than dropped. An empty or inverted window yields no slots.
func Partition(window Interval, step time.Duration) ([]Interval, error) {
	if step <= 0 {
		return nil, ErrInvalidStep
	}
	if !window.End.After(window.Start) {
		return []Interval{}, nil
	}
	d, ok := window.span()
	if !ok {
		return nil, ErrWindowTooLong
	}
	slots := make([]Interval, 0, ceilDiv(d, step))
	for start := window.Start; start.Before(window.End); start = start.Add(step) {
		end := start.Add(step)
		if end.After(window.End) {
			end = window.End
		}
		slots = append(slots, Interval{Start: start, End: end})
	}
	return slots, nil
}

// SlotCount returns how many slots Partition would produce without allocating them.
// A window too long to measure reports math.MaxInt.
func SlotCount(window Interval, step time.Duration) int {
	if step <= 0 || !window.End.After(window.Start) {
		return 0
	}
	d, ok := window.span()
	if !ok {
		return math.MaxInt
	}
	return ceilDiv(d, step)
}
