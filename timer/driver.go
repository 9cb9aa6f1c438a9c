// File: timer/driver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Deadline driver: a min-heap of pending timers, each waking one task.
// Owned by the executor loop, which bounds its blocking poll with the
// nearest deadline and fires due timers after every wakeup.

package timer

import (
	"container/heap"
	"time"

	"github.com/momentics/hioload-rt/api"
)

// Timer is one pending deadline bound to a waker.
type Timer struct {
	deadline time.Time
	waker    api.Waker
	index    int // heap position, -1 once fired or canceled
}

// Deadline returns the absolute expiry time.
func (t *Timer) Deadline() time.Time { return t.deadline }

// Pending reports whether the timer is still armed.
func (t *Timer) Pending() bool { return t.index >= 0 }

// Driver owns the pending timer set. Single-threaded, like the rest of the
// runtime state.
type Driver struct {
	timers timerHeap
	now    func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithClock substitutes the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// NewDriver creates an empty deadline driver.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Now returns the driver's current monotonic view of time.
func (d *Driver) Now() time.Time { return d.now() }

// After arms a timer waking w once delay has elapsed.
func (d *Driver) After(delay time.Duration, w api.Waker) *Timer {
	return d.At(d.now().Add(delay), w)
}

// At arms a timer waking w at the given deadline.
func (d *Driver) At(deadline time.Time, w api.Waker) *Timer {
	t := &Timer{deadline: deadline, waker: w}
	heap.Push(&d.timers, t)
	return t
}

// Cancel disarms t. Canceling a fired or already-canceled timer is a no-op,
// and a canceled timer never invokes its waker.
func (d *Driver) Cancel(t *Timer) {
	if t == nil || t.index < 0 {
		return
	}
	heap.Remove(&d.timers, t.index)
	t.index = -1
	t.waker = nil
}

// Next returns the delay until the earliest pending deadline. The second
// result is false when no timer is armed.
func (d *Driver) Next() (time.Duration, bool) {
	if d.timers.Len() == 0 {
		return 0, false
	}
	delay := d.timers[0].deadline.Sub(d.now())
	if delay < 0 {
		delay = 0
	}
	return delay, true
}

// Fire wakes every timer whose deadline has passed, in deadline order, and
// returns the number fired.
func (d *Driver) Fire() int {
	now := d.now()
	fired := 0
	for d.timers.Len() > 0 && !d.timers[0].deadline.After(now) {
		t := heap.Pop(&d.timers).(*Timer)
		t.index = -1
		w := t.waker
		t.waker = nil
		w.Wake()
		fired++
	}
	return fired
}

// Len returns the number of pending timers.
func (d *Driver) Len() int { return d.timers.Len() }

// timerHeap orders timers by deadline. Hand-rolled over container/heap; the
// runnable queue is FIFO and cannot serve deadline ordering.
type timerHeap []*Timer

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
