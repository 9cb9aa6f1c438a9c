package timer_test

import (
	"testing"
	"time"

	"github.com/momentics/hioload-rt/timer"
)

type recordWaker struct {
	owner uint64
	log   *[]uint64
}

func (w recordWaker) Wake()         { *w.log = append(*w.log, w.owner) }
func (w recordWaker) Owner() uint64 { return w.owner }

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDriver() (*timer.Driver, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	return timer.NewDriver(timer.WithClock(clock.Now)), clock
}

func TestFireWakesDueTimersInDeadlineOrder(t *testing.T) {
	d, clock := newTestDriver()

	var log []uint64
	d.After(30*time.Millisecond, recordWaker{3, &log})
	d.After(10*time.Millisecond, recordWaker{1, &log})
	d.After(20*time.Millisecond, recordWaker{2, &log})

	if delay, ok := d.Next(); !ok || delay != 10*time.Millisecond {
		t.Fatalf("Next = (%v, %v), want (10ms, true)", delay, ok)
	}

	clock.Advance(25 * time.Millisecond)
	if fired := d.Fire(); fired != 2 {
		t.Fatalf("fired = %d, want 2", fired)
	}
	if len(log) != 2 || log[0] != 1 || log[1] != 2 {
		t.Fatalf("wake order = %v, want [1 2]", log)
	}
	if d.Len() != 1 {
		t.Fatalf("pending = %d, want 1", d.Len())
	}

	clock.Advance(10 * time.Millisecond)
	d.Fire()
	if len(log) != 3 || log[2] != 3 {
		t.Fatalf("wake order = %v, want trailing 3", log)
	}
}

func TestCanceledTimerNeverFires(t *testing.T) {
	d, clock := newTestDriver()

	var log []uint64
	tm := d.After(5*time.Millisecond, recordWaker{1, &log})
	d.Cancel(tm)
	d.Cancel(tm) // idempotent

	if tm.Pending() {
		t.Fatal("canceled timer still pending")
	}
	if _, ok := d.Next(); ok {
		t.Fatal("Next reports a deadline after cancel")
	}

	clock.Advance(time.Second)
	if fired := d.Fire(); fired != 0 || len(log) != 0 {
		t.Fatalf("canceled timer fired: count=%d log=%v", fired, log)
	}
}

func TestNextClampsElapsedDeadlineToZero(t *testing.T) {
	d, clock := newTestDriver()

	var log []uint64
	d.After(5*time.Millisecond, recordWaker{1, &log})
	clock.Advance(50 * time.Millisecond)

	if delay, ok := d.Next(); !ok || delay != 0 {
		t.Fatalf("Next = (%v, %v), want (0, true) for an overdue timer", delay, ok)
	}
}
