// File: exec/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Task: an independently schedulable unit of suspended computation.

package exec

import (
	"time"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/reactor"
	"github.com/momentics/hioload-rt/timer"
)

// Status is the scheduling state of a task.
type Status uint8

const (
	// StatusRunnable: queued or currently being resumed.
	StatusRunnable Status = iota
	// StatusSuspended: waiting on readiness, a timer, or another task.
	StatusSuspended
	// StatusCompleted: terminal; the slot has been reaped.
	StatusCompleted
)

// Op is a resumable computation. The executor calls it once per resumption;
// the returned Step reports whether the task completed or suspended again.
// State that must survive a suspension lives in the Op's closure.
//
// The argument t is only valid for the duration of the call.
type Op func(t *Task) Step

// Step is the result of one resumption, created through the Task methods
// Done, Complete, Fail, Pending and Yield.
type Step struct {
	done bool
	next Op
}

// Task is a live entry in the executor's task table. Tasks are owned
// exclusively by the table and never aliased outside a resumption.
type Task struct {
	id  uint64
	e   *Executor
	op  Op
	st  Status
	res *result

	// scheduled suppresses duplicate enqueues between wake and resumption.
	scheduled bool
	canceled  bool

	tokens []reactor.Token
	timers []*timer.Timer
}

// ID returns the task's generation-tagged identity.
func (t *Task) ID() uint64 { return t.id }

// Status returns the task's scheduling state.
func (t *Task) Status() Status { return t.st }

// Executor returns the executor that owns t.
func (t *Task) Executor() *Executor { return t.e }

// Waker returns a waker bound to t's identity. Copies of the returned value
// are clones in the waker-contract sense: all reference the same task.
func (t *Task) Waker() api.Waker {
	return waker{e: t.e, id: t.id}
}

// Done completes the task with the result recorded so far (nil by default).
func (t *Task) Done() Step { return Step{done: true} }

// Complete completes the task with v as its result.
func (t *Task) Complete(v any) Step {
	t.res.value = v
	return Step{done: true}
}

// Fail completes the task with err as its failure.
func (t *Task) Fail(err error) Step {
	t.res.err = err
	return Step{done: true}
}

// Pending suspends the task. The Op must have armed at least one waker
// (readiness interest, timer, or join) before returning Pending, or the
// task can only be woken externally.
func (t *Task) Pending() Step { return Step{} }

// Yield suspends the task and switches it to next: the next resumption
// calls next instead of the current Op.
func (t *Task) Yield(next Op) Step {
	if next == nil {
		panic("exec: Yield(nil)")
	}
	return Step{next: next}
}

// YieldNow suspends the task and immediately re-enqueues it behind every
// currently runnable task: an explicit cooperative yield.
func (t *Task) YieldNow() Step {
	t.Waker().Wake()
	return Step{}
}

// AwaitReadable arms read interest on fd with t's waker. The task should
// return Pending afterwards and, once resumed, drain the handle until
// api.ErrWouldBlock before arming again.
func (t *Task) AwaitReadable(fd int32) error {
	return t.await(fd, api.Read)
}

// AwaitWritable arms write interest on fd with t's waker.
func (t *Task) AwaitWritable(fd int32) error {
	return t.await(fd, api.Write)
}

func (t *Task) await(fd int32, interest api.Interest) error {
	tok, err := t.e.reactor.Register(fd, interest, t.Waker())
	if err != nil {
		return err
	}
	t.track(tok)
	return nil
}

// Release drops one of t's readiness registrations before completion, used
// when an Op abandons a source it no longer waits on.
func (t *Task) Release(tok reactor.Token) {
	t.e.reactor.Deregister(tok)
	for i, held := range t.tokens {
		if held == tok {
			t.tokens = append(t.tokens[:i], t.tokens[i+1:]...)
			return
		}
	}
}

// After arms a timer waking t once delay has elapsed. The timer is canceled
// automatically if the task completes or is canceled first.
func (t *Task) After(delay time.Duration) *timer.Timer {
	// Prune fired and canceled timers so long-lived tasks that sleep
	// repeatedly do not accumulate dead entries.
	live := t.timers[:0]
	for _, tm := range t.timers {
		if tm.Pending() {
			live = append(live, tm)
		}
	}
	t.timers = live

	tm := t.e.timers.After(delay, t.Waker())
	t.timers = append(t.timers, tm)
	return tm
}

// track records a registration for cleanup at completion. Re-registering
// the same (fd, interest) pair replaces the held token, mirroring the
// registry's replace-on-re-register semantics. Distinct directions on one
// handle are held as separate tokens so completion releases both.
func (t *Task) track(tok reactor.Token) {
	for i, held := range t.tokens {
		if held.FD() == tok.FD() && held.Interest() == tok.Interest() {
			t.tokens[i] = tok
			return
		}
	}
	t.tokens = append(t.tokens, tok)
}

// releaseAll deregisters every outstanding readiness source and timer.
// Called exactly once, when the task completes or is canceled.
func (t *Task) releaseAll() {
	for _, tok := range t.tokens {
		t.e.reactor.Deregister(tok)
	}
	t.tokens = nil
	for _, tm := range t.timers {
		t.e.timers.Cancel(tm)
	}
	t.timers = nil
}
