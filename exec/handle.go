// File: exec/handle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handle: the external reference to a spawned task.

package exec

import "github.com/momentics/hioload-rt/api"

// result is the completion cell shared between a task and its handle. It
// outlives the task-table slot so joins stay valid after the slot is
// reaped and reused.
type result struct {
	done    bool
	value   any
	err     error
	waiters []api.Waker
}

// Handle is the caller's reference to a spawned task. It carries the
// task's identity and completion cell, never a task pointer.
type Handle struct {
	e    *Executor
	id   uint64
	cell *result
}

// ID returns the generation-tagged identity of the spawned task.
func (h *Handle) ID() uint64 { return h.id }

// Done reports whether the task has completed.
func (h *Handle) Done() bool { return h.cell.done }

// Join returns the task's result. While the task is still live, Join
// returns api.ErrPending; after completion it returns the task's value or
// its failure.
func (h *Handle) Join() (any, error) {
	if !h.cell.done {
		return nil, api.ErrPending
	}
	return h.cell.value, h.cell.err
}

// Await arms t's waker on h's completion. It returns true if h is already
// done, in which case no waker is armed and the caller can read the result
// immediately; otherwise the caller should suspend with Pending.
func (h *Handle) Await(t *Task) bool {
	if h.cell.done {
		return true
	}
	h.cell.waiters = append(h.cell.waiters, t.Waker())
	return false
}

// Cancel terminates the task before completion. All of its pending
// readiness registrations and timers are deregistered, its wakers become
// stale no-ops, and joiners observe api.ErrCanceled. Canceling a completed
// task is a no-op. A task canceling itself completes once its current
// resumption returns.
func (h *Handle) Cancel() {
	t := h.e.lookup(h.id)
	if t == nil {
		return
	}
	if t == h.e.current {
		t.canceled = true
		return
	}
	h.e.finish(t, api.ErrCanceled)
}
