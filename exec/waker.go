// File: exec/waker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Waker: the notification bridge from readiness sources back to the
// runnable queue.

package exec

// waker is a value handle bound to one task identity. Copying the value is
// the clone operation; every copy wakes the same task.
type waker struct {
	e  *Executor
	id uint64
}

// Wake marks the bound task runnable and enqueues it at most once.
//
// The staleness check comes first: if the generation no longer matches the
// task table (the task completed or was canceled and its slot reaped), the
// wake is a no-op. The scheduled flag then suppresses duplicate enqueues
// between wake and resumption, keeping the runnable-queue invariant that a
// task identity appears at most once.
func (w waker) Wake() {
	t := w.e.lookup(w.id)
	if t == nil || t.scheduled {
		return
	}
	t.scheduled = true
	w.e.runnable.Add(w.id)
	w.e.wakes++
}

// Owner returns the bound task identity, used for registration-conflict
// and equality checks.
func (w waker) Owner() uint64 { return w.id }
