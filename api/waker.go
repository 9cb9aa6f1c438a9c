// File: api/waker.go
// Author: momentics <momentics@gmail.com>
//
// Waker surface connecting the reactor to the executor.

package api

// Waker marks one suspended task as runnable again. Wakers are cheap value
// handles: cloning one is a plain copy, and all copies reference the same
// task identity.
//
// Wake is idempotent. Waking a task that is already queued, already running,
// or already completed is a harmless no-op. A waker that outlives its task
// (the task completed or was cancelled) detects the stale identity and does
// nothing.
type Waker interface {
	// Wake marks the bound task runnable, enqueueing it at most once.
	Wake()

	// Owner returns the stable identity of the bound task. Two wakers with
	// equal Owner values are bound to the same task; the reactor uses this
	// for registration-conflict and staleness checks.
	Owner() uint64
}
