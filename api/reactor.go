// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract interface for poll-mode readiness backends
// used to multiplex I/O handles (epoll on Linux, fakes in tests).

package api

// Event encapsulates the result of an OS-level readiness notification.
type Event struct {
	FD    int32    // file descriptor or system handle
	Ready Interest // directions reported ready by the OS
	Err   bool     // error or hangup condition on the handle
}

// Poller is the common interface for a readiness backend, regardless of the
// specific polling mechanism used. Implementations are not safe for
// concurrent use; the runtime drives a Poller from a single thread.
type Poller interface {
	// Add registers a handle with the backend for edge-style notification
	// in both directions. Adding an already-registered handle is an update,
	// not an error.
	Add(fd int32) error

	// Del removes a handle from the backend. Removing a handle that is not
	// registered is a no-op.
	Del(fd int32) error

	// Wait blocks until at least one registered handle is ready or the
	// timeout elapses, filling events and returning the count written.
	// A negative timeout blocks indefinitely. Transient interruptions are
	// retried internally and never surfaced.
	Wait(events []Event, timeoutMs int) (int, error)

	// Wakeup interrupts a concurrent Wait, making it return early with no
	// events. Wakeup is the only method safe to call from another thread.
	Wakeup() error

	// Close releases the backend resources.
	Close() error
}
