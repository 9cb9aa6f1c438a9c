// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral reactor: readiness source registry plus a poll-mode
// backend, dispatching OS readiness reports to armed wakers.

package reactor

import (
	"time"

	"github.com/momentics/hioload-rt/api"
)

// DefaultMaxEvents is the readiness batch size per poll.
const DefaultMaxEvents = 128

// Token identifies one registration: handle, directions, and owning task.
// Deregistering with a token only clears directions still held by that
// owner, so stale tokens are safe.
type Token struct {
	fd       int32
	interest api.Interest
	owner    uint64
}

// FD returns the registered handle.
func (t Token) FD() int32 { return t.fd }

// Interest returns the directions named by the registration.
func (t Token) Interest() api.Interest { return t.interest }

// Reactor owns the readiness source registry and a backend poller. It is
// single-threaded by contract: Register, Deregister and Poll must all be
// called from the runtime loop thread.
type Reactor struct {
	poller   api.Poller
	registry *registry
	events   []api.Event

	polls int64
	wakes int64
}

// Option configures a Reactor.
type Option func(*Reactor)

// WithPoller substitutes the readiness backend, used by tests to inject a
// deterministic fake.
func WithPoller(p api.Poller) Option {
	return func(r *Reactor) { r.poller = p }
}

// WithMaxEvents sets the readiness batch size per poll.
func WithMaxEvents(n int) Option {
	return func(r *Reactor) {
		if n > 0 {
			r.events = make([]api.Event, n)
		}
	}
}

// New creates a Reactor backed by the platform poller, or by the poller
// injected through WithPoller.
func New(opts ...Option) (*Reactor, error) {
	r := &Reactor{
		registry: newRegistry(),
		events:   make([]api.Event, DefaultMaxEvents),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.poller == nil {
		p, err := NewPoller()
		if err != nil {
			return nil, err
		}
		r.poller = p
	}
	return r, nil
}

// Register begins watching fd for the given directions on behalf of the
// task bound to w. Re-registering a direction owned by the same task
// replaces the prior waker; a direction owned by another task fails with a
// registration error, the readiness is never silently stolen.
func (r *Reactor) Register(fd int32, interest api.Interest, w api.Waker) (Token, error) {
	if fd < 0 {
		return Token{}, api.RegistrationError("invalid handle", fd, interest).
			WithCause(api.ErrInvalidHandle)
	}
	if interest&api.ReadWrite == 0 {
		return Token{}, api.RegistrationError("empty interest", fd, interest)
	}

	src := r.registry.lookup(fd)
	if src == nil {
		if err := r.poller.Add(fd); err != nil {
			return Token{}, api.RegistrationError("backend add failed", fd, interest).
				WithCause(err)
		}
		src = r.registry.obtain(fd)
	}
	if err := src.arm(interest, w); err != nil {
		if src.idle() {
			r.dropSource(src)
		}
		return Token{}, err
	}
	return Token{fd: fd, interest: interest, owner: w.Owner()}, nil
}

// Deregister stops watching the directions named by tok. It is idempotent:
// deregistering an already-removed registration is a no-op. The handle
// leaves the backend once no direction remains armed.
func (r *Reactor) Deregister(tok Token) {
	src := r.registry.lookup(tok.fd)
	if src == nil {
		return
	}
	src.disarm(tok.interest, tok.owner)
	if src.idle() {
		r.dropSource(src)
	}
}

// DropHandle removes every registration for fd regardless of owner, used
// when the handle itself is being closed. Idempotent.
func (r *Reactor) DropHandle(fd int32) {
	if src := r.registry.lookup(fd); src != nil {
		r.dropSource(src)
	}
}

func (r *Reactor) dropSource(src *source) {
	r.registry.remove(src.fd)
	// Backend removal failure means the fd is already gone (closed by the
	// owner); the registry entry is dropped either way.
	_ = r.poller.Del(src.fd)
}

// Poll blocks until at least one watched handle is ready or the deadline
// elapses, then wakes the wakers armed for the reported directions, in the
// order the backend reports them. The re-enqueue side effect is the
// contract; the return value is the number of wakeups, informational.
//
// timeout < 0 blocks indefinitely; timeout == 0 polls without blocking.
func (r *Reactor) Poll(timeout time.Duration) (int, error) {
	ms := -1
	if timeout >= 0 {
		ms = int((timeout + time.Millisecond - 1) / time.Millisecond)
	}

	n, err := r.poller.Wait(r.events, ms)
	if err != nil {
		return 0, api.NewError(api.ErrCodeFatal, "reactor wait failed").WithCause(err)
	}
	r.polls++

	woken := 0
	for i := 0; i < n; i++ {
		ev := r.events[i]
		src := r.registry.lookup(ev.FD)
		if src == nil {
			// Raced with deregistration; the report is stale.
			continue
		}
		woken += src.fire(ev.Ready, ev.Err)
	}
	r.wakes += int64(woken)
	return woken, nil
}

// Wakeup interrupts a blocking Poll. Safe to call from another thread.
func (r *Reactor) Wakeup() {
	_ = r.poller.Wakeup()
}

// Len returns the number of registry entries, exposed for introspection
// and tests.
func (r *Reactor) Len() int {
	return r.registry.len()
}

// Stats returns basic reactor counters.
func (r *Reactor) Stats() map[string]int64 {
	return map[string]int64{
		"polls":   r.polls,
		"wakeups": r.wakes,
		"sources": int64(r.registry.len()),
	}
}

// Close releases the backend poller.
func (r *Reactor) Close() error {
	return r.poller.Close()
}
