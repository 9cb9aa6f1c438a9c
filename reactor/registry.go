// File: reactor/registry.go
// Author: momentics <momentics@gmail.com>
//
// Readiness source registry: per-handle armed wakers, one owner per
// direction.

package reactor

import "github.com/momentics/hioload-rt/api"

// source is one registry entry: an OS handle plus the waker armed for each
// readiness direction. A nil waker means no task is suspended on that
// direction right now.
type source struct {
	fd    int32
	read  api.Waker
	write api.Waker
}

// registry maps OS handles to their armed wakers. It is single-threaded
// state owned by the reactor; no synchronization by design.
type registry struct {
	sources map[int32]*source
}

func newRegistry() *registry {
	return &registry{sources: make(map[int32]*source)}
}

func (g *registry) lookup(fd int32) *source {
	return g.sources[fd]
}

func (g *registry) obtain(fd int32) *source {
	src, ok := g.sources[fd]
	if !ok {
		src = &source{fd: fd}
		g.sources[fd] = src
	}
	return src
}

func (g *registry) remove(fd int32) {
	delete(g.sources, fd)
}

func (g *registry) len() int {
	return len(g.sources)
}

// arm installs w for the given directions. Re-arming a direction held by the
// same owner replaces the prior waker; a direction held by a different owner
// is a registration conflict and fails without touching any direction.
func (src *source) arm(interest api.Interest, w api.Waker) error {
	if interest.Has(api.Read) && src.read != nil && src.read.Owner() != w.Owner() {
		return api.RegistrationError("read interest already owned", src.fd, interest).
			WithCause(api.ErrInterestOwned).
			WithContext("owner", src.read.Owner())
	}
	if interest.Has(api.Write) && src.write != nil && src.write.Owner() != w.Owner() {
		return api.RegistrationError("write interest already owned", src.fd, interest).
			WithCause(api.ErrInterestOwned).
			WithContext("owner", src.write.Owner())
	}
	if interest.Has(api.Read) {
		src.read = w
	}
	if interest.Has(api.Write) {
		src.write = w
	}
	return nil
}

// disarm clears the directions held by owner. Directions armed by a
// different task are left alone, so a stale token cannot steal a live
// registration.
func (src *source) disarm(interest api.Interest, owner uint64) {
	if interest.Has(api.Read) && src.read != nil && src.read.Owner() == owner {
		src.read = nil
	}
	if interest.Has(api.Write) && src.write != nil && src.write.Owner() == owner {
		src.write = nil
	}
}

func (src *source) idle() bool {
	return src.read == nil && src.write == nil
}

// fire consumes and wakes the wakers matching the ready directions. An error
// condition wakes both directions so the owning tasks observe the failure on
// their next I/O attempt. Consuming before waking keeps arming one-shot:
// the task re-arms on its next suspension.
func (src *source) fire(ready api.Interest, failed bool) int {
	fired := 0
	if w := src.read; w != nil && (failed || ready.Has(api.Read)) {
		src.read = nil
		w.Wake()
		fired++
	}
	if w := src.write; w != nil && (failed || ready.Has(api.Write)) {
		src.write = nil
		w.Wake()
		fired++
	}
	return fired
}
