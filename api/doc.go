// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package api defines the shared contracts of the hioload-rt runtime: the
// readiness interest mask, the poller backend interface, the waker surface,
// and the error taxonomy. It is deliberately dependency-free so that every
// other package, including test doubles, can build against it.
package api
