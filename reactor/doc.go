// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor translates OS-level readiness notifications into task
// wakeups. It wraps a poll-mode backend (epoll on Linux) behind the
// api.Poller interface and keeps the readiness source registry: which
// handles are watched, in which direction, and which waker is armed for
// each direction.
//
// Registration is edge-style. A resumed task must drain its handle (read or
// write until api.ErrWouldBlock) before re-arming interest, or the remaining
// readiness will never be reported again.
package reactor
