// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package netio layers nonblocking TCP and pipe handles on top of the
// runtime. It contains no scheduling logic of its own: every operation
// either completes immediately or arms readiness interest through the
// calling task and reports api.ErrWouldBlock.
//
// Handles are edge-triggered. After a wakeup the owning task must repeat
// the operation until it reports api.ErrWouldBlock again, or remaining
// readiness is never re-reported.
package netio
