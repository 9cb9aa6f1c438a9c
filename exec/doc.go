// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package exec implements the single-threaded cooperative task executor.
//
// A task is a resumable computation: an Op function called each time the
// task is resumed, reporting through its Step result whether the task
// completed or suspended. Suspended state lives in the Op's closure, not in
// a call stack, so the executor owns and moves task state freely.
//
// Tasks are identified by arena index plus generation. Wakers hold only
// this identity, never a task pointer, so a waker invoked after its task
// was reaped detects the stale generation and does nothing.
//
// Everything in this package is owned by the loop thread. There are no
// locks around the task table or the runnable queue, by contract: the
// runtime is strictly single-threaded and concurrency is interleaving at
// explicit suspension points only.
package exec
