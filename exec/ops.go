// File: exec/ops.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Small Op combinators for common task shapes.

package exec

import "time"

// Do returns an Op that calls f once and completes.
func Do(f func()) Op {
	return func(t *Task) Step {
		f()
		return t.Done()
	}
}

// Value returns an Op that completes immediately with v.
func Value(v any) Op {
	return func(t *Task) Step {
		return t.Complete(v)
	}
}

// SleepThen returns an Op that suspends for d, then continues as next.
func SleepThen(d time.Duration, next Op) Op {
	armed := false
	return func(t *Task) Step {
		if !armed {
			armed = true
			t.After(d)
			return t.Pending()
		}
		return next(t)
	}
}

// Sleep returns an Op that suspends for d and then completes.
func Sleep(d time.Duration) Op {
	return SleepThen(d, func(t *Task) Step { return t.Done() })
}

// JoinThen returns an Op that waits for h to complete, then continues with
// its result.
func JoinThen(h *Handle, next func(t *Task, v any, err error) Step) Op {
	return func(t *Task) Step {
		if !h.Await(t) {
			return t.Pending()
		}
		v, err := h.Join()
		return next(t, v, err)
	}
}
