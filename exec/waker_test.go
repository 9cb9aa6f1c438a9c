package exec_test

import (
	"testing"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/exec"
)

func TestWakerStaleAfterCompletionIsNoOp(t *testing.T) {
	e, _ := newTestExecutor(t)

	var w api.Waker
	if _, err := e.RunUntilComplete(func(tk *exec.Task) exec.Step {
		w = tk.Waker()
		return tk.Done()
	}); err != nil {
		t.Fatalf("RunUntilComplete: %v", err)
	}

	before := e.Stats()["wakes"]
	w.Wake() // task reaped; generation check must swallow this
	w.Wake()
	if after := e.Stats()["wakes"]; after != before {
		t.Fatalf("stale waker enqueued a reaped task: wakes %d -> %d", before, after)
	}
	if e.Stats()["runnable"] != 0 {
		t.Fatal("stale waker left an entry in the runnable queue")
	}
}

func TestWakerClonesShareIdentity(t *testing.T) {
	e, _ := newTestExecutor(t)

	if _, err := e.RunUntilComplete(func(tk *exec.Task) exec.Step {
		w1 := tk.Waker()
		w2 := tk.Waker() // clone: same task identity
		if w1.Owner() != w2.Owner() {
			return tk.Fail(api.NewError(api.ErrCodeInternal, "clones must share identity"))
		}
		if w1.Owner() != tk.ID() {
			return tk.Fail(api.NewError(api.ErrCodeInternal, "owner must equal task id"))
		}
		return tk.Done()
	}); err != nil {
		t.Fatalf("RunUntilComplete: %v", err)
	}
}

func TestWakerIdentityDiffersAcrossSlotReuse(t *testing.T) {
	e, _ := newTestExecutor(t)

	var first, second uint64
	if _, err := e.RunUntilComplete(func(tk *exec.Task) exec.Step {
		first = tk.ID()
		return tk.Done()
	}); err != nil {
		t.Fatalf("run 1: %v", err)
	}
	if _, err := e.RunUntilComplete(func(tk *exec.Task) exec.Step {
		second = tk.ID()
		return tk.Done()
	}); err != nil {
		t.Fatalf("run 2: %v", err)
	}

	// The slot is reused, so the generation must differ.
	if first == second {
		t.Fatalf("task identities collide across slot reuse: %#x", first)
	}
}
