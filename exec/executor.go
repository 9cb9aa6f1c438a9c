// File: exec/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor: owns the task table and the runnable queue, drives runnable
// tasks forward, and blocks on the reactor when nothing is runnable.

package exec

import (
	"fmt"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/reactor"
	"github.com/momentics/hioload-rt/timer"
)

// DefaultMaxTasks caps concurrent live tasks per executor.
const DefaultMaxTasks = 1 << 16

// blockIndefinitely is the poll timeout when no timer deadline is pending.
const blockIndefinitely = time.Duration(-1)

// slot is one arena entry of the task table. The generation increments on
// reap, invalidating every identity minted for the previous occupant.
type slot struct {
	gen  uint32
	task *Task
}

// Executor is a single-threaded cooperative scheduler. All state is owned
// by the thread running the loop; only the reactor's Wakeup path is safe to
// touch from outside.
type Executor struct {
	slots    []slot
	free     []uint32
	runnable *queue.Queue // FIFO of task identities
	reactor  *reactor.Reactor
	timers   *timer.Driver

	current  *Task
	live     int
	maxTasks int
	running  bool

	spawned   int64
	completed int64
	panicked  int64
	resumes   int64
	wakes     int64
}

// Option configures an Executor.
type Option func(*config)

type config struct {
	maxTasks int
	poller   api.Poller
	clock    func() time.Time
}

// WithMaxTasks caps the number of concurrent live tasks.
func WithMaxTasks(n int) Option {
	return func(c *config) { c.maxTasks = n }
}

// WithPoller substitutes the readiness backend, used by tests to drive the
// loop from a scripted fake instead of the OS.
func WithPoller(p api.Poller) Option {
	return func(c *config) { c.poller = p }
}

// WithClock substitutes the timer driver's time source.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.clock = now }
}

// New creates an independent executor instance with its own reactor and
// timer driver. Multiple executors can coexist in one process.
func New(opts ...Option) (*Executor, error) {
	cfg := config{maxTasks: DefaultMaxTasks}
	for _, opt := range opts {
		opt(&cfg)
	}

	var ropts []reactor.Option
	if cfg.poller != nil {
		ropts = append(ropts, reactor.WithPoller(cfg.poller))
	}
	r, err := reactor.New(ropts...)
	if err != nil {
		return nil, err
	}

	var topts []timer.Option
	if cfg.clock != nil {
		topts = append(topts, timer.WithClock(cfg.clock))
	}

	return &Executor{
		runnable: queue.New(),
		reactor:  r,
		timers:   timer.NewDriver(topts...),
		maxTasks: cfg.maxTasks,
	}, nil
}

// Reactor exposes the executor's reactor to layered I/O wrappers.
func (e *Executor) Reactor() *reactor.Reactor { return e.reactor }

// Timers exposes the executor's deadline driver.
func (e *Executor) Timers() *timer.Driver { return e.timers }

// Spawn registers op as a new runnable task and appends it to the runnable
// queue. It fails only when the concurrent task limit is exceeded.
func (e *Executor) Spawn(op Op) (*Handle, error) {
	if op == nil {
		return nil, api.NewError(api.ErrCodeInternal, "spawn of nil op")
	}
	if e.live >= e.maxTasks {
		return nil, api.CapacityError("concurrent task limit exceeded", e.maxTasks)
	}

	idx, gen := e.alloc()
	id := taskID(idx, gen)
	t := &Task{
		id:        id,
		e:         e,
		op:        op,
		st:        StatusRunnable,
		res:       &result{},
		scheduled: true,
	}
	e.slots[idx].task = t
	e.live++
	e.spawned++
	e.runnable.Add(id)

	return &Handle{e: e, id: id, cell: t.res}, nil
}

// RunUntilComplete drives the event loop until the root computation
// finishes, returning its result or propagating its failure. This is the
// sole blocking entry point for request-style programs; already-spawned
// background tasks keep being serviced while the root is live.
func (e *Executor) RunUntilComplete(root Op) (any, error) {
	if e.running {
		return nil, api.ErrAlreadyRunning
	}
	h, err := e.Spawn(root)
	if err != nil {
		return nil, err
	}

	e.running = true
	defer func() { e.running = false }()

	for {
		for e.runnable.Length() > 0 {
			e.resume(e.runnable.Remove().(uint64))
			if h.Done() {
				return h.Join()
			}
		}
		if err := e.blockForReadiness(); err != nil {
			return nil, err
		}
	}
}

// BlockForever drives the loop until no live task remains, for server-style
// programs. It returns nil on quiescence and an error only on a fatal
// reactor failure or deadlock.
func (e *Executor) BlockForever() error {
	if e.running {
		return api.ErrAlreadyRunning
	}
	e.running = true
	defer func() { e.running = false }()

	for {
		for e.runnable.Length() > 0 {
			e.resume(e.runnable.Remove().(uint64))
		}
		if e.live == 0 {
			return nil
		}
		if err := e.blockForReadiness(); err != nil {
			return err
		}
	}
}

// blockForReadiness blocks on the reactor until readiness or the nearest
// timer deadline, then fires due timers. Waking is a side effect of the
// poll: the reactor invokes the armed wakers, re-populating the runnable
// queue.
func (e *Executor) blockForReadiness() error {
	timeout := blockIndefinitely
	if d, ok := e.timers.Next(); ok {
		timeout = d
	}
	if timeout < 0 && e.reactor.Len() == 0 {
		// Every live task is suspended with nothing to wake it.
		return api.NewError(api.ErrCodeDeadlock, "executor stalled").
			WithCause(api.ErrDeadlock).
			WithContext("suspended", e.live)
	}
	if _, err := e.reactor.Poll(timeout); err != nil {
		return err
	}
	e.timers.Fire()
	return nil
}

// resume transfers control into one suspended computation. Identities
// popped from the queue may be stale (task canceled or completed while
// queued); those are skipped via the generation check.
func (e *Executor) resume(id uint64) {
	t := e.lookup(id)
	if t == nil {
		return
	}
	t.scheduled = false
	t.st = StatusRunnable
	e.resumes++

	step, panicErr := e.protect(t)

	switch {
	case panicErr != nil:
		e.panicked++
		e.finish(t, panicErr)
	case t.canceled:
		e.finish(t, api.ErrCanceled)
	case step.done:
		e.finish(t, t.res.err)
	default:
		t.st = StatusSuspended
		if step.next != nil {
			t.op = step.next
		}
	}
}

// protect runs the task's Op, isolating a panic to this task: the failure
// lands in the task's result and the queue, the reactor, and every other
// task stay intact.
func (e *Executor) protect(t *Task) (step Step, panicErr error) {
	prev := e.current
	e.current = t
	defer func() {
		e.current = prev
		if r := recover(); r != nil {
			panicErr = api.NewError(api.ErrCodeInternal, "task panicked").
				WithContext("panic", fmt.Sprintf("%v", r))
		}
	}()
	step = t.op(t)
	return step, nil
}

// finish moves a task to its terminal state: release registrations, publish
// the result, wake joiners, reap the slot. Idempotent via the status check.
func (e *Executor) finish(t *Task, err error) {
	if t.st == StatusCompleted {
		return
	}
	t.st = StatusCompleted
	t.releaseAll()

	cell := t.res
	cell.done = true
	if err != nil {
		cell.err = err
	}
	waiters := cell.waiters
	cell.waiters = nil
	for _, w := range waiters {
		w.Wake()
	}

	e.reap(t)
}

// reap frees the task's slot and bumps the generation, turning every
// outstanding waker and queue entry for this identity into a no-op.
func (e *Executor) reap(t *Task) {
	idx := slotIndex(t.id)
	e.slots[idx].task = nil
	e.slots[idx].gen++
	e.free = append(e.free, idx)
	e.live--
	e.completed++
	t.op = nil
	t.e = nil
}

// lookup resolves an identity against the task table, returning nil when
// the index is out of range or the generation is stale.
func (e *Executor) lookup(id uint64) *Task {
	idx := slotIndex(id)
	if int(idx) >= len(e.slots) {
		return nil
	}
	s := &e.slots[idx]
	if s.task == nil || s.gen != generation(id) {
		return nil
	}
	return s.task
}

func (e *Executor) alloc() (uint32, uint32) {
	if n := len(e.free); n > 0 {
		idx := e.free[n-1]
		e.free = e.free[:n-1]
		return idx, e.slots[idx].gen
	}
	e.slots = append(e.slots, slot{})
	return uint32(len(e.slots) - 1), 0
}

// Live returns the number of non-completed tasks.
func (e *Executor) Live() int { return e.live }

// Stats returns basic executor counters.
func (e *Executor) Stats() map[string]int64 {
	return map[string]int64{
		"spawned":   e.spawned,
		"completed": e.completed,
		"panicked":  e.panicked,
		"resumes":   e.resumes,
		"wakes":     e.wakes,
		"live":      int64(e.live),
		"runnable":  int64(e.runnable.Length()),
	}
}

// Close releases the reactor backend. The executor must not be running.
func (e *Executor) Close() error {
	if e.running {
		return api.ErrAlreadyRunning
	}
	return e.reactor.Close()
}

func taskID(idx, gen uint32) uint64 {
	return uint64(gen)<<32 | uint64(idx)
}

func slotIndex(id uint64) uint32 { return uint32(id) }

func generation(id uint64) uint32 { return uint32(id >> 32) }
