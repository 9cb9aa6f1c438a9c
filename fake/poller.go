// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides deterministic test doubles for the runtime's
// backend interfaces.
package fake

import (
	"fmt"

	"github.com/momentics/hioload-rt/api"
)

// ErrExhausted is returned by Poller.Wait when a blocking wait is requested
// and no scripted batches remain. Surfacing an error instead of blocking
// keeps misbehaving tests from hanging.
var ErrExhausted = fmt.Errorf("fake: blocking wait with no scripted readiness")

// Poller is a scripted api.Poller. Tests queue readiness batches with Ready;
// each Wait call delivers the next batch in order.
type Poller struct {
	Added   map[int32]bool
	Waits   int
	Wakeups int
	Closed  bool

	// AddErr, when set, is returned by the next Add call.
	AddErr error

	batches [][]api.Event
}

// NewPoller creates an empty scripted poller.
func NewPoller() *Poller {
	return &Poller{Added: make(map[int32]bool)}
}

// Ready queues one readiness batch for delivery by a future Wait.
func (p *Poller) Ready(events ...api.Event) {
	batch := make([]api.Event, len(events))
	copy(batch, events)
	p.batches = append(p.batches, batch)
}

func (p *Poller) Add(fd int32) error {
	if p.AddErr != nil {
		err := p.AddErr
		p.AddErr = nil
		return err
	}
	p.Added[fd] = true
	return nil
}

func (p *Poller) Del(fd int32) error {
	delete(p.Added, fd)
	return nil
}

func (p *Poller) Wait(events []api.Event, timeoutMs int) (int, error) {
	p.Waits++
	if len(p.batches) == 0 {
		if timeoutMs < 0 {
			return 0, ErrExhausted
		}
		return 0, nil
	}
	batch := p.batches[0]
	p.batches = p.batches[1:]
	n := copy(events, batch)
	return n, nil
}

func (p *Poller) Wakeup() error {
	p.Wakeups++
	return nil
}

func (p *Poller) Close() error {
	p.Closed = true
	return nil
}
