//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based poller backend.

package reactor

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-rt/api"
)

// epollPoller implements api.Poller using Linux epoll in edge-triggered
// mode. An eventfd is kept in the interest set so Wakeup can interrupt a
// blocking Wait.
type epollPoller struct {
	epfd   int
	wakefd int
	buf    []unix.EpollEvent
}

// NewPoller constructs the platform poller backend for Linux.
func NewPoller() (api.Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, api.NewError(api.ErrCodeFatal, "epoll create").WithCause(err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, api.NewError(api.ErrCodeFatal, "eventfd create").WithCause(err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, api.NewError(api.ErrCodeFatal, "epoll ctl add wakefd").WithCause(err)
	}
	return &epollPoller{epfd: epfd, wakefd: wakefd}, nil
}

// Add registers fd for both directions with edge triggering. An fd that is
// already present is updated instead, matching re-registration semantics.
func (p *epollPoller) Add(fd int32) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLOUT | unix.EPOLLRDHUP | unix.EPOLLET,
		Fd:     fd,
	}
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev)
	if err == unix.EEXIST {
		err = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, int(fd), &ev)
	}
	return err
}

// Del removes fd from the interest set. ENOENT and EBADF are tolerated so
// removal stays idempotent even after the owner closed the fd.
func (p *epollPoller) Del(fd int32) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

// Wait blocks for readiness reports, retrying transparently when the wait
// is interrupted by a signal.
func (p *epollPoller) Wait(events []api.Event, timeoutMs int) (int, error) {
	if len(p.buf) < len(events) {
		p.buf = make([]unix.EpollEvent, len(events))
	}

	var n int
	var err error
	for {
		n, err = unix.EpollWait(p.epfd, p.buf[:len(events)], timeoutMs)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return 0, err
	}

	out := 0
	for i := 0; i < n; i++ {
		raw := p.buf[i]
		if int(raw.Fd) == p.wakefd {
			p.drainWakeup()
			continue
		}
		ev := api.Event{FD: raw.Fd}
		if raw.Events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0 {
			ev.Ready |= api.Read
		}
		if raw.Events&unix.EPOLLOUT != 0 {
			ev.Ready |= api.Write
		}
		if raw.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			ev.Err = true
		}
		events[out] = ev
		out++
	}
	return out, nil
}

// Wakeup posts to the eventfd, forcing a concurrent Wait to return.
func (p *epollPoller) Wakeup() error {
	var one [8]byte
	binary.LittleEndian.PutUint64(one[:], 1)
	_, err := unix.Write(p.wakefd, one[:])
	if err == unix.EAGAIN {
		// Counter already pending; the wakeup is coalesced.
		return nil
	}
	return err
}

func (p *epollPoller) drainWakeup() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wakefd, buf[:]); err != nil {
			return
		}
	}
}

// Close releases the epoll instance and the wakeup eventfd.
func (p *epollPoller) Close() error {
	err := unix.Close(p.epfd)
	if cerr := unix.Close(p.wakefd); err == nil {
		err = cerr
	}
	return err
}
