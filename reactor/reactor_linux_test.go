//go:build linux
// +build linux

package reactor_test

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/reactor"
)

func testPipe(t *testing.T) (int, int) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestEpollReportsPipeReadable(t *testing.T) {
	p, err := reactor.NewPoller()
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	defer p.Close()

	rfd, wfd := testPipe(t)
	if err := p.Add(int32(rfd)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := unix.Write(wfd, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	events := make([]api.Event, 8)
	n, err := p.Wait(events, 1000)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n != 1 || events[0].FD != int32(rfd) || !events[0].Ready.Has(api.Read) {
		t.Fatalf("events[:%d] = %+v, want one readable report for fd %d", n, events[:n], rfd)
	}
}

func TestEpollWaitTimesOut(t *testing.T) {
	p, err := reactor.NewPoller()
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	defer p.Close()

	rfd, _ := testPipe(t)
	if err := p.Add(int32(rfd)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	events := make([]api.Event, 8)
	start := time.Now()
	n, err := p.Wait(events, 20)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n != 0 {
		t.Fatalf("got %d events on an idle pipe, want 0", n)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Fatal("Wait returned before the timeout elapsed")
	}
}

func TestWakeupInterruptsBlockingWait(t *testing.T) {
	p, err := reactor.NewPoller()
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	defer p.Close()

	go func() {
		time.Sleep(10 * time.Millisecond)
		p.Wakeup()
	}()

	events := make([]api.Event, 8)
	n, err := p.Wait(events, -1)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if n != 0 {
		t.Fatalf("wakeup delivered %d events, want 0", n)
	}
}

func TestDeregisterAfterCloseIsHarmless(t *testing.T) {
	r, err := reactor.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	rfd, _ := testPipe(t)
	var log []uint64
	tok, err := r.Register(int32(rfd), api.Read, recordWaker{1, &log})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	unix.Close(rfd)
	r.Deregister(tok) // fd already closed; EBADF is swallowed
	if r.Len() != 0 {
		t.Fatalf("registry len = %d, want 0", r.Len())
	}
}
