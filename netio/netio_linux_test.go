//go:build linux
// +build linux

package netio_test

import (
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/exec"
	"github.com/momentics/hioload-rt/netio"
)

func TestPipeReadSuspendsUntilWritten(t *testing.T) {
	e, err := exec.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	rc, wc, err := netio.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer rc.Close(e)
	defer wc.Close(e)

	// Writer fires 5ms later, so the reader provably suspends first.
	writer := exec.SleepThen(5*time.Millisecond, func(tk *exec.Task) exec.Step {
		if _, werr := wc.Write(tk, []byte("ping")); werr != nil {
			return tk.Fail(werr)
		}
		return tk.Done()
	})
	if _, err := e.Spawn(writer); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	var buf [16]byte
	reader := func(tk *exec.Task) exec.Step {
		n, rerr := rc.Read(tk, buf[:])
		if errors.Is(rerr, api.ErrWouldBlock) {
			return tk.Pending()
		}
		if rerr != nil {
			return tk.Fail(rerr)
		}
		return tk.Complete(string(buf[:n]))
	}

	v, err := e.RunUntilComplete(reader)
	if err != nil {
		t.Fatalf("RunUntilComplete: %v", err)
	}
	if v != "ping" {
		t.Fatalf("read %q, want %q", v, "ping")
	}
}

func TestZeroLengthReadIsNotEOF(t *testing.T) {
	e, err := exec.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	rc, wc, err := netio.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer rc.Close(e)
	defer wc.Close(e)

	var buf [16]byte
	root := func(tk *exec.Task) exec.Step {
		if _, werr := wc.Write(tk, []byte("data")); werr != nil {
			return tk.Fail(werr)
		}
		// An empty destination reads nothing; only a real zero-byte read
		// on a non-empty buffer means the peer closed.
		n, rerr := rc.Read(tk, nil)
		if rerr != nil || n != 0 {
			return tk.Fail(errors.New("empty-buffer read should be (0, nil)"))
		}
		n, rerr = rc.Read(tk, buf[:])
		if rerr != nil {
			return tk.Fail(rerr)
		}
		return tk.Complete(string(buf[:n]))
	}

	v, err := e.RunUntilComplete(root)
	if err != nil {
		t.Fatalf("RunUntilComplete: %v", err)
	}
	if v != "data" {
		t.Fatalf("read %q, want %q", v, "data")
	}
}

func TestTCPEchoEndToEnd(t *testing.T) {
	e, err := exec.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	ln, err := netio.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close(e)

	// Server: accept one connection and echo one payload back.
	var sconn *netio.Conn
	var sbuf [64]byte
	server := func(tk *exec.Task) exec.Step {
		if sconn == nil {
			c, aerr := ln.Accept(tk)
			if errors.Is(aerr, api.ErrWouldBlock) {
				return tk.Pending()
			}
			if aerr != nil {
				return tk.Fail(aerr)
			}
			sconn = c
		}
		n, rerr := sconn.Read(tk, sbuf[:])
		if errors.Is(rerr, api.ErrWouldBlock) {
			return tk.Pending()
		}
		if rerr != nil {
			return tk.Fail(rerr)
		}
		if _, werr := sconn.Write(tk, sbuf[:n]); werr != nil {
			return tk.Fail(werr)
		}
		return tk.Done()
	}
	if _, err := e.Spawn(server); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	// Client: connect, send, and read the echo.
	var cconn *netio.Conn
	var cbuf [64]byte
	connected, sent := false, false
	client := func(tk *exec.Task) exec.Step {
		if cconn == nil {
			c, derr := netio.Dial(tk, ln.Addr().String())
			if errors.Is(derr, api.ErrWouldBlock) {
				cconn = c
				return tk.Pending()
			}
			if derr != nil {
				return tk.Fail(derr)
			}
			cconn = c
			connected = true
		}
		if !connected {
			if cerr := cconn.ConnectErr(); cerr != nil {
				return tk.Fail(cerr)
			}
			connected = true
		}
		if !sent {
			if _, werr := cconn.Write(tk, []byte("hello")); werr != nil {
				return tk.Fail(werr)
			}
			sent = true
		}
		n, rerr := cconn.Read(tk, cbuf[:])
		if errors.Is(rerr, api.ErrWouldBlock) {
			return tk.Pending()
		}
		if rerr != nil {
			return tk.Fail(rerr)
		}
		return tk.Complete(string(cbuf[:n]))
	}

	v, err := e.RunUntilComplete(client)
	if err != nil {
		t.Fatalf("RunUntilComplete: %v", err)
	}
	if v != "hello" {
		t.Fatalf("echo = %q, want %q", v, "hello")
	}

	if cconn != nil {
		cconn.Close(e)
	}
	if sconn != nil {
		sconn.Close(e)
	}
}
