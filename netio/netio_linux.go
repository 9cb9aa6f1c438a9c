//go:build linux
// +build linux

// File: netio/netio_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Nonblocking TCP and pipe handles over raw Linux file descriptors.

package netio

import (
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/exec"
)

// Conn is a nonblocking byte-stream handle owned by one task per direction.
type Conn struct {
	fd int32
}

// FD returns the underlying descriptor.
func (c *Conn) FD() int32 { return c.fd }

// Read reads into p. When the handle has no data, it arms read interest
// with t's waker and reports api.ErrWouldBlock; the task should suspend and
// retry once resumed. Reading zero bytes into a non-empty p reports io.EOF;
// an empty p reads nothing and reports nil.
func (c *Conn) Read(t *exec.Task, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(int(c.fd), p)
		switch err {
		case nil:
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			if rerr := t.AwaitReadable(c.fd); rerr != nil {
				return 0, rerr
			}
			return 0, api.ErrWouldBlock
		default:
			return 0, os.NewSyscallError("read", err)
		}
	}
}

// Write writes from p, returning the number of bytes accepted. When the
// socket buffer is full it arms write interest and reports
// api.ErrWouldBlock; short writes are the caller's loop to finish.
func (c *Conn) Write(t *exec.Task, p []byte) (int, error) {
	for {
		n, err := unix.Write(int(c.fd), p)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			if rerr := t.AwaitWritable(c.fd); rerr != nil {
				return 0, rerr
			}
			return 0, api.ErrWouldBlock
		default:
			return 0, os.NewSyscallError("write", err)
		}
	}
}

// ConnectErr reports the outcome of an in-progress connect after the
// socket became writable: nil means the connection is established.
func (c *Conn) ConnectErr() error {
	soerr, err := unix.GetsockoptInt(int(c.fd), unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return os.NewSyscallError("getsockopt", err)
	}
	if soerr != 0 {
		return os.NewSyscallError("connect", unix.Errno(soerr))
	}
	return nil
}

// Close drops every reactor registration for the handle and closes it.
func (c *Conn) Close(e *exec.Executor) error {
	e.Reactor().DropHandle(c.fd)
	return unix.Close(int(c.fd))
}

// Listener accepts inbound TCP connections without blocking.
type Listener struct {
	fd   int32
	addr *net.TCPAddr
}

// Listen binds and listens on a local TCP address ("127.0.0.1:8080").
func Listen(addr string) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, err
	}
	fd, err := newSocket()
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}
	if err := unix.Bind(fd, sockaddr(tcpAddr)); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}
	// Resolve the kernel-assigned port when binding to port 0.
	if sn, err := unix.Getsockname(fd); err == nil {
		if sa4, ok := sn.(*unix.SockaddrInet4); ok {
			tcpAddr = &net.TCPAddr{IP: net.IP(sa4.Addr[:]), Port: sa4.Port}
		}
	}
	return &Listener{fd: int32(fd), addr: tcpAddr}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() *net.TCPAddr { return l.addr }

// FD returns the listening descriptor.
func (l *Listener) FD() int32 { return l.fd }

// Accept returns the next inbound connection, already nonblocking. With no
// connection pending it arms read interest and reports api.ErrWouldBlock.
func (l *Listener) Accept(t *exec.Task) (*Conn, error) {
	for {
		nfd, _, err := unix.Accept4(int(l.fd), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch err {
		case nil:
			return &Conn{fd: int32(nfd)}, nil
		case unix.EINTR, unix.ECONNABORTED:
			continue
		case unix.EAGAIN:
			if rerr := t.AwaitReadable(l.fd); rerr != nil {
				return nil, rerr
			}
			return nil, api.ErrWouldBlock
		default:
			return nil, os.NewSyscallError("accept4", err)
		}
	}
}

// Close drops the listener's registrations and closes it.
func (l *Listener) Close(e *exec.Executor) error {
	e.Reactor().DropHandle(l.fd)
	return unix.Close(int(l.fd))
}

// Dial starts a nonblocking TCP connect. When the connection cannot
// complete immediately it arms write interest with t's waker and reports
// the in-progress Conn together with api.ErrWouldBlock; once resumed the
// task confirms the outcome with ConnectErr.
func Dial(t *exec.Task, addr string) (*Conn, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, err
	}
	fd, err := newSocket()
	if err != nil {
		return nil, err
	}
	conn := &Conn{fd: int32(fd)}
	for {
		err = unix.Connect(fd, sockaddr(tcpAddr))
		switch err {
		case nil:
			return conn, nil
		case unix.EINTR:
			continue
		case unix.EINPROGRESS:
			if rerr := t.AwaitWritable(conn.fd); rerr != nil {
				unix.Close(fd)
				return nil, rerr
			}
			return conn, api.ErrWouldBlock
		default:
			unix.Close(fd)
			return nil, os.NewSyscallError("connect", err)
		}
	}
}

// Pipe returns a connected nonblocking pipe pair, the read end first.
// Used by tests and as the simplest readiness source.
func Pipe() (*Conn, *Conn, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, nil, os.NewSyscallError("pipe2", err)
	}
	return &Conn{fd: int32(fds[0])}, &Conn{fd: int32(fds[1])}, nil
}

func newSocket() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	return fd, nil
}

func sockaddr(addr *net.TCPAddr) *unix.SockaddrInet4 {
	sa := &unix.SockaddrInet4{Port: addr.Port}
	if ip4 := addr.IP.To4(); ip4 != nil {
		copy(sa.Addr[:], ip4)
	}
	return sa
}
