//go:build !linux
// +build !linux

// File: netio/netio_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package netio

import (
	"net"

	"github.com/momentics/hioload-rt/api"
	"github.com/momentics/hioload-rt/exec"
)

// Conn is unavailable on this platform.
type Conn struct{ fd int32 }

func (c *Conn) FD() int32 { return c.fd }

func (c *Conn) Read(t *exec.Task, p []byte) (int, error)  { return 0, api.ErrNotSupported }
func (c *Conn) Write(t *exec.Task, p []byte) (int, error) { return 0, api.ErrNotSupported }
func (c *Conn) ConnectErr() error                         { return api.ErrNotSupported }
func (c *Conn) Close(e *exec.Executor) error              { return api.ErrNotSupported }

// Listener is unavailable on this platform.
type Listener struct{ fd int32 }

func (l *Listener) FD() int32                          { return l.fd }
func (l *Listener) Addr() *net.TCPAddr                 { return nil }
func (l *Listener) Accept(t *exec.Task) (*Conn, error) { return nil, api.ErrNotSupported }
func (l *Listener) Close(e *exec.Executor) error       { return api.ErrNotSupported }

func Listen(addr string) (*Listener, error)         { return nil, api.ErrNotSupported }
func Dial(t *exec.Task, addr string) (*Conn, error) { return nil, api.ErrNotSupported }
func Pipe() (*Conn, *Conn, error)                   { return nil, nil, api.ErrNotSupported }
