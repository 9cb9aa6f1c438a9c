//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import "github.com/momentics/hioload-rt/api"

// NewPoller returns an error for platforms without an epoll backend.
// Tests and embedders can still run on these platforms through WithPoller.
func NewPoller() (api.Poller, error) {
	return nil, api.ErrNotSupported
}
