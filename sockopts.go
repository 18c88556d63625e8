//go:build !windows

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mrpc

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddrListenConfig returns a net.ListenConfig whose Control callback
// enables SO_REUSEADDR on the listening socket before bind, matching
// rpc_init_server's setsockopt(listen_fd, SOL_SOCKET, SO_REUSEADDR, ...)
// in the original C implementation. Go's net package does not expose this
// option directly, so mrpc reaches for golang.org/x/sys/unix the way the
// rest of the retrieval pack does whenever a socket option is needed.
func reuseAddrListenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
}
