//go:build windows

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mrpc

import "net"

// reuseAddrListenConfig on Windows returns a plain ListenConfig: SO_REUSEADDR
// has different (and mostly undesirable) semantics on Windows, so mrpc does
// not request it there and relies on the OS default.
func reuseAddrListenConfig() *net.ListenConfig {
	return &net.ListenConfig{}
}
