//go:build linux || darwin || freebsd || netbsd || openbsd

package transport

import "syscall"

// msgTrunc is the receive flag reporting a datagram cut short by the buffer.
const msgTrunc = syscall.MSG_TRUNC
