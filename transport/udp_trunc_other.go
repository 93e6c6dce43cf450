//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package transport

// Without a truncation flag the spare buffer byte alone reports oversize
// datagrams.
const msgTrunc = 0
