package osc

import (
	"bytes"
	"strings"
	"sync"
)

////
// Utility and helper functions
////
var bufPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, DefaultBufferSize))
	},
}

// splitAddress splits an address into its elements, dropping the empty
// element before the leading slash. "/a/b" gives [a b], "/" gives [""].
func splitAddress(addr string) []string {
	return strings.Split(strings.TrimPrefix(addr, "/"), "/")
}

// joinAddress is the inverse of splitAddress.
func joinAddress(elems ...string) string {
	return "/" + strings.Join(elems, "/")
}
