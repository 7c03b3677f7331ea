package cbor

import "unsafe"

// UnsafeString returns a string sharing the memory of b. b must not be
// modified afterwards; the decoder only passes buffers it owns.
func UnsafeString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
