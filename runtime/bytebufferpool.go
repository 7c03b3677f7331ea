package cbor

import (
	"sync"
	"unicode/utf8"
)

// ByteBuffer is a growable byte slice recycled through a pool. The stream
// encoder and the JSON writer build their output in one before handing it
// to the destination.
type ByteBuffer struct {
	b []byte
}

var bbPool = sync.Pool{New: func() any { return &ByteBuffer{b: make([]byte, 0, 1024)} }}

// maxPooledCap keeps very large buffers out of the pool.
const maxPooledCap = 1 << 20

// GetByteBuffer obtains a pooled ByteBuffer with zero length.
func GetByteBuffer() *ByteBuffer {
	bb := bbPool.Get().(*ByteBuffer)
	bb.Reset()
	return bb
}

// PutByteBuffer returns the buffer to the pool after Resetting length to zero.
// The buffer must not be used afterwards.
func PutByteBuffer(bb *ByteBuffer) {
	if cap(bb.b) > maxPooledCap {
		return
	}
	bb.Reset()
	bbPool.Put(bb)
}

// Bytes returns the underlying bytes.
func (bb *ByteBuffer) Bytes() []byte { return bb.b }

// Len returns length.
func (bb *ByteBuffer) Len() int { return len(bb.b) }

// Reset resets the length to zero; capacity is unchanged.
func (bb *ByteBuffer) Reset() { bb.b = bb.b[:0] }

// String returns a copy of the contents as a string.
func (bb *ByteBuffer) String() string { return string(bb.b) }

// Write implements io.Writer.
func (bb *ByteBuffer) Write(p []byte) (int, error) {
	bb.b = append(bb.b, p...)
	return len(p), nil
}

// WriteString appends a string.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	bb.b = append(bb.b, s...)
	return len(s), nil
}

// WriteByte appends a single byte.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.b = append(bb.b, c)
	return nil
}

// WriteRune appends the UTF-8 encoding of r.
func (bb *ByteBuffer) WriteRune(r rune) (int, error) {
	n := len(bb.b)
	bb.b = utf8.AppendRune(bb.b, r)
	return len(bb.b) - n, nil
}

// AppendObject appends the CBOR encoding of o.
func (bb *ByteBuffer) AppendObject(o *Object, opts EncodeOptions) error {
	e := encoder{opts: opts}
	b, err := e.append(bb.b, o)
	if err != nil {
		return err
	}
	bb.b = b
	return nil
}
