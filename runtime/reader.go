package cbor

import (
	"errors"
	"io"
)

// streamChunk bounds each allocation while reading a string from a stream,
// so a forged length prefix cannot force a huge allocation up front.
const streamChunk = 64 << 10

// streamSource reads one byte at a time from an io.ByteReader so the
// stream is left positioned right after the decoded item.
type streamSource struct {
	r   io.ByteReader
	raw io.Reader
	n   int64
}

type oneByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (o *oneByteReader) ReadByte() (byte, error) {
	_, err := io.ReadFull(o.r, o.buf[:])
	return o.buf[0], err
}

func (o *oneByteReader) Read(p []byte) (int, error) { return o.r.Read(p) }

func newStreamSource(r io.Reader) *streamSource {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &oneByteReader{r: r}
		return &streamSource{r: br, raw: br.(io.Reader)}
	}
	return &streamSource{r: br, raw: r}
}

func (s *streamSource) ioError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errPremature(s.n)
	}
	return &FormatError{Msg: "I/O error", Offset: s.n, Err: err}
}

func (s *streamSource) readByte() (byte, error) {
	c, err := s.r.ReadByte()
	if err != nil {
		return 0, s.ioError(err)
	}
	s.n++
	return c, nil
}

func (s *streamSource) next(n uint64) ([]byte, error) {
	out := make([]byte, 0, min(n, streamChunk))
	for uint64(len(out)) < n {
		want := min(n-uint64(len(out)), streamChunk)
		start := len(out)
		out = append(out, make([]byte, want)...)
		got, err := io.ReadFull(s.raw, out[start:])
		s.n += int64(got)
		if err != nil {
			return nil, s.ioError(err)
		}
	}
	return out, nil
}

func (s *streamSource) offset() int64 { return s.n }

// Read decodes one CBOR item from r. When r implements io.ByteReader (as
// *bufio.Reader and *bytes.Reader do) or is unbuffered, Read consumes exactly
// the bytes of the item; wrap slow readers in a bufio.Reader and keep
// reading from it.
func Read(r io.Reader) (*Object, error) {
	return ReadOptions(r, DecodeOptions{})
}

// ReadOptions is Read with options.
func ReadOptions(r io.Reader, opts DecodeOptions) (*Object, error) {
	if r == nil {
		return nil, &ArgumentError{Arg: "r", Msg: "nil reader"}
	}
	d := decoder{src: newStreamSource(r), opts: opts}
	return d.item(nil)
}

