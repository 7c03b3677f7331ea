package cbor

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf16"
	"unicode/utf8"
)

// CharacterInput is a source of Unicode scalar values. ReadChar returns
// io.EOF once the input is exhausted.
type CharacterInput interface {
	ReadChar() (rune, error)

	// Read reads up to length characters into buf[index:] and returns the
	// number read; it returns 0, io.EOF at the end of input.
	Read(buf []rune, index, length int) (int, error)
}

func readRunes(in CharacterInput, buf []rune, index, length int) (int, error) {
	if index < 0 || length < 0 || index+length > len(buf) {
		return 0, &ArgumentError{Arg: "index", Msg: "range outside buffer"}
	}
	for n := 0; n < length; n++ {
		c, err := in.ReadChar()
		if err != nil {
			if errors.Is(err, io.EOF) && n > 0 {
				return n, nil
			}
			return n, err
		}
		buf[index+n] = c
	}
	return length, nil
}

type stringInput struct {
	s   string
	pos int
}

// NewStringInput returns a CharacterInput over s, which must be valid UTF-8.
func NewStringInput(s string) CharacterInput { return &stringInput{s: s} }

func (in *stringInput) ReadChar() (rune, error) {
	if in.pos >= len(in.s) {
		return -1, io.EOF
	}
	c, size := utf8.DecodeRuneInString(in.s[in.pos:])
	if c == utf8.RuneError && size <= 1 {
		return -1, newFormatError("Invalid UTF-8", int64(in.pos))
	}
	in.pos += size
	return c, nil
}

func (in *stringInput) Read(buf []rune, index, length int) (int, error) {
	return readRunes(in, buf, index, length)
}

// CharacterReaderMode selects how a CharacterReader discovers the
// encoding of its input.
type CharacterReaderMode uint8

const (
	// UTF8Only reads UTF-8 and skips a leading byte order mark.
	UTF8Only CharacterReaderMode = iota
	// DetectBOM honors a UTF-8, UTF-16 or UTF-32 byte order mark and
	// falls back to UTF-8.
	DetectBOM
	// DetectAll also recognizes unmarked UTF-16 and UTF-32 from the
	// pattern of zero bytes at the start of JSON text (RFC 4627).
	DetectAll
)

type textEncoding uint8

const (
	encUTF8 textEncoding = iota
	encUTF16BE
	encUTF16LE
	encUTF32BE
	encUTF32LE
)

// CharacterReaderOptions configures a CharacterReader.
type CharacterReaderOptions struct {
	Mode CharacterReaderMode
	// Replace substitutes U+FFFD for invalid sequences instead of failing.
	Replace bool
}

// CharacterReader decodes UTF-8, UTF-16 or UTF-32 bytes from a stream into
// characters. Error offsets count bytes.
type CharacterReader struct {
	r        *bufio.Reader
	opts     CharacterReaderOptions
	enc      textEncoding
	detected bool
	n        int64
}

// NewCharacterReader returns a CharacterReader over r.
func NewCharacterReader(r io.Reader, opts CharacterReaderOptions) *CharacterReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &CharacterReader{r: br, opts: opts}
}

func (c *CharacterReader) skip(n int) {
	d, _ := c.r.Discard(n)
	c.n += int64(d)
}

func (c *CharacterReader) detect() {
	c.detected = true
	b, _ := c.r.Peek(4)
	has := func(prefix ...byte) bool {
		if len(b) < len(prefix) {
			return false
		}
		for i, p := range prefix {
			if b[i] != p {
				return false
			}
		}
		return true
	}
	if has(0xef, 0xbb, 0xbf) {
		c.skip(3)
		return
	}
	if c.opts.Mode == UTF8Only {
		return
	}
	switch {
	case has(0x00, 0x00, 0xfe, 0xff):
		c.enc = encUTF32BE
		c.skip(4)
		return
	case has(0xff, 0xfe, 0x00, 0x00):
		c.enc = encUTF32LE
		c.skip(4)
		return
	case has(0xfe, 0xff):
		c.enc = encUTF16BE
		c.skip(2)
		return
	case has(0xff, 0xfe):
		c.enc = encUTF16LE
		c.skip(2)
		return
	}
	if c.opts.Mode != DetectAll || len(b) < 2 {
		return
	}
	switch {
	case len(b) == 4 && b[0] == 0 && b[1] == 0 && b[2] == 0 && b[3] != 0:
		c.enc = encUTF32BE
	case len(b) == 4 && b[0] != 0 && b[1] == 0 && b[2] == 0 && b[3] == 0:
		c.enc = encUTF32LE
	case b[0] == 0 && b[1] != 0:
		c.enc = encUTF16BE
	case b[0] != 0 && b[1] == 0:
		c.enc = encUTF16LE
	}
}

func (c *CharacterReader) invalid(msg string, at int64) (rune, error) {
	if c.opts.Replace {
		return utf8.RuneError, nil
	}
	return -1, newFormatError(msg, at)
}

// ReadChar implements CharacterInput.
func (c *CharacterReader) ReadChar() (rune, error) {
	if !c.detected {
		c.detect()
	}
	switch c.enc {
	case encUTF16BE, encUTF16LE:
		return c.readUTF16()
	case encUTF32BE, encUTF32LE:
		return c.readUTF32()
	}
	return c.readUTF8()
}

func (c *CharacterReader) readUTF8() (rune, error) {
	start := c.n
	b0, err := c.r.ReadByte()
	if err != nil {
		return -1, c.ioError(err)
	}
	c.n++
	var size int
	switch {
	case b0 < utf8.RuneSelf:
		return rune(b0), nil
	case b0 >= 0xc2 && b0 <= 0xdf:
		size = 2
	case b0 >= 0xe0 && b0 <= 0xef:
		size = 3
	case b0 >= 0xf0 && b0 <= 0xf4:
		size = 4
	default:
		return c.invalid("Invalid UTF-8", start)
	}
	var buf [4]byte
	buf[0] = b0
	for i := 1; i < size; i++ {
		p, err := c.r.Peek(1)
		if err != nil && !errors.Is(err, io.EOF) {
			return -1, c.ioError(err)
		}
		if err != nil || p[0]&0xc0 != 0x80 {
			return c.invalid("Invalid UTF-8", start)
		}
		buf[i] = p[0]
		c.skip(1)
	}
	r, n := utf8.DecodeRune(buf[:size])
	if r == utf8.RuneError && n <= 1 {
		return c.invalid("Invalid UTF-8", start)
	}
	return r, nil
}

func (c *CharacterReader) unit(width int) (uint32, bool, error) {
	var buf [4]byte
	n, err := io.ReadFull(c.r, buf[:width])
	c.n += int64(n)
	switch {
	case err == nil:
	case n == 0 && errors.Is(err, io.EOF):
		return 0, false, io.EOF
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return 0, true, nil
	default:
		return 0, false, c.ioError(err)
	}
	var u uint32
	for i := 0; i < width; i++ {
		if c.enc == encUTF16BE || c.enc == encUTF32BE {
			u = u<<8 | uint32(buf[i])
		} else {
			u |= uint32(buf[i]) << (8 * i)
		}
	}
	return u, false, nil
}

func (c *CharacterReader) readUTF16() (rune, error) {
	start := c.n
	u, truncated, err := c.unit(2)
	if err != nil {
		return -1, err
	}
	if truncated {
		return c.invalid("Invalid UTF-16", start)
	}
	r := rune(u)
	switch {
	case !utf16.IsSurrogate(r):
		return r, nil
	case r >= 0xdc00:
		return c.invalid("Unpaired surrogate", start)
	}
	p, err := c.r.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return -1, c.ioError(err)
	}
	if err != nil {
		c.skip(len(p))
		return c.invalid("Unpaired surrogate", start)
	}
	var lo rune
	if c.enc == encUTF16BE {
		lo = rune(p[0])<<8 | rune(p[1])
	} else {
		lo = rune(p[1])<<8 | rune(p[0])
	}
	if lo < 0xdc00 || lo > 0xdfff {
		return c.invalid("Unpaired surrogate", start)
	}
	c.skip(2)
	return utf16.DecodeRune(r, lo), nil
}

func (c *CharacterReader) readUTF32() (rune, error) {
	start := c.n
	u, truncated, err := c.unit(4)
	if err != nil {
		return -1, err
	}
	if truncated || u > utf8.MaxRune || (u >= 0xd800 && u <= 0xdfff) {
		return c.invalid("Invalid UTF-32", start)
	}
	return rune(u), nil
}

func (c *CharacterReader) ioError(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return &FormatError{Msg: "I/O error", Offset: c.n, Err: err}
}

// Read implements CharacterInput.
func (c *CharacterReader) Read(buf []rune, index, length int) (int, error) {
	return readRunes(c, buf, index, length)
}
