package cbor

import (
	"errors"
	"io"
	"strings"
	"unicode/utf16"
)

// JSONOptions controls the JSON reader.
type JSONOptions struct {
	// NoDuplicateKeys fails on a repeated object key instead of keeping
	// the last value.
	NoDuplicateKeys bool
	// PreserveNegativeZero reads -0 as a double negative zero.
	PreserveNegativeZero bool
}

// FromJSONString parses one JSON value from s. A leading byte order mark is
// rejected.
func FromJSONString(s string) (*Object, error) {
	return FromJSONStringOptions(s, JSONOptions{})
}

// FromJSONStringOptions is FromJSONString with options.
func FromJSONStringOptions(s string, opts JSONOptions) (*Object, error) {
	if strings.HasPrefix(s, "\ufeff") {
		return nil, newFormatError("JSON object began with a byte order mark", 0)
	}
	return readJSON(NewStringInput(s), opts)
}

// FromJSONBytes parses one JSON value from UTF-8 text.
func FromJSONBytes(b []byte) (*Object, error) {
	return FromJSONString(string(b))
}

// ReadJSON parses one JSON value from a byte stream. The encoding is
// detected (UTF-8, UTF-16 or UTF-32) and a byte order mark is skipped.
func ReadJSON(r io.Reader) (*Object, error) {
	return ReadJSONOptions(r, JSONOptions{})
}

// ReadJSONOptions is ReadJSON with options.
func ReadJSONOptions(r io.Reader, opts JSONOptions) (*Object, error) {
	if r == nil {
		return nil, &ArgumentError{Arg: "r", Msg: "nil reader"}
	}
	return readJSON(NewCharacterReader(r, CharacterReaderOptions{Mode: DetectAll}), opts)
}

// ReadJSONFrom parses one JSON value from in.
func ReadJSONFrom(in CharacterInput, opts JSONOptions) (*Object, error) {
	if in == nil {
		return nil, &ArgumentError{Arg: "in", Msg: "nil input"}
	}
	return readJSON(in, opts)
}

func readJSON(in CharacterInput, opts JSONOptions) (*Object, error) {
	p := jsonParser{in: in, opts: opts, back: -1}
	c, err := p.skipSpace()
	if err != nil {
		return nil, err
	}
	o, err := p.value(c)
	if err != nil {
		return nil, err
	}
	c, err = p.skipSpace()
	if err != nil {
		return nil, err
	}
	if c != -1 {
		return nil, p.fail("End of string not reached")
	}
	return o, nil
}

// jsonParser is a recursive descent parser with one character of pushback.
type jsonParser struct {
	in     CharacterInput
	opts   JSONOptions
	offset int64
	back   rune
	depth  int
	sb     strings.Builder
}

func (p *jsonParser) fail(msg string) error {
	return newFormatError(msg, p.offset)
}

// next returns the next character, or -1 at the end of input.
func (p *jsonParser) next() (rune, error) {
	if p.back >= 0 {
		c := p.back
		p.back = -1
		p.offset++
		return c, nil
	}
	c, err := p.in.ReadChar()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return -1, nil
		}
		return -1, err
	}
	p.offset++
	return c, nil
}

func (p *jsonParser) unread(c rune) {
	if c >= 0 {
		p.back = c
		p.offset--
	}
}

func (p *jsonParser) skipSpace() (rune, error) {
	for {
		c, err := p.next()
		if err != nil || (c != ' ' && c != '\t' && c != '\r' && c != '\n') {
			return c, err
		}
	}
}

func (p *jsonParser) value(c rune) (*Object, error) {
	switch {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"':
		s, err := p.str()
		if err != nil {
			return nil, err
		}
		return newText(s), nil
	case c == 't':
		return True, p.literal("rue")
	case c == 'f':
		return False, p.literal("alse")
	case c == 'n':
		return Null, p.literal("ull")
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number(c)
	case c == -1:
		return nil, p.fail("Unexpected end of data")
	}
	return nil, p.fail("Unexpected character")
}

func (p *jsonParser) literal(rest string) error {
	for _, want := range rest {
		c, err := p.next()
		if err != nil {
			return err
		}
		if c != want {
			return p.fail("Unexpected character")
		}
	}
	return nil
}

func (p *jsonParser) number(c rune) (*Object, error) {
	start := p.offset - 1
	var buf []byte
	for c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' || (c >= '0' && c <= '9') {
		buf = append(buf, byte(c))
		var err error
		if c, err = p.next(); err != nil {
			return nil, err
		}
	}
	p.unread(c)
	o, at := parseJSONNumber(string(buf), NumberOptions{PreserveNegativeZero: p.opts.PreserveNegativeZero})
	if o == nil {
		return nil, newFormatError("Invalid JSON number", start+int64(at))
	}
	return o, nil
}

func (p *jsonParser) hex4() (rune, error) {
	var r rune
	for range 4 {
		c, err := p.next()
		if err != nil {
			return 0, err
		}
		switch {
		case c >= '0' && c <= '9':
			r = r<<4 | (c - '0')
		case c >= 'a' && c <= 'f':
			r = r<<4 | (c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			r = r<<4 | (c - 'A' + 10)
		default:
			return 0, p.fail("Invalid Unicode escaped character")
		}
	}
	return r, nil
}

func (p *jsonParser) str() (string, error) {
	p.sb.Reset()
	for {
		c, err := p.next()
		if err != nil {
			return "", err
		}
		switch {
		case c == -1:
			return "", p.fail("Unterminated string")
		case c == '"':
			return p.sb.String(), nil
		case c < 0x20:
			return "", p.fail("Invalid character in string literal")
		case c != '\\':
			p.sb.WriteRune(c)
			continue
		}
		if c, err = p.next(); err != nil {
			return "", err
		}
		switch c {
		case '\\', '/', '"':
			p.sb.WriteRune(c)
		case 'b':
			p.sb.WriteByte('\b')
		case 'f':
			p.sb.WriteByte('\f')
		case 'n':
			p.sb.WriteByte('\n')
		case 'r':
			p.sb.WriteByte('\r')
		case 't':
			p.sb.WriteByte('\t')
		case 'u':
			r, err := p.hex4()
			if err != nil {
				return "", err
			}
			if r >= 0xdc00 && r <= 0xdfff {
				return "", p.fail("Unpaired surrogate code point")
			}
			if r >= 0xd800 && r <= 0xdbff {
				if err := p.literal("\\u"); err != nil {
					return "", p.fail("Unpaired surrogate code point")
				}
				lo, err := p.hex4()
				if err != nil {
					return "", err
				}
				if lo < 0xdc00 || lo > 0xdfff {
					return "", p.fail("Unpaired surrogate code point")
				}
				r = utf16.DecodeRune(r, lo)
			}
			p.sb.WriteRune(r)
		default:
			return "", p.fail("Invalid escaped character")
		}
	}
}

func (p *jsonParser) enter() error {
	if p.depth >= maxJSONDepth {
		return p.fail("Too deeply nested")
	}
	p.depth++
	return nil
}

func (p *jsonParser) array() (*Object, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	var items []*Object
	c, err := p.skipSpace()
	if err != nil {
		return nil, err
	}
	if c == ']' {
		return NewArray(), nil
	}
	for {
		if c == ']' {
			return nil, p.fail("Trailing comma")
		}
		it, err := p.value(c)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		if c, err = p.skipSpace(); err != nil {
			return nil, err
		}
		switch c {
		case ']':
			return &Object{kind: kindArray, items: items}, nil
		case ',':
			if c, err = p.skipSpace(); err != nil {
				return nil, err
			}
		default:
			return nil, p.fail("Expected a ',' or ']'")
		}
	}
}

func (p *jsonParser) object() (*Object, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	m := newObjectMap(0)
	c, err := p.skipSpace()
	if err != nil {
		return nil, err
	}
	if c == '}' {
		return &Object{kind: kindMap, m: m}, nil
	}
	for {
		switch c {
		case '"':
		case '}', ',':
			return nil, p.fail("Trailing comma")
		default:
			return nil, p.fail("Expected a string as a key")
		}
		k, err := p.str()
		if err != nil {
			return nil, err
		}
		key := newText(k)
		if c, err = p.skipSpace(); err != nil {
			return nil, err
		}
		if c != ':' {
			return nil, p.fail("Expected a ':' after a key")
		}
		if c, err = p.skipSpace(); err != nil {
			return nil, err
		}
		v, err := p.value(c)
		if err != nil {
			return nil, err
		}
		if m.set(key, v) && p.opts.NoDuplicateKeys {
			return nil, p.fail("Duplicate key already exists")
		}
		if c, err = p.skipSpace(); err != nil {
			return nil, err
		}
		switch c {
		case '}':
			return &Object{kind: kindMap, m: m}, nil
		case ',':
			if c, err = p.skipSpace(); err != nil {
				return nil, err
			}
		default:
			return nil, p.fail("Expected a ',' or '}'")
		}
	}
}
