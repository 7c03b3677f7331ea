package cbor

import (
	"encoding/binary"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/x448/float16"
)

// DecodeOptions controls decoding.
type DecodeOptions struct {
	// AllowDuplicateKeys keeps the last value for a repeated map key
	// instead of failing.
	AllowDuplicateKeys bool
}

// headLengths holds the total encoded length implied by each head byte:
// -1 for heads that can never start an item, 0 when the length depends on
// following bytes, and the exact length otherwise.
var headLengths [256]int8

func init() {
	for i := range headLengths {
		b := byte(i)
		major, ai := getMajorType(b), getAddInfo(b)
		var l int8
		switch {
		case ai >= 28 && ai <= 30:
			l = -1
		case major == majorTypeUint || major == majorTypeNegInt:
			l = argLen(ai)
		case major == majorTypeBytes || major == majorTypeText:
			if ai <= addInfoDirect {
				l = 1 + int8(ai)
			}
		case major == majorTypeArray || major == majorTypeMap:
			if ai == 0 {
				l = 1
			}
		case major == majorTypeSimple:
			switch ai {
			case simpleBreak:
				l = -1
			case addInfoUint8:
				// arguments below 32 are invalid and are rejected later
				l = 0
			default:
				l = argLen(ai)
			}
		}
		headLengths[i] = l
	}
}

func argLen(ai uint8) int8 {
	switch ai {
	case addInfoUint8:
		return 2
	case addInfoUint16:
		return 3
	case addInfoUint32:
		return 5
	case addInfoUint64:
		return 9
	case addInfoIndefinite:
		return -1
	}
	return 1
}

// isUTF8Valid validates UTF-8 for a byte slice. It can be overridden by
// architecture-specific implementations via build tags.
var isUTF8Valid = utf8.Valid

// DecodeFromBytes decodes exactly one CBOR item occupying all of data.
func DecodeFromBytes(data []byte) (*Object, error) {
	return DecodeFromBytesOptions(data, DecodeOptions{})
}

// DecodeFromBytesOptions is DecodeFromBytes with options.
func DecodeFromBytesOptions(data []byte, opts DecodeOptions) (*Object, error) {
	if len(data) == 0 {
		return nil, newFormatError("data is empty", 0)
	}
	switch l := int(headLengths[data[0]]); {
	case l < 0:
		return nil, newFormatError("Unexpected data encountered", 0)
	case l > 0 && len(data) < l:
		return nil, newFormatError("Premature end of data", int64(len(data)))
	case l > 0 && len(data) > l:
		return nil, newFormatError("Too many bytes", int64(l))
	}
	src := &sliceSource{b: data}
	d := decoder{src: src, opts: opts}
	o, err := d.item(nil)
	if err != nil {
		return nil, err
	}
	if src.pos != len(data) {
		return nil, newFormatError("Too many bytes", int64(src.pos))
	}
	return o, nil
}

// DecodeSequence decodes a CBOR sequence (RFC 8742): zero or more items
// written back to back.
func DecodeSequence(data []byte, opts DecodeOptions) ([]*Object, error) {
	src := &sliceSource{b: data}
	d := decoder{src: src, opts: opts}
	var out []*Object
	for src.pos < len(data) {
		o, err := d.item(nil)
		if err != nil {
			return out, WrapError(err, len(out))
		}
		out = append(out, o)
	}
	return out, nil
}

// UnmarshalCBOR decodes one item from the front of b into o and returns the
// remaining bytes.
//
// o must not be a shared constant such as True or FromInt64(0); those are
// rejected with an *ArgumentError.
func (o *Object) UnmarshalCBOR(b []byte) ([]byte, error) {
	if o.shared() {
		return b, errSharedTarget
	}
	if len(b) == 0 {
		return b, ErrShortBytes
	}
	src := &sliceSource{b: b}
	d := decoder{src: src}
	v, err := d.item(nil)
	if err != nil {
		return b, err
	}
	*o = *v
	return b[src.pos:], nil
}

// byteSource is the input of the decoder.
type byteSource interface {
	readByte() (byte, error)
	// next returns the following n bytes in a slice owned by the caller
	next(n uint64) ([]byte, error)
	offset() int64
}

type sliceSource struct {
	b   []byte
	pos int
}

func (s *sliceSource) readByte() (byte, error) {
	if s.pos >= len(s.b) {
		return 0, errPremature(int64(s.pos))
	}
	c := s.b[s.pos]
	s.pos++
	return c, nil
}

func (s *sliceSource) next(n uint64) ([]byte, error) {
	if n > uint64(len(s.b)-s.pos) {
		return nil, errPremature(int64(len(s.b)))
	}
	out := make([]byte, n)
	copy(out, s.b[s.pos:])
	s.pos += int(n)
	return out, nil
}

func (s *sliceSource) offset() int64 { return int64(s.pos) }

func errPremature(offset int64) error {
	return newFormatError("Premature end of data", offset)
}

// decoder builds objects from a byteSource.
type decoder struct {
	src   byteSource
	opts  DecodeOptions
	depth int
}

func (d *decoder) fail(msg string) error {
	return newFormatError(msg, d.src.offset())
}

// arg reads the argument selected by ai.
func (d *decoder) arg(ai uint8) (uint64, error) {
	if ai <= addInfoDirect {
		return uint64(ai), nil
	}
	var n uint64
	switch ai {
	case addInfoUint8:
		n = 1
	case addInfoUint16:
		n = 2
	case addInfoUint32:
		n = 4
	case addInfoUint64:
		n = 8
	default:
		return 0, d.fail("Unexpected data encountered")
	}
	b, err := d.src.next(n)
	if err != nil {
		return 0, err
	}
	switch n {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	}
	return binary.BigEndian.Uint64(b), nil
}

// item decodes the next item, which must satisfy filter when non-nil.
func (d *decoder) item(filter *TypeFilter) (*Object, error) {
	head, err := d.src.readByte()
	if err != nil {
		return nil, err
	}
	return d.itemFrom(head, filter)
}

func (d *decoder) itemFrom(head byte, filter *TypeFilter) (*Object, error) {
	major, ai := getMajorType(head), getAddInfo(head)
	if !filter.allowsHead(major, ai) {
		return nil, d.fail("Unexpected data encountered")
	}
	if ai >= 28 && ai <= 30 {
		return nil, d.fail("Unexpected data encountered")
	}
	if ai == addInfoIndefinite && (major <= majorTypeNegInt || major == majorTypeTag) {
		return nil, d.fail("Unexpected data encountered")
	}
	switch major {
	case majorTypeUint:
		u, err := d.arg(ai)
		if err != nil {
			return nil, err
		}
		return FromUint64(u), nil
	case majorTypeNegInt:
		u, err := d.arg(ai)
		if err != nil {
			return nil, err
		}
		if u <= math.MaxInt64 {
			return FromInt64(-1 - int64(u)), nil
		}
		z := new(big.Int).SetUint64(u)
		return FromBigInt(z.Neg(z.Add(z, bigOne))), nil
	case majorTypeBytes:
		b, err := d.stringBytes(major, ai)
		if err != nil {
			return nil, err
		}
		return FromBytes(b), nil
	case majorTypeText:
		b, err := d.stringBytes(major, ai)
		if err != nil {
			return nil, err
		}
		if ai <= addInfoDirect && isASCII(b) {
			return newText(UnsafeString(b)), nil
		}
		if !isUTF8Valid(b) {
			return nil, d.fail("Invalid UTF-8")
		}
		return newText(UnsafeString(b)), nil
	case majorTypeArray, majorTypeMap:
		return d.container(major, ai, filter)
	case majorTypeTag:
		return d.tag(ai, filter)
	}
	return d.simple(ai)
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// stringBytes reads a definite string or reassembles an indefinite one from
// definite chunks of the same major type.
func (d *decoder) stringBytes(major, ai uint8) ([]byte, error) {
	if ai != addInfoIndefinite {
		n, err := d.arg(ai)
		if err != nil {
			return nil, err
		}
		return d.src.next(n)
	}
	out := []byte{}
	for {
		c, err := d.src.readByte()
		if err != nil {
			return nil, err
		}
		if c == breakByte {
			return out, nil
		}
		if getMajorType(c) != major || getAddInfo(c) == addInfoIndefinite {
			return nil, d.fail("Invalid chunk in indefinite-length string")
		}
		n, err := d.arg(getAddInfo(c))
		if err != nil {
			return nil, err
		}
		chunk, err := d.src.next(n)
		if err != nil {
			return nil, err
		}
		if major == majorTypeText && !isUTF8Valid(chunk) {
			return nil, d.fail("Invalid UTF-8")
		}
		out = append(out, chunk...)
	}
}

func (d *decoder) enter() error {
	if d.depth >= recursionLimit {
		return ErrRecursion
	}
	d.depth++
	return nil
}

func (d *decoder) container(major, ai uint8, filter *TypeFilter) (*Object, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()
	indefinite := ai == addInfoIndefinite
	var n uint64
	if !indefinite {
		var err error
		if n, err = d.arg(ai); err != nil {
			return nil, err
		}
	}
	if major == majorTypeArray {
		return d.array(n, indefinite, filter)
	}
	return d.objectMap(n, indefinite)
}

// preallocLimit bounds capacity taken from untrusted length prefixes.
const preallocLimit = 1024

func (d *decoder) array(n uint64, indefinite bool, filter *TypeFilter) (*Object, error) {
	if !indefinite && filter != nil && !filter.ArrayLengthMatches(n) {
		return nil, d.fail("Array is too long or too short")
	}
	items := make([]*Object, 0, min(n, preallocLimit))
	for i := uint64(0); indefinite || i < n; i++ {
		c, err := d.src.readByte()
		if err != nil {
			return nil, err
		}
		if indefinite && c == breakByte {
			break
		}
		if filter != nil && !filter.ArrayIndexAllowed(i) {
			return nil, d.fail("Array is too long")
		}
		it, err := d.itemFrom(c, filter.SubFilter(i))
		if err != nil {
			return nil, WrapError(err, int(i))
		}
		items = append(items, it)
	}
	if indefinite && filter != nil && !filter.ArrayLengthMatches(uint64(len(items))) {
		return nil, d.fail("Array is too long or too short")
	}
	return &Object{kind: kindArray, items: items}, nil
}

func (d *decoder) objectMap(n uint64, indefinite bool) (*Object, error) {
	m := newObjectMap(int(min(n, preallocLimit)))
	for i := uint64(0); indefinite || i < n; i++ {
		c, err := d.src.readByte()
		if err != nil {
			return nil, err
		}
		if indefinite && c == breakByte {
			break
		}
		key, err := d.itemFrom(c, nil)
		if err != nil {
			return nil, err
		}
		value, err := d.item(nil)
		if err != nil {
			return nil, err
		}
		if m.set(key, value) && !d.opts.AllowDuplicateKeys {
			return nil, d.fail("Duplicate key already exists")
		}
	}
	return &Object{kind: kindMap, m: m}, nil
}

func (d *decoder) tag(ai uint8, filter *TypeFilter) (*Object, error) {
	tag, err := d.arg(ai)
	if err != nil {
		return nil, err
	}
	if !filter.TagAllowed(tag) {
		return nil, d.fail("Unexpected tag encountered")
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()
	h := lookupTagHandler(tag)
	var inner *TypeFilter
	if h != nil {
		inner = h.TypeFilter()
	}
	at := d.src.offset()
	v, err := d.item(inner)
	if err != nil {
		return nil, err
	}
	o, err := applyTag(h, tagged(tag, v))
	if err != nil {
		if fe, ok := err.(*FormatError); ok && fe.Offset < 0 {
			c := *fe
			c.Offset = at
			return nil, &c
		}
		return nil, err
	}
	return o, nil
}

func (d *decoder) simple(ai uint8) (*Object, error) {
	switch ai {
	case addInfoUint8:
		c, err := d.src.readByte()
		if err != nil {
			return nil, err
		}
		if c < 32 {
			return nil, d.fail("Invalid simple value")
		}
		return simpleObject(c), nil
	case simpleFloat16:
		u, err := d.arg(addInfoUint16)
		if err != nil {
			return nil, err
		}
		return FromFloat32(float16.Frombits(uint16(u)).Float32()), nil
	case simpleFloat32:
		u, err := d.arg(addInfoUint32)
		if err != nil {
			return nil, err
		}
		return FromFloat32(math.Float32frombits(uint32(u))), nil
	case simpleFloat64:
		u, err := d.arg(addInfoUint64)
		if err != nil {
			return nil, err
		}
		return FromFloat64(math.Float64frombits(u)), nil
	case simpleBreak:
		return nil, d.fail("Unexpected break code")
	}
	return simpleObject(ai), nil
}
