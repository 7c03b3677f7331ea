package cbor

import (
	"encoding/binary"
	"math"
	"math/big"
	"slices"
	"unicode/utf8"

	"github.com/synadia-labs/cborobject/numeric"
)

// EncodeOptions controls how objects are serialized.
type EncodeOptions uint8

const (
	// EncodeDefault writes text strings longer than 4096 bytes as
	// indefinite-length strings made of definite chunks.
	EncodeDefault EncodeOptions = 0

	// NoIndefLengthStrings writes every text string with a definite length.
	NoIndefLengthStrings EncodeOptions = 1 << 0
)

// ensure 'sz' extra bytes in 'b' btw len(b) and cap(b)
func ensure(b []byte, sz int) ([]byte, int) {
	l := len(b)
	c := cap(b)
	if c-l < sz {
		o := make([]byte, (2*c)+sz) // exponential growth
		n := copy(o, b)
		return o[:n+sz], n
	}
	return b[:l+sz], l
}

// appendUintCore encodes an unsigned integer with the given major type
func appendUintCore(b []byte, majorType uint8, u uint64) []byte {
	switch {
	case u <= addInfoDirect:
		return append(b, makeByte(majorType, uint8(u)))
	case u <= math.MaxUint8:
		o, n := ensure(b, 2)
		o[n] = makeByte(majorType, addInfoUint8)
		o[n+1] = uint8(u)
		return o
	case u <= math.MaxUint16:
		o, n := ensure(b, 3)
		o[n] = makeByte(majorType, addInfoUint16)
		binary.BigEndian.PutUint16(o[n+1:], uint16(u))
		return o
	case u <= math.MaxUint32:
		o, n := ensure(b, 5)
		o[n] = makeByte(majorType, addInfoUint32)
		binary.BigEndian.PutUint32(o[n+1:], uint32(u))
		return o
	default:
		o, n := ensure(b, 9)
		o[n] = makeByte(majorType, addInfoUint64)
		binary.BigEndian.PutUint64(o[n+1:], u)
		return o
	}
}

// headLen returns the size of the head for argument u.
func headLen(u uint64) int {
	switch {
	case u <= addInfoDirect:
		return 1
	case u <= math.MaxUint8:
		return 2
	case u <= math.MaxUint16:
		return 3
	case u <= math.MaxUint32:
		return 5
	}
	return 9
}

// AppendMapHeader appends a map header with the given size
func AppendMapHeader(b []byte, sz int) []byte {
	return appendUintCore(b, majorTypeMap, uint64(sz))
}

// AppendArrayHeader appends an array header with the given size
func AppendArrayHeader(b []byte, sz int) []byte {
	return appendUintCore(b, majorTypeArray, uint64(sz))
}

// AppendTag appends a semantic tag head.
func AppendTag(b []byte, tag uint64) []byte {
	return appendUintCore(b, majorTypeTag, tag)
}

// AppendInt64 appends an int64 using the shortest CBOR integer encoding.
func AppendInt64(b []byte, i int64) []byte {
	// Fast path for small positive values 0..23 (single-byte encoding).
	if i >= 0 && i <= addInfoDirect {
		return append(b, makeByte(majorTypeUint, uint8(i)))
	}
	// CBOR encodes negative integers as -1-n with unsigned argument n.
	if i < 0 {
		neg := -1 - i
		if neg <= addInfoDirect {
			return append(b, makeByte(majorTypeNegInt, uint8(neg)))
		}
		return appendUintCore(b, majorTypeNegInt, uint64(neg))
	}
	return appendUintCore(b, majorTypeUint, uint64(i))
}

// AppendUint64 appends a uint64
func AppendUint64(b []byte, u uint64) []byte {
	return appendUintCore(b, majorTypeUint, u)
}

// AppendFloat64 appends a float64
func AppendFloat64(b []byte, f float64) []byte {
	o, n := ensure(b, 9)
	o[n] = makeByte(majorTypeSimple, simpleFloat64)
	binary.BigEndian.PutUint64(o[n+1:], math.Float64bits(f))
	return o
}

// AppendFloat32 appends a float32
func AppendFloat32(b []byte, f float32) []byte {
	o, n := ensure(b, 5)
	o[n] = makeByte(majorTypeSimple, simpleFloat32)
	binary.BigEndian.PutUint32(o[n+1:], math.Float32bits(f))
	return o
}

// AppendBytes appends a byte string
func AppendBytes(b []byte, data []byte) []byte {
	return appendPayload(b, majorTypeBytes, data)
}

// AppendString appends a definite-length text string
func AppendString(b []byte, s string) []byte {
	return appendPayload(b, majorTypeText, s)
}

// appendPayload reserves the head and payload in one step.
func appendPayload[T string | []byte](b []byte, majorType uint8, data T) []byte {
	sz := uint64(len(data))
	h := headLen(sz)
	o, n := ensure(b, h+int(sz))
	switch h {
	case 1:
		o[n] = makeByte(majorType, uint8(sz))
	case 2:
		o[n] = makeByte(majorType, addInfoUint8)
		o[n+1] = uint8(sz)
	case 3:
		o[n] = makeByte(majorType, addInfoUint16)
		binary.BigEndian.PutUint16(o[n+1:], uint16(sz))
	case 5:
		o[n] = makeByte(majorType, addInfoUint32)
		binary.BigEndian.PutUint32(o[n+1:], uint32(sz))
	case 9:
		o[n] = makeByte(majorType, addInfoUint64)
		binary.BigEndian.PutUint64(o[n+1:], sz)
	}
	copy(o[n+h:], data)
	return o
}

// appendText writes s as one definite string, or as an indefinite string of
// chunks of at most stringChunkLen bytes that never split a UTF-8 sequence.
func appendText(b []byte, s string, opts EncodeOptions) []byte {
	if len(s) <= stringChunkLen || opts&NoIndefLengthStrings != 0 {
		return AppendString(b, s)
	}
	b = append(b, makeByte(majorTypeText, addInfoIndefinite))
	for len(s) > 0 {
		end := min(len(s), stringChunkLen)
		for end < len(s) && !utf8.RuneStart(s[end]) {
			end--
		}
		b = AppendString(b, s[:end])
		s = s[end:]
	}
	return append(b, breakByte)
}

// AppendBool appends true or false.
func AppendBool(b []byte, v bool) []byte {
	if v {
		return append(b, makeByte(majorTypeSimple, simpleTrue))
	}
	return append(b, makeByte(majorTypeSimple, simpleFalse))
}

// AppendNull appends null.
func AppendNull(b []byte) []byte {
	return append(b, makeByte(majorTypeSimple, simpleNull))
}

// AppendSimpleValue appends a simple value. Values 0..23 are encoded in the
// additional information; values 32..255 are encoded as 0xf8 XX.
func AppendSimpleValue(b []byte, val uint8) []byte {
	if val <= addInfoDirect {
		return append(b, makeByte(majorTypeSimple, val))
	}
	o, n := ensure(b, 2)
	o[n] = makeByte(majorTypeSimple, addInfoUint8)
	o[n+1] = val
	return o
}

// AppendBigInt appends z as a native integer when it lies in
// [-2^64, 2^64-1] and as a tag 2 or 3 bignum otherwise.
func AppendBigInt(b []byte, z *big.Int) []byte {
	if z.Sign() >= 0 {
		if z.BitLen() <= 64 {
			return AppendUint64(b, z.Uint64())
		}
		b = AppendTag(b, tagPosBignum)
		return AppendBytes(b, z.Bytes())
	}
	// Negative: encode n = -1 - value
	n := new(big.Int).Neg(z)
	n.Sub(n, bigOne)
	if n.BitLen() <= 64 {
		return appendUintCore(b, majorTypeNegInt, n.Uint64())
	}
	b = AppendTag(b, tagNegBignum)
	return AppendBytes(b, n.Bytes())
}

var bigOne = big.NewInt(1)

// fitsCBORInt reports whether z can be written as a major type 0 or 1 item.
func fitsCBORInt(z *big.Int) bool {
	if z.Sign() >= 0 {
		return z.BitLen() <= 64
	}
	n := new(big.Int).Neg(z)
	n.Sub(n, bigOne)
	return n.BitLen() <= 64
}

// appendScaled writes [exponent, mantissa] under tag, or bigTag when the
// exponent does not fit a native CBOR integer.
func appendScaled(b []byte, tag, bigTag uint64, mant, exp *big.Int) []byte {
	if !fitsCBORInt(exp) {
		tag = bigTag
	}
	b = AppendTag(b, tag)
	b = AppendArrayHeader(b, 2)
	b = AppendBigInt(b, exp)
	return AppendBigInt(b, mant)
}

// appendLeaf encodes scalars with at most one tag without the recursive
// encoder. It reports false for anything else.
func appendLeaf(b []byte, o *Object, opts EncodeOptions) ([]byte, bool) {
	if o.kind == kindTagged {
		if o.inner.kind == kindTagged {
			return b, false
		}
		switch o.inner.kind {
		case kindArray, kindMap, kindDecimal, kindBigFloat, kindRational:
			return b, false
		}
		b = AppendTag(b, o.bits)
		o = o.inner
	}
	switch o.kind {
	case kindInteger:
		return AppendInt64(b, int64(o.bits)), true
	case kindBigInteger:
		return AppendBigInt(b, o.num.(*big.Int)), true
	case kindSimple:
		return AppendSimpleValue(b, uint8(o.bits)), true
	case kindSingle:
		return AppendFloat32(b, math.Float32frombits(uint32(o.bits))), true
	case kindDouble:
		return AppendFloat64(b, math.Float64frombits(o.bits)), true
	case kindByteString:
		return AppendBytes(b, o.bytes), true
	case kindTextString:
		return appendText(b, o.str, opts), true
	}
	return b, false
}

// encoder carries the options and the stack of open containers used to
// reject circular references.
type encoder struct {
	opts  EncodeOptions
	stack []*Object
	depth int
}

func (e *encoder) append(b []byte, o *Object) ([]byte, error) {
	if out, ok := appendLeaf(b, o, e.opts); ok {
		return out, nil
	}
	if e.depth >= recursionLimit {
		return b, ErrRecursion
	}
	e.depth++
	defer func() { e.depth-- }()
	switch o.kind {
	case kindTagged:
		return e.append(AppendTag(b, o.bits), o.inner)
	case kindDecimal:
		d := o.num.(numeric.Decimal)
		return appendScaled(b, tagDecimalFrac, tagDecimalBig, d.Mantissa(), d.Exponent()), nil
	case kindBigFloat:
		f := o.num.(numeric.BigFloat)
		return appendScaled(b, tagBigfloat, tagBigfloatBig, f.Mantissa(), f.Exponent()), nil
	case kindRational:
		q := o.num.(numeric.Rational)
		b = AppendTag(b, tagRational)
		b = AppendArrayHeader(b, 2)
		b = AppendBigInt(b, q.Num())
		return AppendBigInt(b, q.Denom()), nil
	case kindArray, kindMap:
		if slices.Contains(e.stack, o) {
			return b, newFormatError("Circular reference in data structure", -1)
		}
		e.stack = append(e.stack, o)
		defer func() { e.stack = e.stack[:len(e.stack)-1] }()
		var err error
		if o.kind == kindArray {
			b = AppendArrayHeader(b, len(o.items))
			for i, it := range o.items {
				if b, err = e.append(b, it); err != nil {
					return b, WrapError(err, i)
				}
			}
			return b, nil
		}
		b = AppendMapHeader(b, len(o.m.entries))
		for _, ent := range o.m.entries {
			if b, err = e.append(b, ent.key); err != nil {
				return b, err
			}
			if b, err = e.append(b, ent.value); err != nil {
				return b, err
			}
		}
		return b, nil
	}
	return b, newFormatError("unknown object kind", -1)
}

// EncodeToBytes returns the CBOR encoding of o with EncodeDefault.
func (o *Object) EncodeToBytes() ([]byte, error) {
	return o.EncodeToBytesOptions(EncodeDefault)
}

// EncodeToBytesOptions returns the CBOR encoding of o.
func (o *Object) EncodeToBytesOptions(opts EncodeOptions) ([]byte, error) {
	if b, ok := appendLeaf(nil, o, opts); ok {
		return b, nil
	}
	e := encoder{opts: opts}
	return e.append(make([]byte, 0, 64), o)
}

// MarshalCBOR appends the encoding of o to b.
func (o *Object) MarshalCBOR(b []byte) ([]byte, error) {
	e := encoder{}
	return e.append(b, o)
}
