// Package cbor implements a CBOR (RFC 8949) object model with a byte-exact
// encoder and decoder, a numeric tower and JSON interoperability.
//
// The central type is *Object, a tagged union over every CBOR data item:
// integers of any size, byte and text strings, arrays, maps, simple values,
// single and double floats, decimal fractions, bigfloats, rationals and
// tagged items. Objects are built with the FromXxx constructors, NewArray
// and NewMap, or by decoding:
//
//	obj, err := cbor.DecodeFromBytes(data)
//	obj, err := cbor.Read(r)
//	obj, err := cbor.FromJSONString(`{"a": [1, 2.5]}`)
//
// and serialized with
//
//	data, err := obj.EncodeToBytes()
//	n, err := obj.WriteTo(w)
//	js, err := obj.ToJSONString()
//
// Scalars are immutable and safe to share. Arrays and maps are mutable and
// need external synchronization when shared between goroutines. Tag
// handlers and type converters live in process-wide registries guarded by
// mutexes.
package cbor

import "errors"

const (
	// recursionLimit is the limit of recursive calls.
	// This limits the nesting depth accepted by the decoder and encoder.
	recursionLimit = 100000

	// maxJSONDepth is the nesting limit of the JSON reader.
	maxJSONDepth = 1000

	// stringChunkLen is the longest definite text string the encoder writes;
	// longer strings are split into indefinite-length chunks.
	stringChunkLen = 4096
)

// ErrFormat classifies malformed input. Every *FormatError matches it
// with errors.Is.
var ErrFormat = errors.New("cbor: malformed data")

// CBOR major types (3 bits)
const (
	majorTypeUint   = 0 // unsigned integer
	majorTypeNegInt = 1 // negative integer
	majorTypeBytes  = 2 // byte string
	majorTypeText   = 3 // text string (UTF-8)
	majorTypeArray  = 4 // array
	majorTypeMap    = 5 // map
	majorTypeTag    = 6 // semantic tag
	majorTypeSimple = 7 // float, simple values, break
)

// Additional info values (5 bits)
const (
	// 0-23: literal value
	addInfoDirect     = 23 // max direct value
	addInfoUint8      = 24 // 1-byte uint8 follows
	addInfoUint16     = 25 // 2-byte uint16 follows
	addInfoUint32     = 26 // 4-byte uint32 follows
	addInfoUint64     = 27 // 8-byte uint64 follows
	addInfoIndefinite = 31 // indefinite length (for bytes, text, array, map)
)

// Simple values in major type 7
const (
	simpleFalse     = 20
	simpleTrue      = 21
	simpleNull      = 22
	simpleUndefined = 23
	simpleFloat16   = 25
	simpleFloat32   = 26
	simpleFloat64   = 27
	simpleBreak     = 31
)

// Semantic tags with built-in handling
const (
	tagDateTimeString = 0   // RFC3339 date/time string
	tagPosBignum      = 2   // Positive bignum
	tagNegBignum      = 3   // Negative bignum
	tagDecimalFrac    = 4   // Decimal fraction
	tagBigfloat       = 5   // Bigfloat
	tagBase64URL      = 21  // Expected base64url encoding
	tagBase64         = 22  // Expected base64 encoding
	tagBase16         = 23  // Expected base16 encoding
	tagStringRef      = 25  // Reference to a previously seen string
	tagShareable      = 28  // Value that may be shared
	tagSharedRef      = 29  // Reference to a shared value
	tagRational       = 30  // Rational number
	tagURI            = 32  // URI
	tagBase64URLText  = 33  // base64url text
	tagBase64Text     = 34  // base64 text
	tagRegexp         = 35  // Regular expression
	tagMIME           = 36  // MIME message
	tagUUID           = 37  // Binary UUID
	tagStringRefSpace = 256 // String reference namespace
	tagDecimalBig     = 264 // Decimal fraction with bignum exponent
	tagBigfloatBig    = 265 // Bigfloat with bignum exponent
)

var (
	breakByte = makeByte(majorTypeSimple, simpleBreak)
)

// makeByte creates a CBOR initial byte from major type and additional info
func makeByte(majorType, addInfo uint8) byte {
	return byte((majorType << 5) | addInfo)
}

// getMajorType extracts the major type from a CBOR initial byte
func getMajorType(b byte) uint8 {
	return (b >> 5) & 0x07
}

// getAddInfo extracts the additional info from a CBOR initial byte
func getAddInfo(b byte) uint8 {
	return b & 0x1f
}

// Type is the data model type of an object, ignoring tags.
type Type byte

const (
	InvalidType Type = iota

	TypeNumber      // any integer, float, decimal, bigfloat or rational
	TypeBoolean     // true or false
	TypeSimpleValue // null, undefined and every other simple value
	TypeByteString  // byte string
	TypeTextString  // text string
	TypeArray       // array
	TypeMap         // map
)

// String implements fmt.Stringer
func (t Type) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeSimpleValue:
		return "simple"
	case TypeByteString:
		return "bytes"
	case TypeTextString:
		return "text"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	default:
		return "<invalid>"
	}
}

// NumberKind reports how a number is represented.
type NumberKind byte

const (
	NotANumber NumberKind = iota

	KindInteger    // int64
	KindBigInteger // *big.Int outside the int64 range
	KindSingle     // float32
	KindDouble     // float64
	KindDecimal    // numeric.Decimal
	KindBigFloat   // numeric.BigFloat
	KindRational   // numeric.Rational
)

// String implements fmt.Stringer
func (k NumberKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindBigInteger:
		return "biginteger"
	case KindSingle:
		return "single"
	case KindDouble:
		return "double"
	case KindDecimal:
		return "decimal"
	case KindBigFloat:
		return "bigfloat"
	case KindRational:
		return "rational"
	default:
		return "<nan>"
	}
}

// Marshaler is the interface implemented by types that know how to marshal
// themselves as CBOR. MarshalCBOR appends the marshalled form to the provided
// byte slice, returning the extended slice and any errors encountered.
type Marshaler interface {
	MarshalCBOR([]byte) ([]byte, error)
}

// Unmarshaler is the interface fulfilled by objects that know how to unmarshal
// themselves from CBOR. UnmarshalCBOR unmarshals the object from binary,
// returning any leftover bytes and any errors encountered.
type Unmarshaler interface {
	UnmarshalCBOR([]byte) ([]byte, error)
}

var (
	_ Marshaler   = (*Object)(nil)
	_ Unmarshaler = (*Object)(nil)
)
