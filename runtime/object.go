package cbor

import (
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/synadia-labs/cborobject/numeric"
)

// kind selects the active variant of an Object.
type kind uint8

const (
	kindInteger kind = iota
	kindBigInteger
	kindByteString
	kindTextString
	kindArray
	kindMap
	kindSimple
	kindSingle
	kindDouble
	kindDecimal
	kindBigFloat
	kindRational
	kindTagged
)

// Object is a CBOR data item. The zero value is the integer 0 and is a
// valid target for UnmarshalCBOR and UnmarshalJSON; otherwise build objects
// with the FromXxx constructors, NewArray, NewMap or a decoder.
//
// A tagged item is an Object wrapping another Object; accessors, numeric
// operations, Count and indexing look through every tag to the untagged
// terminal.
type Object struct {
	kind  kind
	bits  uint64 // int64, float bits or simple value; tag number when tagged
	str   string
	bytes []byte
	items []*Object
	m     *objectMap
	num   any // *big.Int, numeric.Decimal, numeric.BigFloat or numeric.Rational
	inner *Object
}

var (
	False     = &Object{kind: kindSimple, bits: simpleFalse}
	True      = &Object{kind: kindSimple, bits: simpleTrue}
	Null      = &Object{kind: kindSimple, bits: simpleNull}
	Undefined = &Object{kind: kindSimple, bits: simpleUndefined}
)

var smallInts [256]Object

func init() {
	for i := range smallInts {
		smallInts[i] = Object{kind: kindInteger, bits: uint64(int64(i - 24))}
	}
}

// shared reports whether o is one of the process-wide instances handed out
// by constructors: the simple-value singletons and the small integers.
func (o *Object) shared() bool {
	switch o {
	case False, True, Null, Undefined:
		return true
	}
	if o.kind == kindInteger {
		v := int64(o.bits)
		return v >= -24 && v < 232 && o == &smallInts[v+24]
	}
	return false
}

var errSharedTarget = &ArgumentError{Arg: "o", Msg: "cannot unmarshal into a shared constant"}

// FromInt64 returns an integer object.
func FromInt64(v int64) *Object {
	if v >= -24 && v < 232 {
		return &smallInts[v+24]
	}
	return &Object{kind: kindInteger, bits: uint64(v)}
}

// FromInt returns an integer object.
func FromInt(v int) *Object { return FromInt64(int64(v)) }

// FromUint64 returns an integer object, backed by a big integer above
// math.MaxInt64.
func FromUint64(v uint64) *Object {
	if v <= math.MaxInt64 {
		return FromInt64(int64(v))
	}
	return &Object{kind: kindBigInteger, num: new(big.Int).SetUint64(v)}
}

// FromBigInt returns an integer object; values in the int64 range are
// stored as 64-bit integers. A nil v yields Null.
func FromBigInt(v *big.Int) *Object {
	if v == nil {
		return Null
	}
	if v.IsInt64() {
		return FromInt64(v.Int64())
	}
	return &Object{kind: kindBigInteger, num: new(big.Int).Set(v)}
}

// FromFloat64 returns a double-precision object.
func FromFloat64(f float64) *Object {
	return &Object{kind: kindDouble, bits: math.Float64bits(f)}
}

// FromFloat32 returns a single-precision object.
func FromFloat32(f float32) *Object {
	return &Object{kind: kindSingle, bits: uint64(math.Float32bits(f))}
}

// FromBool returns True or False.
func FromBool(v bool) *Object {
	if v {
		return True
	}
	return False
}

// FromBytes returns a byte string object. The slice is not copied and is
// returned as-is by Bytes.
func FromBytes(b []byte) *Object {
	if b == nil {
		b = []byte{}
	}
	return &Object{kind: kindByteString, bytes: b}
}

// FromString returns a text string object. s must be valid UTF-8.
func FromString(s string) (*Object, error) {
	if !utf8.ValidString(s) {
		return nil, &ArgumentError{Arg: "s", Msg: "invalid UTF-8 in text string"}
	}
	return newText(s), nil
}

func newText(s string) *Object { return &Object{kind: kindTextString, str: s} }

// FromDecimal returns an object for d. Integral values with exponent zero
// become integers; NaN, the infinities and negative zero become doubles.
func FromDecimal(d numeric.Decimal) *Object {
	if !d.IsFinite() || (d.IsZero() && d.Signbit()) {
		return FromFloat64(d.Float64())
	}
	if d.Exponent().Sign() == 0 {
		return FromBigInt(d.Mantissa())
	}
	return &Object{kind: kindDecimal, num: d}
}

// FromBigFloat returns an object for f, normalized like FromDecimal.
func FromBigFloat(f numeric.BigFloat) *Object {
	if !f.IsFinite() || (f.IsZero() && f.Signbit()) {
		return FromFloat64(f.Float64())
	}
	if f.Exponent().Sign() == 0 {
		return FromBigInt(f.Mantissa())
	}
	return &Object{kind: kindBigFloat, num: f}
}

// FromRational returns an object for q. Whole numbers become integers;
// NaN, the infinities and negative zero become doubles.
func FromRational(q numeric.Rational) *Object {
	if !q.IsFinite() || (q.IsZero() && q.Signbit()) {
		return FromFloat64(q.Float64())
	}
	if q.IsIntegral() {
		return FromBigInt(q.Num())
	}
	return &Object{kind: kindRational, num: q}
}

// FromSimpleValue returns the simple value v (0-255, excluding the reserved
// range 24-31). Values 20-23 return the False, True, Null and Undefined
// singletons.
func FromSimpleValue(v int) (*Object, error) {
	switch {
	case v < 0 || v > 255:
		return nil, &ArgumentError{Arg: "v", Msg: "simple value out of range"}
	case v >= 24 && v < 32:
		return nil, &ArgumentError{Arg: "v", Msg: "simple value reserved"}
	}
	return simpleObject(uint8(v)), nil
}

func simpleObject(v uint8) *Object {
	switch v {
	case simpleFalse:
		return False
	case simpleTrue:
		return True
	case simpleNull:
		return Null
	case simpleUndefined:
		return Undefined
	}
	return &Object{kind: kindSimple, bits: uint64(v)}
}

// NewArray returns a new array holding items. Nil items are stored as Null.
func NewArray(items ...*Object) *Object {
	a := make([]*Object, len(items))
	for i, it := range items {
		if it == nil {
			it = Null
		}
		a[i] = it
	}
	return &Object{kind: kindArray, items: a}
}

// NewMap returns a new empty map.
func NewMap() *Object {
	return &Object{kind: kindMap, m: newObjectMap(0)}
}

// Must returns o and panics if err is non-nil. It is intended for
// initializing package-level values and tests:
//
//	var greeting = cbor.Must(cbor.FromString("hello"))
func Must(o *Object, err error) *Object {
	if err != nil {
		panic(err)
	}
	return o
}

func orNull(o *Object) *Object {
	if o == nil {
		return Null
	}
	return o
}

func tagged(tag uint64, inner *Object) *Object {
	return &Object{kind: kindTagged, bits: tag, inner: inner}
}

// untagged returns the terminal item under all tags.
func (o *Object) untagged() *Object {
	for o.kind == kindTagged {
		o = o.inner
	}
	return o
}

// IsTagged reports whether o carries at least one tag.
func (o *Object) IsTagged() bool { return o.kind == kindTagged }

// Tags returns the tags of o, outermost first.
func (o *Object) Tags() []uint64 {
	var tags []uint64
	for ; o.kind == kindTagged; o = o.inner {
		tags = append(tags, o.bits)
	}
	return tags
}

// HasTag reports whether tag appears anywhere in o's tag chain.
func (o *Object) HasTag(tag uint64) bool {
	for ; o.kind == kindTagged; o = o.inner {
		if o.bits == tag {
			return true
		}
	}
	return false
}

// MostOuterTag returns the outermost tag. ok is false when o is untagged.
func (o *Object) MostOuterTag() (tag uint64, ok bool) {
	if o.kind != kindTagged {
		return 0, false
	}
	return o.bits, true
}

// MostInnerTag returns the tag closest to the untagged item.
func (o *Object) MostInnerTag() (tag uint64, ok bool) {
	for ; o.kind == kindTagged; o = o.inner {
		tag, ok = o.bits, true
	}
	return tag, ok
}

// Untag returns the item under all tags. Untag is idempotent.
func (o *Object) Untag() *Object { return o.untagged() }

// UntagOne removes the outermost tag, if any.
func (o *Object) UntagOne() *Object {
	if o.kind == kindTagged {
		return o.inner
	}
	return o
}

// Type returns the data model type of the untagged item.
func (o *Object) Type() Type {
	switch t := o.untagged(); t.kind {
	case kindInteger, kindBigInteger, kindSingle, kindDouble, kindDecimal, kindBigFloat, kindRational:
		return TypeNumber
	case kindByteString:
		return TypeByteString
	case kindTextString:
		return TypeTextString
	case kindArray:
		return TypeArray
	case kindMap:
		return TypeMap
	case kindSimple:
		if t.bits == simpleFalse || t.bits == simpleTrue {
			return TypeBoolean
		}
		return TypeSimpleValue
	}
	return InvalidType
}

// NumberKind returns the representation of a number, or NotANumber.
func (o *Object) NumberKind() NumberKind {
	switch o.untagged().kind {
	case kindInteger:
		return KindInteger
	case kindBigInteger:
		return KindBigInteger
	case kindSingle:
		return KindSingle
	case kindDouble:
		return KindDouble
	case kindDecimal:
		return KindDecimal
	case kindBigFloat:
		return KindBigFloat
	case kindRational:
		return KindRational
	}
	return NotANumber
}

// mapEntry is one key/value pair of a map in insertion order.
type mapEntry struct {
	key, value *Object
}

// objectMap keeps insertion order in entries and finds keys through a hash
// index consistent with Equals. Keys must not be mutated while in a map.
type objectMap struct {
	entries []mapEntry
	index   map[uint64][]int
}

func newObjectMap(n int) *objectMap {
	return &objectMap{entries: make([]mapEntry, 0, n), index: make(map[uint64][]int, n)}
}

func (m *objectMap) find(key *Object) int {
	for _, i := range m.index[key.Hash()] {
		if m.entries[i].key.Equals(key) {
			return i
		}
	}
	return -1
}

// set stores value under key and reports whether an existing entry was
// overwritten. Overwrites keep the original position.
func (m *objectMap) set(key, value *Object) bool {
	h := key.Hash()
	for _, i := range m.index[h] {
		if m.entries[i].key.Equals(key) {
			m.entries[i].value = value
			return true
		}
	}
	m.index[h] = append(m.index[h], len(m.entries))
	m.entries = append(m.entries, mapEntry{key: key, value: value})
	return false
}

func (m *objectMap) remove(key *Object) bool {
	at := m.find(key)
	if at < 0 {
		return false
	}
	m.entries = append(m.entries[:at], m.entries[at+1:]...)
	for h, bucket := range m.index {
		out := bucket[:0]
		for _, i := range bucket {
			switch {
			case i < at:
				out = append(out, i)
			case i > at:
				out = append(out, i-1)
			}
		}
		if len(out) == 0 {
			delete(m.index, h)
		} else {
			m.index[h] = out
		}
	}
	return true
}

func (m *objectMap) clear() {
	m.entries = m.entries[:0]
	clear(m.index)
}
