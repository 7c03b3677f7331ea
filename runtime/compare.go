package cbor

import (
	"bytes"
	"math/big"
	"sort"
	"strings"

	"github.com/segmentio/fasthash/fnv1a"

	"github.com/synadia-labs/cborobject/numeric"
)

// rank orders the data model types for Compare.
func rank(t *Object) int {
	switch t.kind {
	case kindSimple:
		switch t.bits {
		case simpleUndefined:
			return 0
		case simpleNull:
			return 1
		case simpleFalse:
			return 2
		case simpleTrue:
			return 3
		}
		return 4
	case kindByteString:
		return 6
	case kindTextString:
		return 7
	case kindArray:
		return 8
	case kindMap:
		return 9
	}
	return 5
}

// Compare returns -1, 0 or +1 ordering o relative to other:
// undefined < null < false < true < other simple values < numbers <
// byte strings < text strings < arrays < maps. Numbers compare by exact
// value with NaN greater than every other number; a decimal and a binary
// float of nearly equal magnitude whose exponents exceed 65536 are compared
// through a 512-bit approximation instead. Byte strings compare
// lexicographically, text strings by code point, arrays element by element
// and maps by size, then sorted keys, then values. Tags only break ties.
// A nil other sorts first.
func (o *Object) Compare(other *Object) int {
	if other == nil {
		return 1
	}
	if o == other {
		return 0
	}
	a, b := o.untagged(), other.untagged()
	if c := compareUntagged(a, b); c != 0 {
		return c
	}
	return compareTags(o.Tags(), other.Tags())
}

func compareUntagged(a, b *Object) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch ra {
	case 4:
		return cmpUint(a.bits, b.bits)
	case 5:
		return compareNumbers(a, b)
	case 6:
		return bytes.Compare(a.bytes, b.bytes)
	case 7:
		return strings.Compare(a.str, b.str)
	case 8:
		for i := 0; i < len(a.items) && i < len(b.items); i++ {
			if c := a.items[i].Compare(b.items[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(a.items), len(b.items))
	case 9:
		return compareMaps(a.m, b.m)
	}
	return 0
}

func compareMaps(a, b *objectMap) int {
	if c := cmpInt(len(a.entries), len(b.entries)); c != 0 {
		return c
	}
	ka, kb := sortedEntries(a), sortedEntries(b)
	for i := range ka {
		if c := ka[i].key.Compare(kb[i].key); c != 0 {
			return c
		}
	}
	for i := range ka {
		if c := ka[i].value.Compare(kb[i].value); c != 0 {
			return c
		}
	}
	return 0
}

func sortedEntries(m *objectMap) []mapEntry {
	out := make([]mapEntry, len(m.entries))
	copy(out, m.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].key.Compare(out[j].key) < 0 })
	return out
}

func compareTags(a, b []uint64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmpUint(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

func compareNumbers(a, b *Object) int {
	if a.kind == kindInteger && b.kind == kindInteger {
		x, y := int64(a.bits), int64(b.bits)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	na, nb := a.number(), b.number()
	switch {
	case na.isNaN() && nb.isNaN():
		return 0
	case na.isNaN():
		return 1
	case nb.isNaN():
		return -1
	}
	if na.isInf(0) || nb.isInf(0) {
		return cmpFloat(proxy(na), proxy(nb))
	}
	decimalish := func(k kind) bool { return k == kindInteger || k == kindBigInteger || k == kindDecimal }
	binaryish := func(k kind) bool {
		return k == kindInteger || k == kindBigInteger || k == kindSingle || k == kindDouble || k == kindBigFloat
	}
	switch {
	case a.kind == kindRational || b.kind == kindRational:
	case decimalish(a.kind) && decimalish(b.kind):
		return na.decimal().Cmp(nb.decimal())
	case binaryish(a.kind) && binaryish(b.kind):
		return na.bigFloat().Cmp(nb.bigFloat())
	}
	if c, ok := compareMagnitudes(na, nb); ok {
		return c
	}
	return na.rational().Cmp(nb.rational())
}

// Exponents longer than this are not expanded into exact rationals when
// mixed-radix values of similar magnitude are compared.
const exactExponentLimit = 1 << 16

// approxPrecision is the big.Float precision used past exactExponentLimit.
const approxPrecision = 512

// compareMagnitudes orders finite mixed-radix numbers by sign and binary
// magnitude. ok is false when the exact rational comparison is needed and
// affordable.
func compareMagnitudes(na, nb number) (int, bool) {
	sa, sb := na.sign(), nb.sign()
	if sa != sb {
		return cmpInt(sa, sb), true
	}
	if sa == 0 {
		return 0, true
	}
	loA, hiA := log2Bounds(na)
	loB, hiB := log2Bounds(nb)
	switch {
	case hiA.Cmp(loB) <= 0:
		return -sa, true
	case hiB.Cmp(loA) <= 0:
		return sa, true
	}
	if !longExponent(na) && !longExponent(nb) {
		return 0, false
	}
	x, okA := approxFloat(na)
	y, okB := approxFloat(nb)
	if okA && okB {
		return x.Cmp(y), true
	}
	return loA.Cmp(loB) * sa, true
}

// log2 of ten lies between these over 1e10.
var (
	log2TenLo = big.NewInt(33219280948)
	log2TenHi = big.NewInt(33219280949)
	log2Scale = big.NewInt(10000000000)
)

// log2Bounds returns lo and hi with 2^lo <= |x| < 2^hi for a finite
// nonzero number.
func log2Bounds(n number) (lo, hi *big.Int) {
	switch n := n.(type) {
	case decimalNumber:
		// mant * 10^exp with 2^(b-1) <= |mant| < 2^b
		b := big.NewInt(int64(n.v.Mantissa().BitLen()))
		e := n.v.Exponent()
		l, h := log2TenLo, log2TenHi
		if e.Sign() < 0 {
			l, h = h, l
		}
		lo = new(big.Int).Mul(e, l)
		lo.Div(lo, log2Scale)
		hi = new(big.Int).Mul(e, h)
		hi.Neg(hi).Div(hi, log2Scale).Neg(hi)
		lo.Add(lo, b).Sub(lo, big.NewInt(1))
		hi.Add(hi, b)
		return lo, hi
	case rationalNumber:
		r, _ := n.v.Rat()
		d := big.NewInt(int64(r.Num().BitLen() - r.Denom().BitLen()))
		return new(big.Int).Sub(d, big.NewInt(1)), new(big.Int).Add(d, big.NewInt(1))
	}
	f := n.bigFloat()
	top := new(big.Int).Add(f.Exponent(), big.NewInt(int64(f.Mantissa().BitLen())))
	return new(big.Int).Sub(top, big.NewInt(1)), top
}

func longExponent(n number) bool {
	var e *big.Int
	switch n := n.(type) {
	case decimalNumber:
		e = n.v.Exponent()
	case bigFloatNumber:
		e = n.v.Exponent()
	default:
		return false
	}
	return e.CmpAbs(big.NewInt(exactExponentLimit)) > 0
}

func approxFloat(n number) (*big.Float, bool) {
	switch n := n.(type) {
	case decimalNumber:
		return n.v.Float(approxPrecision)
	case bigFloatNumber:
		return n.v.Float(approxPrecision)
	case rationalNumber:
		r, _ := n.v.Rat()
		return new(big.Float).SetPrec(approxPrecision).SetRat(r), true
	}
	return n.bigFloat().Float(approxPrecision)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Equals reports structural equality. Unlike Compare it is sensitive to
// representation and tags: the integer 1, the double 1.0 and the tagged
// 5(1) are all different. Maps are equal when they hold the same keys with
// equal values, in any order.
func (o *Object) Equals(other *Object) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil || o.kind != other.kind {
		return false
	}
	switch o.kind {
	case kindTagged:
		return o.bits == other.bits && o.inner.Equals(other.inner)
	case kindInteger, kindSimple, kindSingle, kindDouble:
		return o.bits == other.bits
	case kindBigInteger:
		return o.num.(*big.Int).Cmp(other.num.(*big.Int)) == 0
	case kindByteString:
		return bytes.Equal(o.bytes, other.bytes)
	case kindTextString:
		return o.str == other.str
	case kindDecimal:
		return o.num.(numeric.Decimal).Equal(other.num.(numeric.Decimal))
	case kindBigFloat:
		return o.num.(numeric.BigFloat).Equal(other.num.(numeric.BigFloat))
	case kindRational:
		return o.num.(numeric.Rational).Equal(other.num.(numeric.Rational))
	case kindArray:
		if len(o.items) != len(other.items) {
			return false
		}
		for i := range o.items {
			if !o.items[i].Equals(other.items[i]) {
				return false
			}
		}
		return true
	case kindMap:
		if len(o.m.entries) != len(other.m.entries) {
			return false
		}
		for _, e := range o.m.entries {
			at := other.m.find(e.key)
			if at < 0 || !e.value.Equals(other.m.entries[at].value) {
				return false
			}
		}
		return true
	}
	return false
}

// Hash returns a hash consistent with Equals.
func (o *Object) Hash() uint64 {
	return o.hash(fnv1a.Init64)
}

func (o *Object) hash(h uint64) uint64 {
	h = fnv1a.AddUint64(h, uint64(o.kind))
	switch o.kind {
	case kindTagged:
		h = fnv1a.AddUint64(h, o.bits)
		return o.inner.hash(h)
	case kindInteger, kindSimple, kindSingle, kindDouble:
		return fnv1a.AddUint64(h, o.bits)
	case kindBigInteger:
		n := o.num.(*big.Int)
		h = fnv1a.AddUint64(h, uint64(n.Sign()))
		return fnv1a.AddString64(h, UnsafeString(n.Bytes()))
	case kindByteString:
		return fnv1a.AddString64(h, UnsafeString(o.bytes))
	case kindTextString:
		return fnv1a.AddString64(h, o.str)
	case kindDecimal:
		d := o.num.(numeric.Decimal)
		h = fnv1a.AddString64(h, d.Mantissa().String())
		return fnv1a.AddString64(h, d.Exponent().String())
	case kindBigFloat:
		f := o.num.(numeric.BigFloat)
		h = fnv1a.AddString64(h, f.Mantissa().String())
		return fnv1a.AddString64(h, f.Exponent().String())
	case kindRational:
		return fnv1a.AddString64(h, o.num.(numeric.Rational).String())
	case kindArray:
		h = fnv1a.AddUint64(h, uint64(len(o.items)))
		for _, it := range o.items {
			h = it.hash(h)
		}
		return h
	case kindMap:
		// Order-independent: combine entry hashes commutatively.
		var sum uint64
		for _, e := range o.m.entries {
			sum += e.value.hash(e.key.Hash())
		}
		h = fnv1a.AddUint64(h, uint64(len(o.m.entries)))
		return fnv1a.AddUint64(h, sum)
	}
	return h
}
