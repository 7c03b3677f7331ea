package cbor

import (
	"math"
	"math/big"
	"strconv"

	"github.com/synadia-labs/cborobject/numeric"
)

// Precision used when a rational has no exact decimal or binary expansion:
// 34 digits and 113 bits, the IEEE 754 decimal128 and binary128 formats.
const (
	decimalFallbackDigits = 34
	binaryFallbackBits    = 113
)

// number is implemented once per numeric variant. Methods never see a
// non-number; Object methods return a *TypeError before dispatching.
type number interface {
	isZero() bool
	sign() int // -2 for NaN
	isNaN() bool
	isInf(sign int) bool
	isIntegral() bool
	bigInt() (*big.Int, bool) // truncated toward zero; false if not finite
	decimal() numeric.Decimal
	bigFloat() numeric.BigFloat
	rational() numeric.Rational
	float64() float64
	float32() float32
	negate() *Object
	abs() *Object
}

// number returns the numeric view of the untagged item, or nil.
func (o *Object) number() number {
	t := o.untagged()
	switch t.kind {
	case kindInteger:
		return intNumber(int64(t.bits))
	case kindBigInteger:
		return bigIntNumber{t.num.(*big.Int)}
	case kindSingle:
		return singleNumber(math.Float32frombits(uint32(t.bits)))
	case kindDouble:
		return doubleNumber(math.Float64frombits(t.bits))
	case kindDecimal:
		return decimalNumber{t.num.(numeric.Decimal)}
	case kindBigFloat:
		return bigFloatNumber{t.num.(numeric.BigFloat)}
	case kindRational:
		return rationalNumber{t.num.(numeric.Rational)}
	}
	return nil
}

func (o *Object) requireNumber(op string) (number, error) {
	if n := o.number(); n != nil {
		return n, nil
	}
	return nil, &TypeError{Op: op, Got: o.Type()}
}

type intNumber int64

func (n intNumber) isZero() bool     { return n == 0 }
func (n intNumber) isNaN() bool      { return false }
func (n intNumber) isInf(int) bool   { return false }
func (n intNumber) isIntegral() bool { return true }
func (n intNumber) sign() int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
func (n intNumber) bigInt() (*big.Int, bool)   { return big.NewInt(int64(n)), true }
func (n intNumber) decimal() numeric.Decimal   { return numeric.DecimalFromInt64(int64(n)) }
func (n intNumber) bigFloat() numeric.BigFloat { return numeric.BigFloatFromInt64(int64(n)) }
func (n intNumber) rational() numeric.Rational { return numeric.RationalFromInt64(int64(n)) }
func (n intNumber) float64() float64           { return float64(n) }
func (n intNumber) float32() float32           { return float32(n) }
func (n intNumber) negate() *Object {
	if n == math.MinInt64 {
		return FromBigInt(new(big.Int).Neg(big.NewInt(int64(n))))
	}
	return FromInt64(-int64(n))
}
func (n intNumber) abs() *Object {
	if n < 0 {
		return n.negate()
	}
	return FromInt64(int64(n))
}

type bigIntNumber struct{ v *big.Int }

func (n bigIntNumber) isZero() bool                { return false }
func (n bigIntNumber) isNaN() bool                 { return false }
func (n bigIntNumber) isInf(int) bool              { return false }
func (n bigIntNumber) isIntegral() bool            { return true }
func (n bigIntNumber) sign() int                   { return n.v.Sign() }
func (n bigIntNumber) bigInt() (*big.Int, bool)    { return new(big.Int).Set(n.v), true }
func (n bigIntNumber) decimal() numeric.Decimal    { return numeric.DecimalFromBigInt(n.v) }
func (n bigIntNumber) bigFloat() numeric.BigFloat  { return numeric.BigFloatFromBigInt(n.v) }
func (n bigIntNumber) rational() numeric.Rational  { return numeric.RationalFromBigInt(n.v) }
func (n bigIntNumber) float64() float64            { return n.bigFloat().Float64() }
func (n bigIntNumber) float32() float32            { return n.bigFloat().Float32() }
func (n bigIntNumber) negate() *Object             { return FromBigInt(new(big.Int).Neg(n.v)) }
func (n bigIntNumber) abs() *Object                { return FromBigInt(new(big.Int).Abs(n.v)) }

type doubleNumber float64

func (n doubleNumber) isZero() bool { return n == 0 }
func (n doubleNumber) isNaN() bool  { return math.IsNaN(float64(n)) }
func (n doubleNumber) isInf(sign int) bool {
	return math.IsInf(float64(n), sign)
}
func (n doubleNumber) isIntegral() bool {
	f := float64(n)
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}
func (n doubleNumber) sign() int { return floatSign(float64(n)) }
func (n doubleNumber) bigInt() (*big.Int, bool) {
	return truncFloat(float64(n))
}
func (n doubleNumber) decimal() numeric.Decimal   { return numeric.DecimalFromFloat64(float64(n)) }
func (n doubleNumber) bigFloat() numeric.BigFloat { return numeric.BigFloatFromFloat64(float64(n)) }
func (n doubleNumber) rational() numeric.Rational { return numeric.RationalFromFloat64(float64(n)) }
func (n doubleNumber) float64() float64           { return float64(n) }
func (n doubleNumber) float32() float32           { return float32(n) }
func (n doubleNumber) negate() *Object            { return FromFloat64(-float64(n)) }
func (n doubleNumber) abs() *Object               { return FromFloat64(math.Abs(float64(n))) }

type singleNumber float32

func (n singleNumber) isZero() bool                { return n == 0 }
func (n singleNumber) isNaN() bool                 { return doubleNumber(n).isNaN() }
func (n singleNumber) isInf(sign int) bool         { return doubleNumber(n).isInf(sign) }
func (n singleNumber) isIntegral() bool            { return doubleNumber(n).isIntegral() }
func (n singleNumber) sign() int                   { return floatSign(float64(n)) }
func (n singleNumber) bigInt() (*big.Int, bool)    { return truncFloat(float64(n)) }
func (n singleNumber) decimal() numeric.Decimal    { return numeric.DecimalFromFloat32(float32(n)) }
func (n singleNumber) bigFloat() numeric.BigFloat  { return numeric.BigFloatFromFloat32(float32(n)) }
func (n singleNumber) rational() numeric.Rational  { return numeric.RationalFromFloat64(float64(n)) }
func (n singleNumber) float64() float64            { return float64(n) }
func (n singleNumber) float32() float32            { return float32(n) }
func (n singleNumber) negate() *Object             { return FromFloat32(-float32(n)) }
func (n singleNumber) abs() *Object                { return FromFloat32(float32(math.Abs(float64(n)))) }

type decimalNumber struct{ v numeric.Decimal }

func (n decimalNumber) isZero() bool             { return n.v.IsZero() }
func (n decimalNumber) isNaN() bool              { return n.v.IsNaN() }
func (n decimalNumber) isInf(sign int) bool      { return n.v.IsInf(sign) }
func (n decimalNumber) isIntegral() bool         { return n.v.IsIntegral() }
func (n decimalNumber) sign() int                { return scaledSign(n.v.IsNaN(), n.v.Sign()) }
func (n decimalNumber) bigInt() (*big.Int, bool) { return n.v.BigInt() }
func (n decimalNumber) decimal() numeric.Decimal { return n.v }
func (n decimalNumber) bigFloat() numeric.BigFloat {
	if f, ok := n.v.BigFloat(); ok {
		return f
	}
	return n.v.Rational().BigFloat(binaryFallbackBits)
}
func (n decimalNumber) rational() numeric.Rational { return n.v.Rational() }
func (n decimalNumber) float64() float64           { return n.v.Float64() }
func (n decimalNumber) float32() float32           { return n.v.Float32() }
func (n decimalNumber) negate() *Object            { return FromDecimal(n.v.Neg()) }
func (n decimalNumber) abs() *Object               { return FromDecimal(n.v.Abs()) }

type bigFloatNumber struct{ v numeric.BigFloat }

func (n bigFloatNumber) isZero() bool               { return n.v.IsZero() }
func (n bigFloatNumber) isNaN() bool                { return n.v.IsNaN() }
func (n bigFloatNumber) isInf(sign int) bool        { return n.v.IsInf(sign) }
func (n bigFloatNumber) isIntegral() bool           { return n.v.IsIntegral() }
func (n bigFloatNumber) sign() int                  { return scaledSign(n.v.IsNaN(), n.v.Sign()) }
func (n bigFloatNumber) bigInt() (*big.Int, bool)   { return n.v.BigInt() }
func (n bigFloatNumber) decimal() numeric.Decimal   { return n.v.Decimal() }
func (n bigFloatNumber) bigFloat() numeric.BigFloat { return n.v }
func (n bigFloatNumber) rational() numeric.Rational { return n.v.Rational() }
func (n bigFloatNumber) float64() float64           { return n.v.Float64() }
func (n bigFloatNumber) float32() float32           { return n.v.Float32() }
func (n bigFloatNumber) negate() *Object            { return FromBigFloat(n.v.Neg()) }
func (n bigFloatNumber) abs() *Object               { return FromBigFloat(n.v.Abs()) }

type rationalNumber struct{ v numeric.Rational }

func (n rationalNumber) isZero() bool             { return n.v.IsZero() }
func (n rationalNumber) isNaN() bool              { return n.v.IsNaN() }
func (n rationalNumber) isInf(sign int) bool      { return n.v.IsInf(sign) }
func (n rationalNumber) isIntegral() bool         { return n.v.IsIntegral() }
func (n rationalNumber) sign() int                { return scaledSign(n.v.IsNaN(), n.v.Sign()) }
func (n rationalNumber) bigInt() (*big.Int, bool) { return n.v.BigInt() }
func (n rationalNumber) decimal() numeric.Decimal {
	if d, ok := n.v.DecimalExact(); ok {
		return d
	}
	return n.v.Decimal(decimalFallbackDigits)
}
func (n rationalNumber) bigFloat() numeric.BigFloat {
	if f, ok := n.v.BigFloatExact(); ok {
		return f
	}
	return n.v.BigFloat(binaryFallbackBits)
}
func (n rationalNumber) rational() numeric.Rational { return n.v }
func (n rationalNumber) float64() float64           { return n.v.Float64() }
func (n rationalNumber) float32() float32           { return n.v.Float32() }
func (n rationalNumber) negate() *Object            { return FromRational(n.v.Neg()) }
func (n rationalNumber) abs() *Object               { return FromRational(n.v.Abs()) }

func floatSign(f float64) int {
	switch {
	case math.IsNaN(f):
		return -2
	case f < 0:
		return -1
	case f > 0:
		return 1
	}
	return 0
}

func scaledSign(nan bool, sign int) int {
	if nan {
		return -2
	}
	return sign
}

func truncFloat(f float64) (*big.Int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	v, _ := new(big.Float).SetFloat64(math.Trunc(f)).Int(nil)
	return v, true
}

func (o *Object) overflow(target string) error {
	return &OverflowError{Value: o.numberString(), Target: target}
}

func (o *Object) numberString() string {
	t := o.untagged()
	switch t.kind {
	case kindInteger:
		return strconv.FormatInt(int64(t.bits), 10)
	case kindDouble:
		return formatFloat64Diag(math.Float64frombits(t.bits))
	case kindSingle:
		return formatFloat32Diag(math.Float32frombits(uint32(t.bits)))
	}
	return t.String()
}

// IsNumber reports whether the untagged item is a number.
func (o *Object) IsNumber() bool { return o.number() != nil }

// IsZero reports whether o is a number equal to zero of either sign.
func (o *Object) IsZero() bool {
	n := o.number()
	return n != nil && n.isZero()
}

// IsNaN reports whether o is a not-a-number value.
func (o *Object) IsNaN() bool {
	n := o.number()
	return n != nil && n.isNaN()
}

// IsInfinity reports whether o is positive or negative infinity.
func (o *Object) IsInfinity() bool {
	n := o.number()
	return n != nil && n.isInf(0)
}

func (o *Object) IsPositiveInfinity() bool {
	n := o.number()
	return n != nil && n.isInf(1)
}

func (o *Object) IsNegativeInfinity() bool {
	n := o.number()
	return n != nil && n.isInf(-1)
}

// IsFinite reports whether o is a number that is neither infinite nor NaN.
func (o *Object) IsFinite() bool {
	n := o.number()
	return n != nil && !n.isNaN() && !n.isInf(0)
}

// IsIntegral reports whether o is a finite number without a fractional part.
func (o *Object) IsIntegral() bool {
	n := o.number()
	return n != nil && n.isIntegral()
}

// Sign returns -1, 0 or +1 for negative, zero and positive numbers and -2
// for NaN.
func (o *Object) Sign() (int, error) {
	n, err := o.requireNumber("Sign")
	if err != nil {
		return 0, err
	}
	return n.sign(), nil
}

// Negate returns -o. Tags are not kept.
func (o *Object) Negate() (*Object, error) {
	n, err := o.requireNumber("Negate")
	if err != nil {
		return nil, err
	}
	return n.negate(), nil
}

// Abs returns the absolute value of o. Tags are not kept.
func (o *Object) Abs() (*Object, error) {
	n, err := o.requireNumber("Abs")
	if err != nil {
		return nil, err
	}
	return n.abs(), nil
}

// AsInt64 converts o to an int64, truncating any fractional part. Values
// outside the int64 range, NaN and the infinities return an
// *OverflowError.
func (o *Object) AsInt64() (int64, error) {
	if t := o.untagged(); t.kind == kindInteger {
		return int64(t.bits), nil
	}
	v, err := o.truncated("AsInt64", "int64", 64)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, o.overflow("int64")
	}
	return v.Int64(), nil
}

// AsInt32 converts o like AsInt64 with the int32 range.
func (o *Object) AsInt32() (int32, error) {
	v, err := o.AsInt64()
	if err != nil {
		if _, ok := err.(*OverflowError); ok {
			return 0, o.overflow("int32")
		}
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, o.overflow("int32")
	}
	return int32(v), nil
}

// AsUint64 converts o to a uint64, truncating any fractional part.
func (o *Object) AsUint64() (uint64, error) {
	v, err := o.truncated("AsUint64", "uint64", 64)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, o.overflow("uint64")
	}
	return v.Uint64(), nil
}

// AsBigInt converts o to a big integer, truncating any fractional part.
// The result is exact, so a decimal or binary float with a large positive
// exponent yields an equally large integer.
func (o *Object) AsBigInt() (*big.Int, error) {
	return o.truncated("AsBigInt", "big integer", 0)
}

// truncated truncates o toward zero. A positive maxBits rejects results
// wider than that many bits without expanding the exponent.
func (o *Object) truncated(op, target string, maxBits int) (*big.Int, error) {
	n, err := o.requireNumber(op)
	if err != nil {
		return nil, err
	}
	var v *big.Int
	var ok bool
	if maxBits > 0 {
		v, ok = truncBits(n, maxBits)
	} else {
		v, ok = n.bigInt()
	}
	if !ok {
		return nil, o.overflow(target)
	}
	return v, nil
}

// truncBits truncates n toward zero, reporting false for non-finite values
// and results wider than maxBits bits.
func truncBits(n number, maxBits int) (*big.Int, bool) {
	switch n := n.(type) {
	case decimalNumber:
		return n.v.BigIntBits(maxBits)
	case bigFloatNumber:
		return n.v.BigIntBits(maxBits)
	}
	v, ok := n.bigInt()
	if !ok || v.BitLen() > maxBits {
		return nil, false
	}
	return v, true
}

func fitsInt32(v *big.Int) bool {
	return v.IsInt64() && v.Int64() >= math.MinInt32 && v.Int64() <= math.MaxInt32
}

// AsFloat64 converts o to the nearest float64.
func (o *Object) AsFloat64() (float64, error) {
	n, err := o.requireNumber("AsFloat64")
	if err != nil {
		return 0, err
	}
	return n.float64(), nil
}

// AsFloat32 converts o to the nearest float32.
func (o *Object) AsFloat32() (float32, error) {
	n, err := o.requireNumber("AsFloat32")
	if err != nil {
		return 0, err
	}
	return n.float32(), nil
}

// AsDecimal converts o to a decimal fraction. Binary floats convert
// exactly; rationals without a terminating expansion round to 34 digits.
func (o *Object) AsDecimal() (numeric.Decimal, error) {
	n, err := o.requireNumber("AsDecimal")
	if err != nil {
		return numeric.Decimal{}, err
	}
	return n.decimal(), nil
}

// AsBigFloat converts o to a binary float, exactly when possible and
// otherwise rounded to 113 bits.
func (o *Object) AsBigFloat() (numeric.BigFloat, error) {
	n, err := o.requireNumber("AsBigFloat")
	if err != nil {
		return numeric.BigFloat{}, err
	}
	return n.bigFloat(), nil
}

// AsRational converts o to an exact rational.
func (o *Object) AsRational() (numeric.Rational, error) {
	n, err := o.requireNumber("AsRational")
	if err != nil {
		return numeric.Rational{}, err
	}
	return n.rational(), nil
}

// CanFitInInt64 reports whether o is an integral number in the int64 range.
func (o *Object) CanFitInInt64() bool {
	n := o.number()
	if n == nil || !n.isIntegral() {
		return false
	}
	v, ok := truncBits(n, 64)
	return ok && v.IsInt64()
}

// CanFitInInt32 reports whether o is an integral number in the int32 range.
func (o *Object) CanFitInInt32() bool {
	n := o.number()
	if n == nil || !n.isIntegral() {
		return false
	}
	v, ok := truncBits(n, 64)
	return ok && fitsInt32(v)
}

// CanTruncatedIntFitInInt64 reports whether truncating o yields an int64.
func (o *Object) CanTruncatedIntFitInInt64() bool {
	n := o.number()
	if n == nil {
		return false
	}
	v, ok := truncBits(n, 64)
	return ok && v.IsInt64()
}

// CanTruncatedIntFitInInt32 reports whether truncating o yields an int32.
func (o *Object) CanTruncatedIntFitInInt32() bool {
	n := o.number()
	if n == nil {
		return false
	}
	v, ok := truncBits(n, 64)
	return ok && fitsInt32(v)
}

// CanFitInFloat64 reports whether o converts to a float64 without loss.
// NaN always fits.
func (o *Object) CanFitInFloat64() bool {
	n := o.number()
	if n == nil {
		return false
	}
	if n.isNaN() || n.isInf(0) {
		return true
	}
	// Overflow and underflow are decided from the exponent alone; only
	// values inside the float range reach the exact comparison.
	f := n.float64()
	if math.IsInf(f, 0) || (f == 0 && !n.isZero()) {
		return false
	}
	return numeric.RationalFromFloat64(f).Cmp(n.rational()) == 0
}

// CanFitInFloat32 reports whether o converts to a float32 without loss.
// NaN always fits.
func (o *Object) CanFitInFloat32() bool {
	n := o.number()
	if n == nil {
		return false
	}
	if n.isNaN() || n.isInf(0) {
		return true
	}
	f := n.float32()
	if math.IsInf(float64(f), 0) || (f == 0 && !n.isZero()) {
		return false
	}
	return numeric.RationalFromFloat64(float64(f)).Cmp(n.rational()) == 0
}
