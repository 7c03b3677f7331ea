package cbor

import (
	"math"
	"math/big"
	"math/bits"
)

// arithmetic domains in increasing precedence
const (
	domainInteger = iota
	domainBigFloat
	domainDecimal
	domainRational
)

func domainOf(o *Object) int {
	switch o.untagged().kind {
	case kindRational:
		return domainRational
	case kindDecimal:
		return domainDecimal
	case kindBigFloat, kindSingle, kindDouble:
		return domainBigFloat
	}
	return domainInteger
}

func operands(op string, a, b *Object) (number, number, error) {
	if a == nil {
		return nil, nil, &ArgumentError{Arg: "a", Msg: "nil object"}
	}
	if b == nil {
		return nil, nil, &ArgumentError{Arg: "b", Msg: "nil object"}
	}
	na, err := a.requireNumber(op)
	if err != nil {
		return nil, nil, err
	}
	nb, err := b.requireNumber(op)
	if err != nil {
		return nil, nil, err
	}
	return na, nb, nil
}

// special handles NaN and infinite operands, and zero divisors when
// division is set, with IEEE 754 double semantics.
func special(na, nb number, division bool, op func(x, y float64) float64) (*Object, bool) {
	if na.isNaN() || nb.isNaN() || na.isInf(0) || nb.isInf(0) || (division && nb.isZero()) {
		return FromFloat64(op(proxy(na), proxy(nb))), true
	}
	return nil, false
}

// proxy keeps only the sign, zeroness and special value of n.
func proxy(n number) float64 {
	switch {
	case n.isNaN():
		return math.NaN()
	case n.isInf(1):
		return math.Inf(1)
	case n.isInf(-1):
		return math.Inf(-1)
	}
	if n.isZero() {
		return n.float64()
	}
	return float64(n.sign())
}

// Addition returns a + b. Two 64-bit integers add exactly, spilling into a
// big integer on overflow. Otherwise the result takes the representation
// of the operand highest in the order rational, decimal, binary float,
// integer; floats are promoted to exact binary floats first.
func Addition(a, b *Object) (*Object, error) {
	na, nb, err := operands("Addition", a, b)
	if err != nil {
		return nil, err
	}
	if x, ok := na.(intNumber); ok {
		if y, ok := nb.(intNumber); ok {
			s, carry := addInt64(int64(x), int64(y))
			if !carry {
				return FromInt64(s), nil
			}
			return FromBigInt(new(big.Int).Add(big.NewInt(int64(x)), big.NewInt(int64(y)))), nil
		}
	}
	if r, ok := special(na, nb, false, func(x, y float64) float64 { return x + y }); ok {
		return r, nil
	}
	switch max(domainOf(a), domainOf(b)) {
	case domainRational:
		return FromRational(na.rational().Add(nb.rational())), nil
	case domainDecimal:
		return FromDecimal(na.decimal().Add(nb.decimal())), nil
	case domainBigFloat:
		return FromBigFloat(na.bigFloat().Add(nb.bigFloat())), nil
	}
	x, _ := na.bigInt()
	y, _ := nb.bigInt()
	return FromBigInt(x.Add(x, y)), nil
}

// Subtract returns a - b with the promotion rules of Addition.
func Subtract(a, b *Object) (*Object, error) {
	_, nb, err := operands("Subtract", a, b)
	if err != nil {
		return nil, err
	}
	return Addition(a, nb.negate())
}

// Multiply returns a * b with the promotion rules of Addition.
func Multiply(a, b *Object) (*Object, error) {
	na, nb, err := operands("Multiply", a, b)
	if err != nil {
		return nil, err
	}
	if x, ok := na.(intNumber); ok {
		if y, ok := nb.(intNumber); ok {
			if p, ok := mulInt64(int64(x), int64(y)); ok {
				return FromInt64(p), nil
			}
			return FromBigInt(new(big.Int).Mul(big.NewInt(int64(x)), big.NewInt(int64(y)))), nil
		}
	}
	if r, ok := special(na, nb, false, func(x, y float64) float64 { return x * y }); ok {
		return r, nil
	}
	switch max(domainOf(a), domainOf(b)) {
	case domainRational:
		return FromRational(na.rational().Mul(nb.rational())), nil
	case domainDecimal:
		return FromDecimal(na.decimal().Mul(nb.decimal())), nil
	case domainBigFloat:
		return FromBigFloat(na.bigFloat().Mul(nb.bigFloat())), nil
	}
	x, _ := na.bigInt()
	y, _ := nb.bigInt()
	return FromBigInt(x.Mul(x, y)), nil
}

// Divide returns a / b. Integer division is exact: it yields an integer
// when b divides a and a rational otherwise. Decimal and binary float
// quotients are exact when they terminate and rational otherwise.
// Division by zero yields an infinity, or NaN for 0/0.
func Divide(a, b *Object) (*Object, error) {
	na, nb, err := operands("Divide", a, b)
	if err != nil {
		return nil, err
	}
	if r, ok := special(na, nb, true, func(x, y float64) float64 { return x / y }); ok {
		return r, nil
	}
	if x, ok := na.(intNumber); ok {
		if y, ok := nb.(intNumber); ok && !(x == math.MinInt64 && y == -1) && x%y == 0 {
			return FromInt64(int64(x / y)), nil
		}
	}
	switch max(domainOf(a), domainOf(b)) {
	case domainDecimal:
		if q, ok := na.decimal().QuoExact(nb.decimal()); ok {
			return FromDecimal(q), nil
		}
	case domainBigFloat:
		if q, ok := na.bigFloat().QuoExact(nb.bigFloat()); ok {
			return FromBigFloat(q), nil
		}
	}
	return FromRational(na.rational().Quo(nb.rational())), nil
}

// Remainder returns a - b*trunc(a/b), which has the sign of a. The result
// uses the representation Addition would choose.
func Remainder(a, b *Object) (*Object, error) {
	na, nb, err := operands("Remainder", a, b)
	if err != nil {
		return nil, err
	}
	if na.isNaN() || nb.isNaN() || na.isInf(0) || nb.isZero() {
		return FromFloat64(math.NaN()), nil
	}
	if nb.isInf(0) {
		return a.untagged(), nil
	}
	if x, ok := na.(intNumber); ok {
		if y, ok := nb.(intNumber); ok {
			if y == -1 {
				return FromInt64(0), nil
			}
			return FromInt64(int64(x % y)), nil
		}
	}
	r := na.rational().Rem(nb.rational())
	switch max(domainOf(a), domainOf(b)) {
	case domainDecimal:
		if d, ok := r.DecimalExact(); ok {
			return FromDecimal(d), nil
		}
	case domainBigFloat:
		if f, ok := r.BigFloatExact(); ok {
			return FromBigFloat(f), nil
		}
	}
	return FromRational(r), nil
}

func addInt64(x, y int64) (int64, bool) {
	s := x + y
	return s, (x >= 0) == (y >= 0) && (s >= 0) != (x >= 0)
}

func mulInt64(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	neg := (x < 0) != (y < 0)
	ux, uy := absUint64(x), absUint64(y)
	hi, lo := bits.Mul64(ux, uy)
	if hi != 0 {
		return 0, false
	}
	if neg {
		if lo > 1<<63 {
			return 0, false
		}
		return int64(-lo), true
	}
	if lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

func absUint64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}
