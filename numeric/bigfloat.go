package numeric

import (
	"math"
	"math/big"
)

// BigFloat is an arbitrary-precision binary float mantissa * 2^exponent.
// The zero value is 0.
type BigFloat struct{ s scaled }

var (
	BigFloatNaN              = BigFloat{s: scaled{form: NaN}}
	BigFloatPositiveInfinity = BigFloat{s: scaled{form: Infinity}}
	BigFloatNegativeInfinity = BigFloat{s: scaled{form: Infinity, neg: true}}
)

// NewBigFloat returns mantissa * 2^exponent. Nil arguments read as zero.
func NewBigFloat(mantissa, exponent *big.Int) BigFloat {
	return BigFloat{s: newScaled(mantissa, exponent)}
}

func NewBigFloatInt64(mantissa, exponent int64) BigFloat {
	return NewBigFloat(big.NewInt(mantissa), big.NewInt(exponent))
}

func BigFloatFromBigInt(v *big.Int) BigFloat { return NewBigFloat(v, nil) }

func BigFloatFromInt64(v int64) BigFloat { return NewBigFloatInt64(v, 0) }

// BigFloatFromFloat64 converts f exactly with trailing zero bits removed
// from the mantissa.
func BigFloatFromFloat64(f float64) BigFloat { return BigFloat{s: fromFloat64(f, 2)} }

func BigFloatFromFloat32(f float32) BigFloat { return BigFloatFromFloat64(float64(f)) }

func (f BigFloat) Mantissa() *big.Int { return f.s.mantissa() }
func (f BigFloat) Exponent() *big.Int { return new(big.Int).Set(f.s.e()) }

func (f BigFloat) Form() Form          { return f.s.form }
func (f BigFloat) IsNaN() bool         { return f.s.form == NaN }
func (f BigFloat) IsFinite() bool      { return f.s.form == Finite }
func (f BigFloat) IsZero() bool        { return f.s.isZero() }
func (f BigFloat) Signbit() bool       { return f.s.neg }
func (f BigFloat) IsInf(sign int) bool { return isInf(f.s, sign) }
func (f BigFloat) Sign() int           { return f.s.sign() }

func (f BigFloat) Neg() BigFloat { return BigFloat{s: f.s.negate()} }
func (f BigFloat) Abs() BigFloat { return BigFloat{s: f.s.abs()} }

func (f BigFloat) Add(x BigFloat) BigFloat { return BigFloat{s: add(f.s, x.s, 2)} }
func (f BigFloat) Sub(x BigFloat) BigFloat { return BigFloat{s: add(f.s, x.s.negate(), 2)} }
func (f BigFloat) Mul(x BigFloat) BigFloat { return BigFloat{s: mul(f.s, x.s, 2)} }

// QuoExact returns f / x when the quotient is a dyadic rational.
func (f BigFloat) QuoExact(x BigFloat) (BigFloat, bool) {
	s, ok := quoExact(f.s, x.s, 2)
	return BigFloat{s: s}, ok
}

// Cmp orders values the same way as Decimal.Cmp.
func (f BigFloat) Cmp(x BigFloat) int { return cmpSpecial(f.s, x.s, 2) }

func (f BigFloat) Equal(x BigFloat) bool { return f.s.equal(x.s) }

func (f BigFloat) IsIntegral() bool { return isIntegral(f.s, 2) }

func (f BigFloat) BigInt() (*big.Int, bool) {
	if f.s.form != Finite {
		return nil, false
	}
	return truncInt(f.s, 2), true
}

func (f BigFloat) BigIntBits(maxBits int) (*big.Int, bool) {
	return truncIntBits(f.s, 2, maxBits)
}

func (f BigFloat) Float(prec uint) (*big.Float, bool) { return f.s.float(2, prec) }

func (f BigFloat) Rat() (*big.Rat, bool) {
	if f.s.form != Finite {
		return nil, false
	}
	return f.s.rat(2), true
}

func (f BigFloat) Float64() float64 { return toFloat(f.s, 2, 64) }
func (f BigFloat) Float32() float32 { return float32(toFloat(f.s, 2, 32)) }

// Decimal converts f exactly; every binary fraction terminates in base ten.
func (f BigFloat) Decimal() Decimal {
	if f.s.form != Finite {
		return Decimal{s: scaled{form: f.s.form, neg: f.s.neg}}
	}
	e := f.s.e()
	d := scaled{coef: new(big.Int).Set(f.s.c()), exp: new(big.Int), neg: f.s.neg}
	if e.Sign() >= 0 {
		d.coef.Lsh(d.coef, uint(e.Uint64()))
		return Decimal{s: d}
	}
	k := new(big.Int).Neg(e)
	d.coef.Mul(d.coef, pow(5, k))
	d.exp.Set(e)
	return Decimal{s: d}
}

// RoundDecimal converts f to a decimal rounded to the given number of
// significant digits. Unlike Decimal its cost does not grow with the
// exponent. ok is false when f is outside the big.Float exponent range.
func (f BigFloat) RoundDecimal(digits int) (Decimal, bool) {
	if f.s.form != Finite || f.s.isZero() {
		return Decimal{s: scaled{coef: new(big.Int), exp: new(big.Int), form: f.s.form, neg: f.s.neg}}, true
	}
	prec := uint(digits)*4 + 64
	x, ok := f.s.float(2, prec)
	if !ok {
		return Decimal{}, false
	}
	x.Abs(x)
	// x = mant * 2^exp with 0.5 <= mant < 1, so log10(x) >= (exp-1)*log10(2)
	k := int64(math.Floor(float64(x.MantExp(nil)-1) * math.Log10(2)))
	var q *big.Int
	var e int64
	for range 4 {
		shift := int64(digits) - 1 - k
		y := new(big.Float).SetPrec(prec).Set(x)
		if shift >= 0 {
			y.Mul(y, powFloat(10, uint64(shift), prec))
		} else {
			y.Quo(y, powFloat(10, uint64(-shift), prec))
		}
		y.Add(y, big.NewFloat(0.5))
		q, _ = y.Int(nil)
		e = -shift
		n := ndigits(q, 10)
		if n == digits {
			break
		}
		if n > digits {
			k++
		} else {
			k--
		}
	}
	return Decimal{s: scaled{coef: q, exp: big.NewInt(e), neg: f.s.neg}}, true
}

// BigFloat converts d to a binary float when the value is a dyadic rational.
func (d Decimal) BigFloat() (BigFloat, bool) {
	if d.s.form != Finite {
		return BigFloat{s: scaled{form: d.s.form, neg: d.s.neg}}, true
	}
	if d.s.e().Sign() >= 0 {
		return BigFloatFromBigInt(truncInt(d.s, 10)), true
	}
	s, ok := ratExact(d.s.rat(10), 2)
	if ok && s.c().Sign() == 0 {
		s.neg = d.s.neg
	}
	return BigFloat{s: s}, ok
}

// String returns the exact decimal expansion of f.
func (f BigFloat) String() string { return f.Decimal().String() }
