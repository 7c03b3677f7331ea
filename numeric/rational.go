package numeric

import (
	"math"
	"math/big"
)

// Rational is an exact fraction numerator/denominator with a positive
// denominator. It also represents NaN, the infinities and negative zero.
// The zero value is 0.
type Rational struct {
	r    *big.Rat
	neg  bool // sign of zero and infinity
	form Form
}

var (
	RationalNaN              = Rational{form: NaN}
	RationalPositiveInfinity = Rational{form: Infinity}
	RationalNegativeInfinity = Rational{form: Infinity, neg: true}
)

// NewRational returns num/den in lowest terms. Like big.Rat.SetFrac it
// panics when den is zero.
func NewRational(num, den *big.Int) Rational {
	return fromRat(new(big.Rat).SetFrac(num, den))
}

func NewRationalInt64(num, den int64) Rational {
	return NewRational(big.NewInt(num), big.NewInt(den))
}

func RationalFromBigInt(v *big.Int) Rational { return fromRat(new(big.Rat).SetInt(v)) }

func RationalFromInt64(v int64) Rational { return fromRat(new(big.Rat).SetInt64(v)) }

// RationalFromFloat64 converts f exactly.
func RationalFromFloat64(f float64) Rational {
	switch {
	case math.IsNaN(f):
		return RationalNaN
	case math.IsInf(f, 1):
		return RationalPositiveInfinity
	case math.IsInf(f, -1):
		return RationalNegativeInfinity
	}
	r := fromRat(new(big.Rat).SetFloat64(f))
	r.neg = math.Signbit(f)
	return r
}

func fromRat(r *big.Rat) Rational { return Rational{r: r, neg: r.Sign() < 0} }

func (d Decimal) Rational() Rational  { return rationalFromScaled(d.s, 10) }
func (f BigFloat) Rational() Rational { return rationalFromScaled(f.s, 2) }

func rationalFromScaled(s scaled, radix int64) Rational {
	if s.form != Finite {
		return Rational{form: s.form, neg: s.neg}
	}
	r := fromRat(s.rat(radix))
	r.neg = s.neg
	return r
}

func (q Rational) rat() *big.Rat {
	if q.r == nil {
		return new(big.Rat)
	}
	return q.r
}

// Num returns the signed numerator.
func (q Rational) Num() *big.Int { return new(big.Int).Set(q.rat().Num()) }

// Denom returns the positive denominator.
func (q Rational) Denom() *big.Int { return new(big.Int).Set(q.rat().Denom()) }

func (q Rational) Form() Form     { return q.form }
func (q Rational) IsNaN() bool    { return q.form == NaN }
func (q Rational) IsFinite() bool { return q.form == Finite }
func (q Rational) IsZero() bool   { return q.form == Finite && q.rat().Sign() == 0 }
func (q Rational) Signbit() bool  { return q.neg }

func (q Rational) IsInf(sign int) bool {
	if q.form != Infinity {
		return false
	}
	return sign == 0 || (sign > 0) == !q.neg
}

// Sign returns -1, 0 or +1. Zero and NaN report 0.
func (q Rational) Sign() int {
	switch q.form {
	case NaN:
		return 0
	case Infinity:
		if q.neg {
			return -1
		}
		return 1
	}
	return q.rat().Sign()
}

func (q Rational) Neg() Rational {
	if q.form != Finite {
		q.neg = !q.neg
		return q
	}
	out := fromRat(new(big.Rat).Neg(q.rat()))
	out.neg = !q.neg
	return out
}

func (q Rational) Abs() Rational {
	if q.form != Finite {
		q.neg = false
		return q
	}
	return fromRat(new(big.Rat).Abs(q.rat()))
}

func (q Rational) Add(x Rational) Rational {
	if q.form != Finite || x.form != Finite {
		return q.special(x, func(a, b float64) float64 { return a + b })
	}
	out := fromRat(new(big.Rat).Add(q.rat(), x.rat()))
	if out.r.Sign() == 0 {
		out.neg = q.neg && x.neg
	}
	return out
}

func (q Rational) Sub(x Rational) Rational { return q.Add(x.Neg()) }

func (q Rational) Mul(x Rational) Rational {
	if q.form != Finite || x.form != Finite {
		return q.special(x, func(a, b float64) float64 { return a * b })
	}
	out := fromRat(new(big.Rat).Mul(q.rat(), x.rat()))
	out.neg = q.neg != x.neg
	return out
}

// Quo returns q / x. Division by zero yields an infinity or NaN.
func (q Rational) Quo(x Rational) Rational {
	if q.form != Finite || x.form != Finite || x.IsZero() {
		return q.special(x, func(a, b float64) float64 { return a / b })
	}
	out := fromRat(new(big.Rat).Quo(q.rat(), x.rat()))
	out.neg = q.neg != x.neg
	return out
}

// Rem returns q - x*trunc(q/x), which has the sign of q.
func (q Rational) Rem(x Rational) Rational {
	if q.form != Finite || x.form != Finite || x.IsZero() {
		if q.form == Finite && x.IsInf(0) {
			return q
		}
		return RationalNaN
	}
	quo := new(big.Rat).Quo(q.rat(), x.rat())
	t := new(big.Int).Quo(quo.Num(), quo.Denom())
	prod := new(big.Rat).Mul(x.rat(), new(big.Rat).SetInt(t))
	out := fromRat(new(big.Rat).Sub(q.rat(), prod))
	if out.r.Sign() == 0 {
		out.neg = q.neg
	}
	return out
}

func (q Rational) special(x Rational, op func(a, b float64) float64) Rational {
	return RationalFromFloat64(op(q.proxy(), x.proxy()))
}

func (q Rational) proxy() float64 {
	switch q.form {
	case NaN:
		return math.NaN()
	case Infinity:
		if q.neg {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	v := float64(q.rat().Sign())
	if v == 0 && q.neg {
		v = math.Copysign(0, -1)
	}
	return v
}

// Cmp orders values with NaN greater than everything else.
func (q Rational) Cmp(x Rational) int {
	switch {
	case q.form == NaN && x.form == NaN:
		return 0
	case q.form == NaN:
		return 1
	case x.form == NaN:
		return -1
	case q.form == Infinity || x.form == Infinity:
		a, b := q.Sign(), x.Sign()
		if q.form != Infinity {
			a = 0
		}
		if x.form != Infinity {
			b = 0
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return q.rat().Cmp(x.rat())
}

// Equal reports whether both values are identical, including the sign of
// zero.
func (q Rational) Equal(x Rational) bool {
	if q.form != x.form {
		return false
	}
	switch q.form {
	case NaN:
		return true
	case Infinity:
		return q.neg == x.neg
	}
	return q.neg == x.neg && q.rat().Cmp(x.rat()) == 0
}

func (q Rational) IsIntegral() bool { return q.form == Finite && q.rat().IsInt() }

// BigInt truncates toward zero. ok is false for non-finite values.
func (q Rational) BigInt() (*big.Int, bool) {
	if q.form != Finite {
		return nil, false
	}
	r := q.rat()
	return new(big.Int).Quo(r.Num(), r.Denom()), true
}

func (q Rational) Rat() (*big.Rat, bool) {
	if q.form != Finite {
		return nil, false
	}
	return new(big.Rat).Set(q.rat()), true
}

func (q Rational) Float64() float64 {
	if q.form != Finite {
		return q.proxy()
	}
	f, _ := q.rat().Float64()
	if f == 0 && q.neg {
		return math.Copysign(0, -1)
	}
	return f
}

func (q Rational) Float32() float32 {
	if q.form != Finite {
		return float32(q.proxy())
	}
	f, _ := q.rat().Float32()
	if f == 0 && q.neg {
		return float32(math.Copysign(0, -1))
	}
	return f
}

// DecimalExact converts q when its decimal expansion terminates.
func (q Rational) DecimalExact() (Decimal, bool) {
	if q.form != Finite {
		return Decimal{s: scaled{form: q.form, neg: q.neg}}, true
	}
	s, ok := ratExact(q.rat(), 10)
	s.neg = q.neg
	return Decimal{s: s}, ok
}

// Decimal rounds q half-even to the given number of significant digits.
func (q Rational) Decimal(digits int) Decimal {
	if q.form != Finite {
		return Decimal{s: scaled{form: q.form, neg: q.neg}}
	}
	s := ratRound(q.rat(), 10, digits)
	s.neg = q.neg
	return Decimal{s: s}
}

// BigFloatExact converts q when its denominator is a power of two.
func (q Rational) BigFloatExact() (BigFloat, bool) {
	if q.form != Finite {
		return BigFloat{s: scaled{form: q.form, neg: q.neg}}, true
	}
	s, ok := ratExact(q.rat(), 2)
	s.neg = q.neg
	return BigFloat{s: s}, ok
}

// BigFloat rounds q half-even to the given number of significant bits.
func (q Rational) BigFloat(bits int) BigFloat {
	if q.form != Finite {
		return BigFloat{s: scaled{form: q.form, neg: q.neg}}
	}
	s := ratRound(q.rat(), 2, bits)
	s.neg = q.neg
	return BigFloat{s: s}
}

// String formats finite values as "num/den", or "num" when the denominator
// is one.
func (q Rational) String() string {
	switch q.form {
	case NaN:
		return "NaN"
	case Infinity:
		if q.neg {
			return "-Infinity"
		}
		return "Infinity"
	}
	r := q.rat()
	if r.IsInt() {
		if r.Sign() == 0 && q.neg {
			return "-0"
		}
		return r.Num().String()
	}
	return r.Num().String() + "/" + r.Denom().String()
}
