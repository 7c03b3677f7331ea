// Package numeric implements the arbitrary-precision numbers carried by the
// CBOR object model: decimal fractions (mantissa * 10^exponent), binary
// floats (mantissa * 2^exponent) and exact rationals.
//
// Values are immutable; every operation returns a new value. Arbitrary
// exponents are supported, so a Decimal such as 1E+400 stays finite even
// though it does not fit in a float64.
package numeric

import (
	"math"
	"math/big"
	"math/bits"
)

// Form classifies a number as finite or one of the IEEE 754 special values.
type Form uint8

const (
	Finite Form = iota
	Infinity
	NaN
)

// String implements fmt.Stringer
func (f Form) String() string {
	switch f {
	case Finite:
		return "finite"
	case Infinity:
		return "infinity"
	case NaN:
		return "nan"
	default:
		return "<invalid>"
	}
}

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// scaled is coef * radix^exp. The sign is kept apart from the coefficient
// so negative zero survives arithmetic. coef is never negative; nil coef or
// exp read as zero.
type scaled struct {
	coef *big.Int
	exp  *big.Int
	neg  bool
	form Form
}

func newScaled(mant, exp *big.Int) scaled {
	s := scaled{coef: new(big.Int), exp: new(big.Int)}
	if mant != nil {
		s.coef.Abs(mant)
		s.neg = mant.Sign() < 0
	}
	if exp != nil {
		s.exp.Set(exp)
	}
	return s
}

func (s scaled) c() *big.Int {
	if s.coef == nil {
		return bigZero
	}
	return s.coef
}

func (s scaled) e() *big.Int {
	if s.exp == nil {
		return bigZero
	}
	return s.exp
}

func (s scaled) isZero() bool { return s.form == Finite && s.c().Sign() == 0 }

// sign returns -1, 0 or +1; zero of either sign and NaN report 0.
func (s scaled) sign() int {
	switch s.form {
	case NaN:
		return 0
	case Infinity:
		if s.neg {
			return -1
		}
		return 1
	}
	if s.c().Sign() == 0 {
		return 0
	}
	if s.neg {
		return -1
	}
	return 1
}

func (s scaled) mantissa() *big.Int {
	m := new(big.Int).Set(s.c())
	if s.neg {
		m.Neg(m)
	}
	return m
}

func (s scaled) negate() scaled {
	s.neg = !s.neg
	return s
}

func (s scaled) abs() scaled {
	s.neg = false
	return s
}

func (s scaled) equal(o scaled) bool {
	if s.form != o.form {
		return false
	}
	switch s.form {
	case NaN:
		return true
	case Infinity:
		return s.neg == o.neg
	}
	return s.neg == o.neg && s.c().Cmp(o.c()) == 0 && s.e().Cmp(o.e()) == 0
}

func pow(radix int64, e *big.Int) *big.Int {
	return new(big.Int).Exp(big.NewInt(radix), e, nil)
}

func powInt(radix int64, e int64) *big.Int {
	return pow(radix, big.NewInt(e))
}

// ndigits returns the number of radix digits in x (1 for zero).
func ndigits(x *big.Int, radix int64) int {
	if x.Sign() == 0 {
		return 1
	}
	if radix == 2 {
		return x.BitLen()
	}
	return len(new(big.Int).Abs(x).Text(int(radix)))
}

// adjusted is the exponent of the most significant digit.
func (s scaled) adjusted(radix int64) *big.Int {
	return new(big.Int).Add(s.e(), big.NewInt(int64(ndigits(s.c(), radix)-1)))
}

// rat returns the exact value of a finite number.
func (s scaled) rat(radix int64) *big.Rat {
	m := s.mantissa()
	e := s.e()
	if e.Sign() >= 0 {
		return new(big.Rat).SetInt(m.Mul(m, pow(radix, e)))
	}
	return new(big.Rat).SetFrac(m, pow(radix, new(big.Int).Neg(e)))
}

// align rescales a and b to the smaller exponent and returns the signed
// coefficients.
func align(a, b scaled, radix int64) (ca, cb, exp *big.Int) {
	ca, cb = a.mantissa(), b.mantissa()
	switch a.e().Cmp(b.e()) {
	case 0:
		return ca, cb, new(big.Int).Set(a.e())
	case 1:
		d := new(big.Int).Sub(a.e(), b.e())
		ca.Mul(ca, pow(radix, d))
		return ca, cb, new(big.Int).Set(b.e())
	default:
		d := new(big.Int).Sub(b.e(), a.e())
		cb.Mul(cb, pow(radix, d))
		return ca, cb, new(big.Int).Set(a.e())
	}
}

func fromSigned(m, exp *big.Int, negZero bool) scaled {
	s := newScaled(m, exp)
	if m.Sign() == 0 {
		s.neg = negZero
	}
	return s
}

func add(a, b scaled, radix int64) scaled {
	if a.form != Finite || b.form != Finite {
		return special(a, b, func(x, y float64) float64 { return x + y })
	}
	ca, cb, exp := align(a, b, radix)
	return fromSigned(ca.Add(ca, cb), exp, a.neg && b.neg)
}

func mul(a, b scaled, radix int64) scaled {
	if a.form != Finite || b.form != Finite {
		return special(a, b, func(x, y float64) float64 { return x * y })
	}
	s := scaled{
		coef: new(big.Int).Mul(a.c(), b.c()),
		exp:  new(big.Int).Add(a.e(), b.e()),
		neg:  a.neg != b.neg,
	}
	return s
}

// quoExact divides a by b, reporting false when the quotient does not
// terminate in the given radix.
func quoExact(a, b scaled, radix int64) (scaled, bool) {
	if a.form != Finite || b.form != Finite || b.isZero() {
		return special(a, b, func(x, y float64) float64 { return x / y }), true
	}
	q := new(big.Rat).Quo(a.rat(radix), b.rat(radix))
	s, ok := ratExact(q, radix)
	if ok && s.c().Sign() == 0 {
		s.neg = a.neg != b.neg
	}
	return s, ok
}

// cmp orders finite values; zeros compare equal regardless of sign.
func cmp(a, b scaled, radix int64) int {
	sa, sb := a.sign(), b.sign()
	if sa != sb {
		if sa < sb {
			return -1
		}
		return 1
	}
	if sa == 0 {
		return 0
	}
	if a.form == Infinity || b.form == Infinity {
		switch {
		case a.form == b.form:
			return 0
		case a.form == Infinity:
			return sa
		default:
			return -sa
		}
	}
	if c := a.adjusted(radix).Cmp(b.adjusted(radix)); c != 0 {
		return c * sa
	}
	ca, cb, _ := align(a, b, radix)
	return ca.Cmp(cb)
}

// special evaluates an operation with a non-finite operand or zero divisor
// using float64 stand-ins that keep only sign and zeroness; IEEE 754 gives
// the right special result from those alone.
func special(a, b scaled, op func(x, y float64) float64) scaled {
	return fromFloat64(op(proxy(a), proxy(b)), 10)
}

func proxy(s scaled) float64 {
	switch s.form {
	case NaN:
		return math.NaN()
	case Infinity:
		if s.neg {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	v := 1.0
	if s.c().Sign() == 0 {
		v = 0
	}
	if s.neg {
		v = -v
	}
	return v
}

// fromFloat64 converts f exactly. Radix 10 uses m*2^-k = m*5^k*10^-k.
func fromFloat64(f float64, radix int64) scaled {
	switch {
	case math.IsNaN(f):
		return scaled{form: NaN}
	case math.IsInf(f, 0):
		return scaled{form: Infinity, neg: f < 0}
	case f == 0:
		return scaled{coef: new(big.Int), exp: new(big.Int), neg: math.Signbit(f)}
	}
	u := math.Float64bits(f)
	be := int64(u>>52) & 0x7ff
	mant := u & (1<<52 - 1)
	if be == 0 {
		be = 1
	} else {
		mant |= 1 << 52
	}
	e2 := be - 1075
	tz := bits.TrailingZeros64(mant)
	mant >>= uint(tz)
	e2 += int64(tz)

	s := scaled{coef: new(big.Int).SetUint64(mant), exp: new(big.Int), neg: f < 0}
	switch {
	case radix == 2:
		s.exp.SetInt64(e2)
	case e2 >= 0:
		s.coef.Lsh(s.coef, uint(e2))
	default:
		s.coef.Mul(s.coef, powInt(5, -e2))
		s.exp.SetInt64(e2)
	}
	return s
}

// toFloat converts to the nearest float of the given bit size (32 or 64).
func toFloat(s scaled, radix int64, bitSize int) float64 {
	switch s.form {
	case NaN:
		return math.NaN()
	case Infinity:
		if s.neg {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	var f float64
	if s.c().Sign() != 0 {
		f = toFloatMagnitude(s.abs(), radix, bitSize)
	}
	if s.neg {
		f = -f
	}
	return f
}

func toFloatMagnitude(s scaled, radix int64, bitSize int) float64 {
	hi, lo := int64(1100), int64(-1200)
	if radix == 10 {
		hi, lo = 330, -400
	}
	if bitSize == 32 {
		hi, lo = hi/8, lo/8
	}
	adj := s.adjusted(radix)
	if adj.Cmp(big.NewInt(hi)) > 0 {
		return math.Inf(1)
	}
	if adj.Cmp(big.NewInt(lo)) < 0 {
		return 0
	}
	if radix == 2 {
		f := new(big.Float).SetInt(s.c())
		f.SetMantExp(f, int(s.e().Int64()))
		if bitSize == 32 {
			v, _ := f.Float32()
			return float64(v)
		}
		v, _ := f.Float64()
		return v
	}
	r := s.rat(radix)
	if bitSize == 32 {
		v, _ := r.Float32()
		return float64(v)
	}
	v, _ := r.Float64()
	return v
}

// truncInt truncates a finite value toward zero.
func truncInt(s scaled, radix int64) *big.Int {
	e := s.e()
	z := new(big.Int).Set(s.c())
	if e.Sign() >= 0 {
		z.Mul(z, pow(radix, e))
	} else {
		ne := new(big.Int).Neg(e)
		if ne.Cmp(big.NewInt(int64(ndigits(z, radix)))) > 0 {
			return new(big.Int)
		}
		z.Quo(z, pow(radix, ne))
	}
	if s.neg {
		z.Neg(z)
	}
	return z
}

func isIntegral(s scaled, radix int64) bool {
	if s.form != Finite {
		return false
	}
	if s.e().Sign() >= 0 || s.c().Sign() == 0 {
		return true
	}
	ne := new(big.Int).Neg(s.e())
	if ne.Cmp(big.NewInt(int64(ndigits(s.c(), radix)))) > 0 {
		return false
	}
	return new(big.Int).Rem(s.c(), pow(radix, ne)).Sign() == 0
}

// truncIntBits is truncInt for results of at most maxBits bits. It rejects
// wider values from the adjusted exponent before scaling, so its cost does
// not grow with the exponent.
func truncIntBits(s scaled, radix int64, maxBits int) (*big.Int, bool) {
	if s.form != Finite {
		return nil, false
	}
	if s.c().Sign() == 0 {
		return new(big.Int), true
	}
	adj := s.adjusted(radix)
	if adj.Sign() < 0 {
		return new(big.Int), true
	}
	// |s| >= radix^adj >= 2^adj
	if !adj.IsInt64() || adj.Int64() >= int64(maxBits) {
		return nil, false
	}
	z := truncInt(s, radix)
	if z.BitLen() > maxBits {
		return nil, false
	}
	return z, true
}

// floatExpLimit bounds the adjusted exponent accepted by float; a decimal
// digit needs less than four bits, so such values stay inside the
// big.Float exponent range.
const floatExpLimit = big.MaxExp / 4

// float approximates s with a big.Float of the given precision. The cost
// depends on prec and the bit length of the exponent only. ok is false for
// NaN and for magnitudes outside the big.Float range.
func (s scaled) float(radix int64, prec uint) (*big.Float, bool) {
	z := new(big.Float).SetPrec(prec)
	switch s.form {
	case NaN:
		return nil, false
	case Infinity:
		return z.SetInf(s.neg), true
	}
	if s.c().Sign() != 0 {
		adj, e := s.adjusted(radix), s.e()
		if !adj.IsInt64() || !e.IsInt64() {
			return nil, false
		}
		if a, x := adj.Int64(), e.Int64(); a > floatExpLimit || a < -floatExpLimit ||
			x > floatExpLimit || x < -floatExpLimit {
			return nil, false
		}
		z.SetInt(s.c())
		switch x := e.Int64(); {
		case radix == 2:
			z.SetMantExp(z, int(x))
		case x >= 0:
			z.Mul(z, powFloat(radix, uint64(x), prec+64))
		default:
			z.Quo(z, powFloat(radix, uint64(-x), prec+64))
		}
	}
	if s.neg {
		z.Neg(z)
	}
	return z, true
}

func powFloat(base int64, n uint64, prec uint) *big.Float {
	z := new(big.Float).SetPrec(prec).SetInt64(1)
	b := new(big.Float).SetPrec(prec).SetInt64(base)
	for n > 0 {
		if n&1 == 1 {
			z.Mul(z, b)
		}
		n >>= 1
		if n > 0 {
			b.Mul(b, b)
		}
	}
	return z
}

// ratExact converts r to coef * radix^exp when the expansion terminates.
func ratExact(r *big.Rat, radix int64) (scaled, bool) {
	num := r.Num()
	den := r.Denom()
	s := scaled{coef: new(big.Int).Abs(num), exp: new(big.Int), neg: num.Sign() < 0}
	if den.Cmp(bigOne) == 0 {
		return s, true
	}
	twos := int64(den.TrailingZeroBits())
	rest := new(big.Int).Rsh(den, uint(twos))
	if radix == 2 {
		if rest.Cmp(bigOne) != 0 {
			return scaled{}, false
		}
		s.exp.SetInt64(-twos)
		return s, true
	}
	var fives int64
	five := big.NewInt(5)
	q, m := new(big.Int), new(big.Int)
	for {
		q.QuoRem(rest, five, m)
		if m.Sign() != 0 {
			break
		}
		rest.Set(q)
		fives++
	}
	if rest.Cmp(bigOne) != 0 {
		return scaled{}, false
	}
	k := max(twos, fives)
	s.coef.Mul(s.coef, powInt(2, k-twos))
	s.coef.Mul(s.coef, powInt(5, k-fives))
	s.exp.SetInt64(-k)
	return s, true
}

// ratRound rounds r half-even to precision significant radix digits.
func ratRound(r *big.Rat, radix int64, precision int) scaled {
	if r.Sign() == 0 {
		return scaled{coef: new(big.Int), exp: new(big.Int)}
	}
	num := new(big.Int).Abs(r.Num())
	den := r.Denom()
	e := int64(ndigits(num, radix) - ndigits(den, radix) - precision)
	var q, rem, divisor *big.Int
	for {
		q, rem, divisor = scaleQuo(num, den, radix, e)
		n := ndigits(q, radix)
		if n > precision {
			e++
			continue
		}
		if n < precision {
			e--
			continue
		}
		break
	}
	twice := new(big.Int).Lsh(rem, 1)
	if c := twice.Cmp(divisor); c > 0 || (c == 0 && q.Bit(0) == 1) {
		q.Add(q, bigOne)
		if ndigits(q, radix) > precision {
			q.Quo(q, big.NewInt(radix))
			e++
		}
	}
	return scaled{coef: q, exp: big.NewInt(e), neg: r.Sign() < 0}
}

func scaleQuo(num, den *big.Int, radix, e int64) (q, rem, divisor *big.Int) {
	n := num
	divisor = den
	if e >= 0 {
		divisor = new(big.Int).Mul(den, powInt(radix, e))
	} else {
		n = new(big.Int).Mul(num, powInt(radix, -e))
	}
	q, rem = new(big.Int).QuoRem(n, divisor, new(big.Int))
	return q, rem, divisor
}
