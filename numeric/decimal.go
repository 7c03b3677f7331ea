package numeric

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrSyntax is returned when a string is not a valid number.
var ErrSyntax = errors.New("numeric: invalid syntax")

// Decimal is an arbitrary-precision decimal fraction mantissa * 10^exponent.
// The zero value is 0. Decimals also represent NaN, the infinities and
// negative zero.
type Decimal struct{ s scaled }

var (
	DecimalNaN              = Decimal{s: scaled{form: NaN}}
	DecimalPositiveInfinity = Decimal{s: scaled{form: Infinity}}
	DecimalNegativeInfinity = Decimal{s: scaled{form: Infinity, neg: true}}
	DecimalNegativeZero     = Decimal{s: scaled{neg: true}}
)

// NewDecimal returns mantissa * 10^exponent. Nil arguments read as zero.
func NewDecimal(mantissa, exponent *big.Int) Decimal {
	return Decimal{s: newScaled(mantissa, exponent)}
}

// NewDecimalInt64 returns mantissa * 10^exponent.
func NewDecimalInt64(mantissa, exponent int64) Decimal {
	return NewDecimal(big.NewInt(mantissa), big.NewInt(exponent))
}

// DecimalFromBigInt returns v with exponent zero.
func DecimalFromBigInt(v *big.Int) Decimal { return NewDecimal(v, nil) }

// DecimalFromInt64 returns v with exponent zero.
func DecimalFromInt64(v int64) Decimal { return NewDecimalInt64(v, 0) }

// DecimalFromFloat64 converts f exactly; 0.1 becomes
// 0.1000000000000000055511151231257827021181583404541015625.
func DecimalFromFloat64(f float64) Decimal { return Decimal{s: fromFloat64(f, 10)} }

// DecimalFromFloat32 converts f exactly.
func DecimalFromFloat32(f float32) Decimal { return DecimalFromFloat64(float64(f)) }

// ParseDecimal parses scientific or plain decimal notation, plus the special
// values NaN, Infinity and Inf (case-insensitive, optionally signed).
func ParseDecimal(str string) (Decimal, error) {
	s := str
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	switch strings.ToLower(s) {
	case "nan":
		return DecimalNaN, nil
	case "infinity", "inf":
		if neg {
			return DecimalNegativeInfinity, nil
		}
		return DecimalPositiveInfinity, nil
	}

	var digits strings.Builder
	var fracDigits int64
	var sawDigit, sawPoint bool
	i := 0
scan:
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits.WriteByte(c)
			sawDigit = true
			if sawPoint {
				fracDigits++
			}
		case c == '.' && !sawPoint:
			sawPoint = true
		default:
			break scan
		}
	}
	if !sawDigit {
		return Decimal{}, fmt.Errorf("%w: %q", ErrSyntax, str)
	}
	exp := new(big.Int)
	if i < len(s) {
		if s[i] != 'e' && s[i] != 'E' {
			return Decimal{}, fmt.Errorf("%w: %q", ErrSyntax, str)
		}
		rest := s[i+1:]
		if rest == "" || strings.ContainsAny(rest[1:], "+-") {
			return Decimal{}, fmt.Errorf("%w: %q", ErrSyntax, str)
		}
		if _, ok := exp.SetString(strings.TrimPrefix(rest, "+"), 10); !ok {
			return Decimal{}, fmt.Errorf("%w: %q", ErrSyntax, str)
		}
	}
	exp.Sub(exp, big.NewInt(fracDigits))
	mant, _ := new(big.Int).SetString(digits.String(), 10)
	d := NewDecimal(mant, exp)
	d.s.neg = neg
	return d, nil
}

// Mantissa returns the signed unscaled value.
func (d Decimal) Mantissa() *big.Int { return d.s.mantissa() }

// Exponent returns the power of ten the mantissa is scaled by.
func (d Decimal) Exponent() *big.Int { return new(big.Int).Set(d.s.e()) }

func (d Decimal) Form() Form     { return d.s.form }
func (d Decimal) IsNaN() bool    { return d.s.form == NaN }
func (d Decimal) IsFinite() bool { return d.s.form == Finite }
func (d Decimal) IsZero() bool   { return d.s.isZero() }
func (d Decimal) Signbit() bool  { return d.s.neg }

// IsInf reports whether d is an infinity, according to sign:
// sign > 0 tests for +Inf, sign < 0 for -Inf, sign == 0 for either.
func (d Decimal) IsInf(sign int) bool { return isInf(d.s, sign) }

// Sign returns -1, 0 or +1. Zero and NaN report 0.
func (d Decimal) Sign() int { return d.s.sign() }

func (d Decimal) Neg() Decimal { return Decimal{s: d.s.negate()} }
func (d Decimal) Abs() Decimal { return Decimal{s: d.s.abs()} }

func (d Decimal) Add(x Decimal) Decimal { return Decimal{s: add(d.s, x.s, 10)} }
func (d Decimal) Sub(x Decimal) Decimal { return Decimal{s: add(d.s, x.s.negate(), 10)} }
func (d Decimal) Mul(x Decimal) Decimal { return Decimal{s: mul(d.s, x.s, 10)} }

// QuoExact returns d / x when the quotient has a terminating decimal
// expansion. Division by zero yields an infinity or NaN.
func (d Decimal) QuoExact(x Decimal) (Decimal, bool) {
	s, ok := quoExact(d.s, x.s, 10)
	return Decimal{s: s}, ok
}

// Cmp compares values, treating NaN as greater than every other value and
// equal to itself. Zeros compare equal regardless of sign.
func (d Decimal) Cmp(x Decimal) int { return cmpSpecial(d.s, x.s, 10) }

// Equal reports whether d and x have the same mantissa, exponent and sign,
// so 1.0 and 1.00 are not Equal even though Cmp reports them equal.
func (d Decimal) Equal(x Decimal) bool { return d.s.equal(x.s) }

func (d Decimal) IsIntegral() bool { return isIntegral(d.s, 10) }

// BigInt truncates toward zero. ok is false for non-finite values.
func (d Decimal) BigInt() (v *big.Int, ok bool) {
	if d.s.form != Finite {
		return nil, false
	}
	return truncInt(d.s, 10), true
}

// BigIntBits truncates toward zero like BigInt. ok is also false when the
// result needs more than maxBits bits; unlike BigInt this never expands a
// large exponent.
func (d Decimal) BigIntBits(maxBits int) (v *big.Int, ok bool) {
	return truncIntBits(d.s, 10, maxBits)
}

// Float returns d rounded to a big.Float of precision prec. ok is false for
// NaN and for values outside the big.Float exponent range.
func (d Decimal) Float(prec uint) (*big.Float, bool) { return d.s.float(10, prec) }

// Rat returns the exact value. ok is false for non-finite values.
func (d Decimal) Rat() (v *big.Rat, ok bool) {
	if d.s.form != Finite {
		return nil, false
	}
	return d.s.rat(10), true
}

// Float64 returns the nearest float64, rounding half to even.
func (d Decimal) Float64() float64 { return toFloat(d.s, 10, 64) }

// Float32 returns the nearest float32, rounding half to even.
func (d Decimal) Float32() float32 { return float32(toFloat(d.s, 10, 32)) }

// String formats d in scientific notation when the exponent is positive or
// the value is smaller than 1E-6, and plainly otherwise: "0.1", "1E+400",
// "1.23E-8".
func (d Decimal) String() string {
	switch d.s.form {
	case NaN:
		return "NaN"
	case Infinity:
		if d.s.neg {
			return "-Infinity"
		}
		return "Infinity"
	}
	digits := d.s.c().Text(10)
	var sb strings.Builder
	if d.s.neg {
		sb.WriteByte('-')
	}
	exp := d.s.e()
	adjusted := d.s.adjusted(10)
	if exp.Sign() <= 0 && adjusted.Cmp(big.NewInt(-6)) >= 0 {
		e := int(exp.Int64())
		if e == 0 {
			sb.WriteString(digits)
			return sb.String()
		}
		point := len(digits) + e
		if point > 0 {
			sb.WriteString(digits[:point])
			sb.WriteByte('.')
			sb.WriteString(digits[point:])
		} else {
			sb.WriteString("0.")
			sb.WriteString(strings.Repeat("0", -point))
			sb.WriteString(digits)
		}
		return sb.String()
	}
	sb.WriteByte(digits[0])
	if len(digits) > 1 {
		sb.WriteByte('.')
		sb.WriteString(digits[1:])
	}
	sb.WriteByte('E')
	if adjusted.Sign() >= 0 {
		sb.WriteByte('+')
	}
	sb.WriteString(adjusted.String())
	return sb.String()
}

func isInf(s scaled, sign int) bool {
	if s.form != Infinity {
		return false
	}
	return sign == 0 || (sign > 0) == !s.neg
}

func cmpSpecial(a, b scaled, radix int64) int {
	switch {
	case a.form == NaN && b.form == NaN:
		return 0
	case a.form == NaN:
		return 1
	case b.form == NaN:
		return -1
	}
	return cmp(a, b, radix)
}
