package cbor

import (
	"math"
	"math/big"

	"github.com/synadia-labs/cborobject/numeric"
)

// NumberOptions restricts the grammar accepted by ParseJSONNumberOptions.
type NumberOptions struct {
	// IntegersOnly rejects fractions and exponents.
	IntegersOnly bool
	// PositiveOnly rejects a leading minus sign.
	PositiveOnly bool
	// PreserveNegativeZero returns a double -0 for negative zero instead
	// of the integer or decimal zero.
	PreserveNegativeZero bool
}

// spillThreshold is the largest accumulator value that can take another
// decimal digit without any risk of overflowing int32 arithmetic.
const spillThreshold = 214748363

// ParseJSONNumber parses s as an RFC 8259 number. The result is an
// integer, a big integer or a decimal holding the exact value written;
// the number is never rounded to a binary float.
func ParseJSONNumber(s string) (*Object, error) {
	return ParseJSONNumberOptions(s, NumberOptions{})
}

// ParseJSONNumberOptions is ParseJSONNumber with options.
func ParseJSONNumberOptions(s string, opts NumberOptions) (*Object, error) {
	o, at := parseJSONNumber(s, opts)
	if o == nil {
		return nil, newFormatError("Invalid JSON number", int64(at))
	}
	return o, nil
}

// accumulator collects decimal digits in an int64 until the spill
// threshold, then in a big.Int.
type accumulator struct {
	small int64
	big   *big.Int
}

var bigTen = big.NewInt(10)

func (a *accumulator) push(d byte) {
	if a.big == nil {
		if a.small < spillThreshold {
			a.small = a.small*10 + int64(d-'0')
			return
		}
		a.big = big.NewInt(a.small)
	}
	a.big.Mul(a.big, bigTen)
	a.big.Add(a.big, big.NewInt(int64(d-'0')))
}

func (a *accumulator) value() *big.Int {
	if a.big != nil {
		return a.big
	}
	return big.NewInt(a.small)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseJSONNumber returns nil and the offset of the first bad character
// when s is not exactly one number.
func parseJSONNumber(s string, opts NumberOptions) (*Object, int) {
	i := 0
	neg := false
	if i < len(s) && s[i] == '-' {
		if opts.PositiveOnly {
			return nil, i
		}
		neg = true
		i++
	}
	if i >= len(s) || !isDigit(s[i]) {
		return nil, i
	}
	var mant accumulator
	if s[i] == '0' {
		i++
		if i < len(s) && isDigit(s[i]) {
			return nil, i
		}
	} else {
		for ; i < len(s) && isDigit(s[i]); i++ {
			mant.push(s[i])
		}
	}
	var scale int64
	fraction := false
	if i < len(s) && s[i] == '.' {
		if opts.IntegersOnly {
			return nil, i
		}
		fraction = true
		i++
		if i >= len(s) || !isDigit(s[i]) {
			return nil, i
		}
		for ; i < len(s) && isDigit(s[i]); i++ {
			mant.push(s[i])
			scale--
		}
	}
	var exp accumulator
	expNeg, hasExp := false, false
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		if opts.IntegersOnly {
			return nil, i
		}
		hasExp = true
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			expNeg = s[i] == '-'
			i++
		}
		if i >= len(s) || !isDigit(s[i]) {
			return nil, i
		}
		for ; i < len(s) && isDigit(s[i]); i++ {
			exp.push(s[i])
		}
	}
	if i != len(s) {
		return nil, i
	}

	if !fraction && !hasExp {
		if mant.big == nil {
			if mant.small == 0 && neg && opts.PreserveNegativeZero {
				return FromFloat64(math.Copysign(0, -1)), i
			}
			if neg {
				return FromInt64(-mant.small), i
			}
			return FromInt64(mant.small), i
		}
		v := mant.value()
		if neg {
			v.Neg(v)
		}
		return FromBigInt(v), i
	}

	var e *big.Int
	if exp.big == nil {
		e = big.NewInt(exp.small)
	} else {
		e = exp.big
	}
	if expNeg {
		e.Neg(e)
	}
	e.Add(e, big.NewInt(scale))
	m := mant.value()
	if m.Sign() == 0 {
		if neg && opts.PreserveNegativeZero {
			return FromFloat64(math.Copysign(0, -1)), i
		}
		if e.Sign() == 0 {
			return FromInt64(0), i
		}
		return FromDecimal(numeric.NewDecimal(m, e)), i
	}
	if neg {
		m.Neg(m)
	}
	return FromDecimal(numeric.NewDecimal(m, e)), i
}
