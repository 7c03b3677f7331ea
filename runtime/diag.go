package cbor

import (
	"encoding/hex"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/synadia-labs/cborobject/numeric"
)

// String renders o in RFC 8949 diagnostic notation. Decimals, bigfloats
// and rationals appear in their tagged wire form, for example 4([-2, 314]).
func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	bb := GetByteBuffer()
	defer PutByteBuffer(bb)
	writeDiag(bb, o, nil)
	return bb.String()
}

// DiagBytes renders the next CBOR item in diagnostic notation and returns
// the remaining bytes.
func DiagBytes(b []byte) (string, []byte, error) {
	var o Object
	rest, err := o.UnmarshalCBOR(b)
	if err != nil {
		return "", b, err
	}
	return o.String(), rest, nil
}

func writeDiag(bb *ByteBuffer, o *Object, stack []*Object) {
	switch o.kind {
	case kindTagged:
		bb.WriteString(strconv.FormatUint(o.bits, 10))
		bb.WriteByte('(')
		writeDiag(bb, o.inner, stack)
		bb.WriteByte(')')
	case kindInteger:
		bb.WriteString(strconv.FormatInt(int64(o.bits), 10))
	case kindBigInteger:
		bb.WriteString(o.num.(*big.Int).String())
	case kindByteString:
		bb.WriteString("h'")
		bb.WriteString(hex.EncodeToString(o.bytes))
		bb.WriteByte('\'')
	case kindTextString:
		writeJSONString(bb, o.str)
	case kindSimple:
		switch o.bits {
		case simpleFalse:
			bb.WriteString("false")
		case simpleTrue:
			bb.WriteString("true")
		case simpleNull:
			bb.WriteString("null")
		case simpleUndefined:
			bb.WriteString("undefined")
		default:
			bb.WriteString("simple(" + strconv.FormatUint(o.bits, 10) + ")")
		}
	case kindSingle:
		bb.WriteString(formatFloat32Diag(math.Float32frombits(uint32(o.bits))))
	case kindDouble:
		bb.WriteString(formatFloat64Diag(math.Float64frombits(o.bits)))
	case kindDecimal:
		d := o.num.(numeric.Decimal)
		writeScaledDiag(bb, tagDecimalFrac, tagDecimalBig, d.Mantissa(), d.Exponent())
	case kindBigFloat:
		f := o.num.(numeric.BigFloat)
		writeScaledDiag(bb, tagBigfloat, tagBigfloatBig, f.Mantissa(), f.Exponent())
	case kindRational:
		q := o.num.(numeric.Rational)
		bb.WriteString("30([" + q.Num().String() + ", " + q.Denom().String() + "])")
	case kindArray, kindMap:
		if slices.Contains(stack, o) {
			bb.WriteString("...")
			return
		}
		stack = append(stack, o)
		if o.kind == kindArray {
			bb.WriteByte('[')
			for i, it := range o.items {
				if i > 0 {
					bb.WriteString(", ")
				}
				writeDiag(bb, it, stack)
			}
			bb.WriteByte(']')
			return
		}
		bb.WriteByte('{')
		for i, e := range o.m.entries {
			if i > 0 {
				bb.WriteString(", ")
			}
			writeDiag(bb, e.key, stack)
			bb.WriteString(": ")
			writeDiag(bb, e.value, stack)
		}
		bb.WriteByte('}')
	}
}

func writeScaledDiag(bb *ByteBuffer, tag, bigTag uint64, mant, exp *big.Int) {
	if !fitsCBORInt(exp) {
		tag = bigTag
	}
	bb.WriteString(strconv.FormatUint(tag, 10))
	bb.WriteString("([" + exp.String() + ", " + mant.String() + "])")
}

// formatFloat64Diag returns a diagnostic string for float64 matching RFC examples
func formatFloat64Diag(f float64) string {
	return formatFloatDiag(f, 64)
}

// formatFloat32Diag returns a diagnostic string for float32 matching RFC examples
func formatFloat32Diag(f float32) string {
	return formatFloatDiag(float64(f), 32)
}

func formatFloatDiag(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	af := math.Abs(f)
	// Prefer fixed-point for reasonable magnitudes
	if af == 0 || (af >= 1e-6 && af < 1e15) {
		s := strconv.FormatFloat(f, 'f', -1, bitSize)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}
