package cbor

import (
	"encoding/base64"
	"encoding/hex"
	"io"
	"math"
	"math/big"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/synadia-labs/cborobject/numeric"
)

// rationalDigits is the precision used for rationals whose decimal
// expansion does not terminate.
const rationalDigits = 34

// ToJSONString converts o to JSON text.
//
// Numbers are written exactly (decimals and bigfloats in full, doubles in
// shortest round-trip form); NaN, infinities, undefined and simple values
// other than true, false and null become null. Byte strings are written as
// base64url without padding unless tagged 22 (base64) or 23 (base16). Map
// keys that are not text are written as their JSON text; when two keys
// produce the same name, the later entry wins.
func (o *Object) ToJSONString() (string, error) {
	bb := GetByteBuffer()
	defer PutByteBuffer(bb)
	if err := writeJSON(bb, o, nil); err != nil {
		return "", err
	}
	return bb.String(), nil
}

// WriteJSONTo writes o to w as JSON text.
func (o *Object) WriteJSONTo(w io.Writer) error {
	if w == nil {
		return &ArgumentError{Arg: "w", Msg: "nil writer"}
	}
	bb := GetByteBuffer()
	defer PutByteBuffer(bb)
	if err := writeJSON(bb, o, nil); err != nil {
		return err
	}
	_, err := w.Write(bb.Bytes())
	return err
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	bb := GetByteBuffer()
	defer PutByteBuffer(bb)
	if err := writeJSON(bb, o, nil); err != nil {
		return nil, err
	}
	return slices.Clone(bb.Bytes()), nil
}

// UnmarshalJSON implements json.Unmarshaler. Like UnmarshalCBOR it
// rejects shared constants.
func (o *Object) UnmarshalJSON(b []byte) error {
	if o.shared() {
		return errSharedTarget
	}
	v, err := FromJSONBytes(b)
	if err != nil {
		return err
	}
	*o = *v
	return nil
}

func writeJSON(bb *ByteBuffer, o *Object, stack []*Object) error {
	if o == nil {
		bb.WriteString("null")
		return nil
	}
	t := o.untagged()
	switch t.kind {
	case kindInteger:
		bb.WriteString(strconv.FormatInt(int64(t.bits), 10))
	case kindBigInteger:
		bb.WriteString(t.num.(*big.Int).String())
	case kindSingle:
		writeJSONFloat(bb, float64(math.Float32frombits(uint32(t.bits))), 32)
	case kindDouble:
		writeJSONFloat(bb, math.Float64frombits(t.bits), 64)
	case kindDecimal:
		writeJSONDecimal(bb, t.num.(numeric.Decimal))
	case kindBigFloat:
		writeJSONBigFloat(bb, t.num.(numeric.BigFloat))
	case kindRational:
		q := t.num.(numeric.Rational)
		d, ok := q.DecimalExact()
		if !ok {
			d = q.Decimal(rationalDigits)
		}
		writeJSONDecimal(bb, d)
	case kindTextString:
		writeJSONString(bb, t.str)
	case kindByteString:
		writeJSONBytes(bb, o, t.bytes)
	case kindSimple:
		switch t.bits {
		case simpleTrue:
			bb.WriteString("true")
		case simpleFalse:
			bb.WriteString("false")
		default:
			bb.WriteString("null")
		}
	case kindArray:
		if slices.Contains(stack, t) {
			return newFormatError("Circular reference in data structure", -1)
		}
		stack = append(stack, t)
		bb.WriteByte('[')
		for i, it := range t.items {
			if i > 0 {
				bb.WriteByte(',')
			}
			if err := writeJSON(bb, it, stack); err != nil {
				return err
			}
		}
		bb.WriteByte(']')
	case kindMap:
		if slices.Contains(stack, t) {
			return newFormatError("Circular reference in data structure", -1)
		}
		return writeJSONMap(bb, t, append(stack, t))
	}
	return nil
}

func writeJSONMap(bb *ByteBuffer, m *Object, stack []*Object) error {
	textKeys := true
	for _, e := range m.m.entries {
		if e.key.untagged().kind != kindTextString {
			textKeys = false
			break
		}
	}
	bb.WriteByte('{')
	if textKeys {
		for i, e := range m.m.entries {
			if i > 0 {
				bb.WriteByte(',')
			}
			writeJSONString(bb, e.key.untagged().str)
			bb.WriteByte(':')
			if err := writeJSON(bb, e.value, stack); err != nil {
				return err
			}
		}
		bb.WriteByte('}')
		return nil
	}

	type member struct {
		name  string
		value *Object
	}
	members := make([]member, 0, len(m.m.entries))
	seen := make(map[string]int, len(m.m.entries))
	for _, e := range m.m.entries {
		var name string
		if k := e.key.untagged(); k.kind == kindTextString {
			name = k.str
		} else {
			kb := GetByteBuffer()
			err := writeJSON(kb, e.key, stack)
			name = kb.String()
			PutByteBuffer(kb)
			if err != nil {
				return err
			}
		}
		if i, ok := seen[name]; ok {
			members[i].value = e.value
			continue
		}
		seen[name] = len(members)
		members = append(members, member{name, e.value})
	}
	for i, mb := range members {
		if i > 0 {
			bb.WriteByte(',')
		}
		writeJSONString(bb, mb.name)
		bb.WriteByte(':')
		if err := writeJSON(bb, mb.value, stack); err != nil {
			return err
		}
	}
	bb.WriteByte('}')
	return nil
}

// writeJSONBytes picks the encoding from the innermost of tags 21, 22
// and 23 on o.
func writeJSONBytes(bb *ByteBuffer, o *Object, b []byte) {
	enc := uint64(tagBase64URL)
	for t := o; t.kind == kindTagged; t = t.inner {
		switch t.bits {
		case tagBase64URL, tagBase64, tagBase16:
			enc = t.bits
		}
	}
	bb.WriteByte('"')
	switch enc {
	case tagBase64:
		bb.WriteString(base64.StdEncoding.EncodeToString(b))
	case tagBase16:
		bb.WriteString(hex.EncodeToString(b))
	default:
		bb.WriteString(base64.RawURLEncoding.EncodeToString(b))
	}
	bb.WriteByte('"')
}

func writeJSONDecimal(bb *ByteBuffer, d numeric.Decimal) {
	if !d.IsFinite() {
		bb.WriteString("null")
		return
	}
	bb.WriteString(d.String())
}

// Binary floats with a longer exponent are written rounded to
// rationalDigits instead of as their exact expansion.
const exactBinaryExponent = 1 << 12

func writeJSONBigFloat(bb *ByteBuffer, f numeric.BigFloat) {
	if f.Exponent().CmpAbs(big.NewInt(exactBinaryExponent)) <= 0 {
		writeJSONDecimal(bb, f.Decimal())
		return
	}
	if d, ok := f.RoundDecimal(rationalDigits); ok {
		writeJSONDecimal(bb, d)
		return
	}
	writeJSONFloat(bb, f.Float64(), 64)
}

// writeJSONFloat writes the shortest text that reads back as f at the given
// precision, in the same form encoding/json uses.
func writeJSONFloat(bb *ByteBuffer, f float64, bits int) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		bb.WriteString("null")
		return
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) ||
			bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	s := strconv.FormatFloat(f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(s)
		if n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
	}
	bb.WriteString(s)
}

const hexDigits = "0123456789abcdef"

// writeJSONString writes s as a quoted JSON string. Quotes, backslashes,
// control characters and the line and paragraph separators are escaped.
func writeJSONString(bb *ByteBuffer, s string) {
	bb.WriteByte('"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' && c < utf8.RuneSelf {
			i++
			continue
		}
		if c < utf8.RuneSelf {
			bb.WriteString(s[start:i])
			switch c {
			case '"', '\\':
				bb.WriteByte('\\')
				bb.WriteByte(c)
			case '\b':
				bb.WriteString(`\b`)
			case '\f':
				bb.WriteString(`\f`)
			case '\n':
				bb.WriteString(`\n`)
			case '\r':
				bb.WriteString(`\r`)
			case '\t':
				bb.WriteString(`\t`)
			default:
				bb.WriteString(`\u00`)
				bb.WriteByte(hexDigits[c>>4])
				bb.WriteByte(hexDigits[c&0xf])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == '\u2028' || r == '\u2029' {
			bb.WriteString(s[start:i])
			bb.WriteString(`\u202`)
			bb.WriteByte(hexDigits[r&0xf])
			start = i + size
		}
		i += size
	}
	bb.WriteString(s[start:])
	bb.WriteByte('"')
}
