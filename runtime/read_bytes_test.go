package cbor

import (
	"bufio"
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		hex  string
		msg  string
	}{
		{"empty", "", "data is empty"},
		{"premature-uint8", "18", "Premature end of data"},
		{"premature-text", "6261", "Premature end of data"},
		{"premature-array", "8301", "Premature end of data"},
		{"too-many", "0000", "Too many bytes"},
		{"too-many-array", "810102", "Too many bytes"},
		{"reserved-ai", "1c", "Unexpected data encountered"},
		{"indefinite-int", "1f", "Unexpected data encountered"},
		{"lone-break", "ff", "Unexpected data encountered"},
		{"break-in-array", "81ff", "Unexpected break code"},
		{"invalid-simple", "f801", "Invalid simple value"},
		{"duplicate-key", "a201020103", "Duplicate key already exists"},
		{"invalid-utf8", "62c328", "Invalid UTF-8"},
		{"bad-chunk", "5f6161ff", "Invalid chunk in indefinite-length string"},
		{"nested-indef-chunk", "7f7fffff", "Invalid chunk in indefinite-length string"},
		{"uuid-length", "d8254100", "UUID must be 16 bytes long"},
		{"bignum-not-bytes", "c201", "Unexpected data encountered"},
		{"rational-zero-den", "d81e820100", "Denominator must be positive"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DecodeFromBytes(mustHex(t, c.hex))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormat)
			assert.Contains(t, err.Error(), c.msg)
		})
	}
}

func TestDecodeAllowDuplicateKeys(t *testing.T) {
	o, err := DecodeFromBytesOptions(mustHex(t, "a201020103"), DecodeOptions{AllowDuplicateKeys: true})
	require.NoError(t, err)
	require.Equal(t, 1, o.Count())
	v, err := o.Get(FromInt(1)).AsInt64()
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)
}

func TestDecodeIndefinite(t *testing.T) {
	cases := []struct {
		name string
		hex  string
		want string
	}{
		{"array", "9f018202039f0405ffff", "[1, [2, 3], [4, 5]]"},
		{"empty-array", "9fff", "[]"},
		{"map", "bf61610161629f0203ffff", `{"a": 1, "b": [2, 3]}`},
		{"bytes", "5f42010243030405ff", "h'0102030405'"},
		{"text", "7f657374726561646d696e67ff", `"streaming"`},
		{"empty-text", "7fff", `""`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o, err := DecodeFromBytes(mustHex(t, c.hex))
			require.NoError(t, err)
			assert.Equal(t, c.want, o.String())
		})
	}
}

func TestDecodeFloats(t *testing.T) {
	cases := []struct {
		hex  string
		kind NumberKind
		want float64
	}{
		{"f90000", KindSingle, 0},
		{"f93c00", KindSingle, 1},
		{"f93e00", KindSingle, 1.5},
		{"f97bff", KindSingle, 65504},
		{"f90001", KindSingle, 5.9604644775390625e-8},
		{"f9c400", KindSingle, -4},
		{"fa47c35000", KindSingle, 100000},
		{"fb3ff199999999999a", KindDouble, 1.1},
		{"fbc010666666666666", KindDouble, -4.1},
	}
	for _, c := range cases {
		t.Run(c.hex, func(t *testing.T) {
			o, err := DecodeFromBytes(mustHex(t, c.hex))
			require.NoError(t, err)
			assert.Equal(t, c.kind, o.NumberKind())
			f, err := o.AsFloat64()
			require.NoError(t, err)
			assert.Equal(t, c.want, f)
		})
	}

	o, err := DecodeFromBytes(mustHex(t, "f97e00"))
	require.NoError(t, err)
	assert.True(t, o.IsNaN())
	o, err = DecodeFromBytes(mustHex(t, "f9fc00"))
	require.NoError(t, err)
	assert.True(t, o.IsNegativeInfinity())
	o, err = DecodeFromBytes(mustHex(t, "f98000"))
	require.NoError(t, err)
	f, err := o.AsFloat64()
	require.NoError(t, err)
	assert.True(t, math.Signbit(f))
}

func TestDecodeBignumsNormalize(t *testing.T) {
	o, err := DecodeFromBytes(mustHex(t, "c249010000000000000000"))
	require.NoError(t, err)
	assert.False(t, o.IsTagged())
	assert.Equal(t, KindBigInteger, o.NumberKind())
	assert.Equal(t, "18446744073709551616", o.String())

	o, err = DecodeFromBytes(mustHex(t, "c349010000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, "-18446744073709551617", o.String())

	// small bignums collapse to native integers
	o, err = DecodeFromBytes(mustHex(t, "c24101"))
	require.NoError(t, err)
	assert.Equal(t, KindInteger, o.NumberKind())
	assert.True(t, o.Equals(FromInt(1)))

	o, err = DecodeFromBytes(mustHex(t, "c340"))
	require.NoError(t, err)
	assert.True(t, o.Equals(FromInt(-1)))

	o, err = DecodeFromBytes(mustHex(t, "3bffffffffffffffff"))
	require.NoError(t, err)
	assert.Equal(t, "-18446744073709551616", o.String())
}

func TestDecodeRoundTrip(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.Set(Must(FromString("list")), NewArray(FromInt(1), FromFloat64(2.5), Null, Undefined)))
	require.NoError(t, m.Set(FromInt(-7), FromBytes([]byte("raw"))))
	require.NoError(t, m.Set(True, Must(FromObjectAndTag(Must(FromString("https://example.com/")), 32))))
	items := []*Object{
		FromInt(0),
		FromInt64(math.MinInt64),
		FromUint64(math.MaxUint64),
		FromFloat32(3.5),
		FromFloat64(math.Inf(-1)),
		Must(FromString("hello, world")),
		Must(FromSimpleValue(99)),
		m,
		NewArray(NewArray(NewArray())),
	}
	for _, o := range items {
		t.Run(o.String(), func(t *testing.T) {
			b, err := o.EncodeToBytes()
			require.NoError(t, err)
			back, err := DecodeFromBytes(b)
			require.NoError(t, err)
			assert.True(t, back.Equals(o), "got %s", back)
			assert.Equal(t, 0, back.Compare(o))
		})
	}
}

func TestDecodeASCIIFastPath(t *testing.T) {
	a, err := DecodeFromBytes(mustHex(t, "6568656c6c6f"))
	require.NoError(t, err)
	b, err := DecodeFromBytes(mustHex(t, "7f626865636c6c6fff"))
	require.NoError(t, err)
	assert.True(t, a.Equals(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestDecodeDoesNotAliasInput(t *testing.T) {
	data := mustHex(t, "6568656c6c6f")
	o, err := DecodeFromBytes(data)
	require.NoError(t, err)
	data[1] = 'j'
	s, err := o.AsString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestDecodeSequence(t *testing.T) {
	items, err := DecodeSequence(mustHex(t, "016161820304f6"), DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, `"a"`, items[1].String())
	assert.True(t, items[3].IsNull())

	items, err = DecodeSequence(nil, DecodeOptions{})
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = DecodeSequence(mustHex(t, "0118"), DecodeOptions{})
	require.Error(t, err)
	assert.Len(t, items, 1)
}

func TestUnmarshalCBORRemainder(t *testing.T) {
	var o Object
	rest, err := o.UnmarshalCBOR(mustHex(t, "8201020304"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x04}, rest)
	assert.Equal(t, "[1, 2]", o.String())

	_, err = o.UnmarshalCBOR(nil)
	assert.ErrorIs(t, err, ErrShortBytes)
}

func TestUnmarshalCBORSharedConstants(t *testing.T) {
	shared := map[string]*Object{
		"true":      True,
		"false":     False,
		"null":      Null,
		"undefined": Undefined,
		"from-bool": FromBool(true),
		"small-int": FromInt(7),
		"minus-24":  FromInt64(-24),
		"int-231":   FromInt64(231),
	}
	for name, o := range shared {
		t.Run(name, func(t *testing.T) {
			before := o.String()
			_, err := o.UnmarshalCBOR(mustHex(t, "63616263"))
			var ae *ArgumentError
			assert.ErrorAs(t, err, &ae)
			assert.Equal(t, before, o.String())
		})
	}
	assert.Equal(t, "7", FromInt(7).String())
	assert.True(t, FromBool(true).IsTrue())

	o := FromInt(1000)
	_, err := o.UnmarshalCBOR(mustHex(t, "63616263"))
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, o.String())
}

func TestReadStream(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader(mustHex(t, "8201026161f5")))
	o, err := Read(r)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2]", o.String())
	o, err = Read(r)
	require.NoError(t, err)
	assert.Equal(t, `"a"`, o.String())
	o, err = Read(r)
	require.NoError(t, err)
	assert.True(t, o.IsTrue())
	_, err = Read(r)
	assert.ErrorIs(t, err, ErrFormat)
}

type plainReader struct{ r *bytes.Reader }

func (p plainReader) Read(b []byte) (int, error) { return p.r.Read(b) }

func TestReadUnbufferedExact(t *testing.T) {
	src := bytes.NewReader(mustHex(t, "4301020307"))
	o, err := Read(plainReader{src})
	require.NoError(t, err)
	assert.Equal(t, "h'010203'", o.String())
	assert.Equal(t, 1, src.Len())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestReadIOError(t *testing.T) {
	_, err := Read(failingReader{})
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "I/O error", fe.Msg)
	assert.EqualError(t, errors.Unwrap(err), "boom")

	_, err = Read(nil)
	var ae *ArgumentError
	assert.ErrorAs(t, err, &ae)
}

func TestDecodeNestingLimit(t *testing.T) {
	deep := bytes.Repeat([]byte{0x81}, recursionLimit+1)
	deep = append(deep, 0x00)
	_, err := DecodeFromBytes(deep)
	assert.ErrorIs(t, err, ErrRecursion)
}
