package cbor

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synadia-labs/cborobject/numeric"
)

func TestConstructorsNormalize(t *testing.T) {
	cases := []struct {
		name string
		o    *Object
		kind NumberKind
	}{
		{"small", FromInt64(5), KindInteger},
		{"uint-max", FromUint64(1<<64 - 1), KindBigInteger},
		{"bigint-fits", FromBigInt(big.NewInt(-7)), KindInteger},
		{"decimal-integral", FromDecimal(numeric.NewDecimalInt64(12, 0)), KindInteger},
		{"decimal", FromDecimal(numeric.NewDecimalInt64(12, -1)), KindDecimal},
		{"bigfloat-integral", FromBigFloat(numeric.NewBigFloatInt64(3, 0)), KindInteger},
		{"bigfloat", FromBigFloat(numeric.NewBigFloatInt64(3, -1)), KindBigFloat},
		{"rational-integral", FromRational(numeric.NewRationalInt64(6, 3)), KindInteger},
		{"rational", FromRational(numeric.NewRationalInt64(1, 3)), KindRational},
		{"single", FromFloat32(1.5), KindSingle},
		{"double", FromFloat64(1.5), KindDouble},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.kind, c.o.NumberKind())
			assert.Equal(t, TypeNumber, c.o.Type())
		})
	}
	assert.Equal(t, NotANumber, True.NumberKind())
	assert.Equal(t, TypeBoolean, True.Type())
	assert.Equal(t, TypeSimpleValue, Null.Type())
}

func TestFromString(t *testing.T) {
	o, err := FromString("héllo")
	require.NoError(t, err)
	s, err := o.AsString()
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)

	_, err = FromString("bad\xff")
	var ae *ArgumentError
	assert.ErrorAs(t, err, &ae)
}

func TestFromSimpleValue(t *testing.T) {
	for _, v := range []int{-1, 24, 31, 256} {
		_, err := FromSimpleValue(v)
		assert.Error(t, err, "simple(%d)", v)
	}
	o, err := FromSimpleValue(21)
	require.NoError(t, err)
	assert.Same(t, True, o)

	o, err = FromSimpleValue(32)
	require.NoError(t, err)
	v, err := o.AsSimpleValue()
	require.NoError(t, err)
	assert.Equal(t, 32, v)
	assert.Equal(t, "simple(32)", o.String())
}

func TestArrayAccess(t *testing.T) {
	a := NewArray(FromInt64(1), nil)
	assert.Equal(t, 2, a.Count())

	second, err := a.At(1)
	require.NoError(t, err)
	assert.True(t, second.IsNull())

	require.NoError(t, a.SetAt(1, FromInt64(2)))
	require.NoError(t, a.Add(FromInt64(4)))
	require.NoError(t, a.Insert(2, FromInt64(3)))
	require.NoError(t, a.Insert(0, FromInt64(0)))
	assert.Equal(t, "[0, 1, 2, 3, 4]", a.String())

	require.NoError(t, a.RemoveAt(0))
	removed, err := a.Remove(FromInt64(3))
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = a.Remove(FromInt64(9))
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, "[1, 2, 4]", a.String())

	_, err = a.At(3)
	var ae *ArgumentError
	assert.ErrorAs(t, err, &ae)
	assert.Error(t, a.SetAt(-1, Null))
	assert.Error(t, a.Insert(4, Null))
	assert.Error(t, a.RemoveAt(3))

	vals, err := a.Values()
	require.NoError(t, err)
	assert.Len(t, vals, 3)

	require.NoError(t, a.Clear())
	assert.Equal(t, 0, a.Count())

	_, err = FromInt64(1).At(0)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "At", te.Op)
	assert.Equal(t, TypeNumber, te.Got)
}

func TestMapAccess(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.Put(Must(FromString("a")), FromInt64(1)))
	require.NoError(t, m.Put(FromInt64(1), Must(FromString("one"))))
	require.NoError(t, m.Set(Must(FromString("b")), nil))

	err := m.Put(Must(FromString("a")), FromInt64(2))
	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Key already exists", ae.Msg)

	require.NoError(t, m.Set(Must(FromString("a")), FromInt64(3)))
	assert.Equal(t, 3, m.Count())
	assert.True(t, m.GetString("b").IsNull())
	assert.Nil(t, m.GetString("missing"))
	assert.True(t, m.ContainsKey(FromInt64(1)))
	// integer and double keys are distinct
	assert.False(t, m.ContainsKey(FromFloat64(1)))

	keys, err := m.Keys()
	require.NoError(t, err)
	assert.Equal(t, `["a", 1, "b"]`, NewArray(keys...).String())

	var got []string
	for k, v := range m.Entries() {
		got = append(got, k.String()+"="+v.String())
	}
	assert.Equal(t, []string{`"a"=3`, `1="one"`, `"b"=null`}, got)

	removed, err := m.Remove(Must(FromString("a")))
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = m.Remove(Must(FromString("a")))
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, `{1: "one", "b": null}`, m.String())

	_, err = m.Remove(nil)
	assert.Error(t, err)
	assert.Error(t, m.Set(nil, True))
	assert.Nil(t, FromInt64(1).GetString("a"))

	_, err = True.Keys()
	var te *TypeError
	assert.ErrorAs(t, err, &te)
}

func TestTagAccessors(t *testing.T) {
	inner := Must(FromString("x"))
	o := Must(FromObjectAndTag(Must(FromObjectAndTag(inner, 1001)), 1000))

	assert.True(t, o.IsTagged())
	assert.Equal(t, []uint64{1000, 1001}, o.Tags())
	assert.True(t, o.HasTag(1001))
	assert.False(t, o.HasTag(1))

	outer, ok := o.MostOuterTag()
	assert.True(t, ok)
	assert.Equal(t, uint64(1000), outer)
	innerTag, ok := o.MostInnerTag()
	assert.True(t, ok)
	assert.Equal(t, uint64(1001), innerTag)

	assert.Same(t, inner, o.Untag())
	assert.Same(t, inner, o.Untag().Untag())
	assert.Equal(t, []uint64{1001}, o.UntagOne().Tags())
	assert.Same(t, inner, inner.UntagOne())

	_, ok = inner.MostOuterTag()
	assert.False(t, ok)
	assert.Empty(t, inner.Tags())

	// accessors look through tags
	s, err := o.AsString()
	require.NoError(t, err)
	assert.Equal(t, "x", s)
	assert.Equal(t, TypeTextString, o.Type())
	assert.Equal(t, `1000(1001("x"))`, o.String())
}

func TestAsBool(t *testing.T) {
	assert.False(t, False.AsBool())
	assert.False(t, Null.AsBool())
	assert.False(t, Undefined.AsBool())
	assert.True(t, True.AsBool())
	assert.True(t, FromInt64(0).AsBool())
	assert.True(t, Must(FromString("")).AsBool())
}

func TestBytesAliasing(t *testing.T) {
	src := []byte{1, 2, 3}
	o := FromBytes(src)
	b, err := o.Bytes()
	require.NoError(t, err)
	b[0] = 9
	assert.Equal(t, byte(9), src[0])

	_, err = Must(FromString("a")).Bytes()
	assert.Error(t, err)
}

func TestZeroValue(t *testing.T) {
	var o Object
	assert.Equal(t, TypeNumber, o.Type())
	assert.Equal(t, "0", o.String())
	assert.True(t, o.Equals(FromInt(0)))

	b, err := o.EncodeToBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, b)

	require.NoError(t, o.UnmarshalJSON([]byte(`[true]`)))
	assert.Equal(t, "[true]", o.String())
}
