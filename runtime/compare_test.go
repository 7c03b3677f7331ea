package cbor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synadia-labs/cborobject/numeric"
)

func mapOf(t *testing.T, kv ...*Object) *Object {
	t.Helper()
	m := NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, m.Put(kv[i], kv[i+1]))
	}
	return m
}

func TestCompareTypeOrder(t *testing.T) {
	simple32 := Must(FromSimpleValue(32))
	ordered := []*Object{
		Undefined,
		Null,
		False,
		True,
		simple32,
		FromInt64(-1),
		FromFloat64(0.5),
		FromInt64(1),
		FromFloat64(math.Inf(1)),
		FromFloat64(math.NaN()),
		FromBytes(nil),
		FromBytes([]byte("a")),
		Must(FromString("a")),
		Must(FromString("b")),
		NewArray(),
		NewArray(FromInt64(1)),
		NewArray(FromInt64(1), FromInt64(0)),
		NewMap(),
		mapOf(t, FromInt64(1), FromInt64(1)),
	}
	for i := 0; i+1 < len(ordered); i++ {
		a, b := ordered[i], ordered[i+1]
		assert.Equal(t, -1, a.Compare(b), "%s < %s", a, b)
		assert.Equal(t, 1, b.Compare(a), "%s > %s", b, a)
		assert.Equal(t, 0, a.Compare(a), "%s == itself", a)
	}
	assert.Equal(t, 1, Null.Compare(nil))
}

func TestCompareNumbersByValue(t *testing.T) {
	third := FromRational(numeric.NewRationalInt64(1, 3))
	cases := []struct {
		name string
		a, b *Object
		want int
	}{
		{"int-double", FromInt64(1), FromFloat64(1), 0},
		{"decimal-double", FromDecimal(numeric.NewDecimalInt64(15, -1)), FromFloat64(1.5), 0},
		{"decimal-int", FromDecimal(numeric.NewDecimalInt64(25, -1)), FromInt64(3), -1},
		{"bigfloat-single", FromBigFloat(numeric.NewBigFloatInt64(3, -2)), FromFloat32(0.75), 0},
		{"rational-decimal", third, FromDecimal(numeric.NewDecimalInt64(333, -3)), 1},
		{"bigint-int", FromBigInt(bigFromString(t, "-18446744073709551617")), FromInt64(math.MinInt64), -1},
		{"neg-inf", FromFloat64(math.Inf(-1)), FromBigInt(bigFromString(t, "-18446744073709551617")), -1},
		{"nan-nan", FromFloat64(math.NaN()), FromFloat32(float32(math.NaN())), 0},
		{"nan-inf", FromFloat64(math.NaN()), FromFloat64(math.Inf(1)), 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.a.Compare(c.b))
			assert.Equal(t, -c.want, c.b.Compare(c.a))
		})
	}
}

func TestCompareTagsBreakTies(t *testing.T) {
	plain := FromInt64(5)
	t999 := Must(FromObjectAndTag(FromInt64(5), 999))
	t1000 := Must(FromObjectAndTag(FromInt64(5), 1000))

	assert.Equal(t, -1, plain.Compare(t999))
	assert.Equal(t, -1, t999.Compare(t1000))
	assert.Equal(t, 1, t1000.Compare(plain))
	// the untagged value decides first
	assert.Equal(t, 1, FromInt64(6).Compare(t1000))
}

func TestCompareMaps(t *testing.T) {
	a := mapOf(t, FromInt64(1), Must(FromString("a")), FromInt64(2), Must(FromString("b")))
	b := mapOf(t, FromInt64(2), Must(FromString("b")), FromInt64(1), Must(FromString("a")))
	assert.Equal(t, 0, a.Compare(b))

	c := mapOf(t, FromInt64(1), Must(FromString("a")), FromInt64(3), Must(FromString("b")))
	assert.Equal(t, -1, a.Compare(c))

	d := mapOf(t, FromInt64(1), Must(FromString("a")), FromInt64(2), Must(FromString("c")))
	assert.Equal(t, -1, a.Compare(d))
}

func TestEquals(t *testing.T) {
	a := mapOf(t, Must(FromString("x")), NewArray(FromInt64(1), Null), Must(FromString("y")), True)
	b := mapOf(t, Must(FromString("y")), True, Must(FromString("x")), NewArray(FromInt64(1), Null))
	assert.True(t, a.Equals(b))
	assert.Equal(t, a.Hash(), b.Hash())

	cases := []struct {
		name string
		a, b *Object
		want bool
	}{
		{"int-double", FromInt64(1), FromFloat64(1), false},
		{"tagged", FromInt64(1), Must(FromObjectAndTag(FromInt64(1), 1000)), false},
		{"same-tag", Must(FromObjectAndTag(FromInt64(1), 1000)), Must(FromObjectAndTag(FromInt64(1), 1000)), true},
		{"decimal-repr", FromDecimal(numeric.NewDecimalInt64(15, -1)), FromDecimal(numeric.NewDecimalInt64(150, -2)), false},
		{"decimal", FromDecimal(numeric.NewDecimalInt64(15, -1)), FromDecimal(numeric.NewDecimalInt64(15, -1)), true},
		{"bigint", FromBigInt(bigFromString(t, "18446744073709551616")), FromBigInt(bigFromString(t, "18446744073709551616")), true},
		{"bytes", FromBytes([]byte{1, 2}), FromBytes([]byte{1, 2}), true},
		{"text-bytes", Must(FromString("a")), FromBytes([]byte("a")), false},
		{"array-len", NewArray(FromInt64(1)), NewArray(FromInt64(1), FromInt64(1)), false},
		{"nan", FromFloat64(math.NaN()), FromFloat64(math.NaN()), true},
		{"nil", FromInt64(1), nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.a.Equals(c.b))
			if c.want {
				assert.Equal(t, c.a.Hash(), c.b.Hash())
			}
		})
	}
}

func TestHashDistinguishesValues(t *testing.T) {
	seen := map[uint64]string{}
	for _, o := range []*Object{
		FromInt64(0), FromInt64(1), FromFloat64(0), FromFloat64(1), False, True, Null,
		Must(FromString("")), FromBytes(nil), NewArray(), NewMap(),
		Must(FromString("a")), FromBytes([]byte("a")),
	} {
		h := o.Hash()
		if prev, ok := seen[h]; ok {
			t.Fatalf("hash collision between %s and %s", prev, o)
		}
		seen[h] = o.String()
	}
}

func TestCompareLargeExponents(t *testing.T) {
	tiny := Must(ParseJSONNumber("1e-100000000"))
	huge := Must(ParseJSONNumber("-1e100000000"))
	third := FromRational(numeric.NewRationalInt64(1, 3))

	assert.Equal(t, -1, tiny.Compare(FromFloat64(0.5)))
	assert.Equal(t, 1, FromFloat64(0.5).Compare(tiny))
	assert.Equal(t, 1, tiny.Compare(FromFloat64(-0.5)))
	assert.Equal(t, -1, tiny.Compare(third))
	assert.Equal(t, -1, huge.Compare(third))
	assert.Equal(t, 1, huge.Compare(FromBigFloat(numeric.NewBigFloatInt64(-1, 1<<40))))

	// log2(10^100000) is 332192.8..., close enough that only the
	// approximate comparison separates these.
	dec := FromDecimal(numeric.NewDecimalInt64(1, 100000))
	above := FromBigFloat(numeric.NewBigFloatInt64(1, 332193))
	below := FromBigFloat(numeric.NewBigFloatInt64(1, 332192))
	assert.Equal(t, -1, dec.Compare(above))
	assert.Equal(t, 1, above.Compare(dec))
	assert.Equal(t, 1, dec.Compare(below))
	negDec := FromDecimal(numeric.NewDecimalInt64(-1, 100000))
	assert.Equal(t, 1, negDec.Compare(FromBigFloat(numeric.NewBigFloatInt64(-1, 332193))))
}
