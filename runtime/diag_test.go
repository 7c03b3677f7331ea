package cbor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synadia-labs/cborobject/numeric"
)

// rfcExamples are taken from RFC 8949 Appendix A. The diagnostic column is
// what String prints after decoding, so bignums appear as plain integers
// and indefinite-length items as their definite equivalents.
var rfcExamples = []struct {
	name string
	hex  string
	diag string
}{
	{"zero", "00", "0"},
	{"one", "01", "1"},
	{"ten", "0a", "10"},
	{"twenty-three", "17", "23"},
	{"twenty-four", "1818", "24"},
	{"hundred", "1864", "100"},
	{"thousand", "1903e8", "1000"},
	{"million", "1a000f4240", "1000000"},
	{"trillion", "1b000000e8d4a51000", "1000000000000"},
	{"uint64-max", "1bffffffffffffffff", "18446744073709551615"},
	{"bignum", "c249010000000000000000", "18446744073709551616"},
	{"negint64-min", "3bffffffffffffffff", "-18446744073709551616"},
	{"neg-bignum", "c349010000000000000000", "-18446744073709551617"},
	{"minus-one", "20", "-1"},
	{"minus-ten", "29", "-10"},
	{"minus-hundred", "3863", "-100"},
	{"minus-thousand", "3903e7", "-1000"},
	{"half-zero", "f90000", "0.0"},
	{"half-neg-zero", "f98000", "-0.0"},
	{"half-one", "f93c00", "1.0"},
	{"double-1.1", "fb3ff199999999999a", "1.1"},
	{"half-1.5", "f93e00", "1.5"},
	{"half-max", "f97bff", "65504.0"},
	{"single-100000", "fa47c35000", "100000.0"},
	{"double-1e300", "fb7e37e43c8800759c", "1e+300"},
	{"half-minus-four", "f9c400", "-4.0"},
	{"double-minus-4.1", "fbc010666666666666", "-4.1"},
	{"half-inf", "f97c00", "Infinity"},
	{"half-nan", "f97e00", "NaN"},
	{"half-neg-inf", "f9fc00", "-Infinity"},
	{"single-inf", "fa7f800000", "Infinity"},
	{"double-neg-inf", "fbfff0000000000000", "-Infinity"},
	{"false", "f4", "false"},
	{"true", "f5", "true"},
	{"null", "f6", "null"},
	{"undefined", "f7", "undefined"},
	{"simple-16", "f0", "simple(16)"},
	{"simple-255", "f8ff", "simple(255)"},
	{"datetime", "c074323031332d30332d32315432303a30343a30305a", `0("2013-03-21T20:04:00Z")`},
	{"epoch", "c11a514b67b0", "1(1363896240)"},
	{"epoch-float", "c1fb41d452d9ec200000", "1(1363896240.5)"},
	{"base16-hint", "d74401020304", "23(h'01020304')"},
	{"embedded", "d818456449455446", "24(h'6449455446')"},
	{"uri", "d82076687474703a2f2f7777772e6578616d706c652e636f6d", `32("http://www.example.com")`},
	{"empty-bytes", "40", "h''"},
	{"bytes", "4401020304", "h'01020304'"},
	{"empty-text", "60", `""`},
	{"text-a", "6161", `"a"`},
	{"text-ietf", "6449455446", `"IETF"`},
	{"text-escapes", "62225c", `"\"\\"`},
	{"text-u-umlaut", "62c3bc", `"ü"`},
	{"text-water", "63e6b0b4", `"水"`},
	{"text-astral", "64f0908591", `"𐅑"`},
	{"empty-array", "80", "[]"},
	{"array", "83010203", "[1, 2, 3]"},
	{"nested-array", "8301820203820405", "[1, [2, 3], [4, 5]]"},
	{"empty-map", "a0", "{}"},
	{"map", "a201020304", "{1: 2, 3: 4}"},
	{"map-text-keys", "a26161016162820203", `{"a": 1, "b": [2, 3]}`},
	{"array-with-map", "826161a161626163", `["a", {"b": "c"}]`},
	{"indef-bytes", "5f42010243030405ff", "h'0102030405'"},
	{"indef-text", "7f657374726561646d696e67ff", `"streaming"`},
	{"indef-empty-array", "9fff", "[]"},
	{"indef-nested", "9f018202039f0405ffff", "[1, [2, 3], [4, 5]]"},
	{"indef-map", "bf61610161629f0203ffff", `{"a": 1, "b": [2, 3]}`},
	{"decimal", "c48221196ab3", "4([-2, 27315])"},
	{"bigfloat", "c5822003", "5([-1, 3])"},
}

func TestRFCExamplesDiag(t *testing.T) {
	for _, ex := range rfcExamples {
		t.Run(ex.name, func(t *testing.T) {
			got, rest, err := DiagBytes(mustHex(t, ex.hex))
			require.NoError(t, err)
			assert.Empty(t, rest)
			assert.Equal(t, ex.diag, got)
		})
	}
}

func TestDiagBytesRemainder(t *testing.T) {
	got, rest, err := DiagBytes(mustHex(t, "0102"))
	require.NoError(t, err)
	assert.Equal(t, "1", got)
	assert.Equal(t, []byte{0x02}, rest)

	_, rest, err = DiagBytes(mustHex(t, "82"))
	assert.True(t, IsFormatError(err))
	assert.Equal(t, []byte{0x82}, rest)
}

func TestDiagBuiltValues(t *testing.T) {
	bigExp := numeric.NewDecimal(bigFromString(t, "5"), bigFromString(t, "18446744073709551616"))
	cases := []struct {
		name string
		o    *Object
		want string
	}{
		{"single", FromFloat32(0.25), "0.25"},
		{"double-small", FromFloat64(1e-7), "1e-07"},
		{"double-nan", FromFloat64(math.NaN()), "NaN"},
		{"decimal-big-exponent", FromDecimal(bigExp), "264([18446744073709551616, 5])"},
		{"rational", FromRational(numeric.NewRationalInt64(-2, 6)), "30([-1, 3])"},
		{"text-control", Must(FromString("a\nb")), `"a\nb"`},
		{"nil", nil, "<nil>"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.o.String())
		})
	}
}

func TestDiagCycle(t *testing.T) {
	a := NewArray(FromInt64(1))
	require.NoError(t, a.Add(a))
	assert.Equal(t, "[1, ...]", a.String())
}
