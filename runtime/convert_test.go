package cbor

import (
	"errors"
	"math/big"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synadia-labs/cborobject/numeric"
)

type convertAddress struct {
	Street string `cbor:"street"`
	Zip    string `json:"zip,omitempty"`
}

type convertPerson struct {
	Name     string            `cbor:"name"`
	Age      int               `cbor:"age,omitempty"`
	Email    *string           `cbor:"email"`
	Tags     []string          `cbor:"tags"`
	Address  convertAddress    `cbor:"address"`
	Scores   map[string]uint16 `cbor:"scores"`
	Secret   string            `cbor:"-"`
	Nickname string
	internal int
}

type celsius float64

func (c celsius) ToCBORObject() (*Object, error) {
	return FromObjectAndTag(FromFloat64(float64(c)), 1000)
}

type point struct{ X, Y int }

func TestFromValueStruct(t *testing.T) {
	p := convertPerson{
		Name:     "Ada",
		Tags:     []string{"x", "y"},
		Address:  convertAddress{Street: "Main"},
		Scores:   map[string]uint16{"go": 9},
		Secret:   "hidden",
		Nickname: "ada",
		internal: 7,
	}
	o, err := FromValue(&p)
	require.NoError(t, err)
	assert.Equal(t,
		`{"name": "Ada", "email": null, "tags": ["x", "y"], "address": {"street": "Main"}, "scores": {"go": 9}, "Nickname": "ada"}`,
		o.String())
}

func TestFromValueScalars(t *testing.T) {
	third := big.NewRat(1, 3)
	cases := []struct {
		name string
		v    any
		want string
	}{
		{"nil", nil, "null"},
		{"bool", true, "true"},
		{"int8", int8(-5), "-5"},
		{"uint64", uint64(1<<64 - 1), "18446744073709551615"},
		{"float32", float32(1.5), "1.5"},
		{"float64", 2.0, "2.0"},
		{"string", "hi", `"hi"`},
		{"bytes", []byte{1, 2}, "h'0102'"},
		{"byte-array", [2]byte{3, 4}, "h'0304'"},
		{"int-array", [2]int{3, 4}, "[3, 4]"},
		{"nil-slice", []int(nil), "null"},
		{"big-int", bigFromString(t, "-18446744073709551617"), "-18446744073709551617"},
		{"big-rat", third, "30([1, 3])"},
		{"decimal", numeric.NewDecimalInt64(15, -1), "4([-1, 15])"},
		{"object", Must(FromString("as is")), `"as is"`},
		{"marshaler", celsius(21.5), "1000(21.5)"},
		{"interface-slice", []any{1, "a", nil}, `[1, "a", null]`},
		{"time", time.Date(2013, 3, 21, 20, 4, 0, 0, time.UTC), `0("2013-03-21T20:04:00Z")`},
		{"url", &url.URL{Scheme: "http", Host: "www.example.com"}, `32("http://www.example.com")`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o, err := FromValue(c.v)
			require.NoError(t, err)
			assert.Equal(t, c.want, o.String())
		})
	}
}

func TestFromValueUnsupported(t *testing.T) {
	_, err := FromValue(struct{ C chan int }{C: make(chan int)})
	var ut *ErrUnsupportedType
	require.ErrorAs(t, err, &ut)
	assert.Equal(t, reflect.TypeFor[chan int](), ut.T)

	_, err = FromValue("bad\xff")
	assert.Error(t, err)
}

func TestRegisterConverter(t *testing.T) {
	require.Error(t, RegisterConverter(nil, nil))
	require.Error(t, RegisterConverter(reflect.TypeFor[point](), nil))

	require.NoError(t, RegisterConverter(reflect.TypeFor[point](), func(v any) (*Object, error) {
		p := v.(point)
		return NewArray(FromInt(p.X), FromInt(p.Y)), nil
	}))
	o, err := FromValue([]point{{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "[[1, 2]]", o.String())

	boom := errors.New("boom")
	require.NoError(t, RegisterConverter(reflect.TypeFor[point](), func(any) (*Object, error) {
		return nil, boom
	}))
	t.Cleanup(func() {
		converterRegistry.mu.Lock()
		delete(converterRegistry.funcs, reflect.TypeFor[point]())
		converterRegistry.mu.Unlock()
	})
	_, err = FromValue(map[string]point{"p": {}})
	assert.ErrorIs(t, err, boom)
}

func TestFromValueCycle(t *testing.T) {
	type node struct {
		Next *node
	}
	n := &node{}
	n.Next = n
	_, err := FromValue(n)
	assert.ErrorIs(t, err, ErrRecursion)
}
