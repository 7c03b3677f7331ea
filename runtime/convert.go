package cbor

import (
	"math/big"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/synadia-labs/cborobject/numeric"
)

// ObjectMarshaler is implemented by types that convert themselves to an
// Object. cborgen generates it for structs.
type ObjectMarshaler interface {
	ToCBORObject() (*Object, error)
}

// ObjectUnmarshaler is implemented by types that fill themselves from an
// Object.
type ObjectUnmarshaler interface {
	FromCBORObject(o *Object) error
}

// ConverterFunc converts a Go value of a registered type to an Object.
type ConverterFunc func(v any) (*Object, error)

var converterRegistry struct {
	mu       sync.Mutex
	funcs    map[reflect.Type]ConverterFunc
	defaults bool
}

// RegisterConverter installs fn for values whose dynamic type is t,
// replacing any previous converter. The built-in converters for
// time.Time and *url.URL are installed on first use.
func RegisterConverter(t reflect.Type, fn ConverterFunc) error {
	if t == nil {
		return &ArgumentError{Arg: "t", Msg: "nil type"}
	}
	if fn == nil {
		return &ArgumentError{Arg: "fn", Msg: "nil converter"}
	}
	converterRegistry.mu.Lock()
	defer converterRegistry.mu.Unlock()
	registerDefaultConvertersLocked()
	converterRegistry.funcs[t] = fn
	return nil
}

func registerDefaultConvertersLocked() {
	if converterRegistry.defaults {
		return
	}
	converterRegistry.defaults = true
	if converterRegistry.funcs == nil {
		converterRegistry.funcs = make(map[reflect.Type]ConverterFunc)
	}
	defaults := map[reflect.Type]ConverterFunc{
		reflect.TypeFor[time.Time](): func(v any) (*Object, error) {
			s := v.(time.Time).UTC().Format(time.RFC3339Nano)
			return tagged(tagDateTimeString, newText(s)), nil
		},
		reflect.TypeFor[*url.URL](): func(v any) (*Object, error) {
			u := v.(*url.URL)
			if u == nil {
				return Null, nil
			}
			return tagged(tagURI, newText(u.String())), nil
		},
	}
	for t, fn := range defaults {
		if _, ok := converterRegistry.funcs[t]; !ok {
			converterRegistry.funcs[t] = fn
		}
	}
}

func lookupConverter(t reflect.Type) ConverterFunc {
	converterRegistry.mu.Lock()
	defer converterRegistry.mu.Unlock()
	registerDefaultConvertersLocked()
	return converterRegistry.funcs[t]
}

// FromValue converts a Go value to an Object.
//
// Objects are returned as is. Types implementing ObjectMarshaler and types
// with a registered converter convert themselves. Otherwise booleans,
// integers, floats, strings, byte slices, *big.Int, *big.Rat and the
// numeric types map to the matching CBOR item; pointers are followed (nil
// becomes null); slices and arrays become arrays; maps become maps; and
// structs become maps keyed by their exported field names, honoring
// `cbor:"name,omitempty"` and then `json` tags.
func FromValue(v any) (*Object, error) {
	c := converter{}
	return c.convert(reflect.ValueOf(v))
}

var (
	objectType    = reflect.TypeFor[*Object]()
	marshalerType = reflect.TypeFor[ObjectMarshaler]()
)

type converter struct {
	depth int
}

func (c *converter) convert(rv reflect.Value) (*Object, error) {
	if !rv.IsValid() {
		return Null, nil
	}
	if c.depth >= recursionLimit {
		return nil, ErrRecursion
	}
	c.depth++
	defer func() { c.depth-- }()

	t := rv.Type()
	if t == objectType {
		return orNull(rv.Interface().(*Object)), nil
	}
	if t.Implements(marshalerType) {
		if t.Kind() == reflect.Pointer && rv.IsNil() {
			return Null, nil
		}
		return rv.Interface().(ObjectMarshaler).ToCBORObject()
	}
	if fn := lookupConverter(t); fn != nil {
		return fn(rv.Interface())
	}
	if rv.CanInterface() {
		switch x := rv.Interface().(type) {
		case *big.Int:
			if x == nil {
				return Null, nil
			}
			return FromBigInt(x), nil
		case *big.Rat:
			if x == nil {
				return Null, nil
			}
			return FromRational(numeric.NewRational(x.Num(), x.Denom())), nil
		case numeric.Decimal:
			return FromDecimal(x), nil
		case numeric.BigFloat:
			return FromBigFloat(x), nil
		case numeric.Rational:
			return FromRational(x), nil
		}
	}

	switch t.Kind() {
	case reflect.Bool:
		return FromBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FromInt64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return FromUint64(rv.Uint()), nil
	case reflect.Float32:
		return FromFloat32(float32(rv.Float())), nil
	case reflect.Float64:
		return FromFloat64(rv.Float()), nil
	case reflect.String:
		return FromString(rv.String())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null, nil
		}
		return c.convert(rv.Elem())
	case reflect.Slice:
		if rv.IsNil() {
			return Null, nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return FromBytes(rv.Bytes()), nil
		}
		return c.array(rv)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return FromBytes(b), nil
		}
		return c.array(rv)
	case reflect.Map:
		if rv.IsNil() {
			return Null, nil
		}
		return c.mapValue(rv)
	case reflect.Struct:
		return c.structValue(rv)
	}
	return nil, &ErrUnsupportedType{T: t}
}

func (c *converter) array(rv reflect.Value) (*Object, error) {
	items := make([]*Object, rv.Len())
	for i := range items {
		it, err := c.convert(rv.Index(i))
		if err != nil {
			return nil, WrapError(err, i)
		}
		items[i] = it
	}
	return &Object{kind: kindArray, items: items}, nil
}

func (c *converter) mapValue(rv reflect.Value) (*Object, error) {
	m := newObjectMap(rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := c.convert(iter.Key())
		if err != nil {
			return nil, err
		}
		v, err := c.convert(iter.Value())
		if err != nil {
			return nil, WrapError(err, k.String())
		}
		m.set(k, v)
	}
	return &Object{kind: kindMap, m: m}, nil
}

func (c *converter) structValue(rv reflect.Value) (*Object, error) {
	t := rv.Type()
	m := newObjectMap(t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, omitEmpty, skip := fieldName(f)
		if skip {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		v, err := c.convert(fv)
		if err != nil {
			return nil, WrapError(err, name)
		}
		m.set(newText(name), v)
	}
	return &Object{kind: kindMap, m: m}, nil
}

// fieldName resolves the map key of a struct field: the cbor tag wins,
// then the json tag, then the Go field name.
func fieldName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag, ok := f.Tag.Lookup("cbor")
	if !ok {
		tag, ok = f.Tag.Lookup("json")
	}
	if !ok {
		return f.Name, false, false
	}
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	for opt := range strings.SplitSeq(opts, ",") {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}
