package core

import (
	"fmt"
	"strconv"
	"strings"
)

// emitter writes the statements that convert one field between its Go
// value and a *cbor.Object. Temporaries get a numeric suffix so nested
// conversions never collide.
type emitter struct {
	b       strings.Builder
	n       int
	imports map[string]struct{}
}

func newEmitter(imports map[string]struct{}) *emitter {
	return &emitter{imports: imports}
}

func (e *emitter) tmp(prefix string) string {
	e.n++
	return prefix + strconv.Itoa(e.n)
}

func (e *emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.b, format, args...)
	e.b.WriteByte('\n')
}

func (e *emitter) use(pkg string) {
	e.imports[pkg] = struct{}{}
}

// take returns the statements written so far and resets the buffer.
func (e *emitter) take() string {
	s := e.b.String()
	e.b.Reset()
	return strings.TrimRight(s, "\n")
}

// wrap returns the error expression for err with the given context.
func wrap(err string, ctx []string) string {
	return rt("WrapError") + "(" + err + ", " + strings.Join(ctx, ", ") + ")"
}

func with(ctx []string, more string) []string {
	return append(ctx[:len(ctx):len(ctx)], more)
}

// encode assigns the Object form of ref to the existing variable dst.
// Failures return from a function whose results are (*cbor.Object, error).
func (e *emitter) encode(t *goType, ref, dst string, ctx []string) {
	fail := func(err string) string { return "return nil, " + wrap(err, ctx) }
	switch t.kind {
	case kindString:
		s := e.tmp("s")
		e.line("%s, err := %s(%s)", s, rt("FromString"), ref)
		e.line("if err != nil { %s }", fail("err"))
		e.line("%s = %s", dst, s)
	case kindBool:
		e.line("%s = %s(%s)", dst, rt("FromBool"), ref)
	case kindInt:
		e.line("%s = %s(int64(%s))", dst, rt("FromInt64"), ref)
	case kindUint:
		e.line("%s = %s(uint64(%s))", dst, rt("FromUint64"), ref)
	case kindFloat32:
		e.line("%s = %s(%s)", dst, rt("FromFloat32"), ref)
	case kindFloat64:
		e.line("%s = %s(%s)", dst, rt("FromFloat64"), ref)
	case kindBytes:
		e.line("if %s == nil { %s = %s } else { %s = %s(%s) }", ref, dst, rt("Null"), dst, rt("FromBytes"), ref)
	case kindObject:
		e.line("%s = %s", dst, ref)
		e.line("if %s == nil { %s = %s }", dst, dst, rt("Null"))
	case kindStruct:
		o := e.tmp("o")
		e.line("%s, err := %s.ToCBORObject()", o, ref)
		e.line("if err != nil { %s }", fail("err"))
		e.line("%s = %s", dst, o)
	case kindPointer:
		e.line("if %s == nil {", ref)
		e.line("%s = %s", dst, rt("Null"))
		e.line("} else {")
		e.encode(t.elem, "(*"+ref+")", dst, ctx)
		e.line("}")
	case kindSlice:
		items, i, it := e.tmp("items"), e.tmp("i"), e.tmp("it")
		e.line("if %s == nil {", ref)
		e.line("%s = %s", dst, rt("Null"))
		e.line("} else {")
		e.line("%s := make([]*%s, len(%s))", items, rt("Object"), ref)
		e.line("for %s := range %s {", i, ref)
		e.line("var %s *%s", it, rt("Object"))
		e.encode(t.elem, ref+"["+i+"]", it, with(ctx, i))
		e.line("%s[%s] = %s", items, i, it)
		e.line("}")
		e.line("%s = %s(%s...)", dst, rt("NewArray"), items)
		e.line("}")
	case kindMap:
		e.use("maps")
		e.use("slices")
		m, k, key, it := e.tmp("m"), e.tmp("k"), e.tmp("key"), e.tmp("it")
		e.line("if %s == nil {", ref)
		e.line("%s = %s", dst, rt("Null"))
		e.line("} else {")
		e.line("%s := %s()", m, rt("NewMap"))
		e.line("for _, %s := range slices.Sorted(maps.Keys(%s)) {", k, ref)
		e.line("%s, err := %s(%s)", key, rt("FromString"), k)
		e.line("if err != nil { %s }", fail("err"))
		e.line("var %s *%s", it, rt("Object"))
		e.encode(t.elem, ref+"["+k+"]", it, with(ctx, k))
		e.line("if err := %s.Set(%s, %s); err != nil { %s }", m, key, it, fail("err"))
		e.line("}")
		e.line("%s = %s", dst, m)
		e.line("}")
	default:
		o := e.tmp("o")
		e.line("%s, err := %s(%s)", o, rt("FromValue"), ref)
		e.line("if err != nil { %s }", fail("err"))
		e.line("%s = %s", dst, o)
	}
}

// decode stores the Go form of the Object src into the addressable ref.
// Failures return from a function whose result is error.
func (e *emitter) decode(t *goType, src, ref string, ctx []string) {
	fail := func(err string) string { return "return " + wrap(err, ctx) }
	typeErr := func() string {
		return fail("&" + rt("TypeError") + `{Op: "FromCBORObject", Got: ` + src + ".Type()}")
	}
	switch t.kind {
	case kindString:
		s := e.tmp("s")
		e.line("%s, err := %s.AsString()", s, src)
		e.line("if err != nil { %s }", fail("err"))
		e.line("%s = %s", ref, s)
	case kindBool:
		e.line("if %s.Type() != %s { %s }", src, rt("TypeBoolean"), typeErr())
		e.line("%s = %s.IsTrue()", ref, src)
	case kindInt, kindUint:
		conv, wide := "AsInt64", "int64"
		if t.kind == kindUint {
			conv, wide = "AsUint64", "uint64"
		}
		n := e.tmp("n")
		e.line("%s, err := %s.%s()", n, src, conv)
		e.line("if err != nil { %s }", fail("err"))
		if t.sized() {
			e.line("if %s(%s(%s)) != %s { %s }", wide, t.name, n, n,
				fail("&"+rt("OverflowError")+"{Value: "+src+".String(), Target: "+strconv.Quote(t.name)+"}"))
			e.line("%s = %s(%s)", ref, t.name, n)
		} else {
			e.line("%s = %s", ref, n)
		}
	case kindFloat32, kindFloat64:
		conv := "AsFloat64"
		if t.kind == kindFloat32 {
			conv = "AsFloat32"
		}
		f := e.tmp("f")
		e.line("%s, err := %s.%s()", f, src, conv)
		e.line("if err != nil { %s }", fail("err"))
		e.line("%s = %s", ref, f)
	case kindBytes:
		e.use("slices")
		b := e.tmp("b")
		e.line("if %s.IsNull() {", src)
		e.line("%s = nil", ref)
		e.line("} else {")
		e.line("%s, err := %s.Bytes()", b, src)
		e.line("if err != nil { %s }", fail("err"))
		e.line("%s = slices.Clone(%s)", ref, b)
		e.line("}")
	case kindObject:
		e.line("%s = %s", ref, src)
	case kindStruct:
		e.line("if err := %s.FromCBORObject(%s); err != nil { %s }", ref, src, fail("err"))
	case kindPointer:
		p := e.tmp("p")
		e.line("if %s.IsNull() {", src)
		e.line("%s = nil", ref)
		e.line("} else {")
		e.line("%s := new(%s)", p, t.elem.src)
		e.decode(t.elem, src, "(*"+p+")", ctx)
		e.line("%s = %s", ref, p)
		e.line("}")
	case kindSlice:
		items, out, i, it := e.tmp("items"), e.tmp("out"), e.tmp("i"), e.tmp("it")
		e.line("if %s.IsNull() {", src)
		e.line("%s = nil", ref)
		e.line("} else {")
		e.line("if %s.Type() != %s { %s }", src, rt("TypeArray"), typeErr())
		e.line("%s, err := %s.Values()", items, src)
		e.line("if err != nil { %s }", fail("err"))
		e.line("%s := make(%s, len(%s))", out, t.src, items)
		e.line("for %s, %s := range %s {", i, it, items)
		e.decode(t.elem, it, out+"["+i+"]", with(ctx, i))
		e.line("}")
		e.line("%s = %s", ref, out)
		e.line("}")
	case kindMap:
		out, k, v, key, x := e.tmp("out"), e.tmp("k"), e.tmp("v"), e.tmp("key"), e.tmp("x")
		e.line("if %s.IsNull() {", src)
		e.line("%s = nil", ref)
		e.line("} else {")
		e.line("if %s.Type() != %s { %s }", src, rt("TypeMap"), typeErr())
		e.line("%s := make(%s, %s.Count())", out, t.src, src)
		e.line("for %s, %s := range %s.Entries() {", k, v, src)
		e.line("%s, err := %s.AsString()", key, k)
		e.line("if err != nil { %s }", fail("err"))
		e.line("var %s %s", x, t.elem.src)
		e.decode(t.elem, v, x, with(ctx, key))
		e.line("%s[%s] = %s", out, key, x)
		e.line("}")
		e.line("%s = %s", ref, out)
		e.line("}")
	default:
		e.use("reflect")
		u := e.tmp("u")
		e.line("if %s, ok := any(&%s).(%s); ok {", u, ref, rt("ObjectUnmarshaler"))
		e.line("if err := %s.FromCBORObject(%s); err != nil { %s }", u, src, fail("err"))
		e.line("} else {")
		e.line("%s", fail("&"+rt("ErrUnsupportedType")+"{T: reflect.TypeOf("+ref+")}"))
		e.line("}")
	}
}
