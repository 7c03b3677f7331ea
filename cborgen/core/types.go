package core

import (
	"go/ast"
	"go/types"
)

// kind is the code generation strategy for a Go type.
type kind int

const (
	kindOther   kind = iota // converted with cbor.FromValue / cbor.ObjectUnmarshaler
	kindString              // string
	kindBool                // bool
	kindInt                 // signed integers
	kindUint                // unsigned integers
	kindFloat32             // float32
	kindFloat64             // float64
	kindBytes               // []byte
	kindObject              // *cbor.Object
	kindStruct              // a struct generated in the same run
	kindPointer             // *T
	kindSlice               // []T
	kindMap                 // map[string]T
)

// goType describes a field type as far as the generator cares.
type goType struct {
	kind kind
	src  string  // Go source for the type
	name string  // builtin or struct name; used for overflow targets
	elem *goType // pointer, slice and map element
}

var builtinKinds = map[string]kind{
	"string":  kindString,
	"bool":    kindBool,
	"int":     kindInt,
	"int8":    kindInt,
	"int16":   kindInt,
	"int32":   kindInt,
	"int64":   kindInt,
	"rune":    kindInt,
	"uint":    kindUint,
	"uint8":   kindUint,
	"uint16":  kindUint,
	"uint32":  kindUint,
	"uint64":  kindUint,
	"byte":    kindUint,
	"float32": kindFloat32,
	"float64": kindFloat64,
}

// classify maps a field type expression onto a goType. generated holds
// the struct names generated in this run.
func classify(expr ast.Expr, generated map[string]struct{}) *goType {
	t := &goType{src: types.ExprString(expr)}
	switch x := expr.(type) {
	case *ast.Ident:
		if k, ok := builtinKinds[x.Name]; ok {
			t.kind, t.name = k, x.Name
			return t
		}
		if _, ok := generated[x.Name]; ok {
			t.kind, t.name = kindStruct, x.Name
		}
	case *ast.StarExpr:
		if sel, ok := x.X.(*ast.SelectorExpr); ok && sel.Sel.Name == "Object" {
			if pkg, ok := sel.X.(*ast.Ident); ok && pkg.Name == runtimeAlias {
				t.kind = kindObject
				return t
			}
		}
		elem := classify(x.X, generated)
		if elem.kind != kindOther {
			t.kind, t.elem = kindPointer, elem
		}
	case *ast.ArrayType:
		if x.Len != nil {
			break
		}
		if id, ok := x.Elt.(*ast.Ident); ok && (id.Name == "byte" || id.Name == "uint8") {
			t.kind = kindBytes
			return t
		}
		elem := classify(x.Elt, generated)
		if elem.kind != kindOther {
			t.kind, t.elem = kindSlice, elem
		}
	case *ast.MapType:
		if key, ok := x.Key.(*ast.Ident); !ok || key.Name != "string" {
			break
		}
		elem := classify(x.Value, generated)
		if elem.kind != kindOther {
			t.kind, t.elem = kindMap, elem
		}
	}
	return t
}

// sized reports whether an integer type is narrower than 64 bits and so
// needs a range check on decode.
func (t *goType) sized() bool {
	switch t.name {
	case "int64", "uint64":
		return false
	}
	return true
}

// zeroCheck returns an expression that is true when ref holds the zero
// value, or false when omitempty cannot be honored for the type.
func (t *goType) zeroCheck(ref string) (string, bool) {
	switch t.kind {
	case kindString:
		return ref + ` == ""`, true
	case kindBool:
		return "!" + ref, true
	case kindInt, kindUint, kindFloat32, kindFloat64:
		return ref + " == 0", true
	case kindBytes, kindSlice, kindMap:
		return "len(" + ref + ") == 0", true
	case kindObject, kindPointer:
		return ref + " == nil", true
	}
	return "", false
}
