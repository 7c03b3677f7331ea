package core

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSource = `package people

import (
	"time"

	cbor "github.com/synadia-labs/cborobject/runtime"
)

type Address struct {
	Street string ` + "`cbor:\"street\"`" + `
	Zip    *int   ` + "`json:\"zip,omitempty\"`" + `
}

type Person struct {
	Name     string            ` + "`cbor:\"name\"`" + `
	Email    string            ` + "`cbor:\"email,omitempty\"`" + `
	Age      int8              ` + "`cbor:\"age\"`" + `
	Count    uint64
	Score    float32           ` + "`cbor:\"score\"`" + `
	Active   bool              ` + "`cbor:\"active\"`" + `
	Avatar   []byte            ` + "`cbor:\"avatar,omitempty\"`" + `
	Home     Address           ` + "`cbor:\"home\"`" + `
	Previous []*Address        ` + "`cbor:\"previous\"`" + `
	Labels   map[string]string ` + "`cbor:\"labels\"`" + `
	Nested   map[string][]int  ` + "`cbor:\"nested\"`" + `
	Extra    *cbor.Object      ` + "`cbor:\"extra\"`" + `
	Born     time.Time         ` + "`cbor:\"born\"`" + `
	Secret   string            ` + "`cbor:\"-\"`" + `
	Alias    string            ` + "`json:\"name\"`" + `
	internal int
}

type Empty struct{}

type notAStruct int
`

func generate(t *testing.T, src string, opts Options) (string, *ast.File) {
	t.Helper()
	out, err := Generate("people.go", []byte(src), opts)
	require.NoError(t, err)
	require.NotNil(t, out)
	f, err := parser.ParseFile(token.NewFileSet(), "people_cbor.go", out, parser.ParseComments)
	require.NoError(t, err, "generated source:\n%s", out)
	return string(out), f
}

// methods returns the generated method names per receiver type.
func methods(f *ast.File) map[string][]string {
	got := make(map[string][]string)
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil {
			continue
		}
		recv := fd.Recv.List[0].Type
		if star, ok := recv.(*ast.StarExpr); ok {
			recv = star.X
		}
		name := recv.(*ast.Ident).Name
		got[name] = append(got[name], fd.Name.Name)
	}
	for _, m := range got {
		slices.Sort(m)
	}
	return got
}

// caseKeys returns the string case labels in FromCBORObject for recv.
func caseKeys(t *testing.T, f *ast.File, recv string) []string {
	t.Helper()
	var keys []string
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Name.Name != "FromCBORObject" {
			continue
		}
		if fd.Recv.List[0].Type.(*ast.StarExpr).X.(*ast.Ident).Name != recv {
			continue
		}
		ast.Inspect(fd.Body, func(n ast.Node) bool {
			cc, ok := n.(*ast.CaseClause)
			if !ok {
				return true
			}
			for _, e := range cc.List {
				if lit, ok := e.(*ast.BasicLit); ok && lit.Kind == token.STRING {
					k, err := strconv.Unquote(lit.Value)
					require.NoError(t, err)
					keys = append(keys, k)
				}
			}
			return true
		})
	}
	return keys
}

func TestGenerateMethods(t *testing.T) {
	_, f := generate(t, personSource, Options{})

	assert.Equal(t, "people", f.Name.Name)
	want := []string{"FromCBORObject", "MarshalCBOR", "ToCBORObject", "UnmarshalCBOR"}
	got := methods(f)
	assert.Len(t, got, 3)
	for _, name := range []string{"Address", "Person", "Empty"} {
		assert.Equal(t, want, got[name], name)
	}
}

func TestGenerateKeys(t *testing.T) {
	_, f := generate(t, personSource, Options{})

	assert.Equal(t, []string{"street", "zip"}, caseKeys(t, f, "Address"))
	// Secret is ignored, Alias collides with name and internal is unexported.
	assert.Equal(t, []string{
		"name", "email", "age", "Count", "score", "active", "avatar",
		"home", "previous", "labels", "nested", "extra", "born",
	}, caseKeys(t, f, "Person"))
	assert.Empty(t, caseKeys(t, f, "Empty"))
}

func TestGenerateImports(t *testing.T) {
	_, f := generate(t, personSource, Options{})

	var paths []string
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		require.NoError(t, err)
		if p == runtimeImport {
			require.NotNil(t, imp.Name)
			assert.Equal(t, runtimeAlias, imp.Name.Name)
		}
		paths = append(paths, p)
	}
	slices.Sort(paths)
	assert.Equal(t, []string{runtimeImport, "maps", "reflect", "slices"}, paths)
}

func TestGenerateFieldCode(t *testing.T) {
	src, _ := generate(t, personSource, Options{})

	for _, want := range []string{
		"// Code generated by cborgen. DO NOT EDIT.",
		`if !(z.Email == "") {`,
		`if !(len(z.Avatar) == 0) {`,
		`Target: "int8"`,
		"z.Home.FromCBORObject(v)",
		"z.Home.ToCBORObject()",
		"cbor.FromValue(z.Born)",
		"cbor.ObjectUnmarshaler",
		"slices.Sorted(maps.Keys(z.Labels))",
		"slices.Clone(",
		"cbor.FromUint64(uint64(z.Count))",
		"cbor.FromFloat32(z.Score)",
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, "Secret")
	assert.NotContains(t, src, "internal")
	// uint64 needs no range check.
	assert.NotContains(t, src, `Target: "uint64"`)
}

func TestGenerateAllowlist(t *testing.T) {
	src, f := generate(t, personSource, Options{Structs: []string{" Person ", ""}})

	got := methods(f)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "Person")
	// Address is not generated, so it goes through the reflective path.
	assert.Contains(t, src, "cbor.FromValue(z.Home)")
	assert.NotContains(t, src, "z.Home.ToCBORObject()")
}

func TestGenerateNothing(t *testing.T) {
	out, err := Generate("x.go", []byte("package x\n\ntype n int\n\ntype g[T any] struct{ V T }\n"), Options{})
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = Generate("x.go", []byte(personSource), Options{Structs: []string{"Missing"}})
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = Generate("x.go", []byte("package x\ntype {"), Options{})
	assert.Error(t, err)
}

func TestRunWritesFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "people.go")
	require.NoError(t, os.WriteFile(in, []byte(personSource), 0o644))
	out := filepath.Join(dir, "gen", "people_cbor.go")

	require.NoError(t, Run(in, out, Options{}))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "// Code generated by cborgen."))

	assert.Error(t, Run(filepath.Join(dir, "missing.go"), out, Options{}))
}

func TestResolveFieldSpec(t *testing.T) {
	tag := func(s string) *ast.BasicLit {
		return &ast.BasicLit{Kind: token.STRING, Value: "`" + s + "`"}
	}
	tests := []struct {
		name   string
		tag    *ast.BasicLit
		key    string
		omit   bool
		ignore bool
	}{
		{"none", nil, "Field", false, false},
		{"cbor", tag(`cbor:"f"`), "f", false, false},
		{"cbor wins", tag(`json:"j" cbor:"c"`), "c", false, false},
		{"json", tag(`json:"j,omitempty"`), "j", true, false},
		{"empty name", tag(`cbor:",omitempty"`), "Field", true, false},
		{"ignored", tag(`cbor:"-"`), "Field", false, true},
		{"json ignored", tag(`json:"-"`), "Field", false, true},
		{"other tags", tag(`yaml:"y"`), "Field", false, false},
		{"empty cbor falls back", tag(`cbor:"" json:"j"`), "j", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := resolveFieldSpec("Field", tt.tag)
			assert.Equal(t, tt.ignore, fs.Ignore)
			if !tt.ignore {
				assert.Equal(t, tt.key, fs.CBORName)
				assert.Equal(t, tt.omit, fs.OmitEmpty)
			}
		})
	}
}

func TestOmitEmptyUnsupported(t *testing.T) {
	src, _ := generate(t, `package p

type Inner struct{ A int }

type Outer struct {
	In Inner `+"`cbor:\"in,omitempty\"`"+`
	P  *Inner `+"`cbor:\"p,omitempty\"`"+`
}
`, Options{})
	// Struct values are always written; pointers are omitted when nil.
	assert.NotContains(t, src, "z.In ==")
	assert.Contains(t, src, "if !(z.P == nil) {")
}
