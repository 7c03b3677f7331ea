package core

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	tmplfs "github.com/synadia-labs/cborobject/cborgen/templates"
)

const (
	runtimeAlias  = "cbor"
	runtimeImport = "github.com/synadia-labs/cborobject/runtime"
)

func rt(name string) string {
	return runtimeAlias + "." + name
}

// Options configures how generation runs.
type Options struct {
	Verbose bool
	// Structs, if non-empty, restricts generation to the
	// named struct types. Names must match Go type names
	// exactly (no package qualification).
	Structs []string
	// Logger receives diagnostics. Nil uses slog.Default.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Run generates Object conversions for the struct types of a single Go
// source file and writes them to outputPath.
func Run(inputPath, outputPath string, opts Options) error {
	src, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	out, err := Generate(inputPath, src, opts)
	if err != nil {
		return err
	}
	if out == nil {
		opts.logger().Debug("no structs to generate", "input", inputPath)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	if opts.Verbose {
		opts.logger().Info("generated", "input", inputPath, "output", outputPath, "bytes", len(out))
	}
	return os.WriteFile(outputPath, out, 0o644)
}

type fieldSpec struct {
	GoName        string
	CBORName      string
	OmitEmpty     bool
	OmitEmptyCond string
	Encode        string
	Decode        string
	Ignore        bool
}

// KeyLiteral is the quoted CBOR key for use in generated source.
func (f fieldSpec) KeyLiteral() string { return strconv.Quote(f.CBORName) }

type structSpec struct {
	Name   string
	Fields []fieldSpec
}

// Generate returns the formatted source of the conversions for the struct
// types declared in src, or nil when the file declares none. filename is
// used for positions and import resolution only.
//
// Key names follow the struct tags:
//   - if a cbor tag is present it wins
//   - if the cbor tag is absent, the json tag is used
//   - if both are absent, the Go field name is used
func Generate(filename string, src []byte, opts Options) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	log := opts.logger()

	var allowed map[string]struct{}
	if len(opts.Structs) > 0 {
		allowed = make(map[string]struct{}, len(opts.Structs))
		for _, name := range opts.Structs {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			allowed[name] = struct{}{}
		}
	}

	// First pass: the set of struct names that get generated methods, so
	// fields of those types can call them directly.
	var specs []*ast.TypeSpec
	generated := make(map[string]struct{})
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok || ts.TypeParams != nil {
				continue
			}
			if _, ok := ts.Type.(*ast.StructType); !ok {
				continue
			}
			// If a struct allowlist is provided, skip
			// types that are not explicitly listed.
			if len(allowed) > 0 {
				if _, ok := allowed[ts.Name.Name]; !ok {
					continue
				}
			}
			specs = append(specs, ts)
			generated[ts.Name.Name] = struct{}{}
		}
	}
	if len(specs) == 0 {
		return nil, nil
	}

	imps := map[string]struct{}{runtimeImport: {}}
	var structs []structSpec
	for _, ts := range specs {
		ss := structSpec{Name: ts.Name.Name}
		keys := make(map[string]struct{})
		for _, field := range ts.Type.(*ast.StructType).Fields.List {
			// Embedded fields are not flattened.
			if len(field.Names) == 0 {
				log.Debug("skipping embedded field", "struct", ss.Name, "type", types.ExprString(field.Type))
				continue
			}
			for _, ident := range field.Names {
				if !ast.IsExported(ident.Name) {
					continue
				}
				fs := resolveFieldSpec(ident.Name, field.Tag)
				if fs.Ignore {
					continue
				}
				if _, dup := keys[fs.CBORName]; dup {
					log.Warn("duplicate key, field skipped", "struct", ss.Name, "field", fs.GoName, "key", fs.CBORName)
					continue
				}
				keys[fs.CBORName] = struct{}{}
				ss.Fields = append(ss.Fields, buildField(fs, classify(field.Type, generated), imps))
				if opts.Verbose {
					log.Info("field", "struct", ss.Name, "field", fs.GoName, "key", fs.CBORName)
				}
			}
		}
		structs = append(structs, ss)
	}

	data := struct {
		Package string
		Imports []string
		Structs []structSpec
	}{
		Package: file.Name.Name,
		Imports: slices.Sorted(maps.Keys(imps)),
		Structs: structs,
	}

	var buf bytes.Buffer
	if err := objectTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}

	out, err := imports.Process(filename, buf.Bytes(), nil)
	if err != nil {
		// Fall back to go/format if goimports fails.
		log.Debug("goimports failed", "input", filename, "err", err)
		if out, err = format.Source(buf.Bytes()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func buildField(fs fieldSpec, t *goType, imps map[string]struct{}) fieldSpec {
	ref := "z." + fs.GoName
	if fs.OmitEmpty {
		if cond, ok := t.zeroCheck(ref); ok {
			fs.OmitEmptyCond = cond
		} else {
			fs.OmitEmpty = false
		}
	}
	ctx := []string{fs.KeyLiteral()}
	e := newEmitter(imps)
	e.encode(t, ref, "v", ctx)
	fs.Encode = e.take()
	e.decode(t, "v", ref, ctx)
	fs.Decode = e.take()
	return fs
}

// resolveFieldSpec applies tag resolution rules:
// - cbor tag primary
// - if no cbor tag, use json tag
// - if both absent, use Go field name
func resolveFieldSpec(goName string, tag *ast.BasicLit) fieldSpec {
	fs := fieldSpec{GoName: goName, CBORName: goName}
	if tag == nil {
		return fs
	}
	raw, err := strconv.Unquote(tag.Value)
	if err != nil {
		return fs
	}
	st := reflect.StructTag(raw)
	for _, key := range []string{"cbor", "json"} {
		v, ok := st.Lookup(key)
		if !ok || v == "" {
			continue
		}
		if v == "-" {
			fs.Ignore = true
			return fs
		}
		fs.CBORName, fs.OmitEmpty = splitNameOptions(v, goName)
		return fs
	}
	return fs
}

// splitNameOptions splits a tag like "name,omitempty" into name and
// omitEmpty flag. An empty name keeps the Go field name.
func splitNameOptions(tag, goName string) (string, bool) {
	name, opts, _ := strings.Cut(tag, ",")
	omit := false
	for opt := range strings.SplitSeq(opts, ",") {
		if opt == "omitempty" {
			omit = true
		}
	}
	if name == "" {
		name = goName
	}
	return name, omit
}

var objectTemplate = template.Must(template.New("object.go.tpl").Funcs(template.FuncMap{
	"rt": rt,
}).ParseFS(tmplfs.FS, "object.go.tpl"))
