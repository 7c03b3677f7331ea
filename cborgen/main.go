package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/synadia-labs/cborobject/cborgen/core"
)

// CLI defines the cborgen command-line interface.
//
//   - input: Go file or directory
//   - output: override for the generated file (file mode only)
//   - verbose: turn on diagnostic logging
//
// In directory mode, each source file gets its own
// "*_cbor.go" companion file (recursive) and the --output flag is rejected.
type CLI struct {
	Input   string   `short:"i" help:"Input Go file or directory (recursive)" default:"."`
	Output  string   `short:"o" help:"Output file (file input only; defaults to {input}_cbor.go)"`
	Structs []string `short:"s" help:"Only generate for these struct types (may be repeated)"`
	Verbose bool     `short:"v" help:"Enable verbose diagnostics"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("cborgen"),
		kong.Description("Generate ToCBORObject/FromCBORObject conversions for Go structs."),
	)

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(&cli); err != nil {
		ctx.FatalIfErrorf(err)
	}
}

func run(cli *CLI) error {
	input := strings.TrimSpace(cli.Input)
	if input == "" {
		input = "."
	}

	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	if info.IsDir() {
		if cli.Output != "" {
			return errors.New("--output is not allowed when input is a directory")
		}
		return runForDir(input, cli.Verbose, cli.Structs)
	}

	// Single-file mode.
	out := cli.Output
	if strings.TrimSpace(out) == "" {
		out = defaultOutputPath(input)
	}
	return generateForFile(input, out, cli.Verbose, cli.Structs)
}

// runForDir walks a directory tree and generates a companion
// "*_cbor.go" file for each eligible Go source file.
func runForDir(dir string, verbose bool, structs []string) error {
	return filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %q: %w", path, err)
		}
		if entry.IsDir() {
			if path != dir && skipDir(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".go") {
			return nil
		}
		if strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, "_cbor.go") {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %q: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		return generateForFile(path, defaultOutputPath(path), verbose, structs)
	})
}

// skipDir reports whether a directory is ignored by the go tool.
func skipDir(name string) bool {
	return name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// defaultOutputPath derives the "*_cbor.go" filename for
// a given input Go file path.
func defaultOutputPath(inputPath string) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	return filepath.Join(dir, strings.TrimSuffix(base, ".go")+"_cbor.go")
}

func generateForFile(inputPath, outputPath string, verbose bool, structs []string) error {
	if err := core.Run(inputPath, outputPath, core.Options{Verbose: verbose, Structs: structs}); err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}
	return nil
}
