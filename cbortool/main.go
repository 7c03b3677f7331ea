// Command cbortool converts between CBOR, JSON and YAML and inspects CBOR
// data.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"golang.org/x/term"
)

// Globals are the flags shared by every command plus the process streams.
type Globals struct {
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error"`

	stdin  io.Reader
	stdout io.Writer
	log    *slog.Logger
}

// CLI defines the cbortool command-line interface. Flag defaults can be
// set in ~/.config/cbortool.yaml or ./.cbortool.yaml.
type CLI struct {
	Globals

	Decode   DecodeCmd   `cmd:"" help:"Decode CBOR to JSON."`
	Encode   EncodeCmd   `cmd:"" help:"Encode JSON, JSONC or YAML to CBOR."`
	Diag     DiagCmd     `cmd:"" help:"Print CBOR in diagnostic notation."`
	Validate ValidateCmd `cmd:"" help:"Check that input is well-formed CBOR."`
	Digest   DigestCmd   `cmd:"" help:"Hash each CBOR item in the input."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("cbortool"),
		kong.Description("Convert and inspect CBOR data."),
		kong.UsageOnError(),
		kong.Configuration(yamlResolver, "~/.config/cbortool.yaml", ".cbortool.yaml"),
	)
	cli.stdin = os.Stdin
	cli.stdout = os.Stdout
	cli.log = newLogger(os.Stderr, cli.LogLevel)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

// newLogger returns a text logger when w is a terminal and a JSON logger
// otherwise.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	options := &slog.HandlerOptions{Level: lvl}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}
