package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"

	cbor "github.com/synadia-labs/cborobject/runtime"
)

// Decoding flags shared by the commands that read CBOR.
type Decoding struct {
	Sequence           bool `short:"s" help:"Input is a CBOR sequence of zero or more items."`
	AllowDuplicateKeys bool `help:"Keep the last value of a repeated map key instead of failing."`
}

func (d Decoding) items(g *Globals, data []byte) ([]*cbor.Object, error) {
	if cbor.IsLikelyJSON(data) {
		g.log.Warn("input looks like JSON text, not CBOR")
	}
	opts := cbor.DecodeOptions{AllowDuplicateKeys: d.AllowDuplicateKeys}
	if d.Sequence {
		return cbor.DecodeSequence(data, opts)
	}
	o, err := cbor.DecodeFromBytesOptions(data, opts)
	if err != nil {
		return nil, err
	}
	return []*cbor.Object{o}, nil
}

// DecodeCmd writes every input item as one line of JSON.
type DecodeCmd struct {
	Input    `embed:""`
	Decoding `embed:""`

	Indent bool `short:"n" help:"Indent the JSON output."`
}

func (c *DecodeCmd) Run(g *Globals) error {
	data, err := c.read(g)
	if err != nil {
		return err
	}
	items, err := c.items(g, data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	for i, o := range items {
		js, err := o.ToJSONString()
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if c.Indent {
			var buf bytes.Buffer
			if err := json.Indent(&buf, []byte(js), "", "  "); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			js = buf.String()
		}
		if _, err := fmt.Fprintln(g.stdout, js); err != nil {
			return err
		}
	}
	g.log.Info("decoded", "items", len(items))
	return nil
}

// EncodeCmd converts one JSON, JSONC or YAML document to CBOR.
type EncodeCmd struct {
	Path   string `arg:"" optional:"" help:"Input file; '-' or empty reads stdin."`
	From   string `short:"f" help:"Input format (auto, json, jsonc, yaml)." default:"auto" enum:"auto,json,jsonc,yaml"`
	Output string `short:"o" help:"Output file; stdout when empty."`
	Hex    bool   `short:"x" help:"Write hex text instead of binary."`
}

func (c *EncodeCmd) Run(g *Globals) error {
	in := Input{Path: c.Path, Compression: CompressionNone}
	data, err := in.read(g)
	if err != nil {
		return err
	}
	o, err := parseDocument(data, c.format())
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	out, err := o.EncodeToBytes()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if c.Hex {
		out = []byte(hex.EncodeToString(out) + "\n")
	}
	g.log.Info("encoded", "format", c.format(), "bytes", len(out))
	if c.Output == "" {
		_, err = g.stdout.Write(out)
		return err
	}
	return os.WriteFile(c.Output, out, 0o644)
}

func (c *EncodeCmd) format() string {
	if c.From != "" && c.From != "auto" {
		return c.From
	}
	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".jsonc":
		return "jsonc"
	}
	return "json"
}

func parseDocument(data []byte, format string) (*cbor.Object, error) {
	switch format {
	case "yaml":
		return fromYAML(data)
	case "jsonc":
		data = jsonc.ToJSON(data)
	}
	// ReadJSON detects UTF-16 and UTF-32 and skips a byte order mark.
	return cbor.ReadJSON(bytes.NewReader(data))
}

// DiagCmd prints each item of a CBOR sequence in diagnostic notation.
type DiagCmd struct {
	Input `embed:""`
}

func (c *DiagCmd) Run(g *Globals) error {
	data, err := c.read(g)
	if err != nil {
		return err
	}
	for n := 0; len(data) > 0; n++ {
		var s string
		if s, data, err = cbor.DiagBytes(data); err != nil {
			return fmt.Errorf("item %d: %w", n, err)
		}
		if _, err := fmt.Fprintln(g.stdout, s); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCmd checks the input and reports how many items it holds.
type ValidateCmd struct {
	Input    `embed:""`
	Decoding `embed:""`
}

func (c *ValidateCmd) Run(g *Globals) error {
	data, err := c.read(g)
	if err != nil {
		return err
	}
	items, err := c.items(g, data)
	if err != nil {
		return fmt.Errorf("invalid CBOR: %w", err)
	}
	_, err = fmt.Fprintf(g.stdout, "ok: %d item(s), %d bytes\n", len(items), len(data))
	return err
}

// DigestCmd hashes the encoding of each item, or the raw input.
type DigestCmd struct {
	Input    `embed:""`
	Decoding `embed:""`

	Algo string `short:"a" help:"Hash algorithm (blake3, blake2b)." default:"blake3" enum:"blake3,blake2b"`
	Raw  bool   `help:"Hash the input bytes as read instead of each re-encoded item."`
}

func (c *DigestCmd) Run(g *Globals) error {
	data, err := c.read(g)
	if err != nil {
		return err
	}
	if c.Raw {
		return c.print(g.stdout, data)
	}
	items, err := c.items(g, data)
	if err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	for i, o := range items {
		b, err := o.EncodeToBytes()
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if err := c.print(g.stdout, b); err != nil {
			return err
		}
	}
	return nil
}

func (c *DigestCmd) print(w io.Writer, b []byte) error {
	var sum [32]byte
	switch c.Algo {
	case "blake2b":
		sum = blake2b.Sum256(b)
	default:
		sum = blake3.Sum256(b)
	}
	_, err := fmt.Fprintf(w, "%s  %s\n", hex.EncodeToString(sum[:]), c.Algo)
	return err
}
