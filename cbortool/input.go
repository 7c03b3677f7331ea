package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names the container an input may arrive in.
type Compression string

const (
	CompressionAuto Compression = "auto"
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Input selects where a command reads from and how the bytes are wrapped.
type Input struct {
	Path        string      `arg:"" optional:"" help:"Input file; '-' or empty reads stdin."`
	Compression Compression `short:"z" help:"Input compression (auto, none, zstd, lz4)." default:"auto" enum:"auto,none,zstd,lz4"`
	Hex         bool        `short:"x" help:"Input is hex text."`
}

// read returns the decompressed input bytes.
func (in *Input) read(g *Globals) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if in.Path == "" || in.Path == "-" {
		data, err = io.ReadAll(g.stdin)
	} else {
		data, err = os.ReadFile(in.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if in.Hex {
		if data, err = hex.DecodeString(strings.Join(strings.Fields(string(data)), "")); err != nil {
			return nil, fmt.Errorf("hex input: %w", err)
		}
	}
	c := in.Compression
	if c == "" || c == CompressionAuto {
		c = detectCompression(data)
	}
	g.log.Debug("read input", "path", in.Path, "bytes", len(data), "compression", string(c))
	return decompress(data, c)
}

// detectCompression recognises zstd and lz4 frames by their magic number.
func detectCompression(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(data, lz4Magic):
		return CompressionLZ4
	}
	return CompressionNone
}

func decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone, CompressionAuto, "":
		return data, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, nil
	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported compression: %q", c)
}
