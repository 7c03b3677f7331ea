package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zstdCompress(t *testing.T, b []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(b, nil)
}

func lz4Compress(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write(b)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDetectCompression(t *testing.T) {
	payload := bytes.Repeat([]byte{0x83, 0x01, 0x02, 0x03}, 64)
	assert.Equal(t, CompressionZstd, detectCompression(zstdCompress(t, payload)))
	assert.Equal(t, CompressionLZ4, detectCompression(lz4Compress(t, payload)))
	assert.Equal(t, CompressionNone, detectCompression(payload))
	assert.Equal(t, CompressionNone, detectCompression(nil))
}

func TestInputRead(t *testing.T) {
	payload := bytes.Repeat([]byte{0x83, 0x01, 0x02, 0x03}, 64)
	tests := []struct {
		name string
		data []byte
		c    Compression
	}{
		{"plain", payload, CompressionAuto},
		{"zstd auto", zstdCompress(t, payload), CompressionAuto},
		{"lz4 auto", lz4Compress(t, payload), ""},
		{"zstd explicit", zstdCompress(t, payload), CompressionZstd},
		{"lz4 explicit", lz4Compress(t, payload), CompressionLZ4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newGlobals(tt.data)
			got, err := (&Input{Compression: tt.c}).read(g)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestInputReadErrors(t *testing.T) {
	g, _ := newGlobals([]byte{0x01, 0x02})
	_, err := (&Input{Compression: CompressionZstd}).read(g)
	assert.ErrorContains(t, err, "zstd")

	g, _ = newGlobals([]byte{0x01, 0x02})
	_, err = (&Input{Compression: CompressionLZ4}).read(g)
	assert.ErrorContains(t, err, "lz4")

	g, _ = newGlobals(nil)
	_, err = (&Input{Path: filepath.Join(t.TempDir(), "missing")}).read(g)
	assert.ErrorContains(t, err, "read input")
}

func TestInputReadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "in.cbor.zst")
	payload := []byte{0xa1, 0x61, 0x61, 0x01}
	require.NoError(t, os.WriteFile(p, zstdCompress(t, payload), 0o644))

	g, out := newGlobals(nil)
	require.NoError(t, (&DecodeCmd{Input: Input{Path: p}}).Run(g))
	assert.Equal(t, "{\"a\":1}\n", out.String())
}
