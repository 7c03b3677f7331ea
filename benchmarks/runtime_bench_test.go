package benchmarks

import (
	"testing"

	msgp "github.com/tinylib/msgp/msgp"

	cbor "github.com/synadia-labs/cborobject/runtime"
)

// Primitive encode microbenchmarks comparing the append helpers against
// tinylib/msgp's MessagePack runtime for the same operations.

func BenchmarkCBOR_AppendInt64(b *testing.B) {
	var out []byte
	b.ReportAllocs()
	for i := 0; b.Loop(); i++ {
		out = cbor.AppendInt64(out[:0], int64(i))
	}
	_ = out
}

func BenchmarkMsgp_AppendInt64(b *testing.B) {
	var out []byte
	b.ReportAllocs()
	for i := 0; b.Loop(); i++ {
		out = msgp.AppendInt64(out[:0], int64(i))
	}
	_ = out
}

func BenchmarkCBOR_AppendString(b *testing.B) {
	var out []byte
	s := "hello world"
	b.ReportAllocs()
	for b.Loop() {
		out = cbor.AppendString(out[:0], s)
	}
	_ = out
}

func BenchmarkMsgp_AppendString(b *testing.B) {
	var out []byte
	s := "hello world"
	b.ReportAllocs()
	for b.Loop() {
		out = msgp.AppendString(out[:0], s)
	}
	_ = out
}

func BenchmarkCBOR_AppendBytes(b *testing.B) {
	var out []byte
	data := []byte("payload bytes")
	b.ReportAllocs()
	for b.Loop() {
		out = cbor.AppendBytes(out[:0], data)
	}
	_ = out
}

func BenchmarkMsgp_AppendBytes(b *testing.B) {
	var out []byte
	data := []byte("payload bytes")
	b.ReportAllocs()
	for b.Loop() {
		out = msgp.AppendBytes(out[:0], data)
	}
	_ = out
}

func BenchmarkCBOR_AppendRecord(b *testing.B) {
	rec := newRecord()
	var out []byte
	b.ReportAllocs()
	for b.Loop() {
		out = appendRecordCBOR(out[:0], rec)
	}
	_ = out
}

func BenchmarkMsgp_AppendRecord(b *testing.B) {
	rec := newRecord()
	var out []byte
	b.ReportAllocs()
	for b.Loop() {
		out = appendRecordMsgp(out[:0], rec)
	}
	_ = out
}

func appendRecordCBOR(buf []byte, r record) []byte {
	buf = cbor.AppendMapHeader(buf, 7)
	buf = cbor.AppendString(buf, "name")
	buf = cbor.AppendString(buf, r.Name)
	buf = cbor.AppendString(buf, "age")
	buf = cbor.AppendInt64(buf, r.Age)
	buf = cbor.AppendString(buf, "email")
	buf = cbor.AppendString(buf, r.Email)
	buf = cbor.AppendString(buf, "active")
	buf = cbor.AppendBool(buf, r.Active)
	buf = cbor.AppendString(buf, "balance")
	buf = cbor.AppendFloat64(buf, r.Balance)
	buf = cbor.AppendString(buf, "tags")
	buf = cbor.AppendArrayHeader(buf, len(r.Tags))
	for _, tag := range r.Tags {
		buf = cbor.AppendString(buf, tag)
	}
	buf = cbor.AppendString(buf, "scores")
	buf = cbor.AppendMapHeader(buf, len(r.Scores))
	for _, k := range r.scoreKeys() {
		buf = cbor.AppendString(buf, k)
		buf = cbor.AppendInt64(buf, r.Scores[k])
	}
	return buf
}

func appendRecordMsgp(buf []byte, r record) []byte {
	buf = msgp.AppendMapHeader(buf, 7)
	buf = msgp.AppendString(buf, "name")
	buf = msgp.AppendString(buf, r.Name)
	buf = msgp.AppendString(buf, "age")
	buf = msgp.AppendInt64(buf, r.Age)
	buf = msgp.AppendString(buf, "email")
	buf = msgp.AppendString(buf, r.Email)
	buf = msgp.AppendString(buf, "active")
	buf = msgp.AppendBool(buf, r.Active)
	buf = msgp.AppendString(buf, "balance")
	buf = msgp.AppendFloat64(buf, r.Balance)
	buf = msgp.AppendString(buf, "tags")
	buf = msgp.AppendArrayHeader(buf, uint32(len(r.Tags)))
	for _, tag := range r.Tags {
		buf = msgp.AppendString(buf, tag)
	}
	buf = msgp.AppendString(buf, "scores")
	buf = msgp.AppendMapHeader(buf, uint32(len(r.Scores)))
	for _, k := range r.scoreKeys() {
		buf = msgp.AppendString(buf, k)
		buf = msgp.AppendInt64(buf, r.Scores[k])
	}
	return buf
}
