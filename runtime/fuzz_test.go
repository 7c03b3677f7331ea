package cbor

import (
	"bytes"
	"testing"
)

// FuzzDecode checks that decoding never panics and that anything decoded
// re-encodes to bytes that decode to an equal object.
func FuzzDecode(f *testing.F) {
	f.Add([]byte{0xa1, 0x61, 0x61, 0x01})                   // {"a": 1}
	f.Add([]byte{0x83, 0x01, 0x02, 0x03})                   // [1, 2, 3]
	f.Add([]byte{0x9f, 0x01, 0x02, 0xff})                   // [_ 1, 2]
	f.Add([]byte{0xc4, 0x82, 0x21, 0x19, 0x6a, 0xb3})       // 4([-2, 27315])
	f.Add([]byte{0xc2, 0x49, 1, 0, 0, 0, 0, 0, 0, 0, 0})    // bignum 2^64
	f.Add([]byte{0x7f, 0x61, 0x61, 0x62, 0x62, 0x63, 0xff}) // "abc" in chunks
	f.Add([]byte{0xf9, 0x7e, 0x00})                         // NaN
	f.Add([]byte{0xff, 0x00, 0x01, 0x02, 0x03})             // break at start

	f.Fuzz(func(t *testing.T, data []byte) {
		o, err := DecodeFromBytes(data)
		if err != nil {
			return
		}
		enc, err := o.EncodeToBytes()
		if err != nil {
			t.Fatalf("decoded %s but encoding failed: %v", o, err)
		}
		again, err := DecodeFromBytes(enc)
		if err != nil {
			t.Fatalf("re-decoding %x: %v", enc, err)
		}
		if !o.Equals(again) {
			t.Fatalf("round trip changed %s into %s", o, again)
		}
		enc2, err := again.EncodeToBytes()
		if err != nil || !bytes.Equal(enc, enc2) {
			t.Fatalf("encoding is not stable: %x vs %x (%v)", enc, enc2, err)
		}
		_ = o.String()
		_, _ = o.ToJSONString()
	})
}

// FuzzFromJSON checks that the JSON reader never panics and that its
// output serializes to JSON it can read back.
func FuzzFromJSON(f *testing.F) {
	for _, s := range []string{
		`{"a":1}`,
		`[1,2.5,-0,1e400,"xé"]`,
		`{"a":{"b":[true,false,null]}}`,
		`"😀"`,
		`123456789012345678901234567890`,
		`[1,2,`,
	} {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, s string) {
		o, err := FromJSONString(s)
		if err != nil {
			return
		}
		out, err := o.ToJSONString()
		if err != nil {
			t.Fatalf("ToJSONString(%s): %v", o, err)
		}
		back, err := FromJSONString(out)
		if err != nil {
			t.Fatalf("reading back %q: %v", out, err)
		}
		if o.Compare(back) != 0 {
			t.Fatalf("JSON round trip changed %s into %s", o, back)
		}
	})
}
