package cbor

import "io"

// WriteTo writes the CBOR encoding of o to w with EncodeDefault. It
// implements io.WriterTo.
func (o *Object) WriteTo(w io.Writer) (int64, error) {
	return o.WriteToOptions(w, EncodeDefault)
}

// WriteToOptions writes the CBOR encoding of o to w. Nothing is written
// when encoding fails.
func (o *Object) WriteToOptions(w io.Writer, opts EncodeOptions) (int64, error) {
	if w == nil {
		return 0, &ArgumentError{Arg: "w", Msg: "nil writer"}
	}
	bb := GetByteBuffer()
	defer PutByteBuffer(bb)
	if err := bb.AppendObject(o, opts); err != nil {
		return 0, err
	}
	n, err := w.Write(bb.Bytes())
	return int64(n), err
}

// Write writes the CBOR encoding of o to w.
func Write(o *Object, w io.Writer) error {
	if o == nil {
		return &ArgumentError{Arg: "o", Msg: "nil object"}
	}
	_, err := o.WriteTo(w)
	return err
}
