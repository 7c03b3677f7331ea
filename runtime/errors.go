package cbor

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
)

const resumableDefault = false

var (
	// ErrShortBytes is returned when the
	// slice being decoded is too short to
	// contain the contents of the message
	ErrShortBytes error = errShort{}

	// ErrRecursion is returned when the maximum recursion limit is reached for an operation.
	// This should only realistically be seen on adversarial data trying to exhaust the stack.
	ErrRecursion error = errRecursion{}
)

// Error is the interface satisfied
// by all of the errors that originate
// from this package.
type Error interface {
	error

	// Resumable returns whether
	// or not the error means that
	// the stream of data is malformed
	// and the information is unrecoverable.
	Resumable() bool
}

// contextError allows Error instances to be enhanced with additional
// context about their origin.
type contextError interface {
	Error

	// withContext must not modify the error instance - it must clone and
	// return a new error with the context added.
	withContext(ctx string) error
}

// Cause returns the underlying cause of an error that has been wrapped
// with additional context.
func Cause(e error) error {
	out := e
	if e, ok := e.(errWrapped); ok && e.cause != nil {
		out = e.cause
	}
	return out
}

// Resumable returns whether or not the error means that the stream of data is
// malformed and the information is unrecoverable.
func Resumable(e error) bool {
	if e, ok := e.(Error); ok {
		return e.Resumable()
	}
	return resumableDefault
}

// WrapError wraps an error with additional context that allows the part of
// a value that caused the problem to be identified (a struct field, a map
// key or an array index). Underlying errors can be retrieved using Cause().
//
// The input error is not modified - a new error should be returned.
func WrapError(err error, ctx ...any) error {
	switch e := err.(type) {
	case errShort, errRecursion:
		return e
	case errWrapped:
		return errWrapped{cause: e.cause, ctx: addCtx(e.ctx, ctxString(ctx))}
	case contextError:
		return e.withContext(ctxString(ctx))
	default:
		return errWrapped{cause: err, ctx: ctxString(ctx)}
	}
}

func ctxString(ctx []any) string {
	out := ""
	for idx, cv := range ctx {
		if idx > 0 {
			out += "/"
		}
		switch v := cv.(type) {
		case string:
			out += v
		case int:
			out += strconv.Itoa(v)
		default:
			out += "<?>"
		}
	}
	return out
}

// maxCtxLen bounds the context path kept on deeply nested errors; only the
// innermost part is kept.
const maxCtxLen = 256

func addCtx(ctx, add string) string {
	if len(ctx) >= maxCtxLen {
		if strings.HasPrefix(ctx, ".../") {
			return ctx
		}
		return ".../" + ctx
	}
	if ctx != "" {
		return add + "/" + ctx
	}
	return add
}

// errWrapped allows arbitrary errors passed to WrapError to be enhanced with
// context and unwrapped with Cause()
type errWrapped struct {
	cause error
	ctx   string
}

func (e errWrapped) Error() string {
	if e.ctx != "" {
		return e.cause.Error() + " at " + e.ctx
	}
	return e.cause.Error()
}

func (e errWrapped) Resumable() bool {
	if e, ok := e.cause.(Error); ok {
		return e.Resumable()
	}
	return resumableDefault
}

// Unwrap returns the cause.
func (e errWrapped) Unwrap() error { return e.cause }

type errShort struct{}

func (e errShort) Error() string   { return "cbor: too few bytes left to read object" }
func (e errShort) Resumable() bool { return false }

type errRecursion struct{}

func (e errRecursion) Error() string   { return "cbor: recursion limit reached" }
func (e errRecursion) Resumable() bool { return false }

// FormatError reports malformed CBOR or JSON, a failed tag validation or a
// value that cannot be serialized. Offset is the byte (CBOR) or character
// (JSON) position where the problem was detected, or -1 when unknown.
type FormatError struct {
	Msg    string
	Offset int64
	Err    error // underlying cause such as an I/O error, may be nil
	ctx    string
}

func newFormatError(msg string, offset int64) *FormatError {
	return &FormatError{Msg: msg, Offset: offset}
}

// Error implements the error interface
func (e *FormatError) Error() string {
	out := "cbor: " + e.Msg
	if e.Offset >= 0 {
		out += " (offset " + strconv.FormatInt(e.Offset, 10) + ")"
	}
	if e.ctx != "" {
		out += " at " + e.ctx
	}
	if e.Err != nil {
		out += ": " + e.Err.Error()
	}
	return out
}

// Resumable returns 'false' for FormatErrors
func (e *FormatError) Resumable() bool { return false }

// Unwrap returns the underlying cause.
func (e *FormatError) Unwrap() error { return e.Err }

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func (e *FormatError) withContext(ctx string) error {
	o := *e
	o.ctx = addCtx(o.ctx, ctx)
	return &o
}

// A TypeError is returned when an operation is applied to an object of an
// incompatible type, such as AsString on a number or Add on a map.
type TypeError struct {
	Op  string // operation attempted
	Got Type   // untagged type of the receiver

	ctx string
}

// Error implements the error interface
func (t *TypeError) Error() string {
	out := "cbor: " + t.Op + " not supported on " + quoteStr(t.Got.String())
	if t.ctx != "" {
		out += " at " + t.ctx
	}
	return out
}

// Resumable returns 'true' for TypeErrors
func (t *TypeError) Resumable() bool { return true }

func (t *TypeError) withContext(ctx string) error {
	o := *t
	o.ctx = addCtx(o.ctx, ctx)
	return &o
}

// ArgumentError is returned for invalid arguments: nil values where an
// object is required, out-of-range indexes, invalid UTF-8 text, duplicate
// keys passed to Put.
type ArgumentError struct {
	Arg string
	Msg string
}

// Error implements the error interface
func (a *ArgumentError) Error() string {
	return "cbor: invalid argument " + quoteStr(a.Arg) + ": " + a.Msg
}

// Resumable returns 'true' for ArgumentErrors
func (a *ArgumentError) Resumable() bool { return true }

// OverflowError is returned when a narrowing conversion cannot represent a
// value, including NaN and the infinities.
type OverflowError struct {
	Value  string // the value that did not fit
	Target string // the destination type
}

// Error implements the error interface
func (o *OverflowError) Error() string {
	return "cbor: " + o.Value + " overflows " + o.Target
}

// Resumable is always 'true' for overflows
func (o *OverflowError) Resumable() bool { return true }

// ErrUnsupportedType is returned when a Go value has no CBOR mapping.
type ErrUnsupportedType struct {
	T reflect.Type

	ctx string
}

// Error implements error
func (e *ErrUnsupportedType) Error() string {
	out := "cbor: type " + quoteStr(e.T.String()) + " not supported"
	if e.ctx != "" {
		out += " at " + e.ctx
	}
	return out
}

// Resumable returns 'true' for ErrUnsupportedType
func (e *ErrUnsupportedType) Resumable() bool { return true }

func (e *ErrUnsupportedType) withContext(ctx string) error {
	o := *e
	o.ctx = addCtx(o.ctx, ctx)
	return &o
}

func quoteStr(s string) string {
	return strconv.Quote(s)
}

// IsFormatError reports whether err is, or wraps, a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
