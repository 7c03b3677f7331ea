package cbor

import (
	"math/big"
	"net/url"
	"strconv"
	"sync"

	"github.com/synadia-labs/cborobject/numeric"
)

// TagHandler validates items carrying one tag number.
type TagHandler interface {
	// TypeFilter returns the shapes accepted for the item under the tag,
	// or nil for any item. The decoder enforces it before Validate.
	TypeFilter() *TypeFilter

	// Validate receives an object whose outermost tag is the handler's tag
	// and returns the object to keep, which may drop or replace the tag.
	Validate(o *Object) (*Object, error)
}

type tagHandler struct {
	filter   *TypeFilter
	validate func(tag uint64, inner *Object) (*Object, error)
}

func (h *tagHandler) TypeFilter() *TypeFilter { return h.filter }

func (h *tagHandler) Validate(o *Object) (*Object, error) {
	if h.validate == nil {
		return o, nil
	}
	return h.validate(o.bits, o.inner)
}

var tagRegistry struct {
	mu       sync.Mutex
	handlers map[uint64]TagHandler
	defaults bool
}

// RegisterDefaultTagHandlers installs the built-in handlers for tags 0, 2,
// 3, 4, 5, 25, 28, 29, 30, 32-37, 256, 264 and 265. It is idempotent and
// runs implicitly the first time a tag handler is needed.
func RegisterDefaultTagHandlers() {
	tagRegistry.mu.Lock()
	defer tagRegistry.mu.Unlock()
	registerDefaultsLocked()
}

func registerDefaultsLocked() {
	if tagRegistry.defaults {
		return
	}
	tagRegistry.defaults = true
	if tagRegistry.handlers == nil {
		tagRegistry.handlers = make(map[uint64]TagHandler)
	}
	for tag, h := range defaultTagHandlers() {
		if _, ok := tagRegistry.handlers[tag]; !ok {
			tagRegistry.handlers[tag] = h
		}
	}
}

// AddTagHandler registers h for tag, replacing any previous handler.
func AddTagHandler(tag uint64, h TagHandler) error {
	if h == nil {
		return &ArgumentError{Arg: "h", Msg: "nil tag handler"}
	}
	tagRegistry.mu.Lock()
	defer tagRegistry.mu.Unlock()
	registerDefaultsLocked()
	tagRegistry.handlers[tag] = h
	return nil
}

func lookupTagHandler(tag uint64) TagHandler {
	tagRegistry.mu.Lock()
	defer tagRegistry.mu.Unlock()
	registerDefaultsLocked()
	return tagRegistry.handlers[tag]
}

func applyTag(h TagHandler, o *Object) (*Object, error) {
	if h == nil {
		return o, nil
	}
	return h.Validate(o)
}

// FromObjectAndTag returns o tagged with tag after the tag's handler, if
// any, has checked and possibly rewritten it. Tags 2 and 3 turn a byte
// string into an integer, tags 4, 5, 264 and 265 build decimals and
// bigfloats and tag 30 a rational; those tags do not survive.
func FromObjectAndTag(o *Object, tag uint64) (*Object, error) {
	if o == nil {
		return nil, &ArgumentError{Arg: "o", Msg: "nil object"}
	}
	h := lookupTagHandler(tag)
	if h != nil && !h.TypeFilter().Matches(o) {
		return nil, tagError(tag, "Unexpected data type")
	}
	return applyTag(h, tagged(tag, o))
}

func tagError(tag uint64, msg string) error {
	return newFormatError(msg+" (tag "+strconv.FormatUint(tag, 10)+")", -1)
}

var (
	filterInteger       = FilterUnsignedInteger.WithNegativeInteger()
	filterBigInteger    = filterInteger.WithTags(tagPosBignum, tagNegBignum)
	filterScaled        = FilterNone.WithArrayExactLength(2, filterInteger, filterBigInteger)
	filterScaledBig     = FilterNone.WithArrayExactLength(2, filterBigInteger, filterBigInteger)
	filterRationalShape = FilterNone.WithArrayExactLength(2, filterBigInteger, FilterUnsignedInteger.WithTags(tagPosBignum))
)

func defaultTagHandlers() map[uint64]TagHandler {
	text := &tagHandler{filter: FilterTextString, validate: requireText}
	m := map[uint64]TagHandler{
		tagDateTimeString: text,
		tagPosBignum:      &tagHandler{filter: FilterByteString, validate: bignum},
		tagNegBignum:      &tagHandler{filter: FilterByteString, validate: bignum},
		tagDecimalFrac:    &tagHandler{filter: filterScaled, validate: scaledNumber},
		tagBigfloat:       &tagHandler{filter: filterScaled, validate: scaledNumber},
		tagStringRef:      &tagHandler{filter: FilterUnsignedInteger, validate: requireUnsigned},
		tagShareable:      &tagHandler{},
		tagSharedRef:      &tagHandler{filter: FilterUnsignedInteger, validate: requireUnsigned},
		tagRational:       &tagHandler{filter: filterRationalShape, validate: rational},
		tagURI:            &tagHandler{filter: FilterTextString, validate: uri},
		tagBase64URLText:  text,
		tagBase64Text:     text,
		tagRegexp:         text,
		tagMIME:           text,
		tagUUID:           &tagHandler{filter: FilterByteString, validate: uuid},
		tagStringRefSpace: &tagHandler{},
		tagDecimalBig:     &tagHandler{filter: filterScaledBig, validate: scaledNumber},
		tagBigfloatBig:    &tagHandler{filter: filterScaledBig, validate: scaledNumber},
	}
	return m
}

func requireText(tag uint64, inner *Object) (*Object, error) {
	if inner.kind != kindTextString {
		return nil, tagError(tag, "Not a text string")
	}
	return tagged(tag, inner), nil
}

func requireUnsigned(tag uint64, inner *Object) (*Object, error) {
	if inner.kind != kindInteger || int64(inner.bits) < 0 {
		if inner.kind != kindBigInteger || inner.num.(*big.Int).Sign() < 0 {
			return nil, tagError(tag, "Not an unsigned integer")
		}
	}
	return tagged(tag, inner), nil
}

func bignum(tag uint64, inner *Object) (*Object, error) {
	if inner.kind != kindByteString {
		return nil, tagError(tag, "Not a byte string")
	}
	z := new(big.Int).SetBytes(inner.bytes)
	if tag == tagNegBignum {
		z.Neg(z.Add(z, bigOne))
	}
	return FromBigInt(z), nil
}

// integerValue returns the value of an untagged integer item.
func integerValue(o *Object) (*big.Int, bool) {
	switch o.kind {
	case kindInteger:
		return big.NewInt(int64(o.bits)), true
	case kindBigInteger:
		return new(big.Int).Set(o.num.(*big.Int)), true
	}
	return nil, false
}

func pair(tag uint64, inner *Object) (*big.Int, *big.Int, error) {
	if inner.kind != kindArray || len(inner.items) != 2 {
		return nil, nil, tagError(tag, "Not an array of two items")
	}
	a, ok := integerValue(inner.items[0])
	if !ok {
		return nil, nil, tagError(tag, "First item is not an integer")
	}
	b, ok := integerValue(inner.items[1])
	if !ok {
		return nil, nil, tagError(tag, "Second item is not an integer")
	}
	return a, b, nil
}

func scaledNumber(tag uint64, inner *Object) (*Object, error) {
	exp, mant, err := pair(tag, inner)
	if err != nil {
		return nil, err
	}
	if (tag == tagDecimalFrac || tag == tagBigfloat) && !fitsCBORInt(exp) {
		return nil, tagError(tag, "Exponent is too big")
	}
	if tag == tagDecimalFrac || tag == tagDecimalBig {
		return FromDecimal(numeric.NewDecimal(mant, exp)), nil
	}
	return FromBigFloat(numeric.NewBigFloat(mant, exp)), nil
}

func rational(tag uint64, inner *Object) (*Object, error) {
	num, den, err := pair(tag, inner)
	if err != nil {
		return nil, err
	}
	if den.Sign() <= 0 {
		return nil, tagError(tag, "Denominator must be positive")
	}
	return FromRational(numeric.NewRational(num, den)), nil
}

func uri(tag uint64, inner *Object) (*Object, error) {
	if inner.kind != kindTextString {
		return nil, tagError(tag, "Not a text string")
	}
	if _, err := url.Parse(inner.str); err != nil {
		return nil, tagError(tag, "Invalid URI")
	}
	return tagged(tag, inner), nil
}

func uuid(tag uint64, inner *Object) (*Object, error) {
	if inner.kind != kindByteString {
		return nil, tagError(tag, "Not a byte string")
	}
	if len(inner.bytes) != 16 {
		return nil, tagError(tag, "UUID must be 16 bytes long")
	}
	return tagged(tag, inner), nil
}
