package cbor

import (
	"math/big"
	"slices"
)

// TypeFilter describes the CBOR items a tag handler accepts: a set of major
// types, optional array shape constraints with per-element filters, and the
// tags allowed on the item. Filters are immutable; every With method
// returns a new filter. A nil *TypeFilter accepts everything.
type TypeFilter struct {
	types         uint8 // bit per major type
	floatingPoint bool
	any           bool
	anyTag        bool
	tags          []uint64

	anyArrayLength bool
	arrayMinLength bool
	arrayLength    uint64
	elements       []*TypeFilter
}

var (
	// FilterAny accepts every item.
	FilterAny = &TypeFilter{types: 0xff, any: true, anyTag: true, anyArrayLength: true}
	// FilterNone accepts nothing.
	FilterNone = &TypeFilter{}
	// FilterUnsignedInteger accepts major type 0.
	FilterUnsignedInteger = FilterNone.WithUnsignedInteger()
	// FilterNegativeInteger accepts major type 1.
	FilterNegativeInteger = FilterNone.WithNegativeInteger()
	// FilterByteString accepts byte strings.
	FilterByteString = FilterNone.WithByteString()
	// FilterTextString accepts text strings.
	FilterTextString = FilterNone.WithTextString()
)

func (f *TypeFilter) clone() *TypeFilter {
	c := *f
	c.tags = slices.Clone(f.tags)
	c.elements = slices.Clone(f.elements)
	c.any = false
	return &c
}

func (f *TypeFilter) withType(major uint8) *TypeFilter {
	if f.any {
		return f
	}
	c := f.clone()
	c.types |= 1 << major
	return c
}

// WithUnsignedInteger also accepts major type 0.
func (f *TypeFilter) WithUnsignedInteger() *TypeFilter { return f.withType(majorTypeUint) }

// WithNegativeInteger also accepts major type 1.
func (f *TypeFilter) WithNegativeInteger() *TypeFilter { return f.withType(majorTypeNegInt) }

// WithByteString also accepts byte strings.
func (f *TypeFilter) WithByteString() *TypeFilter { return f.withType(majorTypeBytes) }

// WithTextString also accepts text strings.
func (f *TypeFilter) WithTextString() *TypeFilter { return f.withType(majorTypeText) }

// WithMap also accepts maps.
func (f *TypeFilter) WithMap() *TypeFilter { return f.withType(majorTypeMap) }

// WithFloatingPoint also accepts half, single and double floats, but no
// other simple values.
func (f *TypeFilter) WithFloatingPoint() *TypeFilter {
	if f.any {
		return f
	}
	c := f.clone()
	c.floatingPoint = true
	return c
}

// WithArrayAnyLength also accepts arrays of any length and contents.
func (f *TypeFilter) WithArrayAnyLength() *TypeFilter {
	if f.any {
		return f
	}
	c := f.withType(majorTypeArray)
	c.anyArrayLength = true
	c.elements = nil
	return c
}

// WithArrayExactLength also accepts arrays of exactly n items. Item i must
// match elems[i]; items past the end of elems match the last filter, and
// no elems means any items.
func (f *TypeFilter) WithArrayExactLength(n uint64, elems ...*TypeFilter) *TypeFilter {
	return f.withArray(n, false, elems)
}

// WithArrayMinLength also accepts arrays of at least n items, with item
// filters as in WithArrayExactLength.
func (f *TypeFilter) WithArrayMinLength(n uint64, elems ...*TypeFilter) *TypeFilter {
	return f.withArray(n, true, elems)
}

func (f *TypeFilter) withArray(n uint64, atLeast bool, elems []*TypeFilter) *TypeFilter {
	if f.any {
		return f
	}
	c := f.withType(majorTypeArray)
	c.anyArrayLength = false
	c.arrayMinLength = atLeast
	c.arrayLength = n
	c.elements = slices.Clone(elems)
	return c
}

// WithTags also allows the given tags on the item.
func (f *TypeFilter) WithTags(tags ...uint64) *TypeFilter {
	if f.any {
		return f
	}
	c := f.withType(majorTypeTag)
	for _, t := range tags {
		if !slices.Contains(c.tags, t) {
			c.tags = append(c.tags, t)
		}
	}
	return c
}

// MajorTypeMatches reports whether items of the major type are accepted.
// For major type 7 it reports whether floats are accepted.
func (f *TypeFilter) MajorTypeMatches(major int) bool {
	if f == nil || f.any {
		return true
	}
	if major == majorTypeSimple {
		return f.floatingPoint
	}
	return major >= 0 && major < 8 && f.types&(1<<major) != 0
}

// NonFPSimpleValueAllowed reports whether simple values other than floats
// are accepted.
func (f *TypeFilter) NonFPSimpleValueAllowed() bool {
	return f == nil || f.any
}

// ArrayLengthMatches reports whether an array of n items satisfies the
// length constraint.
func (f *TypeFilter) ArrayLengthMatches(n uint64) bool {
	if f == nil || f.any || f.anyArrayLength {
		return true
	}
	if f.types&(1<<majorTypeArray) == 0 {
		return false
	}
	if f.arrayMinLength {
		return n >= f.arrayLength
	}
	return n == f.arrayLength
}

// ArrayIndexAllowed reports whether an array may hold an item at index i.
func (f *TypeFilter) ArrayIndexAllowed(i uint64) bool {
	if f == nil || f.any || f.anyArrayLength || f.arrayMinLength {
		return true
	}
	return i < f.arrayLength
}

// SubFilter returns the filter for the array item at index i.
func (f *TypeFilter) SubFilter(i uint64) *TypeFilter {
	if f == nil || f.any || len(f.elements) == 0 {
		return nil
	}
	if i >= uint64(len(f.elements)) {
		return f.elements[len(f.elements)-1]
	}
	return f.elements[i]
}

// TagAllowed reports whether the item may carry tag.
func (f *TypeFilter) TagAllowed(tag uint64) bool {
	if f == nil || f.any || f.anyTag {
		return true
	}
	return slices.Contains(f.tags, tag)
}

// allowsHead checks the head byte of an item against the filter.
func (f *TypeFilter) allowsHead(major, ai uint8) bool {
	if f == nil || f.any {
		return true
	}
	if major == majorTypeSimple {
		if ai >= simpleFloat16 && ai <= simpleFloat64 {
			return f.floatingPoint
		}
		return f.NonFPSimpleValueAllowed()
	}
	return f.types&(1<<major) != 0
}

// Matches reports whether the untagged shape of o satisfies the filter.
// Integers outside the native range count as tags 2 and 3.
func (f *TypeFilter) Matches(o *Object) bool {
	if f == nil || f.any {
		return true
	}
	for _, t := range o.Tags() {
		if !f.TagAllowed(t) {
			return false
		}
	}
	t := o.untagged()
	switch t.kind {
	case kindInteger:
		if int64(t.bits) < 0 {
			return f.types&(1<<majorTypeNegInt) != 0
		}
		return f.types&(1<<majorTypeUint) != 0
	case kindBigInteger:
		z := t.num.(*big.Int)
		if fitsCBORInt(z) {
			if z.Sign() < 0 {
				return f.types&(1<<majorTypeNegInt) != 0
			}
			return f.types&(1<<majorTypeUint) != 0
		}
		if z.Sign() < 0 {
			return f.TagAllowed(tagNegBignum)
		}
		return f.TagAllowed(tagPosBignum)
	case kindByteString:
		return f.types&(1<<majorTypeBytes) != 0
	case kindTextString:
		return f.types&(1<<majorTypeText) != 0
	case kindSingle, kindDouble:
		return f.floatingPoint
	case kindSimple:
		return f.NonFPSimpleValueAllowed()
	case kindMap:
		return f.types&(1<<majorTypeMap) != 0
	case kindArray:
		if !f.ArrayLengthMatches(uint64(len(t.items))) {
			return false
		}
		for i, it := range t.items {
			if !f.SubFilter(uint64(i)).Matches(it) {
				return false
			}
		}
		return true
	}
	// decimals, bigfloats and rationals encode as tagged arrays
	return f.types&(1<<majorTypeTag) != 0
}
