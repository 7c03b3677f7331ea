package cbor

import (
	"iter"
	"slices"
	"strconv"
)

// Count returns the number of items in an array or entries in a map, and
// zero for every other type.
func (o *Object) Count() int {
	switch t := o.untagged(); t.kind {
	case kindArray:
		return len(t.items)
	case kindMap:
		return len(t.m.entries)
	}
	return 0
}

func (o *Object) array(op string) (*Object, error) {
	if t := o.untagged(); t.kind == kindArray {
		return t, nil
	}
	return nil, &TypeError{Op: op, Got: o.Type()}
}

func (o *Object) objMap(op string) (*Object, error) {
	if t := o.untagged(); t.kind == kindMap {
		return t, nil
	}
	return nil, &TypeError{Op: op, Got: o.Type()}
}

func indexError(i int) error {
	return &ArgumentError{Arg: "index", Msg: "index " + strconv.Itoa(i) + " out of range"}
}

// At returns the array item at index i.
func (o *Object) At(i int) (*Object, error) {
	a, err := o.array("At")
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(a.items) {
		return nil, indexError(i)
	}
	return a.items[i], nil
}

// SetAt replaces the array item at index i. A nil v stores Null.
func (o *Object) SetAt(i int, v *Object) error {
	a, err := o.array("SetAt")
	if err != nil {
		return err
	}
	if i < 0 || i >= len(a.items) {
		return indexError(i)
	}
	a.items[i] = orNull(v)
	return nil
}

// Add appends v to an array. A nil v appends Null.
func (o *Object) Add(v *Object) error {
	a, err := o.array("Add")
	if err != nil {
		return err
	}
	a.items = append(a.items, orNull(v))
	return nil
}

// Insert inserts v before index i; i may equal Count to append.
func (o *Object) Insert(i int, v *Object) error {
	a, err := o.array("Insert")
	if err != nil {
		return err
	}
	if i < 0 || i > len(a.items) {
		return indexError(i)
	}
	a.items = slices.Insert(a.items, i, orNull(v))
	return nil
}

// RemoveAt deletes the array item at index i.
func (o *Object) RemoveAt(i int) error {
	a, err := o.array("RemoveAt")
	if err != nil {
		return err
	}
	if i < 0 || i >= len(a.items) {
		return indexError(i)
	}
	a.items = slices.Delete(a.items, i, i+1)
	return nil
}

// Get returns the value stored under key, or nil when o is not a map or the
// key is absent.
func (o *Object) Get(key *Object) *Object {
	t := o.untagged()
	if t.kind != kindMap || key == nil {
		return nil
	}
	if at := t.m.find(key); at >= 0 {
		return t.m.entries[at].value
	}
	return nil
}

// GetString is Get with a text string key.
func (o *Object) GetString(key string) *Object {
	return o.Get(newText(key))
}

// ContainsKey reports whether the map o holds key.
func (o *Object) ContainsKey(key *Object) bool {
	t := o.untagged()
	return t.kind == kindMap && key != nil && t.m.find(key) >= 0
}

// Set stores value under key, replacing any existing value in place.
// A nil value stores Null.
func (o *Object) Set(key, value *Object) error {
	m, err := o.objMap("Set")
	if err != nil {
		return err
	}
	if key == nil {
		return &ArgumentError{Arg: "key", Msg: "nil key"}
	}
	m.m.set(key, orNull(value))
	return nil
}

// Put adds a new entry and fails if key is already present.
func (o *Object) Put(key, value *Object) error {
	m, err := o.objMap("Put")
	if err != nil {
		return err
	}
	if key == nil {
		return &ArgumentError{Arg: "key", Msg: "nil key"}
	}
	if m.m.find(key) >= 0 {
		return &ArgumentError{Arg: "key", Msg: "Key already exists"}
	}
	m.m.set(key, orNull(value))
	return nil
}

// Remove deletes key from a map, or the first item equal to key from an
// array, and reports whether anything was removed.
func (o *Object) Remove(key *Object) (bool, error) {
	if key == nil {
		return false, &ArgumentError{Arg: "key", Msg: "nil key"}
	}
	switch t := o.untagged(); t.kind {
	case kindMap:
		return t.m.remove(key), nil
	case kindArray:
		for i, it := range t.items {
			if it.Equals(key) {
				t.items = slices.Delete(t.items, i, i+1)
				return true, nil
			}
		}
		return false, nil
	}
	return false, &TypeError{Op: "Remove", Got: o.Type()}
}

// Clear removes every item of an array or map.
func (o *Object) Clear() error {
	switch t := o.untagged(); t.kind {
	case kindMap:
		t.m.clear()
		return nil
	case kindArray:
		clear(t.items)
		t.items = t.items[:0]
		return nil
	}
	return &TypeError{Op: "Clear", Got: o.Type()}
}

// Keys returns the keys of a map in insertion order.
func (o *Object) Keys() ([]*Object, error) {
	m, err := o.objMap("Keys")
	if err != nil {
		return nil, err
	}
	keys := make([]*Object, len(m.m.entries))
	for i, e := range m.m.entries {
		keys[i] = e.key
	}
	return keys, nil
}

// Values returns the items of an array, or the values of a map in
// insertion order.
func (o *Object) Values() ([]*Object, error) {
	switch t := o.untagged(); t.kind {
	case kindArray:
		return slices.Clone(t.items), nil
	case kindMap:
		vals := make([]*Object, len(t.m.entries))
		for i, e := range t.m.entries {
			vals[i] = e.value
		}
		return vals, nil
	}
	return nil, &TypeError{Op: "Values", Got: o.Type()}
}

// Entries iterates over the key/value pairs of a map in insertion order.
// It yields nothing for other types. The map must not be modified during
// iteration.
func (o *Object) Entries() iter.Seq2[*Object, *Object] {
	return func(yield func(*Object, *Object) bool) {
		t := o.untagged()
		if t.kind != kindMap {
			return
		}
		for _, e := range t.m.entries {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// AsString returns the contents of a text string.
func (o *Object) AsString() (string, error) {
	t := o.untagged()
	if t.kind != kindTextString {
		return "", &TypeError{Op: "AsString", Got: o.Type()}
	}
	return t.str, nil
}

// Bytes returns the contents of a byte string. The slice aliases the
// object's storage: callers may modify bytes in place but must not resize.
func (o *Object) Bytes() ([]byte, error) {
	t := o.untagged()
	if t.kind != kindByteString {
		return nil, &TypeError{Op: "Bytes", Got: o.Type()}
	}
	return t.bytes, nil
}

// AsBool returns false for False, Null and Undefined and true otherwise.
func (o *Object) AsBool() bool {
	t := o.untagged()
	if t.kind != kindSimple {
		return true
	}
	switch t.bits {
	case simpleFalse, simpleNull, simpleUndefined:
		return false
	}
	return true
}

// AsSimpleValue returns the code of a simple value, including 20-23 for
// false, true, null and undefined.
func (o *Object) AsSimpleValue() (int, error) {
	t := o.untagged()
	if t.kind != kindSimple {
		return 0, &TypeError{Op: "AsSimpleValue", Got: o.Type()}
	}
	return int(t.bits), nil
}

func (o *Object) isSimple(v uint64) bool {
	t := o.untagged()
	return t.kind == kindSimple && t.bits == v
}

// IsNull reports whether the untagged item is null.
func (o *Object) IsNull() bool { return o.isSimple(simpleNull) }

// IsUndefined reports whether the untagged item is undefined.
func (o *Object) IsUndefined() bool { return o.isSimple(simpleUndefined) }

// IsTrue reports whether the untagged item is true.
func (o *Object) IsTrue() bool { return o.isSimple(simpleTrue) }

// IsFalse reports whether the untagged item is false.
func (o *Object) IsFalse() bool { return o.isSimple(simpleFalse) }
