package store

import "bytes"

// Prefix is a namespaced view over a parent store. All keys are transparently
// prefixed on write and stripped on read, so iteration domains stay relative
// to the namespace.
type Prefix struct {
	parent KVStore
	prefix []byte
}

var _ KVStore = Prefix{}

func NewPrefix(parent KVStore, prefix []byte) Prefix {
	return Prefix{parent: parent, prefix: prefix}
}

func (s Prefix) key(key []byte) []byte {
	assertValidKey(key)
	return append(append([]byte{}, s.prefix...), key...)
}

func (s Prefix) Get(key []byte) []byte { return s.parent.Get(s.key(key)) }
func (s Prefix) Has(key []byte) bool   { return s.parent.Has(s.key(key)) }
func (s Prefix) Set(key, value []byte) { s.parent.Set(s.key(key), value) }
func (s Prefix) Delete(key []byte)     { s.parent.Delete(s.key(key)) }

func (s Prefix) Iterator(start, end []byte) Iterator {
	newStart := append(append([]byte{}, s.prefix...), start...)
	var newEnd []byte
	if end == nil {
		newEnd = PrefixEnd(s.prefix)
	} else {
		newEnd = append(append([]byte{}, s.prefix...), end...)
	}
	return prefixIterator{prefix: s.prefix, parent: s.parent.Iterator(newStart, newEnd)}
}

func (s Prefix) ReverseIterator(start, end []byte) Iterator {
	newStart := append(append([]byte{}, s.prefix...), start...)
	var newEnd []byte
	if end == nil {
		newEnd = PrefixEnd(s.prefix)
	} else {
		newEnd = append(append([]byte{}, s.prefix...), end...)
	}
	return prefixIterator{prefix: s.prefix, parent: s.parent.ReverseIterator(newStart, newEnd)}
}

// PrefixEnd returns the smallest key strictly greater than every key that
// carries the prefix, or nil when the prefix is all 0xff.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

type prefixIterator struct {
	prefix []byte
	parent Iterator
}

func (it prefixIterator) Domain() (start, end []byte) {
	ds, de := it.parent.Domain()
	return bytes.TrimPrefix(ds, it.prefix), bytes.TrimPrefix(de, it.prefix)
}

func (it prefixIterator) Valid() bool   { return it.parent.Valid() }
func (it prefixIterator) Next()         { it.parent.Next() }
func (it prefixIterator) Key() []byte   { return it.parent.Key()[len(it.prefix):] }
func (it prefixIterator) Value() []byte { return it.parent.Value() }
func (it prefixIterator) Error() error  { return it.parent.Error() }
func (it prefixIterator) Close() error  { return it.parent.Close() }
