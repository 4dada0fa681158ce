package store

import (
	"bytes"
	"sort"
)

type cValue struct {
	value   []byte
	deleted bool
}

// Branch is a copy-on-write overlay over a parent KVStore. Reads fall through
// to the parent for keys without pending writes. Write applies all pending
// writes to the parent in ascending key order; dropping the branch without
// calling Write discards them. A branch is never partially applied.
type Branch struct {
	parent KVStore
	cache  map[string]cValue
}

var _ KVStore = (*Branch)(nil)

func NewBranch(parent KVStore) *Branch {
	return &Branch{
		parent: parent,
		cache:  make(map[string]cValue),
	}
}

func (b *Branch) Get(key []byte) []byte {
	if cv, ok := b.cache[string(key)]; ok {
		if cv.deleted {
			return nil
		}
		return cv.value
	}
	return b.parent.Get(key)
}

func (b *Branch) Has(key []byte) bool {
	if cv, ok := b.cache[string(key)]; ok {
		return !cv.deleted
	}
	return b.parent.Has(key)
}

func (b *Branch) Set(key, value []byte) {
	assertValidKey(key)
	assertValidValue(value)
	b.cache[string(key)] = cValue{value: value}
}

func (b *Branch) Delete(key []byte) {
	b.cache[string(key)] = cValue{deleted: true}
}

// Write merges all pending writes into the parent store. The branch must not
// be used afterwards.
func (b *Branch) Write() {
	keys := make([]string, 0, len(b.cache))
	for k := range b.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		cv := b.cache[k]
		if cv.deleted {
			b.parent.Delete([]byte(k))
		} else {
			b.parent.Set([]byte(k), cv.value)
		}
	}
	b.cache = make(map[string]cValue)
}

func (b *Branch) Iterator(start, end []byte) Iterator {
	return b.newMergedIterator(start, end, true)
}

func (b *Branch) ReverseIterator(start, end []byte) Iterator {
	return b.newMergedIterator(start, end, false)
}

func (b *Branch) newMergedIterator(start, end []byte, ascending bool) Iterator {
	var parent Iterator
	if ascending {
		parent = b.parent.Iterator(start, end)
	} else {
		parent = b.parent.ReverseIterator(start, end)
	}
	return newBranchIterator(parent, b.dirtyInRange(start, end, ascending), ascending)
}

type dirtyEntry struct {
	key []byte
	cValue
}

func (b *Branch) dirtyInRange(start, end []byte, ascending bool) []dirtyEntry {
	entries := make([]dirtyEntry, 0, len(b.cache))
	for k, cv := range b.cache {
		key := []byte(k)
		if start != nil && bytes.Compare(key, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(key, end) >= 0 {
			continue
		}
		entries = append(entries, dirtyEntry{key: key, cValue: cv})
	}
	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return bytes.Compare(entries[i].key, entries[j].key) < 0
		}
		return bytes.Compare(entries[i].key, entries[j].key) > 0
	})
	return entries
}

// branchIterator merges a parent iterator with the branch's sorted pending
// writes. Pending writes shadow parent values; deletions hide parent keys.
type branchIterator struct {
	parent    Iterator
	dirty     []dirtyEntry
	ascending bool

	key   []byte
	value []byte
	valid bool
}

func newBranchIterator(parent Iterator, dirty []dirtyEntry, ascending bool) *branchIterator {
	it := &branchIterator{
		parent:    parent,
		dirty:     dirty,
		ascending: ascending,
	}
	it.advance()
	return it
}

func (it *branchIterator) Domain() (start, end []byte) { return it.parent.Domain() }
func (it *branchIterator) Valid() bool                 { return it.valid }
func (it *branchIterator) Key() []byte                 { return it.key }
func (it *branchIterator) Value() []byte               { return it.value }
func (it *branchIterator) Error() error                { return it.parent.Error() }
func (it *branchIterator) Close() error                { return it.parent.Close() }

func (it *branchIterator) Next() {
	if !it.valid {
		panic("branch iterator is invalid")
	}
	it.advance()
}

func (it *branchIterator) advance() {
	for {
		pValid := it.parent.Valid()
		dValid := len(it.dirty) > 0

		switch {
		case !pValid && !dValid:
			it.valid = false
			return
		case !pValid:
			if it.dirty[0].deleted {
				it.dirty = it.dirty[1:]
				continue
			}
			it.emitDirty()
			return
		case !dValid:
			it.key, it.value, it.valid = it.parent.Key(), it.parent.Value(), true
			it.parent.Next()
			return
		}

		cmp := bytes.Compare(it.parent.Key(), it.dirty[0].key)
		if !it.ascending {
			cmp = -cmp
		}
		switch {
		case cmp < 0: // parent key comes first and is not shadowed
			it.key, it.value, it.valid = it.parent.Key(), it.parent.Value(), true
			it.parent.Next()
			return
		case cmp > 0: // pending write comes first
			if it.dirty[0].deleted {
				it.dirty = it.dirty[1:]
				continue
			}
			it.emitDirty()
			return
		default: // same key, pending write shadows the parent
			it.parent.Next()
			if it.dirty[0].deleted {
				it.dirty = it.dirty[1:]
				continue
			}
			it.emitDirty()
			return
		}
	}
}

func (it *branchIterator) emitDirty() {
	it.key, it.value, it.valid = it.dirty[0].key, it.dirty[0].value, true
	it.dirty = it.dirty[1:]
}
