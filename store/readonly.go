package store

// ErrReadOnly is the panic value raised when a mutating operation hits a
// read-only view. The wasm keeper recovers it and reports a host violation
// instead of silently ignoring the write.
type ErrReadOnly struct{}

func (e ErrReadOnly) Error() string { return "store is read-only" }

// ReadOnly wraps a store and rejects all mutations. Used for contract queries.
type ReadOnly struct {
	parent KVStore
}

var _ KVStore = ReadOnly{}

func NewReadOnly(parent KVStore) ReadOnly {
	return ReadOnly{parent: parent}
}

func (s ReadOnly) Get(key []byte) []byte { return s.parent.Get(key) }
func (s ReadOnly) Has(key []byte) bool   { return s.parent.Has(key) }

func (s ReadOnly) Set([]byte, []byte) { panic(ErrReadOnly{}) }
func (s ReadOnly) Delete([]byte)      { panic(ErrReadOnly{}) }

func (s ReadOnly) Iterator(start, end []byte) Iterator {
	return s.parent.Iterator(start, end)
}

func (s ReadOnly) ReverseIterator(start, end []byte) Iterator {
	return s.parent.ReverseIterator(start, end)
}
