package store

import (
	dbm "github.com/cometbft/cometbft-db"
)

// Iterator is the subset of the cometbft-db iterator the engine relies on.
// It matches the iterator contract contracts see through their storage view.
type Iterator interface {
	Domain() (start, end []byte)
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// KVStore is an ordered byte-key store. Iterator and ReverseIterator cover
// [start, end); nil start/end means unbounded on that side.
type KVStore interface {
	Get(key []byte) []byte
	Has(key []byte) bool
	Set(key, value []byte)
	Delete(key []byte)
	Iterator(start, end []byte) Iterator
	ReverseIterator(start, end []byte) Iterator
}

// DBStore adapts a cometbft-db backend to the KVStore interface. The backend
// is trusted infrastructure, so backend errors become panics like they do in
// the SDK's dbadapter.
type DBStore struct {
	db dbm.DB
}

func NewDBStore(db dbm.DB) DBStore {
	return DBStore{db: db}
}

// NewMemStore returns a KVStore over a fresh in-memory backend.
func NewMemStore() DBStore {
	return NewDBStore(dbm.NewMemDB())
}

func (s DBStore) Get(key []byte) []byte {
	v, err := s.db.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

func (s DBStore) Has(key []byte) bool {
	ok, err := s.db.Has(key)
	if err != nil {
		panic(err)
	}
	return ok
}

func (s DBStore) Set(key, value []byte) {
	assertValidKey(key)
	assertValidValue(value)
	if err := s.db.Set(key, value); err != nil {
		panic(err)
	}
}

func (s DBStore) Delete(key []byte) {
	if err := s.db.Delete(key); err != nil {
		panic(err)
	}
}

func (s DBStore) Iterator(start, end []byte) Iterator {
	it, err := s.db.Iterator(start, end)
	if err != nil {
		panic(err)
	}
	return it
}

func (s DBStore) ReverseIterator(start, end []byte) Iterator {
	it, err := s.db.ReverseIterator(start, end)
	if err != nil {
		panic(err)
	}
	return it
}

func assertValidKey(key []byte) {
	if len(key) == 0 {
		panic("key is empty")
	}
}

func assertValidValue(value []byte) {
	if value == nil {
		panic("value is nil")
	}
}
