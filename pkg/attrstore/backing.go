// Package attrstore implements the C2 attribute store contract from the
// TinyMUSH core spec: per-(object, attribute#) text values with encoded
// owner/flag metadata, a one-slot directory cache in front of an opaque
// key/value backing store (every mutation is written through before the
// call returns; no write is deferred), and the directory-based enumeration scheme that lets
// an object's attributes be listed without scanning the backing store.
package attrstore

import "github.com/tinymush/coremush/pkg/gamedb"

// Key addresses a single attribute slot.
type Key struct {
	Obj gamedb.DBRef
	Num int
}

// BackingStore is the minimal key/value contract the attribute store
// commits through (spec §4.2, §6). Implementations may batch writes
// under a process-wide lock; Get must reflect the most recent completed
// Put/Del for its key.
type BackingStore interface {
	Put(key Key, value []byte) error
	Del(key Key) error
	Get(key Key) ([]byte, bool, error)
	Sync() error
}

// memBackingStore is a trivial in-memory BackingStore, useful for tests
// and for embedders that don't need cross-process durability.
type memBackingStore struct {
	m map[Key][]byte
}

// NewMemBackingStore returns a BackingStore backed by a plain map.
func NewMemBackingStore() BackingStore {
	return &memBackingStore{m: make(map[Key][]byte)}
}

func (b *memBackingStore) Put(key Key, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	b.m[key] = cp
	return nil
}

func (b *memBackingStore) Del(key Key) error {
	delete(b.m, key)
	return nil
}

func (b *memBackingStore) Get(key Key) ([]byte, bool, error) {
	v, ok := b.m[key]
	return v, ok, nil
}

func (b *memBackingStore) Sync() error { return nil }
