package boltstore

import (
	"fmt"

	"github.com/tinymush/coremush/pkg/attrstore"
	bbolt "go.etcd.io/bbolt"
)

// AttrBacking adapts a Store's bolt handle to attrstore.BackingStore, so
// pkg/attrstore.Store can commit attribute writes straight through to
// bbolt instead of holding them only in the in-memory Object.Attrs slice.
type AttrBacking struct {
	store *Store
}

// Attrs returns s's attribute-bucket backing store.
func (s *Store) Attrs() *AttrBacking {
	return &AttrBacking{store: s}
}

func (a *AttrBacking) Put(key attrstore.Key, value []byte) error {
	return a.store.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAttrs).Put(attrKey(key.Obj, key.Num), value)
	})
}

func (a *AttrBacking) Del(key attrstore.Key) error {
	return a.store.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAttrs).Delete(attrKey(key.Obj, key.Num))
	})
}

func (a *AttrBacking) Get(key attrstore.Key) ([]byte, bool, error) {
	var value []byte
	err := a.store.bolt.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketAttrs).Get(attrKey(key.Obj, key.Num))
		if v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("boltstore: get attr #%d/%d: %w", key.Obj, key.Num, err)
	}
	return value, value != nil, nil
}

func (a *AttrBacking) Sync() error {
	return nil
}
