package store

import (
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/AdelJumaily/Odin/backend/pkg/errors"
)

// The kv namespace is a plain cache surface. The fallback graph backend
// keeps its per-project adjacency lists here.

func kvKey(key string) string {
	return "kv:" + key
}

// KVSet stores raw bytes under key
func (s *Store) KVSet(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(kvKey(key)), value)
	})
	if err != nil {
		return errors.NewStoreFailed("kv set", err)
	}
	return nil
}

// KVGet returns the bytes stored under key, or nil when absent
func (s *Store) KVGet(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(kvKey(key)))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreFailed("kv get", err)
	}
	return value, nil
}
