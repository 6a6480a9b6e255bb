package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

// Store wraps a BadgerDB instance holding documents, chunks, entities,
// relations, ingest jobs, and the key-value space used by the graph
// fallback backend. Values are JSON under typed key prefixes; project
// scoping is part of the key layout.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// badgerLoggerAdapter adapts zap to the badger.Logger interface
type badgerLoggerAdapter struct {
	logger *zap.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens the store at dir, creating the directory if needed
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	opts := badger.DefaultOptions(dir)
	return open(opts)
}

// OpenInMemory opens an in-memory store, used by tests
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	log := logger.Get()
	opts.Logger = &badgerLoggerAdapter{logger: log}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return &Store{db: db, logger: log}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx exposes the typed record operations inside one transaction. All writes
// issued through a Tx commit or discard together, which is what gives the
// indexing orchestrator its single unit of work.
type Tx struct {
	txn *badger.Txn
}

// Update runs fn in a read-write transaction
func (s *Store) Update(fn func(tx *Tx) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// View runs fn in a read-only transaction
func (s *Store) View(fn func(tx *Tx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

func (t *Tx) putJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return t.txn.Set([]byte(key), data)
}

// getJSON decodes the value at key into out; returns badger.ErrKeyNotFound
// when the key is absent
func (t *Tx) getJSON(key string, out any) error {
	item, err := t.txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// errStopIteration ends a prefix scan early without failing it
var errStopIteration = fmt.Errorf("stop iteration")

// scanPrefix visits every value under prefix in key order. The visit
// callback may return errStopIteration to end the scan.
func (t *Tx) scanPrefix(prefix string, visit func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			return visit(val)
		})
		if err == errStopIteration {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeJSON(val []byte, out any) error {
	return json.Unmarshal(val, out)
}
