// Package badgerstore keeps serialized models in an embedded BadgerDB.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/cognicore/lda/pkg/lda/store"
)

const modelKeyPrefix = "model:"

// Store implements store.Store using BadgerDB.
type Store struct {
	db    *badger.DB
	owned bool
}

// New wraps an already opened database. Close leaves db open.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) a database in dir. An empty dir keeps everything
// in memory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, owned: true}, nil
}

// Close closes the database if Open created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func key(id string) []byte {
	return []byte(modelKeyPrefix + id)
}

// Save stores blob under id.
func (s *Store) Save(ctx context.Context, id string, blob []byte) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key(id), blob); err != nil {
			return fmt.Errorf("set model: %w", err)
		}
		return nil
	})
}

// Load returns the blob stored under id.
func (s *Store) Load(ctx context.Context, id string) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get model: %w", err)
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// Delete removes id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key(id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete model: %w", err)
		}
		return nil
	})
}

// List returns the IDs with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := key(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids = append(ids, string(it.Item().Key()[len(modelKeyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
