package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cognicore/lda/pkg/lda/store"
)

// Store is an in-memory implementation of store.Store for tests and
// single-process use.
type Store struct {
	mu     sync.RWMutex
	models map[string][]byte
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{models: make(map[string][]byte)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Save stores a copy of blob under id.
func (s *Store) Save(ctx context.Context, id string, blob []byte) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.models[id] = append([]byte(nil), blob...)
	return nil
}

// Load returns a copy of the blob stored under id.
func (s *Store) Load(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.models[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

// Delete removes id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.models, id)
	return nil
}

// List returns the IDs with the given prefix in sorted order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id := range s.models {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
