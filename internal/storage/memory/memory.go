package memory

import (
	"context"
	"sync"

	"shoplist/internal/storage"
)

// Store keeps values in process memory. Nothing survives a restart.
type Store struct {
	mu     sync.Mutex
	values map[string][]byte
	puts   int
}

func New() *Store {
	return &Store{values: map[string][]byte{}}
}

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	s.puts++
	return nil
}

// Puts returns how many writes the store has accepted.
func (s *Store) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
