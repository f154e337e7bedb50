package artifact

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Kind names an artifact family.
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var (
	// ErrCacheMiss reports a lookup for a key that was never written.
	ErrCacheMiss = errors.New("artifact cache miss")
	// ErrKindMismatch reports a stored value whose Go type differs from the requested one.
	ErrKindMismatch = errors.New("artifact type mismatch")
)

// Key returns the cache key for kind and name.
func Key(kind Kind, name string) string {
	return string(kind) + "-" + name
}

// Store is the process-wide artifact exchange. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]any)}
}

// Put stores or overwrites the entry for kind and name.
func (s *Store) Put(kind Kind, name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Key(kind, name)] = value
}

// Get returns the entry for kind and name or ErrCacheMiss.
func (s *Store) Get(kind Kind, name string) (any, error) {
	key := Key(kind, name)
	s.mu.RLock()
	value, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}
	return value, nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns every stored key in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Lookup fetches an entry and asserts its Go type.
func Lookup[T any](s *Store, kind Kind, name string) (T, error) {
	var zero T
	value, err := s.Get(kind, name)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrKindMismatch, Key(kind, name), value)
	}
	return typed, nil
}
