package store

import (
	"context"
	"sync"

	"github.com/viant/guaranty/service/dao"
	"github.com/viant/guaranty/service/dao/criteria"
)

// MemoryStore is a generic in-memory implementation of dao.Service.
// It keeps entities of type *T mapped by a comparable key K.
// The key is obtained from the supplied keySelector function.
//
// Entities are copied on the way in and out when a clone function is
// configured, so callers never share state with the store.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keySelector func(*T) K
	clone       func(*T) *T
	fields      func(*T) criteria.Fields
}

// Option customises a MemoryStore.
type Option[K comparable, T any] func(*MemoryStore[K, T])

// WithClone sets the copy function used on Save and Load.
func WithClone[K comparable, T any](clone func(*T) *T) Option[K, T] {
	return func(s *MemoryStore[K, T]) {
		s.clone = clone
	}
}

// WithFields sets the attribute accessor used by List filters.
func WithFields[K comparable, T any](fields func(*T) criteria.Fields) Option[K, T] {
	return func(s *MemoryStore[K, T]) {
		s.fields = fields
	}
}

// NewMemoryStore creates a new MemoryStore.
// keySelector extracts the entity key (usually the ID field) from a value.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, options ...Option[K, T]) *MemoryStore[K, T] {
	ret := &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = s.copy(v)
	return nil
}

// Load returns a record by key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return s.copy(v), nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, key)
	return nil
}

// List returns stored records matching parameters.
func (s *MemoryStore[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, v := range s.records {
		if s.fields != nil && !criteria.Match(s.fields(v), parameters) {
			continue
		}
		out = append(out, s.copy(v))
	}
	return out, nil
}

func (s *MemoryStore[K, T]) copy(v *T) *T {
	if s.clone == nil {
		return v
	}
	return s.clone(v)
}
