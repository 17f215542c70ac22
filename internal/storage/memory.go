package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps encoded records in a map. Records are stored encoded so
// callers never share memory with the table, the same as with a real backend.
type MemoryStore[T any] struct {
	records map[string][]byte

	mu sync.Mutex
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[string][]byte{}}
}

func (s *MemoryStore[T]) Get(_ context.Context, key string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.records[key]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return decode[T](data)
}

func (s *MemoryStore[T]) Create(_ context.Context, key string, v T) error {
	data, err := encode(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; ok {
		return ErrExists
	}
	s.records[key] = data
	return nil
}

func (s *MemoryStore[T]) Put(_ context.Context, key string, v T) error {
	data, err := encode(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = data
	return nil
}

func (s *MemoryStore[T]) Update(_ context.Context, key string, fn func(T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.records[key]
	if !ok {
		return ErrNotFound
	}

	updated, err := applyUpdate(data, fn)
	if err != nil {
		return err
	}
	s.records[key] = updated
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

func (s *MemoryStore[T]) Scan(_ context.Context, match func(T) bool) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []T
	for _, k := range keys {
		v, err := decode[T](s.records[k])
		if err != nil {
			return nil, err
		}
		if match == nil || match(v) {
			out = append(out, v)
		}
	}
	return out, nil
}
