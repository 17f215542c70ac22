package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrExists          = errors.New("record already exists")
	ErrConditionFailed = errors.New("condition not met")
)

// Storer is a typed key-value table. Implementations must make Update atomic
// with respect to every other write on the same key.
type Storer[T any] interface {
	// Get returns the record stored under key or ErrNotFound.
	Get(ctx context.Context, key string) (T, error)
	// Create stores v under key if nothing is stored there yet, otherwise ErrExists.
	Create(ctx context.Context, key string, v T) error
	// Put stores v under key unconditionally.
	Put(ctx context.Context, key string, v T) error
	// Update reads the record under key, hands it to fn and writes back the
	// result. If fn returns an error nothing is written and the error is
	// returned as-is, so fn doubles as the precondition.
	Update(ctx context.Context, key string, fn func(T) error) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Scan returns every record for which match returns true.
	Scan(ctx context.Context, match func(T) bool) ([]T, error)
}

func encode[T any](v T) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling record: %w", err)
	}
	return b, nil
}

func decode[T any](b []byte) (T, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("unmarshalling record: %w", err)
	}
	return v, nil
}

// applyUpdate decodes a stored record, runs fn on it and re-encodes it.
func applyUpdate[T any](data []byte, fn func(T) error) ([]byte, error) {
	v, err := decode[T](data)
	if err != nil {
		return nil, err
	}
	if err := fn(v); err != nil {
		return nil, err
	}
	return encode(v)
}
