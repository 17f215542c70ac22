package storage

import (
	"context"
	"fmt"
	"log/slog"

	bbolt "go.etcd.io/bbolt"
)

// BoltDB wraps a bbolt database file shared by every BoltStore table.
type BoltDB struct {
	bolt *bbolt.DB
}

// OpenBolt opens or creates the bbolt database at path.
func OpenBolt(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bolt database %s: %w", path, err)
	}
	return &BoltDB{bolt: db}, nil
}

// Start blocks until ctx is done and then closes the database.
func (d *BoltDB) Start(ctx context.Context) error {
	<-ctx.Done()
	return d.Close()
}

func (d *BoltDB) Close() error {
	if d.bolt == nil {
		return nil
	}
	slog.Info("closing bolt database", "path", d.bolt.Path())
	return d.bolt.Close()
}

// BoltStore is a table backed by a single bbolt bucket. bbolt serialises
// write transactions, which is what makes Update atomic.
type BoltStore[T any] struct {
	db     *BoltDB
	bucket []byte
}

func NewBoltStore[T any](db *BoltDB, bucket string) (*BoltStore[T], error) {
	err := db.bolt.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating bucket %s: %w", bucket, err)
	}

	return &BoltStore[T]{db: db, bucket: []byte(bucket)}, nil
}

func (s *BoltStore[T]) Get(_ context.Context, key string) (T, error) {
	var data []byte
	err := s.db.bolt.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](data)
}

func (s *BoltStore[T]) Create(_ context.Context, key string, v T) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return s.db.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get([]byte(key)) != nil {
			return ErrExists
		}
		return b.Put([]byte(key), data)
	})
}

func (s *BoltStore[T]) Put(_ context.Context, key string, v T) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return s.db.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), data)
	})
}

func (s *BoltStore[T]) Update(_ context.Context, key string, fn func(T) error) error {
	return s.db.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		updated, err := applyUpdate(data, fn)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), updated)
	})
}

func (s *BoltStore[T]) Delete(_ context.Context, key string) error {
	return s.db.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

func (s *BoltStore[T]) Scan(_ context.Context, match func(T) bool) ([]T, error) {
	var out []T
	err := s.db.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, data []byte) error {
			v, err := decode[T](data)
			if err != nil {
				return fmt.Errorf("record %s: %w", k, err)
			}
			if match == nil || match(v) {
				out = append(out, v)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
