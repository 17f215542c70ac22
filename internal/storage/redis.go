package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const redisUpdateRetries = 16

// RedisStore keeps each record as a string value under "<prefix>:<key>".
// Update uses WATCH/MULTI and retries when another client wins the race.
type RedisStore[T any] struct {
	client *redis.Client
	prefix string
}

// RedisDB owns the client shared by every RedisStore.
type RedisDB struct {
	Client *redis.Client
}

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr, password string, db int) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", addr, err)
	}
	return &RedisDB{Client: client}, nil
}

// Start blocks until ctx is done and then closes the client.
func (d *RedisDB) Start(ctx context.Context) error {
	<-ctx.Done()
	return d.Client.Close()
}

func NewRedisStore[T any](client *redis.Client, prefix string) *RedisStore[T] {
	return &RedisStore[T]{client: client, prefix: prefix}
}

func (s *RedisStore[T]) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisStore[T]) Get(ctx context.Context, key string) (T, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		var zero T
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("get %s: %w", s.key(key), err)
	}
	return decode[T](data)
}

func (s *RedisStore[T]) Create(ctx context.Context, key string, v T) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.key(key), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create %s: %w", s.key(key), err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (s *RedisStore[T]) Put(ctx context.Context, key string, v T) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("put %s: %w", s.key(key), err)
	}
	return nil
}

func (s *RedisStore[T]) Update(ctx context.Context, key string, fn func(T) error) error {
	k := s.key(key)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		updated, err := applyUpdate(data, fn)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, updated, 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: too much contention", k)
}

func (s *RedisStore[T]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", s.key(key), err)
	}
	return nil
}

func (s *RedisStore[T]) Scan(ctx context.Context, match func(T) bool) ([]T, error) {
	var out []T
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			// Deleted between SCAN and GET.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", iter.Val(), err)
		}
		v, err := decode[T](data)
		if err != nil {
			return nil, err
		}
		if match == nil || match(v) {
			out = append(out, v)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.prefix, err)
	}
	return out, nil
}
