package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PgDB wraps a pgx connection pool shared by every PgStore table.
type PgDB struct {
	Pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, verifies the connection and applies any
// pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PgDB, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PgDB{Pool: pool}, nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Start blocks until ctx is done and then closes the pool.
func (d *PgDB) Start(ctx context.Context) error {
	<-ctx.Done()
	d.Pool.Close()
	return nil
}

// PgStore is a table of JSONB documents sharing the records table with
// other kinds. Update locks the row with SELECT ... FOR UPDATE.
type PgStore[T any] struct {
	db   *PgDB
	kind string
}

func NewPgStore[T any](db *PgDB, kind string) *PgStore[T] {
	return &PgStore[T]{db: db, kind: kind}
}

func (s *PgStore[T]) Get(ctx context.Context, key string) (T, error) {
	var data []byte
	err := s.db.Pool.QueryRow(ctx,
		`SELECT doc FROM records WHERE kind = $1 AND key = $2`, s.kind, key).Scan(&data)
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("get %s/%s: %w", s.kind, key, err)
	}
	return decode[T](data)
}

func (s *PgStore[T]) Create(ctx context.Context, key string, v T) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	tag, err := s.db.Pool.Exec(ctx,
		`INSERT INTO records (kind, key, doc) VALUES ($1, $2, $3) ON CONFLICT (kind, key) DO NOTHING`,
		s.kind, key, data)
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", s.kind, key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

func (s *PgStore[T]) Put(ctx context.Context, key string, v T) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	_, err = s.db.Pool.Exec(ctx, `
	INSERT INTO records (kind, key, doc) VALUES ($1, $2, $3)
	ON CONFLICT (kind, key)
	DO UPDATE SET doc = $3, updated_at = NOW()`,
		s.kind, key, data)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s.kind, key, err)
	}
	return nil
}

func (s *PgStore[T]) Update(ctx context.Context, key string, fn func(T) error) error {
	return pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		var data []byte
		err := tx.QueryRow(ctx,
			`SELECT doc FROM records WHERE kind = $1 AND key = $2 FOR UPDATE`, s.kind, key).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock %s/%s: %w", s.kind, key, err)
		}

		updated, err := applyUpdate(data, fn)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE records SET doc = $3, updated_at = NOW() WHERE kind = $1 AND key = $2`,
			s.kind, key, updated)
		if err != nil {
			return fmt.Errorf("update %s/%s: %w", s.kind, key, err)
		}
		return nil
	})
}

func (s *PgStore[T]) Delete(ctx context.Context, key string) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM records WHERE kind = $1 AND key = $2`, s.kind, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", s.kind, key, err)
	}
	return nil
}

func (s *PgStore[T]) Scan(ctx context.Context, match func(T) bool) ([]T, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT doc FROM records WHERE kind = $1 ORDER BY key`, s.kind)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.kind, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.kind, err)
		}
		v, err := decode[T](data)
		if err != nil {
			return nil, err
		}
		if match == nil || match(v) {
			out = append(out, v)
		}
	}
	return out, rows.Err()
}
