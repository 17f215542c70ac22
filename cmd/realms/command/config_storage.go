package command

import (
	"context"
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-service"
	"github.com/theUltimateZoltan/Realms/internal/game"
	"github.com/theUltimateZoltan/Realms/internal/storage"
)

const storageConnectTimeout = 10 * time.Second

type StorageBackend int

const (
	StorageBackendMemory StorageBackend = iota
	StorageBackendBolt
	StorageBackendPostgres
	StorageBackendRedis
)

func (b *StorageBackend) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "memory":
		*b = StorageBackendMemory
	case "bolt":
		*b = StorageBackendBolt
	case "postgres":
		*b = StorageBackendPostgres
	case "redis":
		*b = StorageBackendRedis
	default:
		return fmt.Errorf("unknown storage backend: %s", text)
	}
	return nil
}

type StorageConfig struct {
	Backend StorageBackend `json:"backend"`

	// bolt
	Path string `json:"path,omitempty"`
	// postgres
	Dsn string `json:"dsn,omitempty"`
	// redis
	Addr     string `json:"addr,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	switch c.Backend {
	case StorageBackendBolt:
		if c.Path == "" {
			el.Add(fmt.Errorf("storage path is required for bolt"))
		}
	case StorageBackendPostgres:
		if c.Dsn == "" {
			el.Add(fmt.Errorf("storage dsn is required for postgres"))
		}
	case StorageBackendRedis:
		if c.Addr == "" {
			el.Add(fmt.Errorf("storage addr is required for redis"))
		}
		if c.DB < 0 {
			el.Add(fmt.Errorf("storage db must not be negative"))
		}
	}

	return el.Err()
}

// stores holds the state tables and the worker owning their connection, if
// the backend has one.
type stores struct {
	players storage.Storer[*game.Player]
	enemies storage.Storer[*game.EnemyInstance]
	owner   service.Worker
}

func (c *StorageConfig) buildStores() (*stores, error) {
	switch c.Backend {
	case StorageBackendMemory:
		return &stores{
			players: storage.NewMemoryStore[*game.Player](),
			enemies: storage.NewMemoryStore[*game.EnemyInstance](),
		}, nil

	case StorageBackendBolt:
		db, err := storage.OpenBolt(c.Path)
		if err != nil {
			return nil, err
		}
		players, err := storage.NewBoltStore[*game.Player](db, "players")
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		enemies, err := storage.NewBoltStore[*game.EnemyInstance](db, "enemies")
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &stores{players: players, enemies: enemies, owner: db}, nil

	case StorageBackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), storageConnectTimeout)
		defer cancel()

		db, err := storage.OpenPostgres(ctx, c.Dsn)
		if err != nil {
			return nil, err
		}
		return &stores{
			players: storage.NewPgStore[*game.Player](db, "player"),
			enemies: storage.NewPgStore[*game.EnemyInstance](db, "enemy"),
			owner:   db,
		}, nil

	case StorageBackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), storageConnectTimeout)
		defer cancel()

		db, err := storage.OpenRedis(ctx, c.Addr, c.Password, c.DB)
		if err != nil {
			return nil, err
		}
		return &stores{
			players: storage.NewRedisStore[*game.Player](db.Client, "player"),
			enemies: storage.NewRedisStore[*game.EnemyInstance](db.Client, "enemy"),
			owner:   db,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %v", c.Backend)
	}
}
