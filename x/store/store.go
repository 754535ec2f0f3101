package store

import (
	"context"
	"errors"
)

var (
	ErrClosed   = errors.New("store: closed")
	ErrReadOnly = errors.New("store: read-only transaction")
)

// Reader is a consistent read view of the store.
type Reader interface {
	// Get returns the value under key in bucket, or nil if absent.
	Get(bucket, key []byte) ([]byte, error)
}

// Tx is a read-write view. Writes become visible only if the enclosing Update commits.
type Tx interface {
	Reader
	Put(bucket, key, value []byte) error
	Delete(bucket, key []byte) error
}

// Store executes each Update as one atomic, serially ordered unit: fn's writes are
// committed together when it returns nil and discarded when it returns an error.
type Store interface {
	View(ctx context.Context, fn func(Reader) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // memory|bolt
	Path    string `mapstructure:"path"    yaml:"path"`
}

const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
)

func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Path:    "data/rootchain.db",
	}
}

// Open returns the backend described by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendBolt:
		return OpenBolt(cfg.Path)
	default:
		return nil, errors.New("store: unknown backend " + cfg.Backend)
	}
}
