// Package store is the storage collaborator of the editor: a small
// key-value contract with memory, file, Redis and SQLite drivers.
//
// Keys are plain strings. Writes are last-write-wins; there is no
// versioning and no transaction spanning more than one key.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-livepreview/internal/config"
)

// Sentinel errors for store operations.
var (
	ErrNotFound      = errors.New("key not found")
	ErrEmptyKey      = errors.New("key cannot be empty")
	ErrClosed        = errors.New("store is closed")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Store persists string-keyed values.
type Store interface {
	// Get returns the value of key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the value of key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns the keys starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Open creates the store selected by cfg.Driver. The empty driver is memory.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return NewMemory(), nil
	case config.DriverFile:
		return NewFile(cfg.Path)
	case config.DriverRedis:
		s := NewRedis(cfg.Addr, cfg.Password, cfg.DB, WithPrefix(cfg.Prefix))
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
