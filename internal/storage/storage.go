// Package storage provides the durable key-value slots that hold the
// conversation transcript between runs.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Read when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a small string key-value capability. Implementations must be
// safe for concurrent use. Remove on a missing key is not an error.
type Storage interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

type Driver string

const (
	DriverFile   Driver = "file"
	DriverSQLite Driver = "sqlite"
	DriverRedis  Driver = "redis"
	DriverMemory Driver = "memory"
)

// Options selects and configures a Storage driver.
type Options struct {
	Driver Driver
	// Path is the directory for the file driver and the database file for
	// the sqlite driver.
	Path string
	// URL is the redis connection URL.
	URL string
}

// Open constructs the Storage described by opts.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Driver {
	case DriverFile, "":
		return NewFileStorage(opts.Path)
	case DriverSQLite:
		return NewSQLiteStorage(ctx, opts.Path)
	case DriverRedis:
		return NewRedisStorage(ctx, opts.URL)
	case DriverMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
