// Package store provides the durable key-value backends used by the question cache.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// KV is a flat string-keyed store of opaque values.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close() error
}

type Config struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// Open returns the store selected by cfg.Driver.
func Open(cfg Config, logger *zap.Logger) (KV, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver := strings.TrimSpace(strings.ToLower(cfg.Driver))
	if driver == "" {
		driver = DriverFile
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" && driver != DriverMemory {
		return nil, fmt.Errorf("%s store requires a path", driver)
	}

	logger = logger.With(zap.String("store", driver), zap.String("path", path))

	switch driver {
	case DriverFile:
		return OpenFile(path, logger)
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverBadger:
		return OpenBadger(BadgerConfig{Path: path, SyncWrites: true}, logger)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
