// Package cache is the read-through, write-back store of generated question sets.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spigell/interview-rehearsal/internal/interview"
)

// Store is the durable key-value collaborator behind the cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Observer receives cache outcomes; implemented by the metrics package.
type Observer interface {
	CacheLookup(hit bool)
	CacheWriteFailed()
}

// WriteWarning reports a failed write. Callers log it and carry on with
// the result they already have.
type WriteWarning struct {
	Key string
	Err error
}

func (w *WriteWarning) Error() string {
	return fmt.Sprintf("cache write for %s failed: %v", w.Key, w.Err)
}

func (w *WriteWarning) Unwrap() error { return w.Err }

type Stats struct {
	Hits   int64
	Misses int64
}

// Cache stores question sets by fingerprint. Entries never expire. Racing
// writers for the same key are not coordinated; the last write wins.
type Cache struct {
	store    Store
	logger   *zap.Logger
	observer Observer

	hits   atomic.Int64
	misses atomic.Int64
}

func New(store Store, logger *zap.Logger, observer Observer) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: store, logger: logger, observer: observer}
}

// Get returns the stored questions for key. Store and decoding errors are
// logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (interview.Questions, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss", zap.String("fingerprint", key), zap.Error(err))
		ok = false
	}

	var questions interview.Questions
	if ok {
		if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
			c.logger.Warn("cache entry is unreadable, treating as miss", zap.String("fingerprint", key), zap.Error(err))
			ok = false
		}
	}

	c.record(ok)
	if !ok {
		return nil, false
	}

	return questions, true
}

// Put serializes and stores questions under key.
func (c *Cache) Put(ctx context.Context, key string, questions interview.Questions) error {
	raw, err := json.Marshal(questions)
	if err == nil {
		err = c.store.Put(ctx, key, raw)
	}
	if err != nil {
		if c.observer != nil {
			c.observer.CacheWriteFailed()
		}
		return &WriteWarning{Key: key, Err: err}
	}
	return nil
}

func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *Cache) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.observer != nil {
		c.observer.CacheLookup(hit)
	}
}
