package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// File keeps every entry in a single pretty-printed JSON document of the form
// {"<key>": <value>, ...}. Values must be valid JSON. Reads are served from an
// in-memory snapshot; each write rewrites the document through a temp file.
type File struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]json.RawMessage
	closed  bool
}

// OpenFile loads the document at path. A missing file starts an empty store;
// an unreadable or corrupt one is logged and treated as empty.
func OpenFile(path string, logger *zap.Logger) (*File, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &File{
		path:    path,
		logger:  logger,
		entries: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		logger.Warn("reading cache file, starting empty", zap.Error(err))
		return f, nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}

	if err := json.Unmarshal(data, &f.entries); err != nil {
		logger.Warn("parsing cache file, starting empty", zap.Error(err))
		f.entries = make(map[string]json.RawMessage)
	}

	return f, nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, false, ErrClosed
	}
	value, ok := f.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Put records the value in memory and rewrites the document. The in-memory
// entry is kept even when the rewrite fails.
func (f *File) Put(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("file store value for %q is not valid json", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	f.entries[key] = append(json.RawMessage(nil), value...)
	return f.flushLocked()
}

func (f *File) Len(context.Context) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries), nil
}

func (f *File) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.entries = make(map[string]json.RawMessage)
	return f.flushLocked()
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *File) flushLocked() error {
	data, err := json.MarshalIndent(f.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}
