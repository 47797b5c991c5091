package cache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interview-rehearsal/internal/interview"
	"github.com/spigell/interview-rehearsal/internal/store"
)

type failingStore struct {
	getErr error
	putErr error
	raw    []byte
}

func (f *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.raw, f.raw != nil, nil
}

func (f *failingStore) Put(context.Context, string, []byte) error { return f.putErr }

type countingObserver struct {
	hits, misses, writeFailures int
}

func (o *countingObserver) CacheLookup(hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func (o *countingObserver) CacheWriteFailed() { o.writeFailures++ }

func sampleQuestions() interview.Questions {
	return interview.Questions{
		{ID: 1, Text: "Tell me about Go channels.", Kind: interview.KindTechnical, Difficulty: interview.DifficultyMedium, Context: "[Resume] Go"},
		{ID: 2, Text: "Reverse a string.", Kind: interview.KindCoding, Difficulty: interview.DifficultyEasy, InitialCode: "func reverse(s string) string {}"},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	obs := &countingObserver{}
	c := New(store.NewMemory(), zap.NewNop(), obs)

	if _, ok := c.Get(ctx, "fp"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	if err := c.Put(ctx, "fp", sampleQuestions()); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := c.Get(ctx, "fp")
	if !ok {
		t.Fatalf("expected hit")
	}
	if len(got) != 2 || got[1].InitialCode == "" || got[0].Context != "[Resume] Go" {
		t.Fatalf("unexpected cached value: %+v", got)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if obs.hits != 1 || obs.misses != 1 {
		t.Fatalf("unexpected observer counts: %+v", obs)
	}
}

func TestCacheReadErrorIsMiss(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := New(&failingStore{getErr: errors.New("disk gone")}, zap.New(core), nil)

	if _, ok := c.Get(context.Background(), "fp"); ok {
		t.Fatalf("expected miss when store fails")
	}

	if logs.FilterMessage("cache read failed, treating as miss").Len() != 1 {
		t.Fatalf("expected warning to be logged")
	}
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	c := New(&failingStore{raw: []byte("[]")}, nil, nil)

	if _, ok := c.Get(context.Background(), "fp"); ok {
		t.Fatalf("expected empty cached list to be treated as miss")
	}

	c = New(&failingStore{raw: []byte("{oops")}, nil, nil)
	if _, ok := c.Get(context.Background(), "fp"); ok {
		t.Fatalf("expected corrupt entry to be treated as miss")
	}
}

func TestCacheWriteFailureIsWarning(t *testing.T) {
	obs := &countingObserver{}
	cause := errors.New("read-only filesystem")
	c := New(&failingStore{putErr: cause}, nil, obs)

	err := c.Put(context.Background(), "fp", sampleQuestions())

	var warning *WriteWarning
	if !errors.As(err, &warning) {
		t.Fatalf("expected WriteWarning, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected warning to wrap the store error")
	}
	if obs.writeFailures != 1 {
		t.Fatalf("expected write failure to be observed")
	}
}
