package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/interview-rehearsal/internal/cascade"
)

func TestBackendFactoryBuild(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "env-openai-key")

	keyFile := filepath.Join(t.TempDir(), "gemini")
	if err := os.WriteFile(keyFile, []byte("file-gemini-key\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	factory := newBackendFactory(map[string]string{"gemini": keyFile}, zap.NewNop())

	candidates := factory.Build(context.Background(), "generation", []BackendConfig{
		{Provider: "gemini", Model: "gemini-2.5-flash"},
		{Provider: "gemini", Model: "gemini-2.0-flash", RequestsPerMinute: 10},
		{Provider: "openai", Model: "gpt-4o-mini", BaseURL: "http://localhost:11434/v1"},
		{Provider: "anthropic", Model: "anything", APIKey: "k"},
	})

	want := []string{"gemini/gemini-2.5-flash", "gemini/gemini-2.0-flash", "openai/gpt-4o-mini"}
	if len(candidates) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(candidates))
	}
	for i, name := range want {
		if candidates[i].Name() != name {
			t.Fatalf("candidate %d: expected %s, got %s", i, name, candidates[i].Name())
		}
	}

	if len(factory.gemini) != 1 {
		t.Fatalf("expected one shared gemini client, got %d", len(factory.gemini))
	}
}

func TestBackendFactorySharesLimiterAcrossPurposes(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")

	factory := newBackendFactory(nil, zap.NewNop())
	shared := BackendConfig{Provider: "gemini", Model: "gemini-2.0-flash", RequestsPerMinute: 1}

	generation := factory.Build(context.Background(), "generation", []BackendConfig{shared})
	evaluation := factory.Build(context.Background(), "evaluation", []BackendConfig{
		shared,
		{Provider: "gemini", Model: "gemini-2.5-flash-lite", RequestsPerMinute: 1},
	})
	if len(generation) != 1 || len(evaluation) != 2 {
		t.Fatalf("unexpected candidates: %d generation, %d evaluation", len(generation), len(evaluation))
	}

	if len(factory.limiters) != 2 {
		t.Fatalf("expected one limiter per model, got %d", len(factory.limiters))
	}

	limiter := factory.limiters["gemini/gemini-2.0-flash|"]
	if limiter == nil {
		t.Fatalf("no limiter stored for gemini/gemini-2.0-flash: %v", factory.limiters)
	}
	if !limiter.Allow() {
		t.Fatalf("expected a fresh limiter to allow one call")
	}

	// The token is spent, so the evaluation candidate fails locally.
	_, err := evaluation[0].Invoke(context.Background(), cascade.Input{})
	if !errors.Is(err, cascade.ErrQuota) {
		t.Fatalf("expected quota error from the shared limiter, got %v", err)
	}
}

func TestBackendFactorySkipsMissingKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	factory := newBackendFactory(nil, zap.NewNop())
	candidates := factory.Build(context.Background(), "evaluation", defaultBackends(defaultEvaluationModels))
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates without an api key, got %d", len(candidates))
	}
}

func TestDefaultBackendsKeepOrder(t *testing.T) {
	got := defaultBackends(defaultGenerationModels)
	if len(got) != 4 || got[0].Model != "gemini-2.5-flash" || got[3].Model != "gemini-2.5-flash-lite" {
		t.Fatalf("unexpected default order: %+v", got)
	}
}
