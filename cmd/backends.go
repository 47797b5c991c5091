package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/interview-rehearsal/internal/ai/gemini"
	"github.com/spigell/interview-rehearsal/internal/ai/openai"
	"github.com/spigell/interview-rehearsal/internal/cascade"
	"github.com/spigell/interview-rehearsal/internal/secrets"
)

var (
	defaultGenerationModels = []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-flash-latest", "gemini-2.5-flash-lite"}
	defaultEvaluationModels = []string{"gemini-2.0-flash", "gemini-flash-latest", "gemini-2.5-flash-lite"}

	keyEnv = map[string]string{
		gemini.Provider: "GEMINI_API_KEY",
		openai.Provider: "OPENAI_API_KEY",
	}
)

func defaultBackends(models []string) []BackendConfig {
	out := make([]BackendConfig, 0, len(models))
	for _, model := range models {
		out = append(out, BackendConfig{Provider: gemini.Provider, Model: model})
	}
	return out
}

// backendFactory builds cascade candidates, sharing one Gemini client per API
// key and one rate limiter per remote model across every purpose.
type backendFactory struct {
	keyFiles map[string]string
	logger   *zap.Logger
	gemini   map[string]*gemini.Client
	limiters map[string]*rate.Limiter
}

func newBackendFactory(keyFiles map[string]string, logger *zap.Logger) *backendFactory {
	return &backendFactory{
		keyFiles: keyFiles,
		logger:   logger,
		gemini:   make(map[string]*gemini.Client),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Build returns the usable candidates in configured order. A backend that
// cannot be built is logged and skipped; with none left, callers degrade to
// their fallbacks.
func (f *backendFactory) Build(ctx context.Context, purpose string, configs []BackendConfig) []cascade.Backend {
	candidates := make([]cascade.Backend, 0, len(configs))
	for _, cfg := range configs {
		backend, err := f.build(ctx, cfg)
		if err != nil {
			f.logger.Warn("skipping backend",
				zap.String("purpose", purpose),
				zap.String("provider", cfg.Provider),
				zap.String("model", cfg.Model),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, cascade.RateLimited(backend, f.limiter(backend.Name(), cfg)))
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name())
	}
	f.logger.Debug("backends ready", zap.String("purpose", purpose), zap.Strings("candidates", names))

	return candidates
}

// limiter returns the limiter shared by every candidate calling the same
// model at the same endpoint. The first configuration with a positive rate
// creates it.
func (f *backendFactory) limiter(name string, cfg BackendConfig) *rate.Limiter {
	key := name + "|" + strings.TrimSpace(cfg.BaseURL)
	if l, ok := f.limiters[key]; ok {
		return l
	}
	l := cascade.PerMinute(cfg.RequestsPerMinute)
	if l != nil {
		f.limiters[key] = l
	}
	return l
}

func (f *backendFactory) build(ctx context.Context, cfg BackendConfig) (cascade.Backend, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	keyFile := cfg.APIKeyFile
	if keyFile == "" && cfg.APIKey == "" {
		keyFile = f.keyFiles[provider]
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  provider + " api key",
		File:  keyFile,
		Value: cfg.APIKey,
		Env:   keyEnv[provider],
	})
	if err != nil {
		return nil, err
	}

	switch provider {
	case gemini.Provider:
		client, ok := f.gemini[apiKey]
		if !ok {
			client, err = gemini.NewClient(ctx, apiKey, f.logger)
			if err != nil {
				return nil, err
			}
			f.gemini[apiKey] = client
		}
		return client.Model(cfg.Model), nil
	case openai.Provider:
		client, err := openai.New(openai.Config{APIKey: apiKey, BaseURL: cfg.BaseURL, Model: cfg.Model}, f.logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}
