package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-rehearsal/internal/cache"
	"github.com/spigell/interview-rehearsal/internal/cascade"
	"github.com/spigell/interview-rehearsal/internal/catalog"
	"github.com/spigell/interview-rehearsal/internal/evaluator"
	"github.com/spigell/interview-rehearsal/internal/generator"
	"github.com/spigell/interview-rehearsal/internal/logger"
	"github.com/spigell/interview-rehearsal/internal/metrics"
	"github.com/spigell/interview-rehearsal/internal/schema"
	"github.com/spigell/interview-rehearsal/internal/store"
)

const metricsShutdownTimeout = 5 * time.Second

// application holds everything a command needs. close releases the store and
// stops the metrics endpoint.
type application struct {
	config    *Config
	logger    *zap.Logger
	store     store.KV
	cache     *cache.Cache
	generator *generator.Generator
	evaluator *evaluator.Evaluator

	metricsServer *http.Server
}

func newLogger() (*zap.Logger, *Config, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("getting a config: %w", err)
	}

	return log, config, nil
}

func newApplication(ctx context.Context) (*application, error) {
	log, config, err := newLogger()
	if err != nil {
		return nil, err
	}

	log.Debug("starting", zap.String("version", version), zap.String("cache_driver", config.Cache.Driver))

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	kv, err := store.Open(config.Cache, log)
	if err != nil {
		return nil, fmt.Errorf("opening cache store: %w", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		kv.Close()
		return nil, err
	}

	decoder, err := schema.New()
	if err != nil {
		kv.Close()
		return nil, err
	}

	runner := cascade.NewRunner(config.Backends.Timeout, log,
		cascade.WithObserver(m),
		cascade.WithMaxLogLength(config.Backends.MaxLogLength),
	)

	generation := config.Backends.Generation
	if len(generation) == 0 {
		generation = defaultBackends(defaultGenerationModels)
	}
	evaluation := config.Backends.Evaluation
	if len(evaluation) == 0 {
		evaluation = defaultBackends(defaultEvaluationModels)
	}

	factory := newBackendFactory(config.KeyFiles, log)
	questionCache := cache.New(kv, log, m)

	gen, err := generator.New(generator.Deps{
		Cache:      questionCache,
		Catalog:    cat,
		Runner:     runner,
		Candidates: factory.Build(ctx, "generation", generation),
		Decoder:    decoder,
		Logger:     log,
		Observer:   m,
	})
	if err != nil {
		kv.Close()
		return nil, err
	}

	eval, err := evaluator.New(evaluator.Deps{
		Runner:     runner,
		Candidates: factory.Build(ctx, "evaluation", evaluation),
		Decoder:    decoder,
		Logger:     log,
		Observer:   m,
	})
	if err != nil {
		kv.Close()
		return nil, err
	}

	a := &application{
		config:    config,
		logger:    log,
		store:     kv,
		cache:     questionCache,
		generator: gen,
		evaluator: eval,
	}

	if listen := config.Metrics.Listen; listen != "" {
		a.serveMetrics(listen, registry)
	}

	return a, nil
}

func (a *application) serveMetrics(listen string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	a.metricsServer = &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("listen", listen))
}

func (a *application) close() {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("stopping metrics endpoint", zap.Error(err))
		}
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing cache store", zap.Error(err))
	}

	stats := a.cache.Stats()
	a.logger.Debug("cache usage", zap.Int64("hits", stats.Hits), zap.Int64("misses", stats.Misses))
	_ = a.logger.Sync()
}
