// Package generator turns a resume into an interview question set. It reads
// the cache first, then asks live backends, and finally falls back to the
// static catalog, so a valid request always gets questions back.
package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-rehearsal/internal/cache"
	"github.com/spigell/interview-rehearsal/internal/cascade"
	"github.com/spigell/interview-rehearsal/internal/catalog"
	"github.com/spigell/interview-rehearsal/internal/fingerprint"
	"github.com/spigell/interview-rehearsal/internal/interview"
	"github.com/spigell/interview-rehearsal/internal/logger"
	"github.com/spigell/interview-rehearsal/internal/prompts"
	"github.com/spigell/interview-rehearsal/internal/schema"
)

// Source names the tier that produced a question set.
type Source string

const (
	SourceCache   Source = "cache"
	SourceBackend Source = "backend"
	SourceCatalog Source = "catalog"
)

// Observer is notified of the source of every returned question set.
type Observer interface {
	Generated(source string)
}

type Deps struct {
	// Cache is optional; without it every request goes to the backends.
	Cache      *cache.Cache
	Catalog    *catalog.Catalog
	Runner     *cascade.Runner
	Candidates []cascade.Backend
	Decoder    *schema.Decoder
	Logger     *zap.Logger
	Observer   Observer
}

type Generator struct {
	cache      *cache.Cache
	catalog    *catalog.Catalog
	runner     *cascade.Runner
	candidates []cascade.Backend
	decoder    *schema.Decoder
	logger     *zap.Logger
	observer   Observer
}

func New(deps Deps) (*Generator, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if deps.Runner == nil {
		return nil, errors.New("cascade runner is required")
	}
	if deps.Decoder == nil {
		return nil, errors.New("schema decoder is required")
	}

	return &Generator{
		cache:      deps.Cache,
		catalog:    deps.Catalog,
		runner:     deps.Runner,
		candidates: append([]cascade.Backend(nil), deps.Candidates...),
		decoder:    deps.Decoder,
		logger:     logger.WithFields(deps.Logger),
		observer:   deps.Observer,
	}, nil
}

// Generate returns questions for req. The only error it returns is a
// *interview.ClientInputError for a malformed request.
func (g *Generator) Generate(ctx context.Context, req interview.GenerationRequest) (interview.Questions, Source, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	key := fingerprint.Derive(req)
	log := logger.WithRequest(g.logger, uuid.NewString(), key)
	log.Debug("generating questions",
		zap.String("difficulty", string(req.Difficulty)),
		zap.String("count", req.Count.String()),
		zap.String("role", req.Role),
	)

	if g.cache != nil {
		if questions, ok := g.cache.Get(ctx, key); ok {
			return g.done(log, questions, SourceCache), SourceCache, nil
		}
	}

	questions, backend, err := cascade.Run(ctx, g.runner, g.candidates, prompts.Generation(req), g.decoder.Questions)
	if err != nil {
		var exhausted *cascade.ExhaustedError
		if errors.As(err, &exhausted) {
			log.Warn("falling back to static catalog", zap.String("last_failure", exhausted.LastReason()))
		} else {
			log.Warn("falling back to static catalog", zap.Error(err))
		}
		return g.done(log, g.catalog.Select(req.ResumeText, req.Count), SourceCatalog), SourceCatalog, nil
	}

	questions = normalize(questions, req.Count.Limit())
	log = log.With(zap.String(logger.FieldBackend, backend))

	// A request abandoned by its caller was never completed and must not be recorded.
	if g.cache != nil && ctx.Err() == nil {
		if err := g.cache.Put(ctx, key, questions); err != nil {
			log.Warn("caching generated questions", zap.Error(err))
		}
	}

	return g.done(log, questions, SourceBackend), SourceBackend, nil
}

func (g *Generator) done(log *zap.Logger, questions interview.Questions, source Source) interview.Questions {
	log.Info("questions ready", zap.String(logger.FieldSource, string(source)), zap.Int("count", len(questions)))
	if g.observer != nil {
		g.observer.Generated(string(source))
	}
	return questions
}

// normalize cuts an over-delivered set to limit and gives repeated ids fresh
// values above the largest id seen, keeping item order.
func normalize(questions interview.Questions, limit int) interview.Questions {
	if limit <= 0 || limit > interview.MaxQuestions {
		limit = interview.MaxQuestions
	}
	if len(questions) > limit {
		questions = questions[:limit]
	}

	out := make(interview.Questions, len(questions))
	copy(out, questions)

	maxID := 0
	for _, q := range out {
		if q.ID > maxID {
			maxID = q.ID
		}
	}

	seen := make(map[int]struct{}, len(out))
	for i := range out {
		if _, dup := seen[out[i].ID]; dup {
			maxID++
			out[i].ID = maxID
		}
		seen[out[i].ID] = struct{}{}
	}

	return out
}

func (s Source) String() string { return string(s) }

// Describe is a short human-readable label for CLI output.
func (s Source) Describe() string {
	switch s {
	case SourceCache:
		return "cached result"
	case SourceBackend:
		return "live backend"
	case SourceCatalog:
		return "static catalog"
	default:
		return fmt.Sprintf("unknown source %q", string(s))
	}
}
