// Package evaluator scores free-text interview answers. Results are never
// cached; every call either short-circuits, asks the backends or degrades to
// a neutral result.
package evaluator

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-rehearsal/internal/cascade"
	"github.com/spigell/interview-rehearsal/internal/interview"
	"github.com/spigell/interview-rehearsal/internal/logger"
	"github.com/spigell/interview-rehearsal/internal/prompts"
	"github.com/spigell/interview-rehearsal/internal/schema"
)

const (
	MinScore = interview.MinScore
	MaxScore = interview.MaxScore
	// NeutralScore is reported when no backend could grade the answer.
	NeutralScore = 5

	placeholderAnswer = "no answer provided"

	SourceFastPath = "fast_path"
	SourceBackend  = "backend"
	SourceFallback = "fallback"
)

const (
	unansweredFeedback     = "This question was not answered or skipped."
	unansweredImprovements = "Please provide a detailed response to receive feedback."
	unansweredIdealAnswer  = "A good answer would address the specific technical or behavioral aspects of the question."

	defaultFeedback     = "No feedback provided."
	defaultImprovements = "No specific improvements suggested."
	defaultIdealAnswer  = "No ideal answer provided."

	unavailableFeedback     = "Evaluation service unavailable. Error: "
	unavailableImprovements = "Check API Quota or Connection."
)

// Observer is notified of the source of every returned evaluation.
type Observer interface {
	Evaluated(source string)
}

type Deps struct {
	Runner     *cascade.Runner
	Candidates []cascade.Backend
	Decoder    *schema.Decoder
	Logger     *zap.Logger
	Observer   Observer
}

type Evaluator struct {
	runner     *cascade.Runner
	candidates []cascade.Backend
	decoder    *schema.Decoder
	logger     *zap.Logger
	observer   Observer
}

func New(deps Deps) (*Evaluator, error) {
	if deps.Runner == nil {
		return nil, errors.New("cascade runner is required")
	}
	if deps.Decoder == nil {
		return nil, errors.New("schema decoder is required")
	}

	return &Evaluator{
		runner:     deps.Runner,
		candidates: append([]cascade.Backend(nil), deps.Candidates...),
		decoder:    deps.Decoder,
		logger:     logger.WithFields(deps.Logger),
		observer:   deps.Observer,
	}, nil
}

// Evaluate grades req. The only error it returns is a
// *interview.ClientInputError for a structurally incomplete request.
func (e *Evaluator) Evaluate(ctx context.Context, req interview.EvaluationRequest) (interview.EvaluationResult, error) {
	if err := req.Validate(); err != nil {
		return interview.EvaluationResult{}, err
	}

	log := logger.WithRequest(e.logger, uuid.NewString(), "")

	if Unanswered(*req.Answer) {
		return e.done(log, unanswered(), SourceFastPath), nil
	}

	result, backend, err := cascade.Run(ctx, e.runner, e.candidates, prompts.Evaluation(req), e.decoder.Evaluation)
	if err != nil {
		reason := err.Error()
		var exhausted *cascade.ExhaustedError
		if errors.As(err, &exhausted) {
			reason = exhausted.LastReason()
		}
		log.Warn("returning neutral evaluation", zap.String("last_failure", reason))
		return e.done(log, unavailable(reason), SourceFallback), nil
	}

	log = log.With(zap.String(logger.FieldBackend, backend))
	return e.done(log, complete(result), SourceBackend), nil
}

func (e *Evaluator) done(log *zap.Logger, result interview.EvaluationResult, source string) interview.EvaluationResult {
	log.Info("evaluation ready", zap.String(logger.FieldSource, source), zap.Int("score", result.Score))
	if e.observer != nil {
		e.observer.Evaluated(source)
	}
	return result
}

// Unanswered reports whether answer is empty, blank or a "no answer provided"
// placeholder, in which case no backend is asked.
func Unanswered(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	return trimmed == "" || strings.Contains(strings.ToLower(trimmed), placeholderAnswer)
}

func unanswered() interview.EvaluationResult {
	return interview.EvaluationResult{
		Score:           MinScore,
		Feedback:        unansweredFeedback,
		MissingKeywords: []string{},
		Improvements:    unansweredImprovements,
		IdealAnswer:     unansweredIdealAnswer,
	}
}

func unavailable(reason string) interview.EvaluationResult {
	return interview.EvaluationResult{
		Score:           NeutralScore,
		Feedback:        unavailableFeedback + reason,
		MissingKeywords: []string{},
		Improvements:    unavailableImprovements,
	}
}

// complete clamps the score and fills optional fields the backend left out.
func complete(r interview.EvaluationResult) interview.EvaluationResult {
	switch {
	case r.Score < MinScore:
		r.Score = MinScore
	case r.Score > MaxScore:
		r.Score = MaxScore
	}

	if strings.TrimSpace(r.Feedback) == "" {
		r.Feedback = defaultFeedback
	}
	if strings.TrimSpace(r.Improvements) == "" {
		r.Improvements = defaultImprovements
	}
	if strings.TrimSpace(r.IdealAnswer) == "" {
		r.IdealAnswer = defaultIdealAnswer
	}

	keywords := make([]string, 0, len(r.MissingKeywords))
	for _, kw := range r.MissingKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	r.MissingKeywords = keywords

	return r
}
