// Package cascade tries interchangeable backends in order until one returns
// structurally valid output.
package cascade

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/interview-rehearsal/internal/logger"
	"github.com/spigell/interview-rehearsal/internal/utils"
)

const (
	DefaultTimeout = 60 * time.Second

	defaultMaxLogLength = 200
)

// Input is the backend-neutral request.
type Input struct {
	System string
	Prompt string
	// JSON asks the backend to constrain its output to JSON when it can.
	JSON bool
}

// Backend produces raw text for an Input. Implementations must honour ctx.
type Backend interface {
	Name() string
	Invoke(ctx context.Context, in Input) (string, error)
}

// Decoder turns raw backend output into T or rejects it as invalid.
type Decoder[T any] func(raw string) (T, error)

// Observer receives the outcome of every attempt. An empty reason means success.
type Observer interface {
	BackendAttempt(backend string, reason Reason, elapsed time.Duration)
}

type Runner struct {
	timeout   time.Duration
	logger    *zap.Logger
	observer  Observer
	maxLogLen int
}

type Option func(*Runner)

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

func WithMaxLogLength(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxLogLen = n
		}
	}
}

// NewRunner bounds every backend call by timeout.
func NewRunner(timeout time.Duration, log *zap.Logger, opts ...Option) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Runner{
		timeout:   timeout,
		logger:    logger.WithFields(log),
		maxLogLen: defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run invokes candidates strictly in order and returns the first decoded
// result together with the name of the backend that produced it. Later
// candidates are never tried once one succeeds. When every candidate fails,
// or ctx is done, it returns an *ExhaustedError.
func Run[T any](ctx context.Context, r *Runner, candidates []Backend, in Input, decode Decoder[T]) (T, string, error) {
	var zero T
	exhausted := &ExhaustedError{}

	if len(candidates) == 0 {
		exhausted.Failures = append(exhausted.Failures, &FailureError{Backend: "none", Reason: ReasonTransport, Err: ErrNoCandidates})
		return zero, "", exhausted
	}

	for i, backend := range candidates {
		if err := ctx.Err(); err != nil {
			exhausted.Failures = append(exhausted.Failures, &FailureError{Backend: backend.Name(), Reason: ReasonCanceled, Err: err})
			r.logger.Info("cascade abandoned", zap.Error(err), zap.String("attempts", reasonList(exhausted.Failures)))
			return zero, "", exhausted
		}

		log := r.logger.With(zap.String(logger.FieldBackend, backend.Name()), zap.Int("attempt", i+1))
		log.Debug("invoking backend",
			zap.Int("prompt_length", utf8.RuneCountInString(in.Prompt)),
			zap.String("prompt_preview", utils.TruncateForLog(in.Prompt, r.maxLogLen)),
		)

		start := time.Now()
		result, failure := attempt(ctx, r, backend, in, decode, log)
		elapsed := time.Since(start)

		if failure == nil {
			r.observe(backend.Name(), "", elapsed)
			log.Info("backend succeeded", zap.Duration("elapsed", elapsed))
			return result, backend.Name(), nil
		}

		r.observe(backend.Name(), failure.Reason, elapsed)
		exhausted.Failures = append(exhausted.Failures, failure)
		log.Warn("backend failed, trying next",
			zap.String("reason", string(failure.Reason)),
			zap.Duration("elapsed", elapsed),
			zap.Error(failure.Err),
		)
	}

	r.logger.Warn("all backends failed", zap.String("attempts", reasonList(exhausted.Failures)))
	return zero, "", exhausted
}

type invocation struct {
	raw string
	err error
}

func attempt[T any](ctx context.Context, r *Runner, backend Backend, in Input, decode Decoder[T], log *zap.Logger) (T, *FailureError) {
	var zero T

	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// The call runs in its own goroutine so a backend that ignores its
	// context cannot hold the cascade past the timeout.
	done := make(chan invocation, 1)
	go func() {
		raw, err := backend.Invoke(attemptCtx, in)
		done <- invocation{raw: raw, err: err}
	}()

	var res invocation
	select {
	case res = <-done:
	case <-attemptCtx.Done():
		res = invocation{err: attemptCtx.Err()}
	}

	if res.err != nil {
		reason := classify(res.err)
		switch {
		case ctx.Err() != nil:
			reason = ReasonCanceled
		case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
			reason = ReasonTimeout
		case reason == ReasonCanceled:
			reason = ReasonTransport
		}
		return zero, &FailureError{Backend: backend.Name(), Reason: reason, Err: res.err}
	}

	log.Debug("backend response",
		zap.Int("response_length", utf8.RuneCountInString(res.raw)),
		zap.String("response_preview", utils.TruncateForLog(res.raw, r.maxLogLen)),
	)

	if strings.TrimSpace(res.raw) == "" {
		return zero, &FailureError{Backend: backend.Name(), Reason: ReasonEmptyOutput, Err: ErrEmptyOutput}
	}

	result, err := decode(res.raw)
	if err != nil {
		return zero, &FailureError{Backend: backend.Name(), Reason: ReasonInvalidOutput, Err: err}
	}

	return result, nil
}

func (r *Runner) observe(backend string, reason Reason, elapsed time.Duration) {
	if r.observer != nil {
		r.observer.BackendAttempt(backend, reason, elapsed)
	}
}
