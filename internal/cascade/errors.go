package cascade

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuota marks a quota or rate-limit rejection. Backends wrap their
	// provider-specific errors with it.
	ErrQuota = errors.New("quota exceeded")
	// ErrEmptyOutput marks a response without any text.
	ErrEmptyOutput = errors.New("backend returned empty output")
	// ErrNoCandidates is the cause of an ExhaustedError for an empty candidate list.
	ErrNoCandidates = errors.New("no backends configured")
)

// Reason classifies why a candidate was skipped.
type Reason string

const (
	ReasonTimeout       Reason = "timeout"
	ReasonQuota         Reason = "quota"
	ReasonTransport     Reason = "transport"
	ReasonEmptyOutput   Reason = "empty_output"
	ReasonInvalidOutput Reason = "invalid_output"
	ReasonCanceled      Reason = "canceled"
)

// FailureError is a recoverable failure of one candidate.
type FailureError struct {
	Backend string
	Reason  Reason
	Err     error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Reason, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

// ExhaustedError is returned when no candidate produced a valid result.
type ExhaustedError struct {
	Failures []*FailureError
}

func (e *ExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return "all backends failed"
	}
	return fmt.Sprintf("all backends failed after %d attempts, last: %v", len(e.Failures), e.Last())
}

// Last is the most recent failure, or nil when nothing was attempted.
func (e *ExhaustedError) Last() *FailureError {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[len(e.Failures)-1]
}

// LastReason describes the last failure for diagnostics.
func (e *ExhaustedError) LastReason() string {
	last := e.Last()
	if last == nil {
		return "unknown error"
	}
	return last.Error()
}

func (e *ExhaustedError) Unwrap() error {
	if last := e.Last(); last != nil {
		return last
	}
	return nil
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, ErrQuota):
		return ReasonQuota
	case errors.Is(err, ErrEmptyOutput):
		return ReasonEmptyOutput
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	default:
		return ReasonTransport
	}
}

func reasonList(failures []*FailureError) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.Backend+"="+string(f.Reason))
	}
	return strings.Join(parts, ",")
}
