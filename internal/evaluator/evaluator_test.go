package evaluator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-rehearsal/internal/cascade"
	"github.com/spigell/interview-rehearsal/internal/interview"
	"github.com/spigell/interview-rehearsal/internal/schema"
)

type stubBackend struct {
	name     string
	response string
	err      error

	mu    sync.Mutex
	calls int
	input cascade.Input
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Invoke(_ context.Context, in cascade.Input) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.input = in
	return s.response, s.err
}

func (s *stubBackend) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type sourceRecorder struct {
	mu      sync.Mutex
	sources []string
}

func (r *sourceRecorder) Evaluated(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func newEvaluator(t *testing.T, obs Observer, candidates ...cascade.Backend) *Evaluator {
	t.Helper()

	decoder, err := schema.New()
	if err != nil {
		t.Fatalf("compile schemas: %v", err)
	}

	e, err := New(Deps{
		Runner:     cascade.NewRunner(time.Second, zap.NewNop()),
		Candidates: candidates,
		Decoder:    decoder,
		Observer:   obs,
	})
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	return e
}

func TestEvaluateFastPath(t *testing.T) {
	backend := &stubBackend{name: "a", response: `{"score": 9}`}
	e := newEvaluator(t, nil, backend)

	for _, answer := range []string{"", "   \n\t", "No answer provided", "(NO ANSWER PROVIDED by candidate)"} {
		got, err := e.Evaluate(context.Background(), interview.NewEvaluationRequest("X", answer))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", answer, err)
		}
		if got.Score != 0 || got.Feedback != unansweredFeedback {
			t.Fatalf("expected fast path result for %q, got %+v", answer, got)
		}
		if got.MissingKeywords == nil {
			t.Fatalf("missing keywords must be present")
		}
	}

	if backend.Calls() != 0 {
		t.Fatalf("backend must not be invoked on the fast path")
	}
}

func TestEvaluateRejectsIncompleteRequests(t *testing.T) {
	e := newEvaluator(t, nil)
	question := "What is a mutex?"

	if _, err := e.Evaluate(context.Background(), interview.EvaluationRequest{Question: &question}); !interview.IsClientInputError(err) {
		t.Fatalf("expected client input error for absent answer, got %v", err)
	}
	answer := "a lock"
	if _, err := e.Evaluate(context.Background(), interview.EvaluationRequest{Answer: &answer}); !interview.IsClientInputError(err) {
		t.Fatalf("expected client input error for absent question, got %v", err)
	}
}

func TestEvaluateBackendResult(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     interview.EvaluationResult
	}{
		{
			name:     "complete result",
			response: `{"score": 8, "feedback": "Solid.", "missing_keywords": ["heap"], "improvements": "Mention GC.", "ideal_answer": "Use the heap."}`,
			want:     interview.EvaluationResult{Score: 8, Feedback: "Solid.", MissingKeywords: []string{"heap"}, Improvements: "Mention GC.", IdealAnswer: "Use the heap."},
		},
		{
			name:     "score clamped high and defaults filled",
			response: "```json\n{\"score\": 14}\n```",
			want:     interview.EvaluationResult{Score: 10, Feedback: defaultFeedback, MissingKeywords: []string{}, Improvements: defaultImprovements, IdealAnswer: defaultIdealAnswer},
		},
		{
			name:     "negative score clamped",
			response: `{"score": -3, "feedback": "Wrong."}`,
			want:     interview.EvaluationResult{Score: 0, Feedback: "Wrong.", MissingKeywords: []string{}, Improvements: defaultImprovements, IdealAnswer: defaultIdealAnswer},
		},
		{
			name:     "score far above range clamped",
			response: `{"score": 1e20, "feedback": "great"}`,
			want:     interview.EvaluationResult{Score: 10, Feedback: "great", MissingKeywords: []string{}, Improvements: defaultImprovements, IdealAnswer: defaultIdealAnswer},
		},
		{
			name:     "score far below range clamped",
			response: `{"score": -1e20, "feedback": "off topic"}`,
			want:     interview.EvaluationResult{Score: 0, Feedback: "off topic", MissingKeywords: []string{}, Improvements: defaultImprovements, IdealAnswer: defaultIdealAnswer},
		},
		{
			name:     "fractional score above range clamped",
			response: `{"score": 10.6}`,
			want:     interview.EvaluationResult{Score: 10, Feedback: defaultFeedback, MissingKeywords: []string{}, Improvements: defaultImprovements, IdealAnswer: defaultIdealAnswer},
		},
		{
			name:     "numeric string score",
			response: `{"score": "7.6"}`,
			want:     interview.EvaluationResult{Score: 8, Feedback: defaultFeedback, MissingKeywords: []string{}, Improvements: defaultImprovements, IdealAnswer: defaultIdealAnswer},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{name: "a", response: tt.response}
			e := newEvaluator(t, nil, backend)

			got, err := e.Evaluate(context.Background(), interview.NewEvaluationRequest("What is escape analysis?", "It decides stack or heap.", "heap"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Score != tt.want.Score || got.Feedback != tt.want.Feedback || got.Improvements != tt.want.Improvements || got.IdealAnswer != tt.want.IdealAnswer {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
			if len(got.MissingKeywords) != len(tt.want.MissingKeywords) || got.MissingKeywords == nil {
				t.Fatalf("expected keywords %v, got %v", tt.want.MissingKeywords, got.MissingKeywords)
			}
			if !strings.Contains(backend.input.Prompt, "It decides stack or heap.") {
				t.Fatalf("expected the answer in the prompt")
			}
		})
	}
}

func TestEvaluateCascadeAdvances(t *testing.T) {
	a := &stubBackend{name: "a", response: `{"feedback": "no score"}`}
	b := &stubBackend{name: "b", response: `{"score": 6}`}
	c := &stubBackend{name: "c", response: `{"score": 1}`}
	e := newEvaluator(t, nil, a, b, c)

	got, err := e.Evaluate(context.Background(), interview.NewEvaluationRequest("q", "answer"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 6 || c.Calls() != 0 {
		t.Fatalf("expected b's score and c untouched, got %d (c calls %d)", got.Score, c.Calls())
	}
}

func TestEvaluateExhaustion(t *testing.T) {
	recorder := &sourceRecorder{}
	a := &stubBackend{name: "gemini/gemini-2.0-flash", err: errors.New("connection refused")}
	b := &stubBackend{name: "gemini/gemini-flash-latest", err: cascade.ErrQuota}
	e := newEvaluator(t, recorder, a, b)

	got, err := e.Evaluate(context.Background(), interview.NewEvaluationRequest("q", "answer"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != NeutralScore {
		t.Fatalf("expected neutral score, got %d", got.Score)
	}
	if !strings.HasPrefix(got.Feedback, unavailableFeedback) || !strings.Contains(got.Feedback, "quota") {
		t.Fatalf("feedback must name the last failure: %q", got.Feedback)
	}
	if got.MissingKeywords == nil || len(got.MissingKeywords) != 0 {
		t.Fatalf("expected empty keyword list, got %v", got.MissingKeywords)
	}
	if got.Improvements != unavailableImprovements {
		t.Fatalf("unexpected improvements: %q", got.Improvements)
	}
	if len(recorder.sources) != 1 || recorder.sources[0] != SourceFallback {
		t.Fatalf("unexpected sources: %v", recorder.sources)
	}
}

func TestEvaluateWithoutCandidates(t *testing.T) {
	e := newEvaluator(t, nil)

	got, err := e.Evaluate(context.Background(), interview.NewEvaluationRequest("q", "answer"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != NeutralScore || !strings.Contains(got.Feedback, cascade.ErrNoCandidates.Error()) {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestUnanswered(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"":                     true,
		"  ":                   true,
		"no answer provided.":  true,
		"I have no answer":     false,
		"Goroutines are cheap": false,
	}
	for answer, want := range tests {
		if got := Unanswered(answer); got != want {
			t.Fatalf("Unanswered(%q) = %v, want %v", answer, got, want)
		}
	}
}
