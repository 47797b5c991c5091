package prompts

import (
	"strings"
	"testing"

	"github.com/spigell/interview-rehearsal/internal/interview"
)

func TestGenerationPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		req      interview.GenerationRequest
		contains []string
		excludes []string
	}{
		{
			name: "fixed count and difficulty",
			req:  interview.NewGenerationRequest("Built Go services", "", interview.DifficultyHard, interview.FixedCount(7), "Backend Engineer"),
			contains: []string{
				"Generate exactly 7 interview questions.",
				"Every question must be of hard difficulty.",
				"Backend Engineer position",
				"Built Go services",
				"Job description:\nNone provided.",
			},
			excludes: []string{"{{"},
		},
		{
			name: "auto count mixed difficulty",
			req:  interview.NewGenerationRequest("resume", "Kubernetes operators", interview.DifficultyMixed, interview.AutoCount(), ""),
			contains: []string{
				"between 5 and 20",
				"Mix easy, medium and hard questions.",
				"Software Engineer position",
				"---\nKubernetes operators\n---",
			},
		},
		{
			name:     "placeholder in resume is not expanded",
			req:      interview.NewGenerationRequest("I like {{ROLE}}", "", interview.DifficultyEasy, interview.FixedCount(1), "SRE"),
			contains: []string{"I like {{ROLE}}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := Generation(tt.req)
			if !in.JSON || in.System == "" {
				t.Fatalf("expected json input with system instruction")
			}
			for _, want := range tt.contains {
				if !strings.Contains(in.Prompt, want) {
					t.Fatalf("prompt does not contain %q:\n%s", want, in.Prompt)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(in.Prompt, unwanted) {
					t.Fatalf("prompt contains %q", unwanted)
				}
			}
		})
	}
}

func TestJobDescriptionTruncated(t *testing.T) {
	t.Parallel()

	jd := strings.Repeat("ж", JobDescriptionRunes) + "TAIL"
	section := jobDescriptionSection(jd)
	if strings.Contains(section, "TAIL") {
		t.Fatalf("expected job description to be truncated")
	}
	if !strings.Contains(section, strings.Repeat("ж", JobDescriptionRunes)) {
		t.Fatalf("expected the first %d runes to be kept", JobDescriptionRunes)
	}
}

func TestEvaluationPrompt(t *testing.T) {
	t.Parallel()

	in := Evaluation(interview.NewEvaluationRequest("What is a goroutine?", "A lightweight thread.", "scheduler", "stack"))
	for _, want := range []string{"Question: What is a goroutine?", "Answer: A lightweight thread.", "scheduler, stack"} {
		if !strings.Contains(in.Prompt, want) {
			t.Fatalf("prompt does not contain %q", want)
		}
	}

	in = Evaluation(interview.NewEvaluationRequest("q", "a"))
	if !strings.Contains(in.Prompt, "cover: none") {
		t.Fatalf("expected keyword placeholder for empty keywords")
	}
}
