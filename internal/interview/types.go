package interview

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxQuestions bounds every generation response.
	MaxQuestions = 20
	// DefaultRole is used when a request does not name one.
	DefaultRole = "Software Engineer"
	// MinScore and MaxScore bound every evaluation score.
	MinScore = 0
	MaxScore = 10

	autoCount = "auto"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	// DifficultyMixed is only valid on requests; items always carry a concrete level.
	DifficultyMixed Difficulty = "mixed"
)

type Kind string

const (
	KindTechnical  Kind = "technical"
	KindBehavioral Kind = "behavioral"
	KindCoding     Kind = "coding"
)

// Count is the requested number of questions: a fixed value in 1..20 or auto.
type Count struct {
	N    int
	Auto bool
}

// AutoCount lets the backend decide how many questions to produce.
func AutoCount() Count { return Count{Auto: true} }

// FixedCount requests exactly n questions.
func FixedCount(n int) Count { return Count{N: n} }

// ParseCount accepts "auto" or a decimal integer.
func ParseCount(s string) (Count, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == autoCount {
		return AutoCount(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Count{}, &ClientInputError{Field: "count", Message: fmt.Sprintf("must be an integer or %q, got %q", autoCount, s)}
	}
	return FixedCount(n), nil
}

// Limit returns the maximum number of items a response may hold for this count.
func (c Count) Limit() int {
	if c.Auto || c.N > MaxQuestions {
		return MaxQuestions
	}
	return c.N
}

func (c Count) String() string {
	if c.Auto {
		return autoCount
	}
	return strconv.Itoa(c.N)
}

// GenerationRequest is passed by value; callers cannot mutate a request
// once it has been handed to the generator.
type GenerationRequest struct {
	ResumeText     string `validate:"required,notblank"`
	JobDescription string
	Difficulty     Difficulty `validate:"oneof=easy medium hard mixed"`
	Count          Count      `validate:"min=1,max=20"`
	Role           string
}

// NewGenerationRequest fills in the defaults the CLI and tests rely on.
func NewGenerationRequest(resumeText, jobDescription string, difficulty Difficulty, count Count, role string) GenerationRequest {
	if strings.TrimSpace(role) == "" {
		role = DefaultRole
	}
	if difficulty == "" {
		difficulty = DifficultyMixed
	}
	return GenerationRequest{
		ResumeText:     resumeText,
		JobDescription: jobDescription,
		Difficulty:     difficulty,
		Count:          count,
		Role:           role,
	}
}

type QuestionItem struct {
	ID          int        `json:"id" mapstructure:"id" yaml:"id"`
	Text        string     `json:"text" mapstructure:"text" yaml:"text"`
	Kind        Kind       `json:"type" mapstructure:"type" yaml:"type"`
	Difficulty  Difficulty `json:"difficulty" mapstructure:"difficulty" yaml:"difficulty"`
	Context     string     `json:"context" mapstructure:"context" yaml:"context"`
	InitialCode string     `json:"initial_code" mapstructure:"initial_code" yaml:"initial_code"`
}

// Questions is a GenerationResponse: ordered, 1..20 items, unique ids.
type Questions []QuestionItem

// Validate reports whether q satisfies the response invariants.
func (q Questions) Validate() error {
	if len(q) == 0 {
		return fmt.Errorf("response has no questions")
	}
	if len(q) > MaxQuestions {
		return fmt.Errorf("response has %d questions, maximum is %d", len(q), MaxQuestions)
	}
	seen := make(map[int]struct{}, len(q))
	for _, item := range q {
		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("duplicate question id %d", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// HasKind reports whether any item is of kind k.
func (q Questions) HasKind(k Kind) bool {
	for _, item := range q {
		if item.Kind == k {
			return true
		}
	}
	return false
}

type EvaluationRequest struct {
	// Question and Answer are pointers so an absent field can be told apart
	// from an empty answer, which is a valid input.
	Question        *string `validate:"required,notblank"`
	Answer          *string `validate:"required"`
	ContextKeywords []string
}

// NewEvaluationRequest builds a request with both texts present.
func NewEvaluationRequest(question, answer string, keywords ...string) EvaluationRequest {
	return EvaluationRequest{Question: &question, Answer: &answer, ContextKeywords: keywords}
}

type EvaluationResult struct {
	Score           int      `json:"score" mapstructure:"score"`
	Feedback        string   `json:"feedback" mapstructure:"feedback"`
	MissingKeywords []string `json:"missing_keywords" mapstructure:"missing_keywords"`
	Improvements    string   `json:"improvements" mapstructure:"improvements"`
	IdealAnswer     string   `json:"ideal_answer" mapstructure:"ideal_answer"`
}
