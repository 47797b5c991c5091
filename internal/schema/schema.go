// Package schema checks that backend output is structurally valid and decodes
// it into interview types.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/interview-rehearsal/internal/interview"
)

//go:embed questions.schema.json
var questionsSchema []byte

//go:embed evaluation.schema.json
var evaluationSchema []byte

// FieldError is a single schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in one document.
type ValidationError struct {
	Document string
	Errors   []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s output failed validation:", ve.Document)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, " %d. %s: %s;", i+1, err.Field, err.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Decoder holds the compiled schemas. It is immutable and safe for concurrent use.
type Decoder struct {
	questions  *gojsonschema.Schema
	evaluation *gojsonschema.Schema
}

func New() (*Decoder, error) {
	questions, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(questionsSchema))
	if err != nil {
		return nil, fmt.Errorf("compile questions schema: %w", err)
	}

	evaluation, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(evaluationSchema))
	if err != nil {
		return nil, fmt.Errorf("compile evaluation schema: %w", err)
	}

	return &Decoder{questions: questions, evaluation: evaluation}, nil
}

// Questions accepts either a bare array of questions or an object with a
// "questions" array.
func (d *Decoder) Questions(raw string) (interview.Questions, error) {
	doc, err := parse(raw, "{[")
	if err != nil {
		return nil, err
	}

	if obj, ok := doc.(map[string]any); ok {
		inner, found := obj["questions"]
		if !found {
			return nil, &ValidationError{Document: "questions", Errors: []FieldError{{Field: "(root)", Message: "object has no \"questions\" key"}}}
		}
		doc = inner
	}

	if err := check(d.questions, "questions", doc); err != nil {
		return nil, err
	}

	var questions interview.Questions
	if err := decode(doc, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	return questions, nil
}

// Evaluation requires a score; every other field is optional and left zero
// when absent. The score is rounded and clamped to the score range.
func (d *Decoder) Evaluation(raw string) (interview.EvaluationResult, error) {
	var result interview.EvaluationResult

	doc, err := parse(raw, "{")
	if err != nil {
		return result, err
	}

	if err := check(d.evaluation, "evaluation", doc); err != nil {
		return result, err
	}

	obj := doc.(map[string]any)
	score := coerceFloat(obj["score"])
	if math.IsNaN(score) {
		return result, &ValidationError{Document: "evaluation", Errors: []FieldError{{Field: "score", Message: "not a number"}}}
	}
	// Clamp before converting: float to int is undefined outside the int range.
	score = math.Max(interview.MinScore, math.Min(interview.MaxScore, math.Round(score)))
	obj["score"] = int(score)

	if err := decode(obj, &result); err != nil {
		return result, fmt.Errorf("decode evaluation: %w", err)
	}

	return result, nil
}

func parse(raw, openers string) (any, error) {
	cleaned := ExtractJSON(raw, openers)
	if cleaned == "" {
		return nil, fmt.Errorf("backend output contains no json")
	}

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("parse backend output: %w", err)
	}
	return doc, nil
}

func check(s *gojsonschema.Schema, name string, doc any) error {
	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate %s output: %w", name, err)
	}

	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Document: name, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{Field: desc.Field(), Message: desc.Description()})
	}
	return ve
}

func decode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// ExtractJSON strips markdown fences and surrounding prose from a model
// response. When the rest is not valid JSON it falls back to the span from
// the first character in openers to the last matching closer, so prose such
// as "[1]" before an expected object is skipped.
func ExtractJSON(raw, openers string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	if json.Valid([]byte(raw)) {
		return raw
	}

	if openers == "" {
		openers = "{["
	}
	start := strings.IndexAny(raw, openers)
	if start == -1 {
		return ""
	}
	closing := "}"
	if raw[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(raw, closing)
	if end < start {
		return ""
	}
	return raw[start : end+1]
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
