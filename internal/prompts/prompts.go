// Package prompts renders the generation and evaluation prompts sent to backends.
package prompts

import (
	"fmt"
	"strings"

	_ "embed"

	"github.com/spigell/interview-rehearsal/internal/cascade"
	"github.com/spigell/interview-rehearsal/internal/interview"
)

const (
	// JobDescriptionRunes caps how much of a job description reaches the prompt.
	JobDescriptionRunes = 2000

	noJobDescription = "None provided."
	noKeywords       = "none"

	generationSystem = "You are an experienced technical and HR interviewer. You answer with JSON only."
	evaluationSystem = "You are an experienced technical interviewer grading answers. You answer with JSON only."
)

//go:embed generate.md
var generateTemplate string

//go:embed evaluate.md
var evaluateTemplate string

// Generation builds the backend input for a question set.
func Generation(req interview.GenerationRequest) cascade.Input {
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = interview.DefaultRole
	}

	prompt := render(generateTemplate, map[string]string{
		"ROLE":            role,
		"QUANTITY":        quantityInstruction(req.Count),
		"DIFFICULTY":      difficultyInstruction(req.Difficulty),
		"RESUME":          req.ResumeText,
		"JOB_DESCRIPTION": jobDescriptionSection(req.JobDescription),
	})

	return cascade.Input{System: generationSystem, Prompt: prompt, JSON: true}
}

// Evaluation builds the backend input for grading one answer.
func Evaluation(req interview.EvaluationRequest) cascade.Input {
	var question, answer string
	if req.Question != nil {
		question = *req.Question
	}
	if req.Answer != nil {
		answer = *req.Answer
	}

	keywords := noKeywords
	if len(req.ContextKeywords) > 0 {
		keywords = strings.Join(req.ContextKeywords, ", ")
	}

	prompt := render(evaluateTemplate, map[string]string{
		"QUESTION": question,
		"ANSWER":   answer,
		"KEYWORDS": keywords,
	})

	return cascade.Input{System: evaluationSystem, Prompt: prompt, JSON: true}
}

func quantityInstruction(c interview.Count) string {
	if c.Auto {
		return fmt.Sprintf("Choose how many questions to ask, between 5 and %d, from the depth of the resume and the complexity of the job description.", interview.MaxQuestions)
	}
	return fmt.Sprintf("Generate exactly %d interview questions.", c.N)
}

func difficultyInstruction(d interview.Difficulty) string {
	if d == "" || d == interview.DifficultyMixed {
		return "Mix easy, medium and hard questions."
	}
	return fmt.Sprintf("Every question must be of %s difficulty.", d)
}

func jobDescriptionSection(jd string) string {
	if strings.TrimSpace(jd) == "" {
		return noJobDescription
	}
	runes := []rune(jd)
	if len(runes) > JobDescriptionRunes {
		jd = string(runes[:JobDescriptionRunes])
	}
	return "---\n" + jd + "\n---"
}

// render substitutes {{KEY}} placeholders in a single pass so values that
// themselves contain placeholders are left alone.
func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
