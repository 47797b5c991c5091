package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-rehearsal/internal/interview"
)

const (
	PromptAnswer = "Answer"
	PromptSkip   = "Skip"
	PromptQuit   = "Quit"
)

var errExit = errors.New("exit requested")

var actionPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptAnswer, PromptSkip, PromptQuit},
}

var rehearseCmd = &cobra.Command{
	Use:   "rehearse",
	Short: "Generate questions for a resume and answer them one by one",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := generationRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		questions, source, err := a.generator.Generate(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d questions from %s\n", len(questions), source.Describe())

		var graded []gradedAnswer
		for i, q := range questions {
			printQuestion(out, i+1, len(questions), q)

			answer, err := askAnswer()
			if errors.Is(err, errExit) {
				break
			}
			if err != nil {
				return err
			}

			result, err := a.evaluator.Evaluate(cmd.Context(), interview.NewEvaluationRequest(q.Text, answer))
			if err != nil {
				return err
			}
			printResult(out, result)
			graded = append(graded, gradedAnswer{question: q, result: result})
		}

		printSummary(out, graded)
		a.logger.Debug("rehearsal finished", zap.Int("answered", len(graded)), zap.Int("questions", len(questions)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rehearseCmd)
	addGenerationFlags(rehearseCmd)
}

type gradedAnswer struct {
	question interview.QuestionItem
	result   interview.EvaluationResult
}

// askAnswer returns an empty answer for a skipped question and errExit when
// the user quits.
func askAnswer() (string, error) {
	_, action, err := actionPrompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", errExit
		}
		return "", err
	}

	switch action {
	case PromptSkip:
		return "", nil
	case PromptQuit:
		return "", errExit
	}

	answerPrompt := promptui.Prompt{Label: "Your answer"}
	answer, err := answerPrompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", errExit
		}
		return "", err
	}
	return answer, nil
}

func printQuestion(w io.Writer, n, total int, q interview.QuestionItem) {
	fmt.Fprintf(w, "\n[%d/%d] (%s, %s) %s\n", n, total, q.Kind, q.Difficulty, q.Text)
	if q.Context != "" {
		fmt.Fprintf(w, "  context: %s\n", q.Context)
	}
	if q.InitialCode != "" {
		fmt.Fprintf(w, "  starter code:\n%s\n", indent(q.InitialCode, "    "))
	}
}

func printResult(w io.Writer, r interview.EvaluationResult) {
	fmt.Fprintf(w, "  score: %d/10\n  feedback: %s\n", r.Score, r.Feedback)
	if len(r.MissingKeywords) > 0 {
		fmt.Fprintf(w, "  missing: %s\n", strings.Join(r.MissingKeywords, ", "))
	}
	if r.Improvements != "" {
		fmt.Fprintf(w, "  improve: %s\n", r.Improvements)
	}
	if r.IdealAnswer != "" {
		fmt.Fprintf(w, "  ideal answer:\n%s\n", indent(r.IdealAnswer, "    "))
	}
}

func printSummary(w io.Writer, graded []gradedAnswer) {
	if len(graded) == 0 {
		fmt.Fprintln(w, "\nno answers graded")
		return
	}

	total := 0
	for _, g := range graded {
		total += g.result.Score
	}
	fmt.Fprintf(w, "\nanswered %d, average score %.1f/10\n", len(graded), float64(total)/float64(len(graded)))
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
