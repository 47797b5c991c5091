package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spigell/interview-rehearsal/internal/interview"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Grade an answer to an interview question and print the result as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()

		var req interview.EvaluationRequest
		if flags.Changed("question") {
			question, _ := flags.GetString("question")
			req.Question = &question
		}
		if flags.Changed("answer-file") {
			path, _ := flags.GetString("answer-file")
			answer, err := readText(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			req.Answer = &answer
		} else if flags.Changed("answer") {
			answer, _ := flags.GetString("answer")
			req.Answer = &answer
		}
		req.ContextKeywords, _ = flags.GetStringSlice("keywords")

		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.evaluator.Evaluate(cmd.Context(), req)
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("question", "q", "", "the interview question")
	evaluateCmd.Flags().StringP("answer", "a", "", "the answer to grade; an empty answer scores zero")
	evaluateCmd.Flags().String("answer-file", "", "read the answer from a file, - reads stdin")
	evaluateCmd.Flags().StringSlice("keywords", nil, "keywords a good answer is expected to cover")
}
