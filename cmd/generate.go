package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-rehearsal/internal/interview"
)

const stdinPath = "-"

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate interview questions for a resume and print them as JSON",
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

		a.logger.Info("questions generated", zap.String("source", source.Describe()), zap.Int("count", len(questions)))
		return printJSON(cmd.OutOrStdout(), questions)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addGenerationFlags(generateCmd)
}

func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("resume-file", "r", stdinPath, "plain text resume, - reads stdin")
	cmd.Flags().String("job-description-file", "", "plain text job description")
	cmd.Flags().String("difficulty", string(interview.DifficultyMixed), "easy, medium, hard or mixed")
	cmd.Flags().StringP("count", "n", "5", "number of questions (1-20) or auto")
	cmd.Flags().String("role", interview.DefaultRole, "target role")
}

func generationRequestFromFlags(cmd *cobra.Command) (interview.GenerationRequest, error) {
	flags := cmd.Flags()

	resumePath, _ := flags.GetString("resume-file")
	resume, err := readText(cmd.InOrStdin(), resumePath)
	if err != nil {
		return interview.GenerationRequest{}, fmt.Errorf("reading resume: %w", err)
	}

	var jobDescription string
	if jdPath, _ := flags.GetString("job-description-file"); jdPath != "" {
		jobDescription, err = readText(cmd.InOrStdin(), jdPath)
		if err != nil {
			return interview.GenerationRequest{}, fmt.Errorf("reading job description: %w", err)
		}
	}

	rawCount, _ := flags.GetString("count")
	count, err := interview.ParseCount(rawCount)
	if err != nil {
		return interview.GenerationRequest{}, err
	}

	difficulty, _ := flags.GetString("difficulty")
	role, _ := flags.GetString("role")

	return interview.NewGenerationRequest(resume, jobDescription, interview.Difficulty(strings.ToLower(difficulty)), count, role), nil
}

func readText(stdin io.Reader, path string) (string, error) {
	if path == stdinPath {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func printJSON(w io.Writer, v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(pretty))
	return err
}
