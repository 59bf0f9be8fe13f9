package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driving"
)

var explainAttempt string

var explainCmd = &cobra.Command{
	Use:   "explain <material-id> <answers.json>",
	Short: "Explain the incorrect answers of a quiz attempt",
	Long: `Generate tutor explanations for every answer marked incorrect.

The answers file holds the quiz UI submission:

  {"answers": [{"questionIndex": 0, "selectedOption": "B", "isCorrect": false}]}

The material must be completed. Explanations are written to
tutor_explanations/<name>_<attempt>_tutor_explanations.json.`,
	Args:        usageArgs(cobra.ExactArgs(2)),
	Annotations: needs(servicesPipeline),
	RunE:        runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainAttempt, "attempt", "", "attempt identifier (generated when empty)")
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	if explanationService == nil {
		return errors.New("explanation service not configured")
	}

	sheet, err := readAnswerSheet(args[1])
	if err != nil {
		return err
	}

	result, err := explanationService.Explain(cmd.Context(), driving.ExplainRequest{
		MaterialID: args[0],
		Answers:    sheet,
		AttemptID:  explainAttempt,
	})
	if err != nil {
		return fmt.Errorf("explain failed: %w", err)
	}

	cmd.Printf("Attempt: %s\n", result.AttemptID)
	cmd.Printf("Written: %s\n", result.Path)
	if len(result.Explanations) == 0 {
		cmd.Println("\nNo incorrect answers.")
		return nil
	}
	cmd.Println()
	for _, e := range result.Explanations {
		cmd.Printf("%d. %s\n", e.Index+1, e.Question)
		cmd.Printf("   Your answer: %s  Correct: %s\n", displayOption(e.UserAnswer), e.CorrectAnswer)
		cmd.Printf("   %s\n\n", e.Explanation)
	}
	return nil
}

func readAnswerSheet(path string) (domain.AnswerSheet, error) {
	var sheet domain.AnswerSheet
	data, err := os.ReadFile(path)
	if err != nil {
		return sheet, fmt.Errorf("%w: %v", domain.ErrInput, err)
	}
	if err := json.Unmarshal(data, &sheet); err != nil {
		return sheet, fmt.Errorf("%w: answers file %s: %v", domain.ErrInput, path, err)
	}
	return sheet, nil
}

func displayOption(k domain.OptionKey) string {
	if k == "" {
		return "-"
	}
	return string(k)
}
