package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driving"
)

var (
	runSubject        string
	runUploader       string
	runMaterialID     string
	runQuizCount      int
	runFlashcardCount int
)

var runCmd = &cobra.Command{
	Use:   "run <pdf>",
	Short: "Run the pipeline for one PDF",
	Long: `Run extraction, classification, synthesis, quiz and flashcard generation
for a single PDF. Artifacts are written under pipeline.artifact_root.

Pass --material-id to retry a failed material under the same identity;
subject and uploader default to the stored record.`,
	Args:        usageArgs(cobra.ExactArgs(1)),
	Annotations: needs(servicesPipeline),
	RunE:        runPipeline,
}

func init() {
	runCmd.Flags().StringVarP(&runSubject, "subject", "s", "", "subject namespace (python, java, cpp, c, mixed)")
	runCmd.Flags().StringVarP(&runUploader, "uploader", "u", "", "uploading user identifier")
	runCmd.Flags().StringVar(&runMaterialID, "material-id", "", "rerun an existing material")
	runCmd.Flags().IntVar(&runQuizCount, "quiz-count", 0, "number of quiz questions (default from config)")
	runCmd.Flags().IntVar(&runFlashcardCount, "flashcard-count", 0, "number of flashcards (default from config)")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	req := driving.RunRequest{
		PDFPath:        args[0],
		UploadedBy:     runUploader,
		MaterialID:     runMaterialID,
		QuizCount:      runQuizCount,
		FlashcardCount: runFlashcardCount,
	}
	if runSubject != "" {
		subject, err := domain.ParseSubject(runSubject)
		if err != nil {
			return err
		}
		req.Subject = subject
	} else if runMaterialID == "" {
		return fmt.Errorf("%w: --subject is required for a new material", domain.ErrInput)
	}

	result, err := pipelineService.Run(cmd.Context(), req)
	if result != nil && result.Material != nil {
		printRunResult(cmd, result)
	}
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}
	return nil
}

func printRunResult(cmd *cobra.Command, result *driving.RunResult) {
	m := result.Material
	cmd.Printf("Material: %s\n", m.ID)
	cmd.Printf("  File: %s\n", m.OriginalFilename)
	cmd.Printf("  Subject: %s\n", m.Subject)
	cmd.Printf("  Status: %s\n", m.Status)

	switch m.Status {
	case domain.StatusCompleted:
		cmd.Printf("  Quiz: %d questions (%s)\n", len(m.QuizContent), m.Artifacts[domain.ArtifactQuiz])
		if result.FlashcardsWritten {
			cmd.Printf("  Flashcards: %s\n", m.Artifacts[domain.ArtifactFlashcards])
		} else {
			cmd.Println("  Flashcards: skipped")
		}
	case domain.StatusFailed:
		cmd.Printf("  Error: %s\n", m.Error)
	}
	cmd.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))
}
