package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

var (
	listSubject  string
	listStatus   string
	listUploader string
	listLimit    int
)

var statusCmd = &cobra.Command{
	Use:         "status <material-id>",
	Short:       "Show a material's pipeline status",
	Args:        usageArgs(cobra.ExactArgs(1)),
	Annotations: needs(servicesPipeline),
	RunE:        runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List materials",
	Long: `List materials newest first, optionally filtered by subject,
status or uploader.`,
	Args:        usageArgs(cobra.NoArgs),
	Annotations: needs(servicesPipeline),
	RunE:        runList,
}

func init() {
	listCmd.Flags().StringVar(&listSubject, "subject", "", "filter by subject")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (created, processing, completed, failed)")
	listCmd.Flags().StringVar(&listUploader, "uploader", "", "filter by uploader")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of materials (0 for all)")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	m, err := pipelineService.Status(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Printf("Material: %s\n", m.ID)
	cmd.Printf("  File: %s\n", m.OriginalFilename)
	cmd.Printf("  Subject: %s\n", m.Subject)
	if m.UploadedBy != "" {
		cmd.Printf("  Uploaded by: %s\n", m.UploadedBy)
	}
	cmd.Printf("  Status: %s\n", m.Status)
	cmd.Printf("  Created: %s\n", formatTime(&m.CreatedAt))
	if m.StartedAt != nil {
		cmd.Printf("  Started: %s\n", formatTime(m.StartedAt))
	}
	if m.CompletedAt != nil {
		cmd.Printf("  Completed: %s\n", formatTime(m.CompletedAt))
	}
	if m.FailedAt != nil {
		cmd.Printf("  Failed: %s\n", formatTime(m.FailedAt))
	}
	if m.Error != "" {
		cmd.Printf("  Error: %s\n", m.Error)
	}
	if len(m.QuizContent) > 0 {
		cmd.Printf("  Quiz: %d questions\n", len(m.QuizContent))
	}

	cmd.Println("\nArtifacts:")
	for _, name := range []domain.ArtifactName{
		domain.ArtifactExtracted, domain.ArtifactContext, domain.ArtifactQuiz, domain.ArtifactFlashcards,
	} {
		if p, ok := m.Artifacts[name]; ok {
			cmd.Printf("  %-10s %s\n", name, p)
		}
	}
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	if materialService == nil {
		return errors.New("material service not configured")
	}

	filter := domain.ListFilter{UploadedBy: listUploader, Limit: listLimit}
	if listSubject != "" {
		subject, err := domain.ParseSubject(listSubject)
		if err != nil {
			return err
		}
		filter.Subject = subject
	}
	if listStatus != "" {
		status, err := domain.ParseStatus(listStatus)
		if err != nil {
			return err
		}
		filter.Status = status
	}

	materials, err := materialService.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list materials: %w", err)
	}

	if len(materials) == 0 {
		cmd.Println("No materials found.")
		return nil
	}

	cmd.Printf("Materials (%d):\n\n", len(materials))
	for i := range materials {
		m := &materials[i]
		cmd.Printf("  %s  %-10s %-7s %s  %s\n",
			m.ID, m.Status, m.Subject, formatTime(&m.CreatedAt), m.OriginalFilename)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
