// Package cli implements the studypipe command line using Cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driving"
	"github.com/custodia-labs/studypipe/internal/logger"
)

// Exit codes returned by Execute.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitStore   = 3
)

// Command annotations selecting how much of the adapter stack a command needs.
const (
	annotationServices = "services"
	servicesPipeline   = "pipeline"
	servicesSettings   = "settings"
)

var (
	pipelineService    driving.PipelineService
	explanationService driving.ExplanationService
	materialService    driving.MaterialService
	settingsService    driving.SettingsService

	loader        Loader
	closeServices func() error

	version = "dev"
)

// Global flags.
var (
	configPath string
	verbose    bool
	logFile    string
)

// Services groups the driving ports the commands call.
type Services struct {
	Pipeline    driving.PipelineService
	Explanation driving.ExplanationService
	Material    driving.MaterialService
	Settings    driving.SettingsService

	// Close releases adapter handles. May be nil.
	Close func() error
}

// Loader builds services once global flags are parsed. When pipeline is false
// only Settings needs to be populated.
type Loader func(ctx context.Context, configPath string, pipeline bool) (*Services, error)

var rootCmd = &cobra.Command{
	Use:   "studypipe",
	Short: "Turn lecture PDFs into quizzes, flashcards and tutor feedback",
	Long: `studypipe runs uploaded lecture PDFs through OCR, block classification,
topic synthesis and quiz generation, tracking each material's progress in a
record store.

Usage:
  studypipe run <pdf> --subject python
  studypipe explain <material-id> <answers.json>
  studypipe watch <inbox-dir>`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.studypipe/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append JSON pipeline logs to this file")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices installs the services used by every command.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	pipelineService = s.Pipeline
	explanationService = s.Explanation
	materialService = s.Material
	settingsService = s.Settings
	closeServices = s.Close
}

// SetLoader installs the function that builds services before a command runs.
func SetLoader(l Loader) {
	loader = l
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
		closeServices = nil
	}
	logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return ExitCode(err)
}

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	var usage *usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &usage), isCobraUsage(err):
		return ExitUsage
	case errors.Is(err, domain.ErrInput), errors.Is(err, domain.ErrNotFound):
		return ExitUsage
	case errors.Is(err, domain.ErrStore):
		return ExitStore
	default:
		return ExitFailure
	}
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if logFile != "" {
		if err := logger.SetLogFile(logFile); err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}

	mode := cmd.Annotations[annotationServices]
	if mode == "" || loader == nil {
		return nil
	}

	s, err := loader(cmd.Context(), configPath, mode == servicesPipeline)
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

// usageError marks argument and flag errors.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps a positional argument validator so its errors map to ExitUsage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func isCobraUsage(err error) bool {
	return strings.HasPrefix(err.Error(), "unknown command")
}

func needs(mode string) map[string]string {
	return map[string]string{annotationServices: mode}
}
