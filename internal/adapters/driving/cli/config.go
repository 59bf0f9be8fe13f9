package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change studypipe configuration.

Values come from ~/.studypipe/config.toml. STUDYPIPE_* environment
variables (and a .env file in the working directory) override them,
e.g. STUDYPIPE_LLM_API_KEY overrides llm.api_key.`,
	Annotations: needs(servicesSettings),
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current configuration",
	Annotations: needs(servicesSettings),
	RunE:        runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration key",
	Long: `Set a single configuration key, for example:

  studypipe config set llm.provider anthropic
  studypipe config set pipeline.stage_timeout 10m`,
	Args:        usageArgs(cobra.ExactArgs(2)),
	Annotations: needs(servicesSettings),
	RunE:        runConfigSet,
}

var configLLMCmd = &cobra.Command{
	Use:         "llm",
	Short:       "Configure the LLM provider interactively",
	Annotations: needs(servicesSettings),
	RunE:        runConfigLLM,
}

var configValidateCmd = &cobra.Command{
	Use:         "validate",
	Short:       "Check configuration and LLM connectivity",
	Annotations: needs(servicesSettings),
	RunE:        runConfigValidate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configLLMCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if settings.LLM.RatePerSecond > 0 {
		cmd.Printf("  Rate limit: %g/s\n", settings.LLM.RatePerSecond)
	}
	cmd.Println()

	cmd.Println("[OCR]")
	cmd.Printf("  Provider: %s\n", settings.OCR.Provider)
	cmd.Printf("  Language: %s\n", settings.OCR.Language)
	if settings.OCR.TesseractPath != "" {
		cmd.Printf("  Tesseract: %s\n", settings.OCR.TesseractPath)
	}
	if settings.OCR.CredentialsFile != "" {
		cmd.Printf("  Credentials: %s\n", settings.OCR.CredentialsFile)
	}
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Provider: %s\n", settings.Store.Provider)
	switch settings.Store.Provider {
	case domain.StoreProviderSQLite:
		if settings.Store.Path != "" {
			cmd.Printf("  Path: %s\n", settings.Store.Path)
		}
	case domain.StoreProviderMongo:
		cmd.Printf("  URI: %s\n", settings.Store.URI)
		cmd.Printf("  Database: %s\n", settings.Store.Database)
	}
	cmd.Println()

	p := settings.Pipeline
	cmd.Println("[Pipeline]")
	cmd.Printf("  Artifact root: %s\n", p.ArtifactRoot)
	cmd.Printf("  DPI: %d\n", p.DPI)
	cmd.Printf("  Quiz questions: %d\n", p.QuizCount)
	cmd.Printf("  Flashcards: %d\n", p.FlashcardCount)
	cmd.Printf("  Classify workers: %d\n", p.ClassifyWorkers)
	cmd.Printf("  Stage timeout: %s\n", p.StageTimeout)
	cmd.Printf("  Call timeout: %s\n", p.CallTimeout)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'studypipe config llm' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s = %s\n", args[0], args[1])
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}

	cmd.Print("Checking LLM connectivity... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}

func runConfigLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return fmt.Errorf("%w: API key is required for %s", domain.ErrInput, selected)
		}
	}

	if err := settingsService.SetLLMProvider(selected, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", selected.Description(), model)
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo on a terminal and falls back to reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}
