package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

func TestConfigCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range configCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"show", "set", "llm", "validate"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestConfigShow_Defaults(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "Provider: Ollama (local)")
	assert.Contains(t, out, "Model: gemma3")
	assert.Contains(t, out, "Base URL: http://localhost:11434")
	assert.Contains(t, out, "Artifact root: data")
	assert.Contains(t, out, "Stage timeout: 5m0s")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestConfigShow_MasksKeyAndWarns(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	_ = ts.config.Set("llm.provider", "openai")
	_ = ts.config.Set("llm.api_key", "sk-abcdefghijklmnop")
	_ = ts.config.Set("store.provider", "mongo")

	out, err := execute(t, "config")
	require.NoError(t, err)

	assert.Contains(t, out, "API Key: sk-a...mnop")
	assert.NotContains(t, out, "sk-abcdefghijklmnop")
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "store.uri")
}

func TestConfigSet(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "set", "pipeline.quiz_count", "15")
	require.NoError(t, err)
	assert.Contains(t, out, "pipeline.quiz_count = 15")
	assert.Equal(t, 15, ts.config.GetInt("pipeline.quiz_count"))

	_, err = execute(t, "config", "set", "llm.provider", "mystery")
	requireExit(t, ExitUsage, err)
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestConfigSet_RequiresTwoArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "config", "set", "llm.provider")
	requireExit(t, ExitUsage, err)
}

func TestConfigValidate(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "config", "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "OK")
	})

	t.Run("missing api key", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		_ = ts.config.Set("llm.provider", "anthropic")

		_, err := execute(t, "config", "validate")
		requireExit(t, ExitUsage, err)
	})
}

func TestConfigLLM_Interactive(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("1\nllama3.1\n"))
	defer rootCmd.SetIn(nil)

	out, err := execute(t, "config", "llm")
	require.NoError(t, err)

	assert.Contains(t, out, "Select LLM Provider")
	assert.Contains(t, out, "LLM provider configured: Ollama (local) (llama3.1)")
	assert.Equal(t, "ollama", ts.config.GetString("llm.provider"))
	assert.Equal(t, "llama3.1", ts.config.GetString("llm.model"))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcd...wxyz", maskAPIKey("abcdefghijklmnopqrstuvwxyz"))
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, 1, parseChoice("", 4, 1))
	assert.Equal(t, 3, parseChoice("3", 4, 1))
	assert.Equal(t, 1, parseChoice("9", 4, 1))
	assert.Equal(t, 1, parseChoice("two", 4, 1))
}
