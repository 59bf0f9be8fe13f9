package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
	_ = SetLogFile("")
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "test message arg")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("test message")
	Info("info message")

	assert.Zero(t, buf.Len())
}

func TestWarn_AlwaysPrinted(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("flashcards failed: %v", "bad json")
	Error("run failed")

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "flashcards failed: bad json")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "run failed")
}

func TestSection(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("EXTRACT")

	assert.Contains(t, buf.String(), "=== EXTRACT ===")
}

func TestWith_AddsFieldsAndRedacts(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	With("material", "m-1", "api_key", "sk-secret").Info("stage %s done", "quiz")

	out := buf.String()
	assert.Contains(t, out, "stage quiz done")
	assert.Contains(t, out, "m-1")
	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, "sk-secret")
}

func TestSetLogFile_WritesJSON(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	path := filepath.Join(t.TempDir(), "pipeline_logs.txt")
	require.NoError(t, SetLogFile(path))

	Section("QUIZ")
	With("material", "m-2").Info("wrote quiz")
	Sync()
	require.NoError(t, SetLogFile(""))

	// Info entries skip the console in non-verbose mode.
	assert.Zero(t, buf.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "wrote quiz", entry["msg"])
	assert.Equal(t, "m-2", entry["material"])
	assert.Equal(t, "info", entry["level"])
}

func TestSetLogFile_BadPath(t *testing.T) {
	defer reset()

	err := SetLogFile(filepath.Join(t.TempDir(), "missing", "dir", "log.txt"))
	assert.Error(t, err)
}
