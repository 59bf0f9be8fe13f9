package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.Equal(t, "Print the version number", versionCmd.Short)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	SetVersion("1.4.0")
	defer SetVersion(originalVersion)

	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "studypipe version 1.4.0")
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	_, err := execute(t, "version", "extra")
	requireExit(t, ExitUsage, err)
}
