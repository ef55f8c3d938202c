package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make([]string, 0, 3)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "validate")
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "replay")
}

func TestRootCommand_InvalidFormatRejected(t *testing.T) {
	_, err := executeCommand(t, "--format", "xml", "validate", "testdata/profiles.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_TextAndJSONAccepted(t *testing.T) {
	for _, format := range ValidFormats {
		_, err := executeCommand(t, "--format", format, "validate", "testdata/profiles.cue")
		assert.NoError(t, err, "format %s", format)
	}
}
