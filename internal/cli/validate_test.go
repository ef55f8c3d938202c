package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidProfiles(t *testing.T) {
	out, err := executeCommand(t, "validate", "testdata/profiles.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "3 profile(s) valid")
	assert.Contains(t, out, "lease/v1")
}

func TestValidate_JSONOutput(t *testing.T) {
	out, err := executeCommand(t, "--format", "json", "validate", "testdata/profiles.cue")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidate_BadProfileFailsWithExitFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles: lease: {
	enabled:          true
	contract_version: "lease/v1"
	max_candidates:   0
	max_diagnostics:  8
}
`), 0o644))

	_, err := executeCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidate_MissingFileIsCommandError(t *testing.T) {
	_, err := executeCommand(t, "validate", "testdata/does-not-exist.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
