package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanCommand_RequiresExactlyOneTarget(t *testing.T) {
	path := seedConflictDatabase(t)

	_, err := executeCommand(t, "scan", "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = executeCommand(t, "scan", "--db", path, "--project", "proj-1", "--scene", "s1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScanCommand_MissingDatabase(t *testing.T) {
	_, err := executeCommand(t, "scan", "--db", filepath.Join(t.TempDir(), "none.db"), "--project", "p")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScanCommand_ProjectTextOutput(t *testing.T) {
	path := seedConflictDatabase(t)

	out, err := executeCommand(t, "scan", "--db", path, "--project", "proj-1")
	require.NoError(t, err)
	assert.Contains(t, out, "new alerts:       1")
	assert.Contains(t, out, "by severity:      medium=1")
}

func TestScanCommand_JSONOutput(t *testing.T) {
	path := seedConflictDatabase(t)

	out, err := executeCommand(t, "--format", "json", "scan", "--db", path, "--project", "proj-1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "proj-1", data["project_id"])
	newAlerts, ok := data["new_alerts"].([]any)
	require.True(t, ok)
	assert.Len(t, newAlerts, 1)
}

func TestScanCommand_SceneScan(t *testing.T) {
	path := seedConflictDatabase(t)

	out, err := executeCommand(t, "scan", "--db", path, "--scene", "s2")
	require.NoError(t, err)
	assert.Contains(t, out, "scene:            s2")
	assert.Contains(t, out, "new alerts:       1")
}

func TestScanCommand_UnknownScene(t *testing.T) {
	path := seedConflictDatabase(t)

	_, err := executeCommand(t, "scan", "--db", path, "--scene", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScanCommand_SecondScanIsIdempotent(t *testing.T) {
	path := seedConflictDatabase(t)

	_, err := executeCommand(t, "scan", "--db", path, "--project", "proj-1")
	require.NoError(t, err)

	out, err := executeCommand(t, "scan", "--db", path, "--project", "proj-1")
	require.NoError(t, err)
	assert.Contains(t, out, "new alerts:       0")
	assert.Contains(t, out, "skipped open:     1")
}

func TestScanCommand_WithPolicyFile(t *testing.T) {
	path := seedConflictDatabase(t)
	policyPath := writeTempPolicy(t, `
policy: {
	numeric_jump_percent: 10
}
`)

	out, err := executeCommand(t, "scan", "--db", path, "--project", "proj-1", "--policy", policyPath)
	require.NoError(t, err)
	// 17 -> 25 is a 32% jump, above the tightened 10% threshold.
	assert.Contains(t, out, "by severity:      high=1")
}

func TestScanCommand_BadPolicyFile(t *testing.T) {
	path := seedConflictDatabase(t)
	policyPath := writeTempPolicy(t, `policy: {numeric_jump_percent: "lots"}`)

	_, err := executeCommand(t, "scan", "--db", path, "--project", "proj-1", "--policy", policyPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
