package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harbourScenario = `name: harbour
description: "sail waits for tide and mooring"
model: harbour.yaml
assertions:
  - {type: completes_at, activity: sail, at: 5}
`

const wrongScenario = `name: wrong
description: "expects the wrong completion time"
model: harbour.yaml
assertions:
  - {type: completes_at, activity: sail, at: 9}
`

func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "harbour.yaml", harbourModel)
	for name, content := range scenarios {
		writeFile(t, dir, name, content)
	}
	return dir
}

func TestTestCommand_MissingArgs(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_EmptyDir(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommand_Pass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "models/harbour.yaml", harbourModel)
	scenarios := filepath.Join(dir, "scenarios")
	writeFile(t, scenarios, "harbour.yaml", "name: harbour\ndescription: d\nmodel: ../models/harbour.yaml\nassertions:\n  - {type: completes_at, activity: sail, at: 5}\n")

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ harbour")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommand_FailureJSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"s1.yml":  harbourScenario,
		"s2.yaml": wrongScenario,
	})
	// The model file itself is not a scenario; filter it out.
	out, err := execute(NewTestCommand(&RootOptions{Format: "json"}), dir, "--filter", "s*")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "wrong", result.Scenarios[1].Name)
	assert.False(t, result.Scenarios[1].Pass)
}

func TestTestCommand_UpdateThenCompareGolden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"s1.yaml": harbourScenario})

	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "s*", "--update")
	require.NoError(t, err)

	goldenPath := filepath.Join(dir, "golden", "harbour.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"harbour"`)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "s*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ harbour")

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"tampered":true}`), 0644))
	out, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "s*")
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_BadFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"s1.yaml": harbourScenario})

	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
