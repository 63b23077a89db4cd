package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedHarbour(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := writeFile(t, dir, "harbour.yaml", harbourModel)
	dbPath := filepath.Join(dir, "runs.db")
	_, err := execute(deterministicRun("text"), path, "--db", dbPath)
	require.NoError(t, err)
	return dbPath
}

func TestTraceCommand_ListsRuns(t *testing.T) {
	dbPath := storedHarbour(t)

	out, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.NoError(t, err)

	var list RunList
	decodeData(t, out, &list)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, "run-1", list.Runs[0].ID)
	assert.Equal(t, 6, list.Runs[0].EntryCount)
}

func TestTraceCommand_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	out, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs stored.")
}

func TestTraceCommand_ShowsRun(t *testing.T) {
	dbPath := storedHarbour(t)

	out, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)

	var result TraceResult
	decodeData(t, out, &result)
	assert.Equal(t, "harbour", result.Run.ModelName)
	require.Len(t, result.Entries, 6)
	assert.Equal(t, 6, result.Stats.Total)
	assert.Equal(t, 2, result.Stats.Owners)
	assert.Equal(t, map[string]int{"START": 2, "STOP": 2, "WAIT_START": 1, "WAIT_STOP": 1}, result.Stats.ByState)
}

func TestTraceCommand_ActivityFilter(t *testing.T) {
	dbPath := storedHarbour(t)

	out, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", dbPath, "--run", "run-1", "--activity", "act-1")
	require.NoError(t, err)

	var result TraceResult
	decodeData(t, out, &result)
	require.Len(t, result.Entries, 2)
	for _, e := range result.Entries {
		assert.Equal(t, "moor", e.Owner)
	}
}

func TestTraceCommand_Text(t *testing.T) {
	dbPath := storedHarbour(t)

	out, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Run run-1 of harbour")
	assert.Contains(t, out, "6 entries from 2 owner(s): START=2 STOP=2 WAIT_START=1 WAIT_STOP=1")
}

func TestTraceCommand_UnknownRun(t *testing.T) {
	dbPath := storedHarbour(t)

	_, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found")
}

func TestTraceCommand_RequiresDB(t *testing.T) {
	_, err := execute(NewTraceCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}
