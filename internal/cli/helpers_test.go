package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clsim/internal/testutil"
)

const harbourModel = `name: harbour
signals:
  - {name: tide, at: 1}
activities:
  - {name: moor, kind: delay, duration: 2}
  - name: sail
    kind: delay
    duration: 3
    start: [tide, {activity: moor}]
`

const shortfallModel = `name: shortfall
containers:
  - {name: src, capacity: 5, initial: 1}
  - {name: dst, capacity: 5}
activities:
  - {name: move, kind: transfer, from: src, to: dst, amount: 3, duration: 1}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout and the command error.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// deterministicRun returns a run command with fixed run and activity ids.
func deterministicRun(format string) *cobra.Command {
	return newRunCommand(&RunOptions{
		RootOptions: &RootOptions{Format: format},
		RunIDs:      testutil.NewFixedRunID("run-1"),
		ActivityIDs: testutil.NewSequentialIDs("act"),
	})
}

func decodeData(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return CLIResponse{Status: resp.Status, Error: resp.Error}
}
