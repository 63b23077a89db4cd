package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "harbour.yaml", harbourModel)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ model harbour is valid (2 activities)")
}

func TestValidateCommand_ValidJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "harbour.yaml", harbourModel)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.Equal(t, "harbour", result.Model)
	assert.NotEmpty(t, result.ModelHash)
}

func TestValidateCommand_UnknownNames(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		code     string
		activity string
	}{
		{
			name:     "signal",
			model:    "name: m\nactivities: [{name: a, kind: delay, start: ghost}]\n",
			code:     "UNKNOWN_SIGNAL",
			activity: "a",
		},
		{
			name:     "activity",
			model:    "name: m\nactivities: [{name: a, kind: delay, start: {activity: later}}]\n",
			code:     "UNKNOWN_ACTIVITY_REFERENCE",
			activity: "a",
		},
		{
			name:     "structure",
			model:    "name: m\nactivities: [{name: a, kind: fly}]\n",
			code:     "INVALID_MODEL",
			activity: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "m.yaml", tt.model)

			out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), path)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var result ValidationResult
			resp := decodeData(t, out, &result)
			assert.Equal(t, "error", resp.Status)
			assert.False(t, result.Valid)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.code, result.Errors[0].Code)
			assert.Equal(t, tt.activity, result.Errors[0].Activity)
		})
	}
}

func TestValidateCommand_CUEErrorHasLine(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.cue", "name: \"x\"\nactivities: [\n")

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Contains(t, out, "✗ model is invalid")
	assert.Contains(t, out, "[E_LOAD]")
	assert.Contains(t, out, "line ")
}
