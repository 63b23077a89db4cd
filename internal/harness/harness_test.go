package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clsim/internal/eventlog"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_ScenariosPass(t *testing.T) {
	for _, name := range []string{"harbour", "horizon", "lifting", "shortfall", "quota"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_HorizonLeavesPending(t *testing.T) {
	result, err := Run(loadScenario(t, "horizon"))
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.FinalTime)
	assert.Equal(t, []string{"sail"}, result.Pending)
}

func TestRun_TraceIsReadBackInOrder(t *testing.T) {
	result, err := Run(loadScenario(t, "lifting"))
	require.NoError(t, err)

	require.NotEmpty(t, result.Trace)
	for i := 1; i < len(result.Trace); i++ {
		assert.Less(t, result.Trace[i-1].Seq, result.Trace[i].Seq)
	}
}

func TestRun_Deterministic(t *testing.T) {
	first, err := Run(loadScenario(t, "lifting"))
	require.NoError(t, err)
	second, err := Run(loadScenario(t, "lifting"))
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	s := loadScenario(t, "harbour")
	wrong := int64(99)
	s.Assertions = []Assertion{
		{Type: AssertCompletesAt, Activity: "sail", At: &wrong},
		{Type: AssertOrder, Activities: []string{"sail", "moor"}},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "completed at 5")
	assert.Contains(t, result.Errors[1], "sail (seq 5) should start before moor (seq 1)")
}

func TestRun_UnexpectedRunFailure(t *testing.T) {
	s := loadScenario(t, "shortfall")
	s.ExpectError = ""

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "run failed")
}

func TestRun_ExpectedFailureThatSucceeds(t *testing.T) {
	s := loadScenario(t, "harbour")
	s.ExpectError = "boom"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "but it succeeded")
}

func TestEvaluateAssertions(t *testing.T) {
	trace := []eventlog.Entry{
		{Seq: 1, Time: 0, Owner: "a", State: eventlog.WaitStart, Label: "pre-delay"},
		{Seq: 2, Time: 1, Owner: "a", State: eventlog.WaitStop, Label: "pre-delay"},
		{Seq: 3, Time: 1, Owner: "a", State: eventlog.Start},
		{Seq: 4, Time: 1, Owner: "b", State: eventlog.Start},
		{Seq: 5, Time: 4, Owner: "a", State: eventlog.Stop},
	}
	result := &Result{Pass: true, Trace: trace, FinalTime: 4}
	at := func(v int64) *int64 { return &v }

	tests := []struct {
		name      string
		assertion Assertion
		ok        bool
	}{
		{"starts_at", Assertion{Type: AssertStartsAt, Activity: "a", At: at(1)}, true},
		{"starts_at wrong", Assertion{Type: AssertStartsAt, Activity: "a", At: at(0)}, false},
		{"starts_at never", Assertion{Type: AssertStartsAt, Activity: "c", At: at(0)}, false},
		{"completes_at", Assertion{Type: AssertCompletesAt, Activity: "a", At: at(4)}, true},
		{"completes_at never", Assertion{Type: AssertCompletesAt, Activity: "b", At: at(4)}, false},
		{"order", Assertion{Type: AssertOrder, Activities: []string{"a", "b"}}, true},
		{"order reversed", Assertion{Type: AssertOrder, Activities: []string{"b", "a"}}, false},
		{"order missing", Assertion{Type: AssertOrder, Activities: []string{"a", "c"}}, false},
		{"state_count", Assertion{Type: AssertStateCount, Owner: "a", State: "WAIT_START", Count: 1}, true},
		{"state_count zero", Assertion{Type: AssertStateCount, Owner: "b", State: "STOP", Count: 0}, true},
		{"state_count wrong", Assertion{Type: AssertStateCount, Owner: "a", State: "START", Count: 2}, false},
		{"final_time", Assertion{Type: AssertFinalTime, At: at(4)}, true},
		{"final_time wrong", Assertion{Type: AssertFinalTime, At: at(5)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(result, []Assertion{tt.assertion})
			if tt.ok {
				assert.Empty(t, failures)
			} else {
				assert.Len(t, failures, 1)
			}
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertFinalTime,
		Expected: "run ends at 2",
		Actual:   "ended at 3",
		Trace: []eventlog.Entry{
			{Seq: 1, Time: 0, Owner: "a", State: eventlog.WaitStart, Label: "pre-delay"},
		},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: final_time")
	assert.Contains(t, msg, "[1] t=0 a WAIT_START (pre-delay)")
}
