package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/clsim/internal/eventlog"
	"github.com/roach88/clsim/internal/ir"
)

// TraceSnapshot is the golden form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string           `json:"scenario_name"`
	FinalTime    int64            `json:"final_time"`
	Pending      []string         `json:"pending"`
	Trace        []eventlog.Entry `json:"trace"`
}

// toCanonicalMap converts the snapshot to plain values for ir.MarshalCanonical.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		entry := map[string]any{
			"seq":         e.Seq,
			"t":           e.Time,
			"owner":       e.Owner,
			"activity_id": e.ActivityID,
			"state":       string(e.State),
		}
		if e.Label != "" {
			entry["label"] = e.Label
		}
		trace[i] = entry
	}

	pending := s.Pending
	if pending == nil {
		pending = []string{}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"final_time":    s.FinalTime,
		"pending":       pending,
		"trace":         trace,
	}
}

// Marshal renders the snapshot as canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		FinalTime:    result.FinalTime,
		Pending:      result.Pending,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
