package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/clsim/internal/eventlog"
)

// Scenario is a model run with expectations about its trace.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the path to a .cue, .yaml or CUE directory model.
	// Relative paths are resolved against the scenario file's directory.
	Model string `yaml:"model"`

	// Until bounds the run. Nil runs until no events remain.
	Until *int64 `yaml:"until,omitempty"`

	// MaxSteps aborts the run after this many events. Zero is unlimited.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// ExpectError, if set, requires the run to fail with an error containing it.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the trace.
	Assertions []Assertion `yaml:"assertions"`

	// RunID stamps the stored run. Defaults to a fixed test id.
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion checks one property of the trace.
type Assertion struct {
	Type string `yaml:"type"`

	// Activity names the activity for starts_at and completes_at.
	Activity string `yaml:"activity,omitempty"`

	// At is the expected time for starts_at, completes_at and final_time.
	At *int64 `yaml:"at,omitempty"`

	// Activities is the expected order for order.
	Activities []string `yaml:"activities,omitempty"`

	// Owner, State and Count are used by state_count.
	Owner string `yaml:"owner,omitempty"`
	State string `yaml:"state,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStartsAt    = "starts_at"
	AssertCompletesAt = "completes_at"
	AssertOrder       = "order"
	AssertStateCount  = "state_count"
	AssertFinalTime   = "final_time"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos like "assertion:" fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(filepath.Dir(path), scenario.Model)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model not found: %s", s.Model)
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative")
	}
	if len(s.Assertions) == 0 && s.ExpectError == "" {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertStartsAt, AssertCompletesAt:
		if a.Activity == "" {
			return fmt.Errorf("assertions[%d]: activity is required for %s", index, a.Type)
		}
		if a.At == nil {
			return fmt.Errorf("assertions[%d]: at is required for %s", index, a.Type)
		}
	case AssertOrder:
		if len(a.Activities) < 2 {
			return fmt.Errorf("assertions[%d]: order needs at least two activities", index)
		}
	case AssertStateCount:
		if a.Owner == "" {
			return fmt.Errorf("assertions[%d]: owner is required for state_count", index)
		}
		if eventlog.ParseState(a.State) == eventlog.Unknown {
			return fmt.Errorf("assertions[%d]: unknown state %q", index, a.State)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertFinalTime:
		if a.At == nil {
			return fmt.Errorf("assertions[%d]: at is required for final_time", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
