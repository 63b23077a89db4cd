package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/clsim/internal/eventlog"
)

// AssertionError is a failed assertion with the trace for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []eventlog.Entry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, entry := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] t=%d %s %s", entry.Seq, entry.Time, entry.Owner, entry.State)
		if entry.Label != "" {
			fmt.Fprintf(&buf, " (%s)", entry.Label)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against the result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertStartsAt:
		return assertStartsAt(result.Trace, a)
	case AssertCompletesAt:
		return assertCompletesAt(result.Trace, a)
	case AssertOrder:
		return assertOrder(result.Trace, a)
	case AssertStateCount:
		return assertStateCount(result.Trace, a)
	case AssertFinalTime:
		return assertFinalTime(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// bodyEntry reports whether e marks the activity body itself rather than a
// labelled plugin interval.
func bodyEntry(e eventlog.Entry, owner string, state eventlog.State) bool {
	return e.Owner == owner && e.State == state && e.Label == ""
}

func assertStartsAt(trace []eventlog.Entry, a Assertion) error {
	for _, e := range trace {
		if bodyEntry(e, a.Activity, eventlog.Start) {
			if e.Time == *a.At {
				return nil
			}
			return &AssertionError{
				Type:     AssertStartsAt,
				Expected: fmt.Sprintf("%s starts at %d", a.Activity, *a.At),
				Actual:   fmt.Sprintf("started at %d", e.Time),
				Trace:    trace,
			}
		}
	}
	return &AssertionError{
		Type:     AssertStartsAt,
		Expected: fmt.Sprintf("%s starts at %d", a.Activity, *a.At),
		Actual:   "never started",
		Trace:    trace,
	}
}

func assertCompletesAt(trace []eventlog.Entry, a Assertion) error {
	found := false
	var at int64
	for _, e := range trace {
		if bodyEntry(e, a.Activity, eventlog.Stop) {
			found = true
			at = e.Time
		}
	}
	if !found {
		return &AssertionError{
			Type:     AssertCompletesAt,
			Expected: fmt.Sprintf("%s completes at %d", a.Activity, *a.At),
			Actual:   "never completed",
			Trace:    trace,
		}
	}
	if at != *a.At {
		return &AssertionError{
			Type:     AssertCompletesAt,
			Expected: fmt.Sprintf("%s completes at %d", a.Activity, *a.At),
			Actual:   fmt.Sprintf("completed at %d", at),
			Trace:    trace,
		}
	}
	return nil
}

// assertOrder checks that the activities' first START entries appear in the
// given order. Other entries may interleave.
func assertOrder(trace []eventlog.Entry, a Assertion) error {
	positions := make(map[string]int64)
	for _, e := range trace {
		if e.State != eventlog.Start || e.Label != "" {
			continue
		}
		if _, seen := positions[e.Owner]; !seen {
			positions[e.Owner] = e.Seq
		}
	}

	for _, name := range a.Activities {
		if _, ok := positions[name]; !ok {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("all activities started: %v", a.Activities),
				Actual:   fmt.Sprintf("%s never started", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Activities); i++ {
		prev, curr := a.Activities[i-1], a.Activities[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("activities in order: %v", a.Activities),
				Actual: fmt.Sprintf("%s (seq %d) should start before %s (seq %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertStateCount(trace []eventlog.Entry, a Assertion) error {
	state := eventlog.ParseState(a.State)
	count := 0
	for _, e := range trace {
		if e.Owner == a.Owner && e.State == state {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertStateCount,
			Expected: fmt.Sprintf("%s logs %s %d times", a.Owner, a.State, a.Count),
			Actual:   fmt.Sprintf("%d times", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalTime(result *Result, a Assertion) error {
	if result.FinalTime != *a.At {
		return &AssertionError{
			Type:     AssertFinalTime,
			Expected: fmt.Sprintf("run ends at %d", *a.At),
			Actual:   fmt.Sprintf("ended at %d", result.FinalTime),
			Trace:    result.Trace,
		}
	}
	return nil
}
