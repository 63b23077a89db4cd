package harness

import "github.com/roach88/clsim/internal/eventlog"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when the run behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Trace is the run's log entries in sequence order, as read back from the store.
	Trace []eventlog.Entry `json:"trace"`

	// FinalTime is the simulation clock when the run stopped.
	FinalTime int64 `json:"final_time"`

	// Pending names processes still suspended when the run stopped.
	Pending []string `json:"pending,omitempty"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []eventlog.Entry{},
		Pending: []string{},
		Errors:  []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
