package sim

import (
	"errors"
	"fmt"
)

// quota counts processed events and enforces an upper bound.
//
// Zero-delay loops never advance the clock, so RunUntil cannot stop them.
// The step quota is the only guarantee such a model terminates.
type quota struct {
	limit   int
	current int
}

// check counts one step and fails once the limit is passed.
// A limit of zero or less disables the quota.
func (q *quota) check(now int64) error {
	q.current++
	if q.limit > 0 && q.current > q.limit {
		return &StepsExceededError{At: now, Steps: q.current, Limit: q.limit}
	}
	return nil
}

// StepsExceededError is returned when a run processes more events than the
// configured limit.
type StepsExceededError struct {
	At    int64 // simulated time of the offending event
	Steps int
	Limit int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("step quota exceeded at t=%d: %d steps > %d limit", e.At, e.Steps, e.Limit)
}

// IsStepsExceededError reports whether err wraps a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
