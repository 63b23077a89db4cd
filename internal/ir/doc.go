// Package ir holds the foundational types shared by every clsim package.
//
// This package contains the error taxonomy, canonical JSON and
// content-addressed identity helpers. All other internal packages may import
// ir; ir imports nothing internal.
//
// Key design constraints:
//   - Simulated time is an int64 tick count, never a float or wall-clock value
//   - Ordering inside a run uses logical sequence numbers (seq)
//   - All JSON tags use snake_case
package ir
