// Package sim implements the discrete-event kernel that clsim activities run on.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// The environment processes scheduled events one at a time from a queue ordered
// by (time, seq). Processing an event runs its callbacks; callbacks resume the
// processes that were waiting on it.
//
// Cooperative Processes:
// A Process is backed by a goroutine, but control is handed over through an
// unbuffered channel: the loop blocks while a process runs and the process
// blocks while the loop runs. Exactly one of them executes at any instant, so
// model code needs no locking and every run is reproducible.
//
// Event Lifecycle:
//
//	pending -> triggered (Succeed/Fail, scheduled) -> processed (callbacks ran)
//
// Conditions (AllOf/AnyOf) count children once they are processed, which
// matches the instant at which waiting processes would observe them.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Events scheduled for the same simulated time are processed in scheduling
// order, using a monotonic seq from Clock.Next(). Wall-clock time is never read.
//
// One-Shot Signals:
// An event fires at most once. Firing it again returns a
// DUPLICATE_SIGNAL_FIRED ir.ModelError.
//
// Step Quota:
// Zero-delay loops never advance the clock. WithMaxSteps bounds the number of
// processed events and Step fails with StepsExceededError once it is passed.
package sim
