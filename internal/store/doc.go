// Package store provides SQLite-backed storage for simulation traces.
//
// The store records what a run logged; it never restores a simulation.
//
//   - Runs: one row per simulation run (model name and hash, final time)
//   - Log entries: the journal of a run, one row per entry
//
// # Critical Patterns
//
// Content-addressed entries:
//   - Entry ids are ir.LogEntryID over (run, owner, activity, state, label, t, seq)
//   - Writes use ON CONFLICT DO NOTHING, so writing a trace twice is a no-op
//
// Logical ordering:
//   - Entries are read back ORDER BY seq ASC, id ASC COLLATE BINARY
//   - Simulated time is stored but never used for ordering
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
