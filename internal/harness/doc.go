// Package harness runs simulation scenarios and checks their traces.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: harbour
//	description: "sail leaves once the tide is in and the ship is moored"
//	model: ../models/harbour.yaml
//	until: 20            # optional horizon
//	max_steps: 1000      # optional event quota
//	expect_error: ""     # optional; the run must fail with this substring
//	assertions:
//	  - type: completes_at
//	    activity: sail
//	    at: 5
//	  - type: order
//	    activities: [moor, sail]
//	  - type: state_count
//	    owner: sail
//	    state: WAIT_START
//	    count: 1
//
// The model path is resolved relative to the scenario file.
//
// # Assertion Types
//
//   - starts_at: the activity's first START entry is at the given time
//   - completes_at: the activity's last STOP entry is at the given time
//   - order: the activities' first START entries appear in this order
//   - state_count: the owner logged the state exactly count times
//   - final_time: the simulation clock ended at the given time
//
// # Deterministic Testing
//
// Each scenario builds its model on a fresh environment with sequential
// activity ids (testutil.SequentialIDs) and persists the trace to a fresh
// in-memory SQLite store under a fixed run id. The trace is read back from the
// store, so identical scenarios produce byte-identical golden snapshots.
package harness
