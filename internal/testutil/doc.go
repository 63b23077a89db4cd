// Package testutil holds deterministic generators shared by tests, the
// scenario harness and the CLI's test mode.
package testutil
