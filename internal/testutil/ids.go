package testutil

import "fmt"

// SequentialIDs generates "<prefix>-1", "<prefix>-2", ... and never runs out.
//
// It satisfies activity.IDGenerator, so a scenario built twice with fresh
// SequentialIDs assigns identical activity ids and produces identical traces.
type SequentialIDs struct {
	prefix string
	clock  *DeterministicClock
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "act".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "act"
	}
	return &SequentialIDs{prefix: prefix, clock: NewDeterministicClock()}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.clock.Next())
}

// Reset restarts the sequence at 1.
func (g *SequentialIDs) Reset() {
	g.clock.Reset()
}

// FixedRunID returns the same run id every time.
//
// The CLI stamps stored runs with a generated id; tests pin it so stored
// rows and printed output are reproducible.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run id generator. An empty id defaults to
// "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed id.
func (g *FixedRunID) Generate() string {
	return g.id
}
