// Package eventlog records the timestamped state trace of a simulation run.
//
// A Journal is the run-wide ordered trace. Each entity that logs (an activity,
// a resource, a container) owns a Log bound to the journal. Entries carry a
// logical sequence number so entries at the same simulated time keep the
// order in which they were written.
package eventlog

import (
	"github.com/roach88/clsim/internal/sim"
)

// State is the activity state recorded by an entry.
type State string

const (
	Start     State = "START"
	Stop      State = "STOP"
	WaitStart State = "WAIT_START"
	WaitStop  State = "WAIT_STOP"
	Unknown   State = "UNKNOWN"
)

// ParseState maps a stored state string back to a State.
// Unrecognized values become Unknown.
func ParseState(s string) State {
	switch State(s) {
	case Start, Stop, WaitStart, WaitStop:
		return State(s)
	default:
		return Unknown
	}
}

// Entry is one line of the trace.
type Entry struct {
	Seq        int64  `json:"seq"`
	Time       int64  `json:"t"`
	Owner      string `json:"owner"`
	ActivityID string `json:"activity_id"`
	State      State  `json:"state"`
	Label      string `json:"label,omitempty"`
}

// Recorder is the logging boundary used by activities and plugins.
type Recorder interface {
	// ID identifies the entity owning the log.
	ID() string

	// LogEntry appends an entry to the log.
	LogEntry(t int64, activityID string, state State, label string)
}

// Journal collects entries from every Log bound to it.
type Journal struct {
	clock   *sim.Clock
	entries []Entry
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{clock: sim.NewClock()}
}

// Log creates a log owned by the named entity.
func (j *Journal) Log(owner, id string) *Log {
	return &Log{journal: j, owner: owner, id: id}
}

// Entries returns a copy of the trace in write order.
func (j *Journal) Entries() []Entry {
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len returns the number of entries.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Filter returns the entries written by owner.
func (j *Journal) Filter(owner string) []Entry {
	var out []Entry
	for _, e := range j.entries {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	return out
}

func (j *Journal) append(e Entry) Entry {
	e.Seq = j.clock.Next()
	j.entries = append(j.entries, e)
	return e
}

// Log is the per-entity view of a journal.
type Log struct {
	journal *Journal
	owner   string
	id      string
	entries []Entry
}

// ID returns the owning entity's id.
func (l *Log) ID() string {
	return l.id
}

// Owner returns the owning entity's name.
func (l *Log) Owner() string {
	return l.owner
}

// LogEntry appends an entry to the log and its journal.
func (l *Log) LogEntry(t int64, activityID string, state State, label string) {
	e := l.journal.append(Entry{
		Time:       t,
		Owner:      l.owner,
		ActivityID: activityID,
		State:      state,
		Label:      label,
	})
	l.entries = append(l.entries, e)
}

// Entries returns the entries written through this log.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
