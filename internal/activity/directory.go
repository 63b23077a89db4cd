package activity

import (
	"log/slog"

	"github.com/roach88/clsim/internal/condition"
	"github.com/roach88/clsim/internal/eventlog"
)

// Metrics receives activity lifecycle observations.
// Implemented by metrics.Metrics.
type Metrics interface {
	ActivityRegistered(name string)
	ActivityCompleted(name string, duration int64)
	ResourceClaimed(resource string)
	WaitObserved(activity string, ticks int64)
}

type noopMetrics struct{}

func (noopMetrics) ActivityRegistered(string)       {}
func (noopMetrics) ActivityCompleted(string, int64) {}
func (noopMetrics) ResourceClaimed(string)          {}
func (noopMetrics) WaitObserved(string, int64)      {}

// Directory is the run-scoped index of registered activities.
//
// Entries are appended by Register and never removed. Several activities may
// share a name; ids are expected to be unique but are indexed the same way.
// A Directory belongs to exactly one simulation run.
type Directory struct {
	byName  map[string][]*Activity
	byID    map[string][]*Activity
	order   []*Activity
	journal *eventlog.Journal
	ids     IDGenerator
	metrics Metrics
	logger  *slog.Logger
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(l *slog.Logger) DirectoryOption {
	return func(d *Directory) {
		d.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) DirectoryOption {
	return func(d *Directory) {
		d.metrics = m
	}
}

// WithIDGenerator sets the generator used for activities without an explicit id.
//
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) DirectoryOption {
	return func(d *Directory) {
		d.ids = g
	}
}

// WithJournal sets the journal activity logs write to.
func WithJournal(j *eventlog.Journal) DirectoryOption {
	return func(d *Directory) {
		d.journal = j
	}
}

// NewDirectory creates an empty directory.
func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		byName:  make(map[string][]*Activity),
		byID:    make(map[string][]*Activity),
		ids:     UUIDv7Generator{},
		metrics: noopMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.journal == nil {
		d.journal = eventlog.NewJournal()
	}
	return d
}

// Journal returns the journal activity logs write to.
func (d *Directory) Journal() *eventlog.Journal {
	return d.journal
}

// Logger returns the logger activities report lifecycle diagnostics to.
func (d *Directory) Logger() *slog.Logger {
	return d.logger
}

// Lookup returns the activities registered under key, by id first, then by name.
func (d *Directory) Lookup(key string) ([]condition.Completer, bool) {
	found, ok := d.byID[key]
	if !ok {
		found, ok = d.byName[key]
	}
	if !ok {
		return nil, false
	}
	out := make([]condition.Completer, len(found))
	for i, a := range found {
		out[i] = a
	}
	return out, true
}

// ByName returns the activities registered under name.
func (d *Directory) ByName(name string) []*Activity {
	return append([]*Activity(nil), d.byName[name]...)
}

// ByID returns the activities registered under id.
func (d *Directory) ByID(id string) []*Activity {
	return append([]*Activity(nil), d.byID[id]...)
}

// All returns every registered activity in registration order.
func (d *Directory) All() []*Activity {
	return append([]*Activity(nil), d.order...)
}

// Len returns the number of registrations.
func (d *Directory) Len() int {
	return len(d.order)
}

func (d *Directory) add(a *Activity) {
	d.byName[a.name] = append(d.byName[a.name], a)
	d.byID[a.id] = append(d.byID[a.id], a)
	d.order = append(d.order, a)
}
