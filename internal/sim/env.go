package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrClosed is returned by Process.Wait and Env.Step once the environment is closed.
var ErrClosed = errors.New("sim: environment closed")

// Observer receives notifications about kernel activity.
// Implemented by metrics.Metrics.
type Observer interface {
	EventProcessed(name string)
}

// Env is the single-writer discrete-event environment.
//
// CRITICAL: All mutations happen either in the goroutine calling Run/Step or in
// the single process that currently holds control. Never call Env methods from
// an unrelated goroutine while a run is in progress.
type Env struct {
	now      int64
	clock    *Clock
	queue    eventQueue
	procs    []*Process
	closing  bool
	logger   *slog.Logger
	observer Observer
	quota    quota
}

// Option configures an Env.
type Option func(*Env)

// WithLogger sets the logger used for kernel diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Env) {
		e.logger = l
	}
}

// WithStart sets the initial simulated time.
func WithStart(t int64) Option {
	return func(e *Env) {
		e.now = t
	}
}

// WithObserver attaches an observer notified of every processed event.
func WithObserver(o Observer) Option {
	return func(e *Env) {
		e.observer = o
	}
}

// WithMaxSteps bounds the number of events a run may process.
// Zero means unlimited.
func WithMaxSteps(n int) Option {
	return func(e *Env) {
		e.quota.limit = n
	}
}

// NewEnv creates an environment at time 0 with an empty queue.
func NewEnv(opts ...Option) *Env {
	e := &Env{
		clock:  NewClock(),
		queue:  make(eventQueue, 0, 64),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the current simulated time.
func (e *Env) Now() int64 {
	return e.now
}

// Logger returns the environment's logger.
func (e *Env) Logger() *slog.Logger {
	return e.logger
}

// schedule queues ev to be processed delay ticks from now.
func (e *Env) schedule(ev *Event, delay int64) {
	e.queue.push(scheduled{
		at:    e.now + delay,
		seq:   e.clock.Next(),
		event: ev,
	})
}

// Steps returns the number of events processed so far.
func (e *Env) Steps() int {
	return e.quota.current
}

// Peek returns the time of the next scheduled event.
func (e *Env) Peek() (int64, bool) {
	item, ok := e.queue.peek()
	if !ok {
		return 0, false
	}
	return item.at, true
}

// Step processes the next scheduled event.
// Returns false when the queue is empty.
//
// A failed event that nobody subscribed to aborts the run: its error is
// returned so model errors raised inside processes surface to the caller.
func (e *Env) Step() (bool, error) {
	if e.closing {
		return false, ErrClosed
	}
	if e.queue.Len() == 0 {
		return false, nil
	}

	item := e.queue.pop()
	e.now = item.at
	if err := e.quota.check(e.now); err != nil {
		return false, err
	}
	ev := item.event
	ev.state = stateProcessed
	callbacks := ev.callbacks
	ev.callbacks = nil

	if e.observer != nil {
		e.observer.EventProcessed(ev.name)
	}

	if ev.err != nil && len(callbacks) == 0 {
		e.logger.Debug("unhandled event failure", "event", ev.name, "t", e.now, "error", ev.err)
		return true, fmt.Errorf("event %s failed at t=%d: %w", ev.name, e.now, ev.err)
	}

	for _, cb := range callbacks {
		cb(ev)
	}
	return true, nil
}

// Run processes events until the queue drains or the context is cancelled.
//
// Returns nil when the queue drains. Processes still suspended at that point
// are reported by Pending(); deadlock is a modeling error the kernel does not
// diagnose further.
func (e *Env) Run(ctx context.Context) error {
	e.logger.Debug("environment running", "t", e.now)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := e.Step()
		if err != nil {
			return err
		}
		if !ok {
			e.logger.Debug("environment drained", "t", e.now, "pending", len(e.Pending()))
			return nil
		}
	}
}

// RunUntil processes every event scheduled at or before until, then advances
// the clock to until.
func (e *Env) RunUntil(ctx context.Context, until int64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		at, ok := e.Peek()
		if !ok || at > until {
			break
		}
		if _, err := e.Step(); err != nil {
			return err
		}
	}
	if until > e.now {
		e.now = until
	}
	return nil
}

// Pending returns processes that are suspended on an event that has not fired.
func (e *Env) Pending() []*Process {
	var out []*Process
	for _, p := range e.procs {
		if p.started && !p.done && p.waiting != nil {
			out = append(out, p)
		}
	}
	return out
}

// Close unwinds every suspended process. Each one is resumed in turn and its
// pending Wait returns ErrClosed, so its goroutine can exit.
// After Close the environment cannot be stepped.
func (e *Env) Close() {
	if e.closing {
		return
	}
	e.closing = true
	for _, p := range e.Pending() {
		p.transfer()
	}
}
