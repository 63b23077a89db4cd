package sim

import "github.com/roach88/clsim/internal/ir"

type eventState int

const (
	statePending eventState = iota
	stateTriggered
	stateProcessed
)

// Event is a one-shot signal on the simulated clock.
//
// An event starts pending, becomes triggered when Succeed or Fail is called
// (which schedules it), and becomes processed when the environment runs its
// callbacks. Processes suspend on events with Process.Wait.
type Event struct {
	env       *Env
	name      string
	state     eventState
	at        int64
	value     any
	err       error
	callbacks []func(*Event)
}

// NewEvent creates a pending event. The name is used in logs and errors.
func (e *Env) NewEvent(name string) *Event {
	return &Event{env: e, name: name}
}

// Name returns the event's diagnostic name.
func (ev *Event) Name() string {
	return ev.name
}

// Env returns the environment the event belongs to.
func (ev *Event) Env() *Env {
	return ev.env
}

// Triggered reports whether Succeed or Fail has been called.
func (ev *Event) Triggered() bool {
	return ev.state >= stateTriggered
}

// Processed reports whether the environment has run the event's callbacks.
func (ev *Event) Processed() bool {
	return ev.state == stateProcessed
}

// OK reports whether the event was triggered successfully.
func (ev *Event) OK() bool {
	return ev.Triggered() && ev.err == nil
}

// Value returns the value passed to Succeed.
func (ev *Event) Value() any {
	return ev.value
}

// Err returns the error passed to Fail.
func (ev *Event) Err() error {
	return ev.err
}

// Succeed triggers the event with a value and schedules it at the current time.
// Returns a DUPLICATE_SIGNAL_FIRED error if the event was already triggered.
func (ev *Event) Succeed(value any) error {
	return ev.trigger(value, nil, 0)
}

// Fail triggers the event with an error. Processes waiting on it receive err.
// Returns a DUPLICATE_SIGNAL_FIRED error if the event was already triggered.
func (ev *Event) Fail(err error) error {
	return ev.trigger(nil, err, 0)
}

func (ev *Event) trigger(value any, err error, delay int64) error {
	if ev.state != statePending {
		return ir.NewDuplicateSignalError(ev.name)
	}
	ev.state = stateTriggered
	ev.at = ev.env.now + delay
	ev.value = value
	ev.err = err
	ev.env.schedule(ev, delay)
	return nil
}

// settled reports whether the event's outcome is fixed at the current instant:
// it was processed, or it was triggered to fire now. A timeout scheduled for
// a later time is triggered but not settled.
func (ev *Event) settled() bool {
	if ev.state == stateProcessed {
		return true
	}
	return ev.state == stateTriggered && ev.at <= ev.env.now
}

// subscribe registers cb to run when the event is processed.
// If the event has already been processed, cb runs immediately.
func (ev *Event) subscribe(cb func(*Event)) {
	if ev.state == stateProcessed {
		cb(ev)
		return
	}
	ev.callbacks = append(ev.callbacks, cb)
}

// Timeout creates an event that fires delay ticks from now.
// Negative delays are treated as zero.
func (e *Env) Timeout(delay int64) *Event {
	if delay < 0 {
		delay = 0
	}
	ev := e.NewEvent("timeout")
	_ = ev.trigger(nil, nil, delay)
	return ev
}

// AllOf returns an event that fires once every given event has been processed
// successfully. With no events it fires immediately.
// If any child fails, the condition fails with the child's error.
func (e *Env) AllOf(events ...*Event) *Event {
	return e.condition("all_of", events, len(events))
}

// AnyOf returns an event that fires once any given event has been processed
// successfully. With no events it never fires.
func (e *Env) AnyOf(events ...*Event) *Event {
	if len(events) == 0 {
		return e.NewEvent("any_of")
	}
	return e.condition("any_of", events, 1)
}

func (e *Env) condition(name string, events []*Event, need int) *Event {
	cond := e.NewEvent(name)
	if need == 0 {
		_ = cond.Succeed(nil)
		return cond
	}

	count := 0
	check := func(ev *Event) {
		if cond.state != statePending {
			return
		}
		if ev.err != nil {
			_ = cond.Fail(ev.err)
			return
		}
		count++
		if count >= need {
			_ = cond.Succeed(nil)
		}
	}

	// Children settled at this instant count immediately, so a tree of fired
	// conditions is itself triggered as soon as it is built. The subscription
	// stays so a failed child is still observed by the kernel.
	for _, ev := range events {
		counted := false
		once := func(ev *Event) {
			if counted {
				return
			}
			counted = true
			check(ev)
		}
		ev.subscribe(once)
		if ev.settled() {
			once(ev)
		}
	}
	return cond
}
