package sim

import "fmt"

// ProcessFunc is the body of a process. It runs with control of the
// environment and suspends by calling p.Wait or p.Sleep.
type ProcessFunc func(p *Process) error

// Process is a suspendable unit of execution.
//
// The embedded Event fires when the body returns: it succeeds on a nil error
// and fails with the body's error otherwise. Other processes wait on a process
// the same way they wait on any event.
type Process struct {
	*Event
	env     *Env
	fn      ProcessFunc
	resume  chan struct{}
	yield   chan struct{}
	started bool
	done    bool
	waiting *Event
}

// Process schedules fn to start at the current time.
func (e *Env) Process(name string, fn ProcessFunc) *Process {
	p := &Process{
		Event:  e.NewEvent(name),
		env:    e,
		fn:     fn,
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
	}
	e.procs = append(e.procs, p)

	boot := e.NewEvent(name + ":boot")
	boot.subscribe(func(*Event) { p.boot() })
	_ = boot.Succeed(nil)
	return p
}

// Env returns the environment the process runs in.
func (p *Process) Env() *Env {
	return p.env
}

// Now returns the current simulated time.
func (p *Process) Now() int64 {
	return p.env.now
}

// Done reports whether the body has returned.
func (p *Process) Done() bool {
	return p.done
}

// Waiting returns the event the process is suspended on, if any.
func (p *Process) Waiting() *Event {
	return p.waiting
}

func (p *Process) boot() {
	if p.env.closing {
		return
	}
	p.started = true
	go p.run()
	p.transfer()
}

func (p *Process) run() {
	<-p.resume
	err := p.invoke()
	p.done = true
	if err != nil {
		_ = p.Event.Fail(err)
	} else {
		_ = p.Event.Succeed(nil)
	}
	p.yield <- struct{}{}
}

func (p *Process) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("process %s panicked: %v", p.name, r)
		}
	}()
	return p.fn(p)
}

// transfer hands control to the process goroutine and blocks until it
// suspends again or finishes.
func (p *Process) transfer() {
	p.resume <- struct{}{}
	<-p.yield
}

// Wait suspends the process until ev is processed and returns ev's error.
// An already processed event returns immediately without suspending.
//
// Wait must only be called from the process's own body.
func (p *Process) Wait(ev *Event) error {
	if p.env.closing {
		return ErrClosed
	}
	if ev.Processed() {
		return ev.err
	}

	p.waiting = ev
	ev.subscribe(func(fired *Event) {
		if p.done || p.waiting != fired {
			return
		}
		p.transfer()
	})

	p.yield <- struct{}{}
	<-p.resume
	p.waiting = nil

	if p.env.closing {
		return ErrClosed
	}
	return ev.err
}

// Sleep suspends the process for delay ticks.
func (p *Process) Sleep(delay int64) error {
	return p.Wait(p.env.Timeout(delay))
}
