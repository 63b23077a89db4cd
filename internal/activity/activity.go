package activity

import (
	"fmt"

	"github.com/roach88/clsim/internal/condition"
	"github.com/roach88/clsim/internal/eventlog"
	"github.com/roach88/clsim/internal/ir"
	"github.com/roach88/clsim/internal/ledger"
	"github.com/roach88/clsim/internal/plugin"
	"github.com/roach88/clsim/internal/sim"
)

// Body is the work an activity performs once its start condition has fired.
type Body func(p *sim.Process, a *Activity) error

// Config describes an activity at construction.
type Config struct {
	// Name is the activity name. Several activities may share one.
	Name string

	// ID is the stable id. Generated by the directory's IDGenerator if empty.
	ID string

	// StartCondition gates the body. Nil means start immediately.
	StartCondition condition.Expr

	// PostponeStart leaves the activity dormant until Register is called,
	// and makes End the only way to complete it for dependents.
	PostponeStart bool

	// Ledger holds the activity's resource claims. A fresh ledger is used if nil.
	Ledger *ledger.Ledger

	// Keep lists resources that ReleaseResource never releases.
	Keep []ledger.Keeper

	// AdditionalLogs receive this activity's WAIT entries too.
	AdditionalLogs []eventlog.Recorder

	// SkipWaitLog suppresses WAIT_START/WAIT_STOP entries around the start condition.
	SkipWaitLog bool
}

// Activity is a schedulable unit of work with a one-shot completion signal.
type Activity struct {
	name           string
	id             string
	env            *sim.Env
	dir            *Directory
	log            *eventlog.Log
	startCondition condition.Expr
	postpone       bool
	ledger         *ledger.Ledger
	keep           []ledger.Keeper
	additionalLogs []eventlog.Recorder
	logWait        bool
	plugins        plugin.Pipeline
	body           Body
	done           *sim.Event
	main           *sim.Process
	registered     bool
}

// New constructs an activity and, unless it is postponed, registers it.
func New(env *sim.Env, dir *Directory, cfg Config, body Body) (*Activity, error) {
	if cfg.Name == "" {
		return nil, ir.NewInvalidModelError("activity name is required")
	}
	if body == nil {
		return nil, ir.NewInvalidModelError(fmt.Sprintf("activity %s has no body", cfg.Name))
	}
	id := cfg.ID
	if id == "" {
		id = dir.ids.Generate()
	}
	l := cfg.Ledger
	if l == nil {
		l = ledger.New()
	}
	l.OnClaim(func(res *sim.Resource) { dir.metrics.ResourceClaimed(res.Name()) })

	a := &Activity{
		name:           cfg.Name,
		id:             id,
		env:            env,
		dir:            dir,
		log:            dir.journal.Log(cfg.Name, id),
		startCondition: cfg.StartCondition,
		postpone:       cfg.PostponeStart,
		ledger:         l,
		keep:           append([]ledger.Keeper(nil), cfg.Keep...),
		additionalLogs: append([]eventlog.Recorder(nil), cfg.AdditionalLogs...),
		logWait:        !cfg.SkipWaitLog,
		body:           body,
	}
	a.done = env.NewEvent(a.name + ":done")

	if !a.postpone {
		if err := a.Register(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Name returns the activity name.
func (a *Activity) Name() string { return a.name }

// ID returns the activity id.
func (a *Activity) ID() string { return a.id }

// Env returns the environment the activity runs in.
func (a *Activity) Env() *sim.Env { return a.env }

// Log returns the activity's own log.
func (a *Activity) Log() *eventlog.Log { return a.log }

// Ledger returns the activity's resource ledger.
func (a *Activity) Ledger() *ledger.Ledger { return a.ledger }

// Keep returns the resources exempted from release.
func (a *Activity) Keep() []ledger.Keeper { return append([]ledger.Keeper(nil), a.keep...) }

// StartCondition returns the current start condition tree.
func (a *Activity) StartCondition() condition.Expr { return a.startCondition }

// Postponed reports whether the activity was constructed with PostponeStart.
func (a *Activity) Postponed() bool { return a.postpone }

// Registered reports whether Register has run.
func (a *Activity) Registered() bool { return a.registered }

// Main returns the scheduled process, or nil before registration.
func (a *Activity) Main() *sim.Process { return a.main }

// Plugins returns the activity's plugin pipeline.
func (a *Activity) Plugins() *plugin.Pipeline { return &a.plugins }

// RegisterPlugin adds a plugin to the activity's pipeline.
func (a *Activity) RegisterPlugin(p plugin.Plugin, priority int) {
	a.plugins.Register(p, priority)
}

// Register compiles the start condition, inserts the activity into the
// directory and schedules its body.
//
// Returns ACTIVITY_ALREADY_REGISTERED on a second call. A condition that fails
// to compile leaves the activity unregistered and out of the directory.
func (a *Activity) Register() error {
	if a.registered {
		return ir.NewAlreadyRegisteredError(a.name)
	}

	a.done = a.env.NewEvent(a.name + ":done")

	proc := a.run
	if a.startCondition != nil {
		cond, err := condition.NewResolver(a.env, a.dir).Compile(a.startCondition)
		if err != nil {
			return withActivity(err, a.name)
		}
		proc = a.delayed(cond, proc)
	}

	a.dir.add(a)
	a.main = a.env.Process(a.name, proc)
	a.registered = true
	a.dir.metrics.ActivityRegistered(a.name)

	a.dir.logger.Debug("activity registered",
		"activity", a.name,
		"id", a.id,
		"t", a.env.Now(),
		"postponed", a.postpone,
		"condition", describe(a.startCondition),
	)
	return nil
}

// DoneEvent returns the event dependents wait on.
//
// Postponed activities complete when End is called; all others complete when
// their process finishes.
func (a *Activity) DoneEvent() *sim.Event {
	if a.postpone || a.main == nil {
		return a.done
	}
	return a.main.Event
}

// End fires the done signal. Ending twice returns DUPLICATE_SIGNAL_FIRED.
func (a *Activity) End() error {
	if err := a.done.Succeed(nil); err != nil {
		return withActivity(err, a.name)
	}
	a.dir.logger.Debug("activity ended", "activity", a.name, "id", a.id, "t", a.env.Now())
	return nil
}

// RequestResource claims res through the activity's ledger, suspending p until
// the claim is granted. Already-held resources are not claimed again.
func (a *Activity) RequestResource(p *sim.Process, res *sim.Resource) error {
	if err := a.ledger.Request(p, res); err != nil {
		return fmt.Errorf("activity %s: request %s: %w", a.name, res.Name(), err)
	}
	return nil
}

// ReleaseResource releases res unless it is kept, either by the activity's
// configuration or by the extra kept entries.
func (a *Activity) ReleaseResource(res *sim.Resource, kept ...ledger.Keeper) error {
	return a.ledger.Release(res, append(a.Keep(), kept...)...)
}

// ReleaseAll releases every held resource except kept ones.
func (a *Activity) ReleaseAll(kept ...ledger.Keeper) error {
	return a.ledger.ReleaseAll(append(a.Keep(), kept...)...)
}

// DelayProcessing logs a labelled WAIT interval on the activity's log around
// a sleep of waiting ticks.
func (a *Activity) DelayProcessing(p *sim.Process, label string, waiting int64) error {
	return plugin.DelayProcessing(p, a.log, label, waiting)
}

// setStartCondition replaces the start condition before registration.
func (a *Activity) setStartCondition(expr condition.Expr) {
	a.startCondition = expr
}

// shareLedger makes the activity claim through l.
func (a *Activity) shareLedger(l *ledger.Ledger) {
	a.ledger = l
}

// run brackets the body with plugin hooks and START/STOP entries.
func (a *Activity) run(p *sim.Process) error {
	args := plugin.Args{
		ActivityID:         a.id,
		Log:                a.log,
		StartPreprocessing: p.Now(),
	}
	if _, err := a.plugins.RunPre(p, args); err != nil {
		return fmt.Errorf("activity %s: %w", a.name, err)
	}

	args.StartActivity = p.Now()
	a.log.LogEntry(p.Now(), a.id, eventlog.Start, "")
	if err := a.body(p, a); err != nil {
		a.dir.logger.Debug("activity body failed", "activity", a.name, "id", a.id, "t", p.Now(), "error", err)
		return fmt.Errorf("activity %s: %w", a.name, err)
	}
	a.log.LogEntry(p.Now(), a.id, eventlog.Stop, "")
	elapsed := p.Now() - args.StartActivity

	if _, err := a.plugins.RunPost(p, args); err != nil {
		return fmt.Errorf("activity %s: %w", a.name, err)
	}

	a.dir.metrics.ActivityCompleted(a.name, elapsed)
	a.dir.logger.Debug("activity completed", "activity", a.name, "id", a.id, "t", p.Now())
	return nil
}

// delayed wraps inner so it starts only after cond has fired.
func (a *Activity) delayed(cond *sim.Event, inner sim.ProcessFunc) sim.ProcessFunc {
	return func(p *sim.Process) error {
		waitStart := p.Now()
		if a.logWait {
			a.logWaitEntry(p.Now(), eventlog.WaitStart)
		}
		if err := p.Wait(cond); err != nil {
			return fmt.Errorf("activity %s: start condition: %w", a.name, err)
		}
		if a.logWait {
			a.logWaitEntry(p.Now(), eventlog.WaitStop)
		}
		a.dir.metrics.WaitObserved(a.name, p.Now()-waitStart)
		return inner(p)
	}
}

func (a *Activity) logWaitEntry(t int64, state eventlog.State) {
	a.log.LogEntry(t, a.id, state, "")
	for _, l := range a.additionalLogs {
		l.LogEntry(t, a.id, state, "")
	}
}

func withActivity(err error, name string) error {
	if me, ok := err.(*ir.ModelError); ok && me.Activity == "" {
		me.Activity = name
	}
	return err
}

func describe(expr condition.Expr) string {
	if expr == nil {
		return "none"
	}
	return expr.String()
}
