package model

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/clsim/internal/activity"
	"github.com/roach88/clsim/internal/condition"
	"github.com/roach88/clsim/internal/eventlog"
	"github.com/roach88/clsim/internal/ir"
	"github.com/roach88/clsim/internal/plugin"
	"github.com/roach88/clsim/internal/sim"
)

// World is a model materialized on an environment.
type World struct {
	Env        *sim.Env
	Directory  *activity.Directory
	Resources  map[string]*sim.Resource
	Containers map[string]*sim.Container
	Signals    map[string]*sim.Event

	// Activities in declaration order.
	Activities []*activity.Activity

	logs   map[string]*eventlog.Log
	logger *slog.Logger
}

// Signal implements condition.Bindings.
func (w *World) Signal(name string) (*sim.Event, bool) {
	ev, ok := w.Signals[name]
	return ev, ok
}

// Container implements condition.Bindings.
func (w *World) Container(name string) (condition.Container, bool) {
	c, ok := w.Containers[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// Log returns the log of a resource or container.
func (w *World) Log(name string) (*eventlog.Log, bool) {
	l, ok := w.logs[name]
	return l, ok
}

// Journal returns the run-wide trace.
func (w *World) Journal() *eventlog.Journal {
	return w.Directory.Journal()
}

// Validate runs every activity's plugin validation and joins the failures.
func (w *World) Validate() error {
	var errs []error
	for _, a := range w.Activities {
		if err := a.Plugins().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("activity %s: %w", a.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Build materializes m on env. Activities are constructed in declaration
// order; those that are not postponed register immediately, so start
// conditions may only reference activities declared earlier.
func Build(env *sim.Env, dir *activity.Directory, m *Model) (*World, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	w := &World{
		Env:        env,
		Directory:  dir,
		Resources:  make(map[string]*sim.Resource),
		Containers: make(map[string]*sim.Container),
		Signals:    make(map[string]*sim.Event),
		logs:       make(map[string]*eventlog.Log),
		logger:     dir.Logger(),
	}

	for _, r := range m.Resources {
		w.Resources[r.Name] = sim.NewResource(env, r.Name, r.Capacity)
		w.logs[r.Name] = dir.Journal().Log(r.Name, "resource:"+r.Name)
	}
	for _, c := range m.Containers {
		ct := sim.NewContainer(env, c.Name, c.Capacity, c.Initial)
		for _, l := range c.Levels {
			ct.AddLevel(l.ID, l.Capacity, l.Initial)
		}
		w.Containers[c.Name] = ct
		w.logs[c.Name] = dir.Journal().Log(c.Name, "container:"+c.Name)
	}
	for _, s := range m.Signals {
		w.addSignal(s)
	}

	capacities := make(map[string]int, len(m.Resources))
	for _, r := range m.Resources {
		capacities[r.Name] = r.Capacity
	}

	children := m.groupChildren()
	built := map[string]*activity.Activity{}
	for _, decl := range m.Activities {
		a, err := w.buildActivity(decl, built, children[decl.Name], capacities)
		if err != nil {
			return nil, err
		}
		built[decl.Name] = a
		w.Activities = append(w.Activities, a)
	}

	w.logger.Debug("model built",
		"model", m.Name,
		"resources", len(w.Resources),
		"containers", len(w.Containers),
		"signals", len(w.Signals),
		"activities", len(w.Activities),
	)
	return w, nil
}

func (w *World) addSignal(s SignalDecl) {
	ev := w.Env.NewEvent("signal:" + s.Name)
	w.Signals[s.Name] = ev
	if s.At == nil {
		return
	}
	at := *s.At
	w.Env.Process("signal:"+s.Name, func(p *sim.Process) error {
		if err := p.Sleep(at - p.Now()); err != nil {
			return err
		}
		return ev.Succeed(nil)
	})
}

func (w *World) buildActivity(decl ActivityDecl, built map[string]*activity.Activity, isChild bool, capacities map[string]int) (*activity.Activity, error) {
	start, err := condition.Parse(decl.Start, w)
	if err != nil {
		return nil, annotate(err, decl.Name)
	}

	cfg := activity.Config{
		Name:           decl.Name,
		ID:             decl.ID,
		StartCondition: start,
		PostponeStart:  decl.Postpone || isChild,
	}
	for _, name := range decl.LogTo {
		l, ok := w.logs[name]
		if !ok {
			return nil, annotate(ir.NewUnknownNameError(ir.ErrCodeUnknownResource, "resource or container", name), decl.Name)
		}
		cfg.AdditionalLogs = append(cfg.AdditionalLogs, l)
	}

	var guard *plugin.ResourceGuard
	if decl.Kind == KindClaim {
		guard = &plugin.ResourceGuard{
			Activity:   decl.Name,
			Required:   append(append([]string(nil), decl.Resources...), decl.Keep...),
			Capacities: capacities,
		}
		if err := guard.Validate(); err != nil {
			return nil, err
		}
		for _, name := range decl.Keep {
			cfg.Keep = append(cfg.Keep, w.Resources[name])
		}
	}

	var a *activity.Activity
	if decl.Kind == KindGroup {
		a, err = w.buildGroup(decl, cfg, built)
	} else {
		var body activity.Body
		body, err = w.body(decl)
		if err == nil {
			a, err = activity.New(w.Env, w.Directory, cfg, body)
		}
	}
	if err != nil {
		return nil, annotate(err, decl.Name)
	}

	// The body has not started yet, so plugins attached now still bracket it.
	if guard != nil {
		a.RegisterPlugin(*guard, 0)
	}
	for _, p := range decl.Plugins {
		a.RegisterPlugin(plugin.Delay{Pre: p.Pre, Post: p.Post}, p.Priority)
	}
	return a, nil
}

func (w *World) buildGroup(decl ActivityDecl, cfg activity.Config, built map[string]*activity.Activity) (*activity.Activity, error) {
	children := make([]*activity.Activity, 0, len(decl.Children))
	for _, name := range decl.Children {
		child, ok := built[name]
		if !ok {
			return nil, ir.NewInvalidModelError(fmt.Sprintf("group child %q must be declared before the group", name))
		}
		children = append(children, child)
	}
	return activity.NewGroup(w.Env, w.Directory, cfg, activity.Mode(decl.Mode), children)
}

func annotate(err error, activityName string) error {
	if me, ok := err.(*ir.ModelError); ok && me.Activity == "" {
		me.Activity = activityName
	}
	return err
}
