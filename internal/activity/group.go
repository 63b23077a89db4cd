package activity

import (
	"fmt"

	"github.com/roach88/clsim/internal/sim"
)

// Mode selects how a group runs its children.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

// NewGroup constructs an activity whose body runs children.
//
// Children must not be registered yet; they are rewritten by Sequential or
// Parallel now and registered when the group's body starts. The group then
// fires the shared start signal, waits for each child's process in order and
// ends it. Children claim resources through the group's ledger so kept
// resources carry forward from one child to the next.
func NewGroup(env *sim.Env, dir *Directory, cfg Config, mode Mode, children []*Activity) (*Activity, error) {
	var compose func(*sim.Env, []*Activity) (*sim.Event, error)
	switch mode {
	case ModeSequential:
		compose = Sequential
	case ModeParallel:
		compose = Parallel
	default:
		return nil, fmt.Errorf("group %s: unknown mode %q", cfg.Name, mode)
	}

	start, err := compose(env, children)
	if err != nil {
		return nil, err
	}

	g := &group{children: children, start: start}
	postpone := cfg.PostponeStart
	cfg.PostponeStart = true
	a, err := New(env, dir, cfg, g.body)
	if err != nil {
		return nil, err
	}
	a.postpone = postpone
	for _, child := range children {
		child.shareLedger(a.ledger)
	}
	if !postpone {
		if err := a.Register(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

type group struct {
	children []*Activity
	start    *sim.Event
}

func (g *group) body(p *sim.Process, a *Activity) error {
	for _, child := range g.children {
		if err := child.Register(); err != nil {
			return err
		}
	}
	if err := g.start.Succeed(nil); err != nil {
		return err
	}
	for _, child := range g.children {
		if err := p.Wait(child.main.Event); err != nil {
			return err
		}
		if child.postpone {
			if err := child.End(); err != nil {
				return err
			}
		}
	}
	return nil
}
