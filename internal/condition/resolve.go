package condition

import (
	"fmt"

	"github.com/roach88/clsim/internal/ir"
	"github.com/roach88/clsim/internal/sim"
)

// Completer is an entity whose completion can be awaited.
type Completer interface {
	DoneEvent() *sim.Event
}

// Directory finds registered activities by key.
// Implementations look the key up by id first, then by name.
type Directory interface {
	Lookup(key string) ([]Completer, bool)
}

// Resolver compiles condition trees against an environment and a directory.
//
// Compile has no side effects beyond subscribing to the underlying events,
// so the same tree can be compiled more than once.
type Resolver struct {
	env *sim.Env
	dir Directory
}

// NewResolver creates a resolver. dir may be nil if no tree uses ActivityDone.
func NewResolver(env *sim.Env, dir Directory) *Resolver {
	return &Resolver{env: env, dir: dir}
}

// Compile turns expr into a single event that fires when expr is satisfied.
func (r *Resolver) Compile(expr Expr) (*sim.Event, error) {
	switch e := expr.(type) {
	case nil:
		return nil, ir.NewInvalidExpressionError("nil", "condition is nil")

	case Signal:
		if e.Event == nil {
			return nil, ir.NewInvalidExpressionError("signal(nil)", "signal has no event")
		}
		return e.Event, nil

	case All:
		if len(e) == 1 {
			return r.Compile(e[0])
		}
		events, err := r.compileAll(e)
		if err != nil {
			return nil, err
		}
		return r.env.AllOf(events...), nil

	case Any:
		if len(e) == 0 {
			return nil, ir.NewInvalidExpressionError("or[]", "or condition has no children and could never fire")
		}
		if len(e) == 1 {
			return r.Compile(e[0])
		}
		events, err := r.compileAll(e)
		if err != nil {
			return nil, err
		}
		return r.env.AnyOf(events...), nil

	case ContainerState:
		return r.compileContainer(e)

	case ActivityDone:
		return r.compileDone(e)

	default:
		kind := fmt.Sprintf("%T", expr)
		return nil, ir.NewInvalidExpressionError(kind, fmt.Sprintf("%s is not a condition variant", kind))
	}
}

func (r *Resolver) compileAll(children []Expr) ([]*sim.Event, error) {
	events := make([]*sim.Event, 0, len(children))
	for _, child := range children {
		ev, err := r.Compile(child)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (r *Resolver) compileContainer(c ContainerState) (*sim.Event, error) {
	if c.Container == nil {
		return nil, ir.NewInvalidExpressionError("container(nil)", "container condition has no container")
	}
	id := c.ID
	if id == "" {
		id = sim.DefaultLevelID
	}
	if !c.Container.HasLevel(id) {
		return nil, ir.NewUnknownLevelError(c.Container.Name(), id)
	}
	switch c.State {
	case Full:
		return c.Container.FullEvent(id), nil
	case Empty:
		return c.Container.EmptyEvent(id), nil
	default:
		kind := fmt.Sprintf("container[%s]", c.State)
		return nil, ir.NewInvalidExpressionError(kind, fmt.Sprintf("unknown container state %q", c.State))
	}
}

func (r *Resolver) compileDone(d ActivityDone) (*sim.Event, error) {
	if r.dir == nil {
		return nil, ir.NewUnknownActivityError(d.Key)
	}
	found, ok := r.dir.Lookup(d.Key)
	if !ok || len(found) == 0 {
		return nil, ir.NewUnknownActivityError(d.Key)
	}
	if len(found) == 1 {
		return found[0].DoneEvent(), nil
	}
	events := make([]*sim.Event, len(found))
	for i, a := range found {
		events[i] = a.DoneEvent()
	}
	return r.env.AllOf(events...), nil
}
