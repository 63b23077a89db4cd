package condition

import (
	"fmt"
	"strings"

	"github.com/roach88/clsim/internal/sim"
)

// Expr is a node of a condition tree.
//
// The interface is sealed: only the variants in this package implement it.
type Expr interface {
	isExpr()
	fmt.Stringer
}

// Threshold names the container level a ContainerState waits for.
type Threshold string

const (
	Full  Threshold = "full"
	Empty Threshold = "empty"
)

// Container is anything that can hand out one-shot threshold events.
// *sim.Container implements it.
type Container interface {
	Name() string
	HasLevel(id string) bool
	FullEvent(id string) *sim.Event
	EmptyEvent(id string) *sim.Event
}

// Signal waits on a raw event.
type Signal struct {
	Event *sim.Event
}

// All is satisfied once every child is satisfied. All{} is satisfied immediately.
type All []Expr

// Any is satisfied once one child is satisfied.
type Any []Expr

// ContainerState is satisfied when a container level reaches a threshold.
// An empty ID means sim.DefaultLevelID.
type ContainerState struct {
	Container Container
	State     Threshold
	ID        string
}

// ActivityDone is satisfied once every activity registered under Key
// (looked up by id first, then by name) has completed.
type ActivityDone struct {
	Key string
}

func (Signal) isExpr()         {}
func (All) isExpr()            {}
func (Any) isExpr()            {}
func (ContainerState) isExpr() {}
func (ActivityDone) isExpr()   {}

// On wraps an event.
func On(ev *sim.Event) Signal {
	return Signal{Event: ev}
}

// And combines children with AND semantics.
func And(children ...Expr) All {
	return All(children)
}

// Or combines children with OR semantics.
func Or(children ...Expr) Any {
	return Any(children)
}

// Done waits for the activities registered under key.
func Done(key string) ActivityDone {
	return ActivityDone{Key: key}
}

// Reaches waits for a container level to reach a threshold.
func Reaches(c Container, state Threshold, id string) ContainerState {
	return ContainerState{Container: c, State: state, ID: id}
}

func (s Signal) String() string {
	if s.Event == nil {
		return "signal(<nil>)"
	}
	return "signal(" + s.Event.Name() + ")"
}

func (a All) String() string {
	return "and(" + joinExprs(a) + ")"
}

func (a Any) String() string {
	return "or(" + joinExprs(a) + ")"
}

func (c ContainerState) String() string {
	name := "<nil>"
	if c.Container != nil {
		name = c.Container.Name()
	}
	id := c.ID
	if id == "" {
		id = sim.DefaultLevelID
	}
	return fmt.Sprintf("container(%s/%s=%s)", name, id, c.State)
}

func (d ActivityDone) String() string {
	return "done(" + d.Key + ")"
}

func joinExprs(children []Expr) string {
	parts := make([]string, len(children))
	for i, c := range children {
		if c == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
