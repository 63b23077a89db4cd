package activity

import (
	"fmt"

	"github.com/roach88/clsim/internal/condition"
	"github.com/roach88/clsim/internal/ir"
	"github.com/roach88/clsim/internal/sim"
)

// Sequential wires children to run strictly in order and returns the shared
// start signal.
//
// The first child additionally waits for the start signal; every later child
// additionally waits for the previous child, by name, to be done. Existing
// start conditions are kept: an All is flattened, any other variant becomes
// one more operand.
func Sequential(env *sim.Env, children []*Activity) (*sim.Event, error) {
	if err := checkComposable(children); err != nil {
		return nil, err
	}
	start := env.NewEvent("sequential:start")
	for i, child := range children {
		var gate condition.Expr = condition.On(start)
		if i > 0 {
			gate = condition.Done(children[i-1].name)
		}
		child.setStartCondition(extend(child.startCondition, gate))
	}
	return start, nil
}

// Parallel gates every child on one shared start signal and returns it.
func Parallel(env *sim.Env, children []*Activity) (*sim.Event, error) {
	if err := checkComposable(children); err != nil {
		return nil, err
	}
	start := env.NewEvent("parallel:start")
	for _, child := range children {
		child.setStartCondition(extend(child.startCondition, condition.On(start)))
	}
	return start, nil
}

// checkComposable validates every child before any condition is rewritten.
func checkComposable(children []*Activity) error {
	for _, child := range children {
		if child.registered {
			return ir.NewAlreadyRegisteredError(child.name)
		}
		switch c := child.startCondition.(type) {
		case nil, condition.Signal, condition.All, condition.Any, condition.ContainerState, condition.ActivityDone:
		default:
			return ir.NewMalformedStartError(child.name, fmt.Sprintf("%T", c))
		}
	}
	return nil
}

func extend(orig condition.Expr, gate condition.Expr) condition.Expr {
	var parts condition.All
	switch c := orig.(type) {
	case nil:
	case condition.All:
		parts = append(parts, c...)
	default:
		parts = append(parts, c)
	}
	return append(parts, gate)
}
