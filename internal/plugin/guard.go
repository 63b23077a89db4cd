package plugin

import (
	"errors"
	"fmt"

	"github.com/roach88/clsim/internal/ir"
)

// ResourceGuard statically checks that the resources an activity declares
// exist and can be granted at all. It has no runtime hooks.
type ResourceGuard struct {
	Base

	// Activity names the guarded activity in error messages.
	Activity string

	// Required lists the resource names the activity claims.
	Required []string

	// Capacities maps every declared resource to its capacity.
	Capacities map[string]int
}

// Validate reports every missing resource and every non-positive capacity.
func (g ResourceGuard) Validate() error {
	var errs []error
	for _, name := range g.Required {
		capacity, ok := g.Capacities[name]
		if !ok {
			e := ir.NewUnknownNameError(ir.ErrCodeUnknownResource, "resource", name)
			e.Activity = g.Activity
			errs = append(errs, e)
			continue
		}
		if capacity < 1 {
			errs = append(errs, fmt.Errorf("activity %s: resource %q has capacity %d", g.Activity, name, capacity))
		}
	}
	return errors.Join(errs...)
}
