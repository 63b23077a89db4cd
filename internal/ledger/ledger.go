// Package ledger tracks which resources an owner currently holds.
//
// A ledger holds at most one outstanding claim per resource. Requesting a
// resource that is already claimed is a no-op, which lets several steps share
// a resource claimed upstream. Release skips kept resources so a claim can
// carry forward across a chain of sequential steps.
package ledger

import (
	"fmt"

	"github.com/roach88/clsim/internal/sim"
)

// Keeper identifies a resource exempted from release.
// Both *sim.Resource and Retained implement it, so a bare resource and a
// retained claim are matched the same way: by resource identity.
type Keeper interface {
	ClaimKey() *sim.Resource
}

// Retained wraps a held claim so it can be passed along as a kept resource.
type Retained struct {
	Request *sim.Request
}

// ClaimKey returns the resource the retained claim was made against.
func (r Retained) ClaimKey() *sim.Resource {
	if r.Request == nil {
		return nil
	}
	return r.Request.Resource()
}

// Ledger maps resources to their outstanding claim tickets.
//
// Not safe for concurrent use; the simulation runs one process at a time.
type Ledger struct {
	tickets map[*sim.Resource]*sim.Request
	order   []*sim.Resource
	onClaim func(*sim.Resource)
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{tickets: make(map[*sim.Resource]*sim.Request)}
}

// OnClaim sets a hook called each time Request issues a new claim.
// Requests for resources already held do not call it.
func (l *Ledger) OnClaim(fn func(*sim.Resource)) {
	l.onClaim = fn
}

// Request claims res unless the ledger already holds a ticket for it.
// The ticket is recorded before suspending, so a second request made while
// the first is still waiting is also a no-op.
func (l *Ledger) Request(p *sim.Process, res *sim.Resource) error {
	if _, held := l.tickets[res]; held {
		return nil
	}
	req := res.Request()
	l.tickets[res] = req
	l.order = append(l.order, res)
	if l.onClaim != nil {
		l.onClaim(res)
	}
	return p.Wait(req.Event)
}

// Release returns the ticket for res unless res is among kept.
// Releasing a resource with no ticket is a no-op.
func (l *Ledger) Release(res *sim.Resource, kept ...Keeper) error {
	if isKept(res, kept) {
		return nil
	}
	req, held := l.tickets[res]
	if !held {
		return nil
	}
	if err := res.Release(req); err != nil {
		return fmt.Errorf("ledger release: %w", err)
	}
	delete(l.tickets, res)
	for i, r := range l.order {
		if r == res {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// ReleaseAll releases every held resource except the kept ones, in claim order.
func (l *Ledger) ReleaseAll(kept ...Keeper) error {
	for _, res := range l.Resources() {
		if err := l.Release(res, kept...); err != nil {
			return err
		}
	}
	return nil
}

// Retain returns a Retained wrapper for the ticket held on res.
func (l *Ledger) Retain(res *sim.Resource) (Retained, bool) {
	req, ok := l.tickets[res]
	if !ok {
		return Retained{}, false
	}
	return Retained{Request: req}, true
}

// Ticket returns the outstanding claim for res.
func (l *Ledger) Ticket(res *sim.Resource) (*sim.Request, bool) {
	req, ok := l.tickets[res]
	return req, ok
}

// Len returns the number of outstanding tickets.
func (l *Ledger) Len() int {
	return len(l.tickets)
}

// Resources returns the held resources in claim order.
func (l *Ledger) Resources() []*sim.Resource {
	out := make([]*sim.Resource, len(l.order))
	copy(out, l.order)
	return out
}

func isKept(res *sim.Resource, kept []Keeper) bool {
	for _, k := range kept {
		if k != nil && k.ClaimKey() == res {
			return true
		}
	}
	return false
}
