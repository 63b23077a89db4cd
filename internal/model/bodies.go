package model

import (
	"fmt"

	"github.com/roach88/clsim/internal/activity"
	"github.com/roach88/clsim/internal/eventlog"
	"github.com/roach88/clsim/internal/ir"
	"github.com/roach88/clsim/internal/sim"
)

// body returns the process body for a non-group activity.
func (w *World) body(decl ActivityDecl) (activity.Body, error) {
	switch decl.Kind {
	case KindDelay:
		return delayBody(decl.Duration), nil
	case KindClaim:
		resources := make([]*sim.Resource, 0, len(decl.Resources))
		for _, name := range decl.Resources {
			res, ok := w.Resources[name]
			if !ok {
				return nil, ir.NewUnknownNameError(ir.ErrCodeUnknownResource, "resource", name)
			}
			resources = append(resources, res)
		}
		return claimBody(resources, decl.Duration), nil
	case KindTransfer:
		from, ok := w.Containers[decl.From]
		if !ok {
			return nil, ir.NewUnknownNameError(ir.ErrCodeUnknownContainer, "container", decl.From)
		}
		to, ok := w.Containers[decl.To]
		if !ok {
			return nil, ir.NewUnknownNameError(ir.ErrCodeUnknownContainer, "container", decl.To)
		}
		return transferBody(transfer{
			from:     from,
			fromID:   decl.FromID,
			to:       to,
			toID:     decl.ToID,
			amount:   decl.Amount,
			duration: decl.Duration,
			fromLog:  w.logs[decl.From],
			toLog:    w.logs[decl.To],
		}), nil
	default:
		return nil, ir.NewInvalidModelError(fmt.Sprintf("no body for kind %q", decl.Kind))
	}
}

// delayBody occupies the activity for d ticks.
func delayBody(d int64) activity.Body {
	return func(p *sim.Process, _ *activity.Activity) error {
		return p.Sleep(d)
	}
}

// claimBody claims every resource in order, works for d ticks, then releases
// everything the activity does not keep.
func claimBody(resources []*sim.Resource, d int64) activity.Body {
	return func(p *sim.Process, a *activity.Activity) error {
		for _, res := range resources {
			if err := a.RequestResource(p, res); err != nil {
				return err
			}
		}
		if err := p.Sleep(d); err != nil {
			return err
		}
		return a.ReleaseAll()
	}
}

type transfer struct {
	from, to     *sim.Container
	fromID, toID string
	amount       int64
	duration     int64
	fromLog      eventlog.Recorder
	toLog        eventlog.Recorder
}

// transferBody moves an amount between containers once the duration elapses.
// The source and destination logs receive START/STOP entries for the move.
func transferBody(t transfer) activity.Body {
	return func(p *sim.Process, a *activity.Activity) error {
		t.fromLog.LogEntry(p.Now(), a.ID(), eventlog.Start, "transfer")
		t.toLog.LogEntry(p.Now(), a.ID(), eventlog.Start, "transfer")
		if err := p.Sleep(t.duration); err != nil {
			return err
		}
		if err := t.from.Get(t.fromID, t.amount); err != nil {
			return err
		}
		if err := t.to.Put(t.toID, t.amount); err != nil {
			return err
		}
		t.fromLog.LogEntry(p.Now(), a.ID(), eventlog.Stop, "transfer")
		t.toLog.LogEntry(p.Now(), a.ID(), eventlog.Stop, "transfer")
		return nil
	}
}
