package plugin

import (
	"fmt"

	"github.com/roach88/clsim/internal/eventlog"
	"github.com/roach88/clsim/internal/sim"
)

// DelayProcessing logs a labelled WAIT interval on rec around a sleep of waiting ticks.
func DelayProcessing(p *sim.Process, rec eventlog.Recorder, label string, waiting int64) error {
	rec.LogEntry(p.Now(), rec.ID(), eventlog.WaitStart, label)
	if err := p.Sleep(waiting); err != nil {
		return err
	}
	rec.LogEntry(p.Now(), rec.ID(), eventlog.WaitStop, label)
	return nil
}

// Delay adds fixed waiting periods before and after an activity body.
type Delay struct {
	Pre  int64
	Post int64
}

// PreProcess waits Pre ticks, logged as a "pre-delay" interval.
func (d Delay) PreProcess(p *sim.Process, args Args) (map[string]any, error) {
	if d.Pre > 0 {
		if err := DelayProcessing(p, args.Log, "pre-delay", d.Pre); err != nil {
			return nil, err
		}
	}
	return map[string]any{"pre_delay": d.Pre}, nil
}

// PostProcess waits Post ticks, logged as a "post-delay" interval.
func (d Delay) PostProcess(p *sim.Process, args Args) (map[string]any, error) {
	if d.Post > 0 {
		if err := DelayProcessing(p, args.Log, "post-delay", d.Post); err != nil {
			return nil, err
		}
	}
	return map[string]any{"post_delay": d.Post}, nil
}

// Validate rejects negative delays.
func (d Delay) Validate() error {
	if d.Pre < 0 || d.Post < 0 {
		return fmt.Errorf("delay plugin: negative delay (pre=%d, post=%d)", d.Pre, d.Post)
	}
	return nil
}
