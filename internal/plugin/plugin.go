// Package plugin implements the hook pipeline that brackets every activity body.
//
// Plugins run sequentially in ascending priority order, for both pre- and
// post-processing. A hook may suspend the calling process (sleep, wait on an
// event, claim a resource); its side effects are visible before the next hook
// runs.
package plugin

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/clsim/internal/eventlog"
	"github.com/roach88/clsim/internal/sim"
)

// Args is passed to every hook.
type Args struct {
	// ActivityID is the id of the activity being run.
	ActivityID string

	// Log is the activity's own log.
	Log eventlog.Recorder

	// StartPreprocessing is the time pre-processing began.
	StartPreprocessing int64

	// StartActivity is the time the body began. Zero during pre-processing.
	StartActivity int64
}

// Plugin is a cross-cutting hook around an activity body.
type Plugin interface {
	PreProcess(p *sim.Process, args Args) (map[string]any, error)
	PostProcess(p *sim.Process, args Args) (map[string]any, error)
	Validate() error
}

// Base is a no-op plugin. Embed it to implement only the hooks you need.
type Base struct{}

func (Base) PreProcess(*sim.Process, Args) (map[string]any, error)  { return map[string]any{}, nil }
func (Base) PostProcess(*sim.Process, Args) (map[string]any, error) { return map[string]any{}, nil }
func (Base) Validate() error                                        { return nil }

type registration struct {
	priority int
	plugin   Plugin
}

// Pipeline is an ordered set of plugins.
// The zero value is an empty pipeline ready to use.
type Pipeline struct {
	entries []registration
}

// Register adds plugin at priority. Lower priorities run first; equal
// priorities keep registration order.
func (pl *Pipeline) Register(plugin Plugin, priority int) {
	pl.entries = append(pl.entries, registration{priority: priority, plugin: plugin})
	sort.SliceStable(pl.entries, func(i, j int) bool {
		return pl.entries[i].priority < pl.entries[j].priority
	})
}

// Plugins returns the plugins in run order.
func (pl *Pipeline) Plugins() []Plugin {
	out := make([]Plugin, len(pl.entries))
	for i, e := range pl.entries {
		out[i] = e.plugin
	}
	return out
}

// Len returns the number of registered plugins.
func (pl *Pipeline) Len() int {
	return len(pl.entries)
}

// RunPre invokes every PreProcess hook in order and returns their results
// unmerged. The first error stops the pipeline.
func (pl *Pipeline) RunPre(p *sim.Process, args Args) ([]map[string]any, error) {
	return pl.run(p, args, Plugin.PreProcess, "pre-process")
}

// RunPost invokes every PostProcess hook in the same order as RunPre.
func (pl *Pipeline) RunPost(p *sim.Process, args Args) ([]map[string]any, error) {
	return pl.run(p, args, Plugin.PostProcess, "post-process")
}

func (pl *Pipeline) run(p *sim.Process, args Args, hook func(Plugin, *sim.Process, Args) (map[string]any, error), phase string) ([]map[string]any, error) {
	results := make([]map[string]any, 0, len(pl.entries))
	for i, e := range pl.entries {
		out, err := hook(e.plugin, p, args)
		if err != nil {
			return results, fmt.Errorf("%s plugin %d (%T): %w", phase, i, e.plugin, err)
		}
		results = append(results, out)
	}
	return results, nil
}

// Validate checks every plugin and joins all failures.
func (pl *Pipeline) Validate() error {
	var errs []error
	for _, e := range pl.entries {
		if err := e.plugin.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
