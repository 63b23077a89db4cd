// Package model loads declarative simulation models and builds them into a
// runnable environment.
//
// A model declares resources, containers, signals and activities. Models are
// written in CUE (validated against an embedded schema) or YAML (decoded
// strictly). Build materializes a model on a sim.Env in declaration order:
// an activity may only reference, by name, activities declared before it.
package model

import (
	"fmt"

	"github.com/roach88/clsim/internal/ir"
)

// Activity kinds.
const (
	KindDelay    = "delay"
	KindClaim    = "claim"
	KindTransfer = "transfer"
	KindGroup    = "group"
)

// Plugin kinds.
const (
	PluginDelay = "delay"
)

// Model is a declarative simulation model.
type Model struct {
	Name       string          `yaml:"name" json:"name"`
	Resources  []ResourceDecl  `yaml:"resources" json:"resources"`
	Containers []ContainerDecl `yaml:"containers" json:"containers"`
	Signals    []SignalDecl    `yaml:"signals" json:"signals"`
	Activities []ActivityDecl  `yaml:"activities" json:"activities"`
}

// ResourceDecl declares a counted resource.
type ResourceDecl struct {
	Name     string `yaml:"name" json:"name"`
	Capacity int    `yaml:"capacity" json:"capacity"`
}

// ContainerDecl declares a container. Levels add ids beyond the default one.
type ContainerDecl struct {
	Name     string      `yaml:"name" json:"name"`
	Capacity int64       `yaml:"capacity" json:"capacity"`
	Initial  int64       `yaml:"initial" json:"initial"`
	Levels   []LevelDecl `yaml:"levels" json:"levels"`
}

// LevelDecl declares an additional container level.
type LevelDecl struct {
	ID       string `yaml:"id" json:"id"`
	Capacity int64  `yaml:"capacity" json:"capacity"`
	Initial  int64  `yaml:"initial" json:"initial"`
}

// SignalDecl declares a named one-shot signal, optionally fired at a time.
type SignalDecl struct {
	Name string `yaml:"name" json:"name"`
	At   *int64 `yaml:"at" json:"at,omitempty"`
}

// ActivityDecl declares an activity.
type ActivityDecl struct {
	Name     string `yaml:"name" json:"name"`
	ID       string `yaml:"id" json:"id,omitempty"`
	Kind     string `yaml:"kind" json:"kind"`
	Duration int64  `yaml:"duration" json:"duration"`

	// Start is a declarative condition: a signal name, a list, or a map.
	Start any `yaml:"start" json:"start,omitempty"`

	Postpone bool `yaml:"postpone" json:"postpone"`

	// Claim
	Resources []string `yaml:"resources" json:"resources"`
	Keep      []string `yaml:"keep" json:"keep"`

	// Transfer
	From   string `yaml:"from" json:"from"`
	FromID string `yaml:"from_id" json:"from_id"`
	To     string `yaml:"to" json:"to"`
	ToID   string `yaml:"to_id" json:"to_id"`
	Amount int64  `yaml:"amount" json:"amount"`

	// Group
	Mode     string   `yaml:"mode" json:"mode"`
	Children []string `yaml:"children" json:"children"`

	Plugins []PluginDecl `yaml:"plugins" json:"plugins"`

	// LogTo names resources or containers whose logs also receive this
	// activity's WAIT entries.
	LogTo []string `yaml:"log_to" json:"log_to"`
}

// PluginDecl attaches a plugin to an activity.
type PluginDecl struct {
	Kind     string `yaml:"kind" json:"kind"`
	Priority int    `yaml:"priority" json:"priority"`
	Pre      int64  `yaml:"pre" json:"pre"`
	Post     int64  `yaml:"post" json:"post"`
}

// Validate checks the model's structure. Name resolution happens in Build.
func (m *Model) Validate() error {
	if m.Name == "" {
		return ir.NewInvalidModelError("model name is required")
	}
	if len(m.Activities) == 0 {
		return ir.NewInvalidModelError(fmt.Sprintf("model %s declares no activities", m.Name))
	}

	seen := map[string]string{}
	declare := func(kind, name string) error {
		if name == "" {
			return ir.NewInvalidModelError(kind + " name is required")
		}
		if prev, ok := seen[name]; ok {
			return ir.NewInvalidModelError(fmt.Sprintf("%s %q collides with %s of the same name", kind, name, prev))
		}
		seen[name] = kind
		return nil
	}
	for _, r := range m.Resources {
		if err := declare("resource", r.Name); err != nil {
			return err
		}
	}
	for _, c := range m.Containers {
		if err := declare("container", c.Name); err != nil {
			return err
		}
	}
	for _, s := range m.Signals {
		if err := declare("signal", s.Name); err != nil {
			return err
		}
	}

	children := m.groupChildren()
	for i, a := range m.Activities {
		if a.Name == "" {
			return ir.NewInvalidModelError(fmt.Sprintf("activity %d has no name", i))
		}
		if err := a.validate(); err != nil {
			return err
		}
		// Only a group registers postponed activities; anywhere else they would never run.
		if a.Postpone && !children[a.Name] {
			e := ir.NewInvalidModelError("postpone is only valid on group children")
			e.Activity = a.Name
			return e
		}
	}
	return nil
}

// groupChildren returns the names of every activity some group lists as a child.
func (m *Model) groupChildren() map[string]bool {
	children := map[string]bool{}
	for _, a := range m.Activities {
		if a.Kind == KindGroup {
			for _, c := range a.Children {
				children[c] = true
			}
		}
	}
	return children
}

func (a *ActivityDecl) validate() error {
	fail := func(msg string) error {
		e := ir.NewInvalidModelError(msg)
		e.Activity = a.Name
		return e
	}
	if a.Duration < 0 {
		return fail("duration must not be negative")
	}
	switch a.Kind {
	case KindDelay:
	case KindClaim:
		if len(a.Resources) == 0 {
			return fail("claim activity needs at least one resource")
		}
	case KindTransfer:
		if a.From == "" || a.To == "" {
			return fail("transfer activity needs from and to containers")
		}
		if a.Amount <= 0 {
			return fail("transfer amount must be positive")
		}
	case KindGroup:
		if a.Mode != "sequential" && a.Mode != "parallel" {
			return fail(fmt.Sprintf("unknown group mode %q", a.Mode))
		}
		if len(a.Children) == 0 {
			return fail("group needs at least one child")
		}
	default:
		return fail(fmt.Sprintf("unknown activity kind %q", a.Kind))
	}
	for _, p := range a.Plugins {
		if p.Kind != PluginDelay {
			return fail(fmt.Sprintf("unknown plugin kind %q", p.Kind))
		}
	}
	return nil
}

// Hash returns the content hash of the model.
func (m *Model) Hash() (string, error) {
	return ir.ModelHash(m.canonical())
}

// canonical renders the model as plain maps for hashing.
func (m *Model) canonical() map[string]any {
	resources := make([]any, len(m.Resources))
	for i, r := range m.Resources {
		resources[i] = map[string]any{"name": r.Name, "capacity": r.Capacity}
	}
	containers := make([]any, len(m.Containers))
	for i, c := range m.Containers {
		levels := make([]any, len(c.Levels))
		for j, l := range c.Levels {
			levels[j] = map[string]any{"id": l.ID, "capacity": l.Capacity, "initial": l.Initial}
		}
		containers[i] = map[string]any{"name": c.Name, "capacity": c.Capacity, "initial": c.Initial, "levels": levels}
	}
	signals := make([]any, len(m.Signals))
	for i, s := range m.Signals {
		sig := map[string]any{"name": s.Name}
		if s.At != nil {
			sig["at"] = *s.At
		}
		signals[i] = sig
	}
	activities := make([]any, len(m.Activities))
	for i, a := range m.Activities {
		plugins := make([]any, len(a.Plugins))
		for j, p := range a.Plugins {
			plugins[j] = map[string]any{"kind": p.Kind, "priority": p.Priority, "pre": p.Pre, "post": p.Post}
		}
		act := map[string]any{
			"name":      a.Name,
			"id":        a.ID,
			"kind":      a.Kind,
			"duration":  a.Duration,
			"postpone":  a.Postpone,
			"resources": stringsOrEmpty(a.Resources),
			"keep":      stringsOrEmpty(a.Keep),
			"from":      a.From,
			"from_id":   a.FromID,
			"to":        a.To,
			"to_id":     a.ToID,
			"amount":    a.Amount,
			"mode":      a.Mode,
			"children":  stringsOrEmpty(a.Children),
			"plugins":   plugins,
			"log_to":    stringsOrEmpty(a.LogTo),
		}
		if a.Start != nil {
			act["start"] = normalize(a.Start)
		}
		activities[i] = act
	}
	return map[string]any{
		"name":       m.Name,
		"resources":  resources,
		"containers": containers,
		"signals":    signals,
		"activities": activities,
	}
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// normalize converts decoded condition values into types the canonical
// encoder accepts.
func normalize(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return fmt.Sprint(x)
	default:
		return x
	}
}
