package condition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/clsim/internal/ir"
	"github.com/roach88/clsim/internal/sim"
)

// Bindings resolves names used in declarative conditions.
type Bindings interface {
	Signal(name string) (*sim.Event, bool)
	Container(name string) (Container, bool)
}

// heads are the keys that select a map's variant. Exactly one must be present.
var heads = []string{"and", "or", "container", "activity", "type"}

// Parse converts a decoded YAML/CUE value into a condition tree.
// A nil raw value yields a nil tree and no error (no start condition).
func Parse(raw any, b Bindings) (Expr, error) {
	if raw == nil {
		return nil, nil
	}
	return parse(raw, b)
}

func parse(raw any, b Bindings) (Expr, error) {
	switch v := raw.(type) {
	case string:
		ev, ok := b.Signal(v)
		if !ok {
			return nil, ir.NewUnknownNameError(ir.ErrCodeUnknownSignal, "signal", v)
		}
		return On(ev), nil

	case []any:
		return parseList(v, b, func(c []Expr) Expr { return All(c) })

	case map[string]any:
		return parseMap(v, b)

	default:
		kind := fmt.Sprintf("%T", raw)
		return nil, ir.NewInvalidExpressionError(kind, fmt.Sprintf("%s is not a valid condition; use a string, list or map", kind))
	}
}

func parseList(items []any, b Bindings, wrap func([]Expr) Expr) (Expr, error) {
	children := make([]Expr, 0, len(items))
	for _, item := range items {
		child, err := parse(item, b)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return wrap(children), nil
}

func parseMap(m map[string]any, b Bindings) (Expr, error) {
	var head string
	count := 0
	for _, h := range heads {
		if _, ok := m[h]; ok {
			head = h
			count++
		}
	}
	if count != 1 {
		return nil, invalidMap(m, "map condition must have exactly one of and, or, container, activity, type")
	}

	switch head {
	case "and", "or":
		if err := onlyKeys(m, head); err != nil {
			return nil, err
		}
		items, ok := m[head].([]any)
		if !ok {
			return nil, invalidMap(m, head+" expects a list")
		}
		if head == "and" {
			return parseList(items, b, func(c []Expr) Expr { return All(c) })
		}
		return parseList(items, b, func(c []Expr) Expr { return Any(c) })

	case "container":
		if err := onlyKeys(m, "container", "state", "id"); err != nil {
			return nil, err
		}
		return parseContainer(m, "container", "id", b)

	case "activity":
		if err := onlyKeys(m, "activity", "state"); err != nil {
			return nil, err
		}
		return parseActivity(m, "activity")

	default:
		switch m["type"] {
		case "container":
			if err := onlyKeys(m, "type", "concept", "state", "id", "id_"); err != nil {
				return nil, err
			}
			idKey := "id"
			if _, ok := m["id_"]; ok {
				idKey = "id_"
			}
			return parseContainer(m, "concept", idKey, b)
		case "activity":
			if err := onlyKeys(m, "type", "state", "name", "ID"); err != nil {
				return nil, err
			}
			if _, ok := m["ID"]; ok {
				return parseActivity(m, "ID")
			}
			return parseActivity(m, "name")
		default:
			return nil, invalidMap(m, fmt.Sprintf("unknown condition type %v", m["type"]))
		}
	}
}

func parseContainer(m map[string]any, nameKey, idKey string, b Bindings) (Expr, error) {
	name, ok := m[nameKey].(string)
	if !ok {
		return nil, invalidMap(m, nameKey+" must be a container name")
	}
	c, ok := b.Container(name)
	if !ok {
		return nil, ir.NewUnknownNameError(ir.ErrCodeUnknownContainer, "container", name)
	}
	state, _ := m["state"].(string)
	id := sim.DefaultLevelID
	if raw, present := m[idKey]; present {
		s, ok := raw.(string)
		if !ok {
			return nil, invalidMap(m, idKey+" must be a string")
		}
		id = s
	}
	if !c.HasLevel(id) {
		return nil, ir.NewUnknownLevelError(name, id)
	}
	// State is checked at compile time so an unknown value reports the same error either way.
	return ContainerState{Container: c, State: Threshold(state), ID: id}, nil
}

func parseActivity(m map[string]any, keyField string) (Expr, error) {
	if state, present := m["state"]; present && state != "done" {
		return nil, invalidMap(m, fmt.Sprintf("unknown activity state %v", state))
	}
	key, ok := m[keyField].(string)
	if !ok || key == "" {
		return nil, invalidMap(m, keyField+" must be an activity id or name")
	}
	return Done(key), nil
}

func onlyKeys(m map[string]any, allowed ...string) error {
	for k := range m {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return invalidMap(m, fmt.Sprintf("unexpected key %q", k))
		}
	}
	return nil
}

func invalidMap(m map[string]any, message string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return ir.NewInvalidExpressionError("map["+strings.Join(keys, ",")+"]", message)
}
