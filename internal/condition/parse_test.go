package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/clsim/internal/ir"
	"github.com/roach88/clsim/internal/sim"
)

type fakeBindings struct {
	signals    map[string]*sim.Event
	containers map[string]Container
}

func (b fakeBindings) Signal(name string) (*sim.Event, bool) {
	ev, ok := b.signals[name]
	return ev, ok
}

func (b fakeBindings) Container(name string) (Container, bool) {
	c, ok := b.containers[name]
	return c, ok
}

func newBindings(env *sim.Env) fakeBindings {
	return fakeBindings{
		signals: map[string]*sim.Event{
			"start": env.NewEvent("start"),
			"tide":  env.NewEvent("tide"),
		},
		containers: map[string]Container{
			"barge": sim.NewContainer(env, "barge", 10, 0),
		},
	}
}

func parseYAML(t *testing.T, src string, b Bindings) (Expr, error) {
	t.Helper()
	var raw any
	require.NoError(t, yaml.Unmarshal([]byte(src), &raw))
	return Parse(raw, b)
}

func TestParse_Shapes(t *testing.T) {
	env := newEnv(t)
	b := newBindings(env)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"string", `start`, "signal(start)"},
		{"list", `[start, tide]`, "and(signal(start), signal(tide))"},
		{"and", `{and: [start]}`, "and(signal(start))"},
		{"or", `{or: [start, {activity: dig}]}`, "or(signal(start), done(dig))"},
		{"container", `{container: barge, state: full}`, "container(barge/default=full)"},
		{"container id", `{container: barge, state: empty, id: sand}`, "container(barge/sand=empty)"},
		{"activity done", `{activity: dig, state: done}`, "done(dig)"},
		{"type activity", `{type: activity, state: done, name: dig}`, "done(dig)"},
		{"type activity ID", `{type: activity, state: done, ID: act-7}`, "done(act-7)"},
		{"type container", `{type: container, concept: barge, state: full, id_: sand}`, "container(barge/sand=full)"},
		{"nested", `[start, {or: [tide, {container: barge, state: full}]}]`, "and(signal(start), or(signal(tide), container(barge/default=full)))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parseYAML(t, tt.src, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.String())
		})
	}
}

func TestParse_Nil(t *testing.T) {
	expr, err := Parse(nil, fakeBindings{})
	require.NoError(t, err)
	assert.Nil(t, expr)
}

func TestParse_Invalid(t *testing.T) {
	env := newEnv(t)
	b := newBindings(env)

	tests := []struct {
		name  string
		src   string
		check func(error) bool
	}{
		{"number", `42`, ir.IsInvalidExpression},
		{"two heads", `{and: [start], or: [tide]}`, ir.IsInvalidExpression},
		{"no head", `{state: full}`, ir.IsInvalidExpression},
		{"and not list", `{and: start}`, ir.IsInvalidExpression},
		{"extra key", `{activity: dig, when: later}`, ir.IsInvalidExpression},
		{"bad activity state", `{type: activity, state: started, name: dig}`, ir.IsInvalidExpression},
		{"unknown type", `{type: resource, name: crane}`, ir.IsInvalidExpression},
		{"nested number", `[start, 3]`, ir.IsInvalidExpression},
		{"unknown signal", `ghost`, func(err error) bool { return ir.HasCode(err, ir.ErrCodeUnknownSignal) }},
		{"unknown container", `{container: ship, state: full}`, func(err error) bool { return ir.HasCode(err, ir.ErrCodeUnknownContainer) }},
		{"unknown level", `{container: barge, state: full, id: sand}`, func(err error) bool { return ir.HasCode(err, ir.ErrCodeUnknownContainer) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseYAML(t, tt.src, b)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestParse_UnknownStateFailsAtCompile(t *testing.T) {
	env := newEnv(t)
	b := newBindings(env)

	expr, err := parseYAML(t, `{container: barge, state: half}`, b)
	require.NoError(t, err)

	_, err = NewResolver(env, nil).Compile(expr)
	assert.True(t, ir.IsInvalidExpression(err))
}
