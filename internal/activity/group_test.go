package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clsim/internal/ledger"
	"github.com/roach88/clsim/internal/sim"
)

func TestGroup_Sequential(t *testing.T) {
	env, dir := newTestEnv(t)
	started := map[string]int64{}

	var children []*Activity
	for _, c := range []struct {
		name string
		d    int64
	}{{"dredge", 2}, {"sail", 3}, {"dump", 1}} {
		a, err := New(env, dir, Config{Name: c.name, ID: c.name, PostponeStart: true}, func(p *sim.Process, a *Activity) error {
			started[a.Name()] = p.Now()
			return p.Sleep(c.d)
		})
		require.NoError(t, err)
		children = append(children, a)
	}

	g, err := NewGroup(env, dir, Config{Name: "cycle", ID: "cycle"}, ModeSequential, children)
	require.NoError(t, err)
	assert.True(t, g.Registered())

	run(t, env)
	assert.Equal(t, map[string]int64{"dredge": 0, "sail": 2, "dump": 5}, started)
	assert.True(t, g.DoneEvent().Processed())
	for _, c := range children {
		assert.True(t, c.DoneEvent().Processed(), "group ends %s", c.Name())
	}

	stop := g.Log().Entries()
	assert.Equal(t, int64(6), stop[len(stop)-1].Time)
}

func TestGroup_Parallel(t *testing.T) {
	env, dir := newTestEnv(t)
	started := map[string]int64{}
	children := postponed(t, env, dir, started, "a", "b")

	_, err := NewGroup(env, dir, Config{Name: "both"}, ModeParallel, children)
	require.NoError(t, err)

	run(t, env)
	assert.Equal(t, map[string]int64{"a": 0, "b": 0}, started)
}

func TestGroup_Postponed(t *testing.T) {
	env, dir := newTestEnv(t)
	started := map[string]int64{}
	children := postponed(t, env, dir, started, "a")

	g, err := NewGroup(env, dir, Config{Name: "later", PostponeStart: true}, ModeSequential, children)
	require.NoError(t, err)
	assert.False(t, g.Registered())
	assert.True(t, g.Postponed())

	run(t, env)
	assert.Empty(t, started)

	require.NoError(t, g.Register())
	run(t, env)
	assert.Contains(t, started, "a")
}

func TestGroup_UnknownMode(t *testing.T) {
	env, dir := newTestEnv(t)
	_, err := NewGroup(env, dir, Config{Name: "g"}, Mode("shuffle"), nil)
	assert.Error(t, err)
}

func TestGroup_RetainsResourceAcrossChildren(t *testing.T) {
	env, dir := newTestEnv(t)
	crane := sim.NewResource(env, "crane", 1)
	var grants []int64

	first, err := New(env, dir, Config{Name: "lift", PostponeStart: true, Keep: []ledger.Keeper{crane}}, func(p *sim.Process, a *Activity) error {
		if err := a.RequestResource(p, crane); err != nil {
			return err
		}
		grants = append(grants, p.Now())
		if err := p.Sleep(3); err != nil {
			return err
		}
		return a.ReleaseResource(crane)
	})
	require.NoError(t, err)

	second, err := New(env, dir, Config{Name: "place", PostponeStart: true}, func(p *sim.Process, a *Activity) error {
		if err := a.RequestResource(p, crane); err != nil {
			return err
		}
		grants = append(grants, p.Now())
		if err := p.Sleep(2); err != nil {
			return err
		}
		return a.ReleaseResource(crane)
	})
	require.NoError(t, err)

	// A competitor asks for the crane while the first child holds it.
	var competitorAt int64 = -1
	env.Process("competitor", func(p *sim.Process) error {
		if err := p.Sleep(1); err != nil {
			return err
		}
		req := crane.Request()
		if err := p.Wait(req.Event); err != nil {
			return err
		}
		competitorAt = p.Now()
		return crane.Release(req)
	})

	g, err := NewGroup(env, dir, Config{Name: "move"}, ModeSequential, []*Activity{first, second})
	require.NoError(t, err)
	assert.Same(t, g.Ledger(), first.Ledger())
	assert.Same(t, g.Ledger(), second.Ledger())

	run(t, env)
	assert.Equal(t, []int64{0, 3}, grants, "second child reuses the kept claim")
	assert.Equal(t, int64(5), competitorAt, "competitor waits for the chain to release")
	assert.Equal(t, 0, g.Ledger().Len())
}
