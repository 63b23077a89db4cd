package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_WaitOnProcess(t *testing.T) {
	env := newTestEnv(t)

	worker := env.Process("worker", func(p *Process) error {
		return p.Sleep(4)
	})

	var joinedAt int64
	env.Process("joiner", func(p *Process) error {
		require.NoError(t, p.Wait(worker.Event))
		joinedAt = p.Now()
		return nil
	})

	require.NoError(t, env.Run(context.Background()))
	assert.Equal(t, int64(4), joinedAt)
	assert.True(t, worker.Done())
	assert.True(t, worker.OK())
}

func TestProcess_WaitProcessedEventReturnsImmediately(t *testing.T) {
	env := newTestEnv(t)
	ev := env.NewEvent("early")
	require.NoError(t, ev.Succeed(nil))
	require.NoError(t, env.Run(context.Background()))

	var at int64 = -1
	env.Process("late", func(p *Process) error {
		require.NoError(t, p.Wait(ev))
		at = p.Now()
		return nil
	})

	require.NoError(t, env.Run(context.Background()))
	assert.Equal(t, int64(0), at)
}

func TestProcess_UnhandledErrorAbortsRun(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("boom")

	env.Process("bad", func(p *Process) error {
		if err := p.Sleep(2); err != nil {
			return err
		}
		return boom
	})

	err := env.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(2), env.Now())
}

func TestProcess_HandledErrorDoesNotAbort(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("boom")

	bad := env.Process("bad", func(p *Process) error {
		return boom
	})

	var got error
	env.Process("watcher", func(p *Process) error {
		got = p.Wait(bad.Event)
		return nil
	})

	require.NoError(t, env.Run(context.Background()))
	assert.ErrorIs(t, got, boom)
	assert.False(t, bad.OK())
}

func TestProcess_PanicBecomesError(t *testing.T) {
	env := newTestEnv(t)

	env.Process("panicky", func(p *Process) error {
		panic("kaboom")
	})

	err := env.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestProcess_PendingAndClose(t *testing.T) {
	env := NewEnv()
	never := env.NewEvent("never")

	var got error
	stuck := env.Process("stuck", func(p *Process) error {
		got = p.Wait(never)
		return got
	})
	env.Process("finishes", func(p *Process) error {
		return p.Sleep(1)
	})

	require.NoError(t, env.Run(context.Background()))

	pending := env.Pending()
	require.Len(t, pending, 1)
	assert.Same(t, stuck, pending[0])
	assert.Same(t, never, stuck.Waiting())

	env.Close()
	assert.ErrorIs(t, got, ErrClosed)
	assert.True(t, stuck.Done())
	assert.Empty(t, env.Pending())

	_, err := env.Step()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestProcess_OneRunsAtATime(t *testing.T) {
	env := newTestEnv(t)
	running := 0
	maxRunning := 0

	for i := 0; i < 5; i++ {
		env.Process("p", func(p *Process) error {
			for j := 0; j < 3; j++ {
				running++
				maxRunning = max(maxRunning, running)
				running--
				if err := p.Sleep(1); err != nil {
					return err
				}
			}
			return nil
		})
	}

	require.NoError(t, env.Run(context.Background()))
	assert.Equal(t, 1, maxRunning)
	assert.Equal(t, int64(3), env.Now())
}
