package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/clsim/internal/activity"
	"github.com/roach88/clsim/internal/eventlog"
	"github.com/roach88/clsim/internal/model"
	"github.com/roach88/clsim/internal/sim"
	"github.com/roach88/clsim/internal/store"
	"github.com/roach88/clsim/internal/testutil"
)

// Harness runs scenarios with deterministic activity ids and run ids.
type Harness struct {
	logger *slog.Logger
	ids    *testutil.SequentialIDs
	runIDs *testutil.FixedRunID
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger routes kernel and activity logs to l. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario builds its model on a fresh environment and persists its
// trace to a fresh in-memory store. A returned error means the scenario could
// not be executed at all (unloadable model, store failure); a run that fails
// or an assertion that does not hold is reported in the Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:    testutil.NewSequentialIDs("act"),
		runIDs: testutil.NewFixedRunID(scenario.RunID),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	m, err := model.Load(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	hash, err := m.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash model: %w", err)
	}

	env := sim.NewEnv(sim.WithLogger(h.logger), sim.WithMaxSteps(scenario.MaxSteps))
	defer env.Close()

	dir := activity.NewDirectory(
		activity.WithLogger(h.logger),
		activity.WithIDGenerator(h.ids),
	)
	w, err := model.Build(env, dir, m)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("validate model: %w", err)
	}

	var runErr error
	if scenario.Until != nil {
		runErr = env.RunUntil(ctx, *scenario.Until)
	} else {
		runErr = env.Run(ctx)
	}

	result := NewResult()
	result.FinalTime = env.Now()
	for _, p := range env.Pending() {
		result.Pending = append(result.Pending, p.Name())
	}

	trace, err := h.persist(ctx, store.Run{
		ID:        h.runIDs.Generate(),
		ModelName: m.Name,
		ModelHash: hash,
		FinalTime: result.FinalTime,
		Pending:   len(result.Pending),
	}, w)
	if err != nil {
		return nil, err
	}
	result.Trace = trace

	switch {
	case scenario.ExpectError == "" && runErr != nil:
		result.AddError(fmt.Sprintf("run failed: %v", runErr))
	case scenario.ExpectError != "" && runErr == nil:
		result.AddError(fmt.Sprintf("expected run to fail with %q, but it succeeded", scenario.ExpectError))
	case scenario.ExpectError != "" && !strings.Contains(runErr.Error(), scenario.ExpectError):
		result.AddError(fmt.Sprintf("expected run to fail with %q, got: %v", scenario.ExpectError, runErr))
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"final_time", result.FinalTime,
		"entries", len(result.Trace),
	)
	return result, nil
}

// persist writes the journal to an in-memory store and reads it back in
// sequence order.
func (h *Harness) persist(ctx context.Context, run store.Run, w *model.World) ([]eventlog.Entry, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	entries := w.Journal().Entries()
	run.EntryCount = len(entries)
	if err := st.WriteRun(ctx, run); err != nil {
		return nil, err
	}
	if _, err := st.WriteEntries(ctx, run.ID, entries); err != nil {
		return nil, err
	}
	return st.ReadEntries(ctx, run.ID)
}
