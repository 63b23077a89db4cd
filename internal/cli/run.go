package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/clsim/internal/activity"
	"github.com/roach88/clsim/internal/eventlog"
	"github.com/roach88/clsim/internal/ir"
	"github.com/roach88/clsim/internal/metrics"
	"github.com/roach88/clsim/internal/model"
	"github.com/roach88/clsim/internal/sim"
	"github.com/roach88/clsim/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Until    int64
	MaxSteps int
	Metrics  bool

	// RunIDs and ActivityIDs override the UUIDv7 generators (for testing).
	RunIDs      activity.IDGenerator
	ActivityIDs activity.IDGenerator
}

// RunSummary is the result of a simulation run.
type RunSummary struct {
	RunID     string           `json:"run_id"`
	Model     string           `json:"model"`
	ModelHash string           `json:"model_hash"`
	FinalTime int64            `json:"final_time"`
	Pending   []string         `json:"pending"`
	Stored    bool             `json:"stored"`
	Entries   []eventlog.Entry `json:"entries"`
	Metrics   []metrics.Sample `json:"metrics,omitempty"`
}

func (s RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s of %s finished at t=%d (%d entries)\n", s.RunID, s.Model, s.FinalTime, len(s.Entries))
	writeEntries(&b, s.Entries)
	if len(s.Pending) > 0 {
		fmt.Fprintf(&b, "Still waiting: %s\n", strings.Join(s.Pending, ", "))
	}
	if len(s.Metrics) > 0 {
		b.WriteString("Metrics:\n")
		for _, m := range s.Metrics {
			fmt.Fprintf(&b, "  %s%s %g\n", m.Name, formatLabels(m.Labels), m.Value)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <model>",
		Short: "Run a model to completion",
		Long: `Run a simulation model and print its trace.

The model is a .cue file, a directory of CUE files, or a .yaml file. The
run continues until no events remain, or until --until when given.
With --db the run and its trace are written to a SQLite database.

Examples:
  clsim run ./models/dredging.cue
  clsim run ./models/dredging.yaml --until 100 --db ./runs.db
  clsim run ./models --metrics --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModel(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for the trace")
	cmd.Flags().Int64Var(&opts.Until, "until", 0, "stop the run at this simulated time")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "abort after processing this many events (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "include run metrics in the output")

	return cmd
}

func runModel(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	m, err := model.Load(path)
	if err != nil {
		return fail(formatter, ErrCodeLoad, ExitCommandError, "failed to load model", err)
	}
	hash, err := m.Hash()
	if err != nil {
		return fail(formatter, ErrCodeLoad, ExitCommandError, "failed to hash model", err)
	}
	formatter.VerboseLog("Loaded model %s (%d activities)", m.Name, len(m.Activities))

	collector := metrics.New()
	env := sim.NewEnv(sim.WithLogger(logger), sim.WithObserver(collector), sim.WithMaxSteps(opts.MaxSteps))
	defer env.Close()

	ids := opts.ActivityIDs
	if ids == nil {
		ids = activity.UUIDv7Generator{}
	}
	dir := activity.NewDirectory(
		activity.WithLogger(logger),
		activity.WithMetrics(collector),
		activity.WithIDGenerator(ids),
	)

	w, err := model.Build(env, dir, m)
	if err == nil {
		err = w.Validate()
	}
	if err != nil {
		return fail(formatter, ErrCodeModel, ExitFailure, "invalid model", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Flags().Changed("until") {
		err = env.RunUntil(ctx, opts.Until)
	} else {
		err = env.Run(ctx)
	}
	switch {
	case errors.Is(err, context.Canceled):
		// A partial trace is not stored.
		return fail(formatter, ErrCodeAborted, ExitFailure, fmt.Sprintf("simulation interrupted at t=%d", env.Now()), err)
	case err != nil:
		return fail(formatter, ErrCodeRun, ExitFailure, fmt.Sprintf("simulation failed at t=%d", env.Now()), err)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = activity.UUIDv7Generator{}
	}
	summary := RunSummary{
		RunID:     runIDs.Generate(),
		Model:     m.Name,
		ModelHash: hash,
		FinalTime: env.Now(),
		Pending:   []string{},
		Entries:   w.Journal().Entries(),
	}
	for _, p := range env.Pending() {
		summary.Pending = append(summary.Pending, p.Name())
	}
	if len(summary.Pending) > 0 {
		logger.Warn("run ended with processes still waiting",
			"count", len(summary.Pending),
			"processes", strings.Join(summary.Pending, ","),
			"t", summary.FinalTime,
		)
	}

	if opts.Database != "" {
		if err := storeRun(ctx, opts.Database, summary, logger); err != nil {
			return fail(formatter, ErrCodeStore, ExitCommandError, "failed to store run", err)
		}
		summary.Stored = true
	}

	if opts.Metrics {
		samples, err := collector.Snapshot()
		if err != nil {
			return fail(formatter, ErrCodeRun, ExitFailure, "failed to gather metrics", err)
		}
		summary.Metrics = samples
	}

	return formatter.Success(summary)
}

func storeRun(ctx context.Context, path string, summary RunSummary, logger *slog.Logger) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if err := st.WriteRun(ctx, store.Run{
		ID:         summary.RunID,
		ModelName:  summary.Model,
		ModelHash:  summary.ModelHash,
		FinalTime:  summary.FinalTime,
		Pending:    len(summary.Pending),
		EntryCount: len(summary.Entries),
	}); err != nil {
		return err
	}
	n, err := st.WriteEntries(ctx, summary.RunID, summary.Entries)
	if err != nil {
		return err
	}
	logger.Debug("run stored", "db", path, "run", summary.RunID, "entries", n)
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeEntries(b *strings.Builder, entries []eventlog.Entry) {
	for _, e := range entries {
		fmt.Fprintf(b, "  t=%-6d %-16s %-10s", e.Time, e.Owner, e.State)
		if e.Label != "" {
			fmt.Fprintf(b, " %s", e.Label)
		}
		b.WriteByte('\n')
	}
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, k := range ir.SortedKeys(labels) {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
