package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/clsim/internal/eventlog"
	"github.com/roach88/clsim/internal/ir"
	"github.com/roach88/clsim/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Activity string // optional activity id filter
}

// TraceStats summarizes a stored trace.
type TraceStats struct {
	Total   int            `json:"total"`
	ByState map[string]int `json:"by_state"`
	Owners  int            `json:"owners"`
}

// TraceResult is a stored run with its entries.
type TraceResult struct {
	Run     store.Run        `json:"run"`
	Entries []eventlog.Entry `json:"entries"`
	Stats   TraceStats       `json:"stats"`
}

func (r TraceResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s of %s (hash %.12s)\n", r.Run.ID, r.Run.ModelName, r.Run.ModelHash)
	fmt.Fprintf(&b, "Final time %d, %d process(es) left waiting\n", r.Run.FinalTime, r.Run.Pending)
	writeEntries(&b, r.Entries)
	fmt.Fprintf(&b, "%d entries from %d owner(s):", r.Stats.Total, r.Stats.Owners)
	for _, state := range ir.SortedKeys(r.Stats.ByState) {
		fmt.Fprintf(&b, " %s=%d", state, r.Stats.ByState[state])
	}
	return b.String()
}

// RunList is the list of stored runs.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No runs stored."
	}
	var b strings.Builder
	for i, r := range l.Runs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %-20s t=%-6d entries=%d", r.ID, r.ModelName, r.FinalTime, r.EntryCount)
	}
	return b.String()
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show a stored run",
		Long: `Show the trace of a run stored with "clsim run --db".

Without --run, lists the stored runs.

Examples:
  clsim trace --db ./runs.db
  clsim trace --db ./runs.db --run 0190c3e2-...
  clsim trace --db ./runs.db --run 0190c3e2-... --activity 0190c3e2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show")
	cmd.Flags().StringVar(&opts.Activity, "activity", "", "only entries logged for this activity id")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmdContext(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return fail(formatter, ErrCodeStore, ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return fail(formatter, ErrCodeStore, ExitCommandError, "failed to list runs", err)
		}
		if runs == nil {
			runs = []store.Run{}
		}
		return formatter.Success(RunList{Runs: runs})
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(formatter, ErrCodeNoRun, ExitCommandError, "run not found", err)
	}
	if err != nil {
		return fail(formatter, ErrCodeStore, ExitCommandError, "failed to read run", err)
	}

	var entries []eventlog.Entry
	if opts.Activity != "" {
		entries, err = st.ReadActivityEntries(ctx, opts.RunID, opts.Activity)
	} else {
		entries, err = st.ReadEntries(ctx, opts.RunID)
	}
	if err != nil {
		return fail(formatter, ErrCodeStore, ExitCommandError, "failed to read entries", err)
	}

	return formatter.Success(TraceResult{
		Run:     run,
		Entries: entries,
		Stats:   traceStats(entries),
	})
}

func traceStats(entries []eventlog.Entry) TraceStats {
	stats := TraceStats{Total: len(entries), ByState: map[string]int{}}
	owners := map[string]bool{}
	for _, e := range entries {
		stats.ByState[string(e.State)]++
		owners[e.Owner] = true
	}
	stats.Owners = len(owners)
	return stats
}
