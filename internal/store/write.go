package store

import (
	"context"
	"fmt"

	"github.com/roach88/clsim/internal/eventlog"
	"github.com/roach88/clsim/internal/ir"
)

// Run describes one recorded simulation run.
type Run struct {
	ID         string `json:"id"`
	ModelName  string `json:"model_name"`
	ModelHash  string `json:"model_hash"`
	FinalTime  int64  `json:"final_time"`
	Pending    int    `json:"pending"`
	EntryCount int    `json:"entry_count"`
}

// WriteRun inserts a run record. Duplicate ids are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, model_name, model_hash, final_time, pending, entry_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.ModelName,
		run.ModelHash,
		run.FinalTime,
		run.Pending,
		run.EntryCount,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteEntries appends a run's journal in one transaction and returns the
// number of entries actually inserted. Entries already present (same
// content-addressed id) are skipped, so rewriting a trace is a no-op.
//
// The run must exist (foreign key constraint).
func (s *Store) WriteEntries(ctx context.Context, runID string, entries []eventlog.Entry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write entries: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO log_entries
		(id, run_id, seq, t, owner, activity_id, state, label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("write entries: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range entries {
		id, err := ir.LogEntryID(runID, e.Owner, e.ActivityID, string(e.State), e.Label, e.Time, e.Seq)
		if err != nil {
			return 0, fmt.Errorf("write entries: entry %d: %w", e.Seq, err)
		}
		res, err := stmt.ExecContext(ctx, id, runID, e.Seq, e.Time, e.Owner, e.ActivityID, string(e.State), e.Label)
		if err != nil {
			return 0, fmt.Errorf("write entries: entry %d: %w", e.Seq, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("write entries: rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write entries: commit: %w", err)
	}
	return inserted, nil
}
