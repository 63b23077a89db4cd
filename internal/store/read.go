package store

import (
	"context"
	"fmt"

	"github.com/roach88/clsim/internal/eventlog"
)

// ReadRun retrieves a run by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, model_name, model_hash, final_time, pending, entry_count
		FROM runs
		WHERE id = ?
	`, id).Scan(&r.ID, &r.ModelName, &r.ModelHash, &r.FinalTime, &r.Pending, &r.EntryCount)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns every run ordered by id. UUIDv7 run ids sort by creation time.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model_name, model_hash, final_time, pending, entry_count
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ModelName, &r.ModelHash, &r.FinalTime, &r.Pending, &r.EntryCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEntries returns a run's journal in logical order.
// Returns an empty slice (not nil) if the run has no entries.
func (s *Store) ReadEntries(ctx context.Context, runID string) ([]eventlog.Entry, error) {
	return s.queryEntries(ctx, `
		SELECT seq, t, owner, activity_id, state, label
		FROM log_entries
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
}

// ReadActivityEntries returns the entries logged for one activity id.
func (s *Store) ReadActivityEntries(ctx context.Context, runID, activityID string) ([]eventlog.Entry, error) {
	return s.queryEntries(ctx, `
		SELECT seq, t, owner, activity_id, state, label
		FROM log_entries
		WHERE run_id = ? AND activity_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID, activityID)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]eventlog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []eventlog.Entry{}
	for rows.Next() {
		var e eventlog.Entry
		var state string
		if err := rows.Scan(&e.Seq, &e.Time, &e.Owner, &e.ActivityID, &state, &e.Label); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.State = eventlog.ParseState(state)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
