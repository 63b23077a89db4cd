package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/clsim/internal/eventlog"
)

// createTestStore creates a store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEntries() []eventlog.Entry {
	return []eventlog.Entry{
		{Seq: 1, Time: 0, Owner: "dig", ActivityID: "act-1", State: eventlog.WaitStart},
		{Seq: 2, Time: 3, Owner: "dig", ActivityID: "act-1", State: eventlog.WaitStop},
		{Seq: 3, Time: 3, Owner: "dig", ActivityID: "act-1", State: eventlog.Start},
		{Seq: 4, Time: 3, Owner: "crane", ActivityID: "act-1", State: eventlog.WaitStart, Label: "pre-delay"},
		{Seq: 5, Time: 8, Owner: "dig", ActivityID: "act-1", State: eventlog.Stop},
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_PragmasAndVersion(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))

	v, err := s.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, v)
}

func TestWriteEntries_RoundTripOrdered(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.WriteRun(ctx, Run{ID: "run-1", ModelName: "demo", ModelHash: "h", FinalTime: 8, EntryCount: 5}))

	entries := sampleEntries()
	// Insertion order must not matter.
	shuffled := []eventlog.Entry{entries[4], entries[0], entries[2], entries[1], entries[3]}
	n, err := s.WriteEntries(ctx, "run-1", shuffled)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	got, err := s.ReadEntries(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestWriteEntries_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.WriteRun(ctx, Run{ID: "run-1", ModelName: "demo", ModelHash: "h"}))

	_, err := s.WriteEntries(ctx, "run-1", sampleEntries())
	require.NoError(t, err)
	n, err := s.WriteEntries(ctx, "run-1", sampleEntries())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "rewriting a trace inserts nothing")

	got, err := s.ReadEntries(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestWriteEntries_UnknownRun(t *testing.T) {
	s := createTestStore(t)
	_, err := s.WriteEntries(context.Background(), "ghost", sampleEntries())
	assert.Error(t, err, "foreign key constraint rejects entries without a run")
}

func TestReadEntries_Empty(t *testing.T) {
	s := createTestStore(t)
	got, err := s.ReadEntries(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadActivityEntries(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.WriteRun(ctx, Run{ID: "run-1", ModelName: "demo", ModelHash: "h"}))

	entries := append(sampleEntries(), eventlog.Entry{Seq: 6, Time: 8, Owner: "haul", ActivityID: "act-2", State: eventlog.Start})
	_, err := s.WriteEntries(ctx, "run-1", entries)
	require.NoError(t, err)

	got, err := s.ReadActivityEntries(ctx, "run-1", "act-2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "haul", got[0].Owner)
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WriteRun(ctx, Run{ID: "b", ModelName: "second", ModelHash: "h2", FinalTime: 9, Pending: 1}))
	require.NoError(t, s.WriteRun(ctx, Run{ID: "a", ModelName: "first", ModelHash: "h1", FinalTime: 4}))
	require.NoError(t, s.WriteRun(ctx, Run{ID: "a", ModelName: "dup", ModelHash: "x"}))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a", runs[0].ID)
	assert.Equal(t, "first", runs[0].ModelName, "duplicate run ids are ignored")

	r, err := s.ReadRun(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Pending)
	assert.Equal(t, int64(9), r.FinalTime)

	_, err = s.ReadRun(ctx, "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
