package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"seatfinder/internal/runner"
	"seatfinder/internal/timetable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	s, err := NewHistoryStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func query(t *testing.T, unit string, activity uint64) timetable.Query {
	t.Helper()
	q, err := timetable.NewQuery(unit, timetable.SemesterAny, timetable.Thursday, timetable.Lab, activity, nil)
	require.NoError(t, err)
	return q
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := NewRunID()

	found := runner.Outcome{
		Index: 0,
		Query: query(t, "COMP1234", 5),
		Allocation: &timetable.Allocation{
			Activity: 5, Seats: 12, Day: timetable.Thursday,
			Time: timetable.Clock{Hour: 15}, Location: "Carslaw 201",
		},
		Duration: 1500 * time.Millisecond,
	}
	absent := runner.Outcome{Index: 1, Query: query(t, "COMP1234", 6)}
	failed := runner.Outcome{Index: 2, Query: query(t, "INFO1110", 1), Err: errors.New("no sessions found")}

	for _, o := range []runner.Outcome{found, absent, failed} {
		require.NoError(t, s.Record(ctx, run, o))
	}

	entries, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first
	assert.Equal(t, runner.StatusFailed, entries[0].Status)
	assert.Equal(t, "no sessions found", entries[0].Error)
	assert.Equal(t, runner.StatusAbsent, entries[1].Status)

	got := entries[2]
	assert.Equal(t, run, got.RunID)
	assert.Equal(t, runner.StatusFound, got.Status)
	assert.Equal(t, uint64(5), got.Activity)
	assert.Equal(t, 12, got.Seats)
	assert.Equal(t, "Thursday", got.Day)
	assert.Equal(t, "15:00", got.Time)
	assert.Equal(t, "Carslaw 201", got.Location)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, found.Query.String(), got.Query)
	assert.True(t, got.RecordedAt.Before(entries[0].RecordedAt))
}

func TestRecent_FiltersByUnitAndLimits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := NewRunID()

	for i, unit := range []string{"COMP1234", "INFO1110", "COMP1234", "COMP1234"} {
		require.NoError(t, s.Record(ctx, run, runner.Outcome{Index: i, Query: query(t, unit, 1)}))
	}

	entries, err := s.Recent(ctx, "COMP1234", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "COMP1234", e.UnitCode)
	}
	assert.Equal(t, 3, entries[0].Index)

	none, err := s.Recent(ctx, "MATH1021", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := NewRunID()

	outcomes := []runner.Outcome{
		{Query: query(t, "COMP1234", 1), Allocation: &timetable.Allocation{Activity: 1}},
		{Query: query(t, "COMP1234", 2)},
		{Query: query(t, "COMP1234", 3)},
		{Query: query(t, "COMP1234", 4), Err: errors.New("boom")},
	}
	for _, o := range outcomes {
		require.NoError(t, s.Record(ctx, run, o))
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[runner.Status]int{
		runner.StatusFound:  1,
		runner.StatusAbsent: 2,
		runner.StatusFailed: 1,
	}, stats)
}

func TestNewHistoryStore_FileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	ctx := context.Background()

	s, err := NewHistoryStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, NewRunID(), runner.Outcome{Query: query(t, "COMP1234", 1)}))
	require.NoError(t, s.Close())

	reopened, err := NewHistoryStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(ctx, "", 5)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, path, reopened.Path())
}

func TestRecord_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Record(ctx, NewRunID(), runner.Outcome{Query: query(t, "COMP1234", 1)})
	assert.Error(t, err)
}

func TestNewRunID_Unique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}
