package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hlsladder/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(id string, started time.Time) history.Run {
	return history.Run{
		ID:         id,
		InputPath:  "/media/in.mp4",
		OutputRoot: "/srv/hls",
		BaseName:   "movie",
		Width:      1280,
		Height:     720,
		BitRate:    2_000_000,
		Ladder:     []string{"720p", "480p", "220p"},
		Decision:   "full ladder",
		Status:     history.StatusPartial,
		MasterPath: "/srv/hls/movie.m3u8",
		StartedAt:  started,
		Duration:   1500 * time.Millisecond,
		Rungs: []history.RungResult{
			{Rung: "720p", Outcome: "failed", ExitCode: 1, Detail: "Unknown encoder", Duration: time.Second},
			{Rung: "480p", Outcome: "succeeded", Duration: 2 * time.Second, OutputBytes: 4096},
			{Rung: "220p", Outcome: "succeeded", Duration: time.Second, OutputBytes: 1024},
		},
	}
}

func TestRecordAndGetRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	require.NoError(t, store.RecordRun(ctx, sampleRun("7d9f0c3e-aaaa-bbbb-cccc-000000000001", started)))

	got, err := store.GetRun(ctx, "7d9f0c3e-aaaa-bbbb-cccc-000000000001")
	require.NoError(t, err)
	assert.Equal(t, sampleRun("7d9f0c3e-aaaa-bbbb-cccc-000000000001", started), got)
	assert.Equal(t, 2, got.Succeeded())

	byPrefix, err := store.GetRun(ctx, "7d9f0c3e")
	require.NoError(t, err)
	assert.Equal(t, got.ID, byPrefix.ID)
}

func TestGetRunErrors(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, history.ErrNotFound))

	now := time.Now()
	require.NoError(t, store.RecordRun(ctx, sampleRun("abc-1", now)))
	require.NoError(t, store.RecordRun(ctx, sampleRun("abc-2", now)))
	_, err = store.GetRun(ctx, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestGetRunTreatsWildcardsLiterally(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.RecordRun(ctx, sampleRun("run_1", now)))
	require.NoError(t, store.RecordRun(ctx, sampleRun("runx1", now)))

	run, err := store.GetRun(ctx, "run_")
	require.NoError(t, err)
	assert.Equal(t, "run_1", run.ID)

	_, err = store.GetRun(ctx, "run%")
	assert.True(t, errors.Is(err, history.ErrNotFound))
}

func TestGetRunPrefersExactMatch(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now()

	for _, id := range []string{"abc1", "abc2", "abc"} {
		require.NoError(t, store.RecordRun(ctx, sampleRun(id, now)))
	}
	run, err := store.GetRun(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", run.ID)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordRun(ctx, sampleRun("first", base)))
	require.NoError(t, store.RecordRun(ctx, sampleRun("second", base.Add(500*time.Millisecond))))
	require.NoError(t, store.RecordRun(ctx, sampleRun("third", base.Add(time.Hour))))

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].ID)
	assert.Equal(t, "second", runs[1].ID)
	assert.Len(t, runs[0].Rungs, 3)
}

func TestRecordRunRejectsDuplicates(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.RecordRun(ctx, sampleRun("dup", time.Now())))
	assert.Error(t, store.RecordRun(ctx, sampleRun("dup", time.Now())))
	assert.Error(t, store.RecordRun(ctx, history.Run{}))
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := history.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.RecordRun(context.Background(), sampleRun("keep", time.Now())))
	require.NoError(t, first.Close())

	second, err := history.Open(path)
	require.NoError(t, err)
	defer second.Close()
	_, err = second.GetRun(context.Background(), "keep")
	assert.NoError(t, err)
	assert.Equal(t, path, second.Path())
}
