package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"imdb-data/lib/testutil"

	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) Store {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "runlog",
		DbSchema: Schema,
		DbPath:   filepath.Join(t.TempDir(), "runlog.db"),
	})
	t.Cleanup(cleanup)
	t.Cleanup(func() {
		err := result.DB.Close()
		require.NoError(t, err)
	})
	return NewStore(result.DB)
}

func TestOpen(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runlog.db"))
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Last(context.Background(), "ratings")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLastEmpty(t *testing.T) {
	store := openStore(t)

	_, ok, err := store.Last(context.Background(), "ratings")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRecordAndLast(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []Run{
		{Target: "ratings", Time: base, Outdated: true, RowCount: 10, SHA256: "aaa"},
		{Target: "ratings", Time: base.Add(time.Hour), Outdated: false, RowCount: 10, SHA256: "aaa"},
		{Target: "watchlist", Time: base.Add(30 * time.Minute), Outdated: true, RowCount: 4, SHA256: "bbb"},
	}
	for _, run := range runs {
		err := store.Record(ctx, run)
		require.NoError(t, err)
	}

	last, ok, err := store.Last(ctx, "ratings")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ratings", last.Target)
	require.False(t, last.Outdated)
	require.Equal(t, 10, last.RowCount)
	require.Equal(t, "aaa", last.SHA256)
	require.True(t, last.Time.Equal(base.Add(time.Hour)))

	last, ok, err = store.Last(ctx, "watchlist")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, last.RowCount)
}

func TestRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := store.Record(ctx, Run{
			Target:   "ratings",
			Time:     base.Add(time.Duration(i) * time.Minute),
			Outdated: i%2 == 0,
			RowCount: i,
			SHA256:   "sum",
		})
		require.NoError(t, err)
	}

	recent, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, 4, recent[0].RowCount)
	require.Equal(t, 3, recent[1].RowCount)
	require.Equal(t, 2, recent[2].RowCount)
}
