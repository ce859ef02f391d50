package names

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namecore/nschain/store"
)

func openTestStore(t *testing.T) store.KVDB {
	t.Helper()
	db, err := store.NewPebbleDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreView_FlushAndRead(t *testing.T) {
	db := openTestStore(t)
	view := NewStoreView(db)
	cache := NewNameCache(view, true)

	name := []byte("d/test")
	cache.Set(name, NameData{Value: []byte("v1"), Height: 100})
	cache.AddExpire(name, 100)

	wb := db.NewWriteBatch()
	require.NoError(t, cache.Flush(wb))
	require.NoError(t, wb.Flush())
	wb.Close()

	got, err := view.GetName(name)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got.Value)
	assert.Equal(t, uint32(100), got.Height)

	atHeight, err := view.NamesAtHeight(100)
	require.NoError(t, err)
	assert.Equal(t, []string{"d/test"}, atHeight)
}

func TestStoreView_WalkNames(t *testing.T) {
	db := openTestStore(t)
	view := NewStoreView(db)
	cache := NewNameCache(view, false)

	for _, n := range []string{"d/a", "d/b", "d/c"} {
		cache.Set([]byte(n), NameData{Value: []byte("v"), Height: 10})
	}
	wb := db.NewWriteBatch()
	require.NoError(t, cache.Flush(wb))
	require.NoError(t, wb.Flush())
	wb.Close()

	var seen []string
	err := view.WalkNames(context.Background(), nil, func(name []byte, data *NameData) (bool, error) {
		seen = append(seen, string(name))
		return true, nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"d/a", "d/b", "d/c"}, seen)
}

func TestStoreView_WalkNames_EarlyStop(t *testing.T) {
	db := openTestStore(t)
	view := NewStoreView(db)
	cache := NewNameCache(view, false)

	for _, n := range []string{"d/a", "d/b", "d/c"} {
		cache.Set([]byte(n), NameData{Value: []byte("v"), Height: 10})
	}
	wb := db.NewWriteBatch()
	require.NoError(t, cache.Flush(wb))
	require.NoError(t, wb.Flush())
	wb.Close()

	count := 0
	err := view.WalkNames(context.Background(), nil, func(name []byte, data *NameData) (bool, error) {
		count++
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreView_WalkNames_ContextCancelled(t *testing.T) {
	db := openTestStore(t)
	view := NewStoreView(db)
	cache := NewNameCache(view, false)

	for _, n := range []string{"d/a", "d/b", "d/c"} {
		cache.Set([]byte(n), NameData{Value: []byte("v"), Height: 10})
	}
	wb := db.NewWriteBatch()
	require.NoError(t, cache.Flush(wb))
	require.NoError(t, wb.Flush())
	wb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := view.WalkNames(ctx, nil, func(name []byte, data *NameData) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoreView_Snapshot(t *testing.T) {
	db := openTestStore(t)
	view := NewStoreView(db)
	cache := NewNameCache(view, false)

	name := []byte("d/test")
	cache.Set(name, NameData{Value: []byte("v1"), Height: 5})
	wb := db.NewWriteBatch()
	require.NoError(t, cache.Flush(wb))
	require.NoError(t, wb.Flush())
	wb.Close()

	err := view.Snapshot(func(snap NameView) error {
		got, err := snap.GetName(name)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got.Value)

		_, err = snap.GetName([]byte("d/missing"))
		assert.Equal(t, ErrNameNotFound, err)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreView_LoadStats_InitializesWhenAbsent(t *testing.T) {
	db := openTestStore(t)
	view := NewStoreView(db)

	stats, err := view.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, NameStatsVersion, stats.Version)
	assert.Equal(t, uint64(0), stats.NameCount)
}

func TestStoreView_SaveAndLoadStats_RoundTrip(t *testing.T) {
	db := openTestStore(t)
	view := NewStoreView(db)

	wb := db.NewWriteBatch()
	require.NoError(t, view.SaveStats(wb, &NameStats{Version: NameStatsVersion, NameCount: 3}))
	require.NoError(t, wb.Flush())
	wb.Close()

	stats, err := view.LoadStats()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.NameCount)
}

func TestStoreView_HistoryEmptyDeletesKey(t *testing.T) {
	db := openTestStore(t)
	view := NewStoreView(db)
	cache := NewNameCache(view, true)

	name := []byte("d/test")
	require.NoError(t, cache.AppendHistory(name, NameData{Value: []byte("v0")}))
	wb := db.NewWriteBatch()
	require.NoError(t, cache.Flush(wb))
	require.NoError(t, wb.Flush())
	wb.Close()

	hist, err := view.GetHistory(name)
	require.NoError(t, err)
	require.Len(t, hist, 1)

	overlay := NewNameCache(view, true)
	require.NoError(t, overlay.PopHistory(name))
	wb2 := db.NewWriteBatch()
	require.NoError(t, overlay.Flush(wb2))
	require.NoError(t, wb2.Flush())
	wb2.Close()

	hist, err = view.GetHistory(name)
	require.NoError(t, err)
	assert.Empty(t, hist)
}
