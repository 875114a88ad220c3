package marketfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niveshapp/nivesh/internal/common"
	"github.com/niveshapp/nivesh/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err, "a missing file is a cold start, not an error")
	assert.Nil(t, snapshot)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	prevClose := 4000.00
	snapshot := models.NewMarketSnapshot()
	snapshot.UpdatedAt = "2025-01-08T16:05:00Z"
	snapshot.NSE.AsOf = "2025-01-08"
	snapshot.NSE.Quotes["TCS"] = models.QuoteRecord{
		Symbol:    "TCS",
		Close:     4100.50,
		PrevClose: &prevClose,
		AsOf:      "2025-01-08",
	}
	snapshot.NSE.History["TCS"] = []models.HistoryPoint{
		{Date: "2025-01-07", Close: 4000.00},
		{Date: "2025-01-08", Close: 4100.50},
	}
	snapshot.Indices[models.IndexNifty50] = models.IndexSnapshot{
		Symbol: "NIFTY 50", Name: "NIFTY 50", Price: 23500.10,
	}

	require.NoError(t, store.Save(ctx, snapshot))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, snapshot.UpdatedAt, loaded.UpdatedAt)
	assert.Equal(t, snapshot.NSE.Quotes["TCS"], loaded.NSE.Quotes["TCS"])
	assert.Equal(t, snapshot.NSE.History["TCS"], loaded.NSE.History["TCS"])
	assert.Equal(t, snapshot.Indices[models.IndexNifty50], loaded.Indices[models.IndexNifty50])
}

func TestLoadCorruptFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0644))

	_, err := store.Load(context.Background())
	assert.Error(t, err, "a corrupt file must surface, not silently start empty")
}

func TestLoadEmptyFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), nil, 0644))

	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestLoadNormalizesPartialSnapshot(t *testing.T) {
	store := newTestStore(t)
	// An old-generation file with only the NSE bucket.
	partial := `{"updatedAt":"2025-01-08T16:05:00Z","nse":{"asOf":"2025-01-08"}}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(partial), 0644))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.NotNil(t, loaded.BSE, "missing bucket must be backfilled")
	assert.NotNil(t, loaded.NSE.Quotes)
	assert.NotNil(t, loaded.NSE.History)
	assert.NotNil(t, loaded.Indices)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, models.NewMarketSnapshot()))
	}

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(store.Path()), entries[0].Name())
}
