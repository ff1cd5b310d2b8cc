package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
)

func TestMigrations_VersionsAscending(t *testing.T) {
	migs := Migrations()
	require.NotEmpty(t, migs)
	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
}

// openTestStore connects to UNDERLIV_TEST_DATABASE_URL or skips.
func openTestStore(t *testing.T) *GarmentStore {
	t.Helper()
	url := os.Getenv("UNDERLIV_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("UNDERLIV_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := Connect(ctx, url, PoolSettings{MaxConns: 2})
	require.NoError(t, err)
	require.NoError(t, NewMigrator(conn).Migrate(ctx))

	_, err = conn.Exec(ctx, `DELETE FROM garment_snapshots`)
	require.NoError(t, err)

	t.Cleanup(conn.Close)
	return NewGarmentStore(conn)
}

func TestGarmentStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	empty, err := store.Load(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)

	items := []garment.Garment{{ID: "g1", OwnerID: "u1", Name: "Briefs", Material: garment.MaterialCotton, WashCount: 12}}
	require.NoError(t, store.Save(ctx, "u1", items))
	items[0].WashCount = 13
	require.NoError(t, store.Save(ctx, "u1", items))

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 13, got[0].WashCount)

	owners, err := store.Owners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []garment.OwnerID{"u1"}, owners)
}
