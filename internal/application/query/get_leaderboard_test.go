package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/internal/infrastructure/persistence/memory"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

var now = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.Store, owner garment.OwnerID, washes ...int) {
	t.Helper()
	var items []garment.Garment
	for i, w := range washes {
		items = append(items, garment.Garment{
			ID:           string(owner) + "-" + string(rune('a'+i)),
			OwnerID:      owner,
			Name:         "item",
			Material:     garment.MaterialCotton,
			PurchaseDate: timeutil.Date(2025, 1, 1),
			WashCount:    w,
		})
	}
	require.NoError(t, store.Save(context.Background(), owner, items))
}

func TestGetLeaderboard_AcrossOwners(t *testing.T) {
	store := memory.New()
	seed(t, store, "alice", 5, 40)
	seed(t, store, "bob", 12)
	h := NewGetLeaderboardHandler(store, 5, timeutil.Fixed(now), nil)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Owners)
	assert.Equal(t, 3, res.Stats.TotalGarments)
	assert.Equal(t, 57, res.Stats.TotalWashes)
	require.Len(t, res.MostWashed, 3)
	assert.Equal(t, "alice-b", res.MostWashed[0].GarmentID)
	assert.Equal(t, garment.OwnerID("bob"), res.MostWashed[1].OwnerID)
	assert.Equal(t, now, res.GeneratedAt)
}

func TestGetLeaderboard_SkipsMalformedOwner(t *testing.T) {
	store := memory.New()
	seed(t, store, "alice", 3)
	store.PutRaw("mallory", []byte("garbage"))
	h := NewGetLeaderboardHandler(store, 0, timeutil.Fixed(now), nil)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 1})

	require.NoError(t, err)
	assert.Equal(t, []garment.OwnerID{"mallory"}, res.Skipped)
	assert.Equal(t, 1, res.Owners)
	assert.Len(t, res.MostWashed, 1)
}

func TestGetLeaderboard_Validation(t *testing.T) {
	h := NewGetLeaderboardHandler(memory.New(), 0, nil, nil)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: -1})

	assert.True(t, shared.IsValidation(err))
}

func TestGetLeaderboardQuery_CapsLimit(t *testing.T) {
	q := GetLeaderboardQuery{Limit: 1000}
	require.NoError(t, q.Validate())
	assert.Equal(t, MaxLeaderboardLimit, q.Limit)
}

type brokenLister struct{ *memory.Store }

func (brokenLister) Owners(ctx context.Context) ([]garment.OwnerID, error) {
	return nil, errors.New("connection refused")
}

func TestGetLeaderboard_OwnerListFailure(t *testing.T) {
	h := NewGetLeaderboardHandler(brokenLister{memory.New()}, 0, nil, nil)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{})

	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}

func TestGetLeaderboard_Empty(t *testing.T) {
	h := NewGetLeaderboardHandler(memory.New(), 0, timeutil.Fixed(now), nil)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{})

	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
	assert.Empty(t, res.MostWashed)
}
