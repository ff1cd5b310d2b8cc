package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/internal/infrastructure/persistence/memory"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2025, 4, 10, 8, 30, 0, 0, time.UTC)

const owner garment.OwnerID = "user-1"

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("g-%d", n)
	})
}

func draft(name string) garment.Draft {
	return garment.Draft{
		Name:         name,
		Material:     garment.MaterialCotton,
		PurchaseDate: timeutil.Date(2025, 1, 1),
	}
}

func newTestRegistry(t *testing.T, store garment.Store, rec *Recorder) *Registry {
	t.Helper()
	return New(owner, store, sequentialIDs(), WithClock(timeutil.Fixed(testNow)), WithNotifier(rec))
}

// failingStore loads fine and fails every Save.
type failingStore struct {
	saves int
}

func (f *failingStore) Load(ctx context.Context, o garment.OwnerID) ([]garment.Garment, error) {
	return []garment.Garment{}, nil
}

func (f *failingStore) Save(ctx context.Context, o garment.OwnerID, g []garment.Garment) error {
	f.saves++
	return errors.New("disk full")
}

func TestRegistry_AddAssignsFreshState(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	reg := newTestRegistry(t, store, &Recorder{})

	g, err := reg.Add(ctx, draft("Lucky Boxers"))

	require.NoError(t, err)
	assert.Equal(t, "g-1", g.ID)
	assert.Equal(t, owner, g.OwnerID)
	assert.Equal(t, 0, g.WashCount)
	assert.False(t, g.Retired)
	assert.Empty(t, g.Achievements)

	saved, err := store.Load(ctx, owner)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Lucky Boxers", saved[0].Name)
}

func TestRegistry_AddRejectsInvalidDraft(t *testing.T) {
	reg := newTestRegistry(t, memory.New(), &Recorder{})

	_, err := reg.Add(context.Background(), draft(""))

	assert.ErrorIs(t, err, shared.ErrInvalidGarmentName)
	assert.Zero(t, reg.Len())
}

func TestRegistry_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, nil, &Recorder{})
	for _, n := range []string{"one", "two", "three"} {
		_, err := reg.Add(ctx, draft(n))
		require.NoError(t, err)
	}
	require.True(t, reg.Delete(ctx, "g-2"))

	var names []string
	for _, g := range reg.Garments() {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"one", "three"}, names)
}

func TestRegistry_WashUnlocksAndHighlightsFirst(t *testing.T) {
	ctx := context.Background()
	rec := &Recorder{}
	store := memory.New()
	seeded := garment.Garment{
		ID: "g-9", OwnerID: owner, Name: "Veteran", Material: garment.MaterialBlend,
		PurchaseDate: timeutil.Date(2024, 1, 1), WashCount: 24, Achievements: []garment.Achievement{},
	}
	require.NoError(t, store.Save(ctx, owner, []garment.Garment{seeded}))

	reg := newTestRegistry(t, store, rec)
	require.NoError(t, reg.Load(ctx))

	res, ok := reg.Wash(ctx, "g-9")

	require.True(t, ok)
	assert.Equal(t, 25, res.Garment.WashCount)
	require.Len(t, res.Unlocked, 2)
	require.NotNil(t, res.Highlight)
	assert.Equal(t, garment.AchievementFreshPrince, res.Highlight.ID)
	assert.Equal(t, testNow, res.Highlight.UnlockedAt)

	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeAchievement, notices[0].Kind)
	assert.Equal(t, garment.AchievementFreshPrince, notices[0].Achievement.ID)

	saved, err := store.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 25, saved[0].WashCount)
	assert.Len(t, saved[0].Achievements, 2)
}

func TestRegistry_WashNineToTen(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, nil, &Recorder{})
	g, err := reg.Add(ctx, draft("Briefs"))
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		res, ok := reg.Wash(ctx, g.ID)
		require.True(t, ok)
		require.Empty(t, res.Unlocked)
	}

	res, ok := reg.Wash(ctx, g.ID)

	require.True(t, ok)
	require.Len(t, res.Unlocked, 1)
	assert.Equal(t, garment.AchievementFreshPrince, res.Unlocked[0].ID)

	res, _ = reg.Wash(ctx, g.ID)
	assert.Empty(t, res.Unlocked)
	got, _ := reg.Get(g.ID)
	assert.Len(t, got.Achievements, 1)
}

func TestRegistry_NoOps(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	reg := newTestRegistry(t, store, &Recorder{})

	_, ok := reg.Wash(ctx, "missing")
	assert.False(t, ok)
	_, ok = reg.Retire(ctx, "missing")
	assert.False(t, ok)
	assert.False(t, reg.Delete(ctx, "missing"))
	assert.Zero(t, store.saves)
}

func TestRegistry_RetireThenWashIsNoop(t *testing.T) {
	ctx := context.Background()
	clock := testNow
	reg := New(owner, nil, sequentialIDs(), WithClock(func() time.Time { return clock }))
	g, err := reg.Add(ctx, draft("Old Faithful"))
	require.NoError(t, err)
	_, ok := reg.Wash(ctx, g.ID)
	require.True(t, ok)

	retired, ok := reg.Retire(ctx, g.ID)
	require.True(t, ok)
	require.NotNil(t, retired.RetiredAt)
	assert.Equal(t, testNow, *retired.RetiredAt)

	clock = testNow.Add(72 * time.Hour)
	_, ok = reg.Wash(ctx, g.ID)
	assert.False(t, ok)
	_, ok = reg.Retire(ctx, g.ID)
	assert.False(t, ok)

	got, _ := reg.Get(g.ID)
	assert.Equal(t, 1, got.WashCount)
	assert.Equal(t, testNow, *got.RetiredAt)
}

func TestRegistry_SaveFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	rec := &Recorder{}
	store := &failingStore{}
	reg := newTestRegistry(t, store, rec)

	g, err := reg.Add(ctx, draft("Boxers"))
	require.NoError(t, err)
	_, ok := reg.Wash(ctx, g.ID)
	require.True(t, ok)

	got, ok := reg.Get(g.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.WashCount)
	assert.Equal(t, 2, store.saves)

	notices := rec.Notices()
	require.Len(t, notices, 2)
	for _, n := range notices {
		assert.Equal(t, NoticeError, n.Kind)
		assert.EqualError(t, n.Err, "disk full")
	}
}

func TestRegistry_LoadMalformedStartsEmpty(t *testing.T) {
	rec := &Recorder{}
	store := memory.New()
	store.PutRaw(owner, []byte(`{"broken":`))
	reg := newTestRegistry(t, store, rec)

	err := reg.Load(context.Background())

	assert.ErrorIs(t, err, shared.ErrMalformedSnapshot)
	assert.Zero(t, reg.Len())
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, NoticeError, rec.Notices()[0].Kind)
}

func TestRegistry_Reconcile(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, nil, &Recorder{})
	g, err := reg.Add(ctx, draft("Synced"))
	require.NoError(t, err)

	server := g.Clone()
	server.WashCount = 40
	server.OwnerID = ""
	server.Achievements = []garment.Achievement{{ID: garment.AchievementFreshPrince, Tier: garment.TierBronze}}

	assert.True(t, reg.Reconcile(server))
	assert.False(t, reg.Reconcile(garment.Garment{ID: "unknown"}))

	got, _ := reg.Get(g.ID)
	assert.Equal(t, 40, got.WashCount)
	assert.Equal(t, owner, got.OwnerID)
	assert.Len(t, got.Achievements, 1, "reconcile must not re-derive achievements")
}

func TestRegistry_GarmentsAreCopies(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, nil, &Recorder{})
	g, err := reg.Add(ctx, draft("Original"))
	require.NoError(t, err)

	list := reg.Garments()
	list[0].Name = "Changed"

	got, _ := reg.Get(g.ID)
	assert.Equal(t, "Original", got.Name)
}

func TestRegistry_ConcurrentWashes(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, memory.New(), &Recorder{})
	g, err := reg.Add(ctx, draft("Busy"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Wash(ctx, g.ID)
		}()
	}
	wg.Wait()

	got, _ := reg.Get(g.ID)
	assert.Equal(t, 50, got.WashCount)
	assert.Len(t, got.Achievements, 3)
}

func mustFor(t *testing.T, dir *Directory, o garment.OwnerID) *Registry {
	t.Helper()
	reg, err := dir.For(context.Background(), o)
	require.NoError(t, err)
	return reg
}

func TestDirectory_CachesPerOwner(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Save(ctx, "alice", []garment.Garment{{ID: "a1", OwnerID: "alice", Name: "A"}}))
	dir := NewDirectory(store)

	alice := mustFor(t, dir, "alice")
	bob := mustFor(t, dir, "bob")

	assert.Same(t, alice, mustFor(t, dir, "alice"))
	assert.NotSame(t, alice, bob)
	assert.Equal(t, 1, alice.Len())
	assert.Zero(t, bob.Len())
	assert.Equal(t, 2, dir.Len())

	dir.Forget("alice")
	assert.Equal(t, 1, dir.Len())
}

// flakyStore wraps a memory store and fails the next failLoads reads.
type flakyStore struct {
	*memory.Store
	failLoads int
	err       error
}

func (f *flakyStore) Load(ctx context.Context, o garment.OwnerID) ([]garment.Garment, error) {
	if f.failLoads > 0 {
		f.failLoads--
		return nil, f.err
	}
	return f.Store.Load(ctx, o)
}

func TestDirectory_ReadFailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memory.New(), failLoads: 1, err: errors.New("connection reset")}
	seeded := []garment.Garment{
		{ID: "a1", OwnerID: "alice", Name: "A"},
		{ID: "a2", OwnerID: "alice", Name: "B"},
		{ID: "a3", OwnerID: "alice", Name: "C"},
	}
	require.NoError(t, store.Save(ctx, "alice", seeded))
	dir := NewDirectory(store, sequentialIDs())

	reg, err := dir.For(ctx, "alice")
	require.Error(t, err)
	assert.Nil(t, reg)
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
	assert.True(t, shared.IsExternalService(err))
	assert.Zero(t, dir.Len())

	reg = mustFor(t, dir, "alice")
	assert.Equal(t, 3, reg.Len())

	_, err = reg.Add(ctx, draft("D"))
	require.NoError(t, err)

	stored, err := store.Store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestDirectory_MalformedSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memory.New(), failLoads: 1, err: shared.ErrMalformedSnapshot}
	dir := NewDirectory(store)

	reg, err := dir.For(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, reg.Len())
	assert.Same(t, reg, mustFor(t, dir, "alice"))
}

func TestDirectory_EvictIdle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := testNow
	dir := NewDirectory(store, WithClock(func() time.Time { return now }))

	alice := mustFor(t, dir, "alice")
	_, err := alice.Add(ctx, draft("Tee"))
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	mustFor(t, dir, "bob")

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, dir.EvictIdle(30*time.Minute))
	assert.Equal(t, 1, dir.Len())

	reloaded := mustFor(t, dir, "alice")
	assert.NotSame(t, alice, reloaded)
	assert.Equal(t, 1, reloaded.Len(), "evicted collection is reloaded from the store")

	assert.Zero(t, dir.EvictIdle(time.Hour))
}
