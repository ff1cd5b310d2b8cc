package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pantheon-hub/underliv/internal/application/query"
	"github.com/pantheon-hub/underliv/internal/application/registry"
	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/leaderboard"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/internal/infrastructure/persistence/memory"
	httpserver "github.com/pantheon-hub/underliv/internal/interface/http"
	"github.com/pantheon-hub/underliv/internal/interface/http/handlers"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// harness runs CLI commands against one SQLite file. Arguments passed to
// exec come last so a test can override the harness defaults.
type harness struct {
	t      *testing.T
	global []string
	nextID int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("UNDERLIV_REMOTE_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	dir := t.TempDir()
	return &harness{
		t: t,
		global: []string{
			"--store", "sqlite",
			"--db", filepath.Join(dir, "data", "garments.db"),
			"--env-file", filepath.Join(dir, "missing.env"),
		},
	}
}

func (h *harness) exec(user string, args ...string) (string, string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(cliEnv{
		out:    &out,
		errOut: &errOut,
		clock:  timeutil.Fixed(testNow),
		newID: func() string {
			h.nextID++
			return fmt.Sprintf("garment-%04d", h.nextID)
		},
	})
	full := append([]string{"--user", user}, h.global...)
	full = append(full, args...)
	root.SetArgs(full)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func (h *harness) mustExec(user string, args ...string) string {
	h.t.Helper()
	out, errOut, err := h.exec(user, args...)
	require.NoError(h.t, err, errOut)
	return out
}

func TestCLI_AddAndList(t *testing.T) {
	h := newHarness(t)

	out := h.mustExec("alice", "add", "Lucky boxers", "--purchased", "2025-05-01")
	assert.Contains(t, out, "Added")
	assert.Contains(t, out, "garment-0001")

	out = h.mustExec("alice", "list")
	assert.Contains(t, out, "Lucky boxers")
	assert.Contains(t, out, "0/60")
	assert.Contains(t, out, "31d")

	out = h.mustExec("bob", "list")
	assert.Contains(t, out, "No garments yet")
}

func TestCLI_ListJSON(t *testing.T) {
	h := newHarness(t)
	h.mustExec("alice", "add", "Space briefs", "--material", "custom", "--washes", "150", "--accessory", "cape", "--accessory", "belt")

	out := h.mustExec("alice", "list", "--json")
	var items []garment.Garment
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, garment.MaterialCustom, items[0].Material)
	assert.Equal(t, 150, items[0].CustomWashes)
	assert.Equal(t, []string{"cape", "belt"}, items[0].Accessories)
	assert.Equal(t, timeutil.StartOfDay(testNow), items[0].PurchaseDate.UTC())
}

func TestCLI_AddValidation(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.exec("alice", "add", "Tee", "--material", "silk")
	assert.ErrorIs(t, err, shared.ErrInvalidMaterial)

	_, _, err = h.exec("alice", "add", "   ")
	assert.ErrorIs(t, err, shared.ErrInvalidGarmentName)

	_, _, err = h.exec("alice", "add", "Tee", "--purchased", "yesterday")
	assert.Error(t, err)

	_, _, err = h.exec("alice", "add")
	assert.Error(t, err)
}

func TestCLI_WashUnlocksAchievement(t *testing.T) {
	h := newHarness(t)
	h.mustExec("alice", "add", "Lucky boxers")

	var out string
	for i := 1; i <= 9; i++ {
		out = h.mustExec("alice", "wash", "garment-0001")
		assert.NotContains(t, out, "Achievement unlocked!", "wash %d", i)
	}
	assert.Contains(t, out, "1 more to")

	out = h.mustExec("alice", "wash", "garment-0001")
	assert.Contains(t, out, "Achievement unlocked!")
	assert.Contains(t, out, "Fresh Prince")
	assert.Contains(t, out, "10/60")

	out = h.mustExec("alice", "wash", "garment-0001")
	assert.NotContains(t, out, "Achievement unlocked!")

	out = h.mustExec("alice", "achievements", "garment-0001")
	assert.Contains(t, out, "Fresh Prince")
	assert.Contains(t, out, "next:")
}

func TestCLI_WashByPrefix(t *testing.T) {
	h := newHarness(t)
	h.mustExec("alice", "add", "One")
	h.mustExec("alice", "add", "Two")

	_, _, err := h.exec("alice", "wash", "garment-000")
	assert.ErrorIs(t, err, shared.ErrAmbiguousGarmentID)

	out := h.mustExec("alice", "wash", "garment-0002")
	assert.Contains(t, out, "Two")

	_, _, err = h.exec("alice", "wash", "nope")
	assert.ErrorIs(t, err, shared.ErrGarmentNotFound)
}

func TestCLI_RetireIsFinal(t *testing.T) {
	h := newHarness(t)
	h.mustExec("alice", "add", "Old faithful")
	h.mustExec("alice", "wash", "garment-0001")

	out := h.mustExec("alice", "retire", "garment-0001")
	assert.Contains(t, out, "Retired")
	assert.Contains(t, out, "survived 1 washes")

	out = h.mustExec("alice", "retire", "garment-0001")
	assert.Contains(t, out, "already retired")

	_, _, err := h.exec("alice", "wash", "garment-0001")
	assert.ErrorIs(t, err, shared.ErrGarmentRetired)

	out = h.mustExec("alice", "list", "--active")
	assert.Contains(t, out, "No garments yet")
}

func TestCLI_Delete(t *testing.T) {
	h := newHarness(t)
	h.mustExec("alice", "add", "Tee")

	out := h.mustExec("alice", "rm", "garment-0001")
	assert.Contains(t, out, "Deleted")

	_, _, err := h.exec("alice", "delete", "garment-0001")
	assert.ErrorIs(t, err, shared.ErrGarmentNotFound)
}

func TestCLI_LeaderboardAcrossUsers(t *testing.T) {
	h := newHarness(t)
	h.mustExec("alice", "add", "Alice tee", "--purchased", "2025-01-01")
	h.mustExec("bob", "add", "Bob briefs", "--purchased", "2025-03-01")
	for range 3 {
		h.mustExec("bob", "wash", "garment-0002")
	}

	out := h.mustExec("carol", "leaderboard", "--json")
	var board leaderboard.Board
	require.NoError(t, json.Unmarshal([]byte(out), &board))

	assert.Equal(t, 2, board.Stats.TotalGarments)
	assert.Equal(t, 3, board.Stats.TotalWashes)
	require.NotEmpty(t, board.MostWashed)
	assert.Equal(t, "Bob briefs", board.MostWashed[0].Name)
	require.NotEmpty(t, board.LongestLived)
	assert.Equal(t, "Alice tee", board.LongestLived[0].Name)

	out = h.mustExec("carol", "top", "-n", "1")
	assert.Contains(t, out, "Hall of Fame")
	assert.Contains(t, out, "Most washed")
	assert.Contains(t, out, "3 washes")

	_, _, err := h.exec("carol", "leaderboard", "--limit", "-1")
	assert.Error(t, err)
}

func TestCLI_AchievementCatalog(t *testing.T) {
	h := newHarness(t)

	out := h.mustExec("alice", "achievements")
	for _, m := range garment.Catalog() {
		assert.Contains(t, out, m.Name)
	}

	out = h.mustExec("alice", "achievements", "--json")
	var catalog []garment.Milestone
	require.NoError(t, json.Unmarshal([]byte(out), &catalog))
	assert.Equal(t, garment.Catalog(), catalog)
}

func TestCLI_InvalidStoreFlag(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.exec("alice", "list", "--store", "floppy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestCLI_AddHelpListsMaterials(t *testing.T) {
	h := newHarness(t)
	out := h.mustExec("alice", "add", "--help")
	for _, m := range garment.Materials() {
		assert.Contains(t, out, string(m))
	}
}

func TestCLI_RemoteBackend(t *testing.T) {
	store := memory.New()
	clock := timeutil.Fixed(testNow)
	srv := httpserver.NewServer(httpserver.DefaultConfig(), httpserver.Dependencies{
		Garments:      registry.NewDirectory(store, registry.WithClock(clock)),
		Leaderboard:   query.NewGetLeaderboardHandler(store, 5, clock, nil),
		HealthChecker: handlers.NewCompositeHealthChecker("test"),
		Clock:         clock,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	h := newHarness(t)
	h.global = append(h.global, "--remote", ts.URL)

	out := h.mustExec("alice", "add", "Remote briefs", "--json")
	var g garment.Garment
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	require.NotEmpty(t, g.ID)

	prefix := g.ID[:8]
	for range 10 {
		out = h.mustExec("alice", "wash", prefix)
	}
	assert.Contains(t, out, "Fresh Prince")

	out = h.mustExec("alice", "retire", prefix)
	assert.Contains(t, out, "Retired")

	items, err := store.Load(t.Context(), "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].WashCount)
	assert.True(t, items[0].Retired)

	out = h.mustExec("bob", "leaderboard")
	assert.Contains(t, out, "Remote briefs")

	out = h.mustExec("bob", "achievements")
	assert.Contains(t, out, "Immortal Briefs")
}

func TestCLI_RemoteUnavailable(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	t.Setenv("UNDERLIV_REMOTE_RETRY_DELAY", "1ms")
	h := newHarness(t)
	h.global = append(h.global, "--remote", url)

	_, errOut, err := h.exec("alice", "list")
	require.Error(t, err)
	assert.True(t, shared.IsRetryable(err) || strings.Contains(err.Error(), "unavailable"), err.Error())
	assert.Contains(t, errOut, "warning:")
}

func TestResolveID(t *testing.T) {
	items := []garment.Garment{{ID: "abc123"}, {ID: "abd456"}, {ID: "abc"}}

	g, err := resolveID(items, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", g.ID, "exact match wins over prefix")

	g, err = resolveID(items, "abd")
	require.NoError(t, err)
	assert.Equal(t, "abd456", g.ID)

	_, err = resolveID(items, "ab")
	assert.ErrorIs(t, err, shared.ErrAmbiguousGarmentID)

	_, err = resolveID(items, "zzz")
	assert.ErrorIs(t, err, shared.ErrGarmentNotFound)

	_, err = resolveID(items, " ")
	assert.ErrorIs(t, err, shared.ErrGarmentNotFound)
}
