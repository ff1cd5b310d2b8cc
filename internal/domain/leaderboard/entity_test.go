package leaderboard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

var now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func item(id string, material garment.Material, washes int, purchased time.Time, retired bool) garment.Garment {
	return garment.Garment{
		ID:           id,
		OwnerID:      garment.OwnerID("owner-" + id),
		Name:         "Garment " + id,
		Material:     material,
		PurchaseDate: purchased,
		WashCount:    washes,
		Retired:      retired,
	}
}

func garmentIDs(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.GarmentID)
	}
	return out
}

func fixture() []garment.Garment {
	return []garment.Garment{
		item("a", garment.MaterialCotton, 30, timeutil.Date(2025, 1, 1), false),
		item("b", garment.MaterialSynthetic, 90, timeutil.Date(2024, 1, 1), true),
		item("c", garment.MaterialBlend, 0, timeutil.Date(2023, 6, 1), false),
		item("d", garment.MaterialBlend, 60, timeutil.Date(2025, 5, 1), false),
		item("e", garment.MaterialCotton, 30, timeutil.Date(2024, 12, 1), false),
	}
}

func TestAggregate_MostWashedIncludesRetired(t *testing.T) {
	b := Aggregate(fixture(), now, 10)

	if diff := cmp.Diff([]string{"b", "d", "a", "e", "c"}, garmentIDs(b.MostWashed)); diff != "" {
		t.Errorf("most washed mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Rank(1), b.MostWashed[0].Rank)
	assert.Equal(t, 90.0, b.MostWashed[0].Value)
	assert.True(t, b.MostWashed[0].Retired)
}

func TestAggregate_LongestLivedActiveOnly(t *testing.T) {
	b := Aggregate(fixture(), now, 10)

	if diff := cmp.Diff([]string{"c", "e", "a", "d"}, garmentIDs(b.LongestLived)); diff != "" {
		t.Errorf("longest lived mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, float64(timeutil.DaysBetween(timeutil.Date(2023, 6, 1), now)), b.LongestLived[0].Value)
}

func TestAggregate_LeastWashedSkipsZero(t *testing.T) {
	b := Aggregate(fixture(), now, 10)

	if diff := cmp.Diff([]string{"a", "e", "d"}, garmentIDs(b.LeastWashed)); diff != "" {
		t.Errorf("least washed mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_BestEfficiency(t *testing.T) {
	b := Aggregate(fixture(), now, 10)

	if diff := cmp.Diff([]string{"d", "a", "e", "c"}, garmentIDs(b.BestEfficiency)); diff != "" {
		t.Errorf("best efficiency mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 0.75, b.BestEfficiency[0].Value, 1e-9)
}

func TestAggregate_Stats(t *testing.T) {
	b := Aggregate(fixture(), now, 10)

	assert.Equal(t, Stats{
		TotalGarments:   5,
		ActiveGarments:  4,
		RetiredGarments: 1,
		TotalWashes:     210,
	}, b.Stats)
}

func TestAggregate_LimitAndRanks(t *testing.T) {
	b := Aggregate(fixture(), now, 2)

	require.Len(t, b.MostWashed, 2)
	assert.Equal(t, []Rank{1, 2}, []Rank{b.MostWashed[0].Rank, b.MostWashed[1].Rank})
	assert.Len(t, b.LongestLived, 2)
	assert.Equal(t, 5, b.Stats.TotalGarments)
}

func TestAggregate_DefaultLimit(t *testing.T) {
	var many []garment.Garment
	for i := 0; i < 8; i++ {
		many = append(many, item(string(rune('a'+i)), garment.MaterialCotton, i+1, timeutil.Date(2025, 1, 1), false))
	}

	b := Aggregate(many, now, 0)

	assert.Len(t, b.MostWashed, DefaultLimit)
}

func TestAggregate_Empty(t *testing.T) {
	b := Aggregate(nil, now, 5)

	assert.True(t, b.IsEmpty())
	assert.Empty(t, b.MostWashed)
	assert.NotNil(t, b.MostWashed)
	assert.Empty(t, b.LongestLived)
	assert.Empty(t, b.LeastWashed)
	assert.Empty(t, b.BestEfficiency)
}

func TestAggregate_Deterministic(t *testing.T) {
	in := fixture()
	first := Aggregate(in, now, 5)
	second := Aggregate(in, now, 5)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("aggregate not deterministic (-first +second):\n%s", diff)
	}
	assert.Equal(t, "a", in[0].ID, "input must not be reordered")
}

func TestBoard_Ranking(t *testing.T) {
	b := Aggregate(fixture(), now, 10)

	for _, m := range Metrics() {
		assert.NotNil(t, b.Ranking(m), m)
	}
	assert.Nil(t, b.Ranking("loudest"))
}

func TestRank_Medal(t *testing.T) {
	assert.Equal(t, "🥇", Rank(1).Medal())
	assert.True(t, Rank(3).IsPodium())
	assert.Equal(t, "", Rank(4).Medal())
	assert.Equal(t, "#4", Rank(4).String())
}
