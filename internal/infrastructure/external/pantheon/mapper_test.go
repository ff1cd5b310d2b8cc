package pantheon

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

const garmentJSON = `{
	"id": "g-1",
	"user_id": "alice",
	"name": "Lucky boxers",
	"color": "#00FF00",
	"material": "blend",
	"purchase_date": "2025-03-01",
	"wash_count": 12,
	"retired": false,
	"achievements": [
		{"id": "fresh_prince", "name": "Fresh Prince", "description": "First wash", "icon": "👑", "type": "bronze", "unlocked_at": "2025-03-02T10:00:00Z"},
		{"id": "clean_machine", "name": "Clean Machine", "description": "Ten washes", "icon": "🧼", "type": "silver", "unlocked_at": "2025-04-10T08:30:00Z"}
	]
}`

func decodeGarmentDTO(t *testing.T, raw string) GarmentDTO {
	t.Helper()
	var dto GarmentDTO
	require.NoError(t, json.Unmarshal([]byte(raw), &dto))
	return dto
}

func TestGarmentFromDTO_CopiesAuthoritativeFields(t *testing.T) {
	g, err := GarmentFromDTO(decodeGarmentDTO(t, garmentJSON))
	require.NoError(t, err)

	assert.Equal(t, "g-1", g.ID)
	assert.Equal(t, garment.OwnerID("alice"), g.OwnerID)
	assert.Equal(t, "Lucky boxers", g.Name)
	assert.Equal(t, garment.MaterialBlend, g.Material)
	assert.Equal(t, timeutil.Date(2025, 3, 1), g.PurchaseDate)
	assert.Equal(t, 12, g.WashCount)
	assert.False(t, g.Retired)
	require.Len(t, g.Achievements, 2)
	assert.Equal(t, "clean_machine", g.Achievements[1].ID)
	assert.Equal(t, garment.TierSilver, g.Achievements[1].Tier)
	assert.Equal(t, time.Date(2025, time.April, 10, 8, 30, 0, 0, time.UTC), g.Achievements[1].UnlockedAt.UTC())
}

func TestGarmentFromDTO_DoesNotRederiveAchievements(t *testing.T) {
	raw := `{"id":"g-2","name":"Old socks","material":"cotton","purchase_date":"2024-01-01",
		"wash_count":99,"retired":true,"retired_date":"2025-01-01T00:00:00Z","achievements":[]}`

	g, err := GarmentFromDTO(decodeGarmentDTO(t, raw))
	require.NoError(t, err)

	assert.Empty(t, g.Achievements)
	assert.True(t, g.Retired)
	require.NotNil(t, g.RetiredAt)
}

func TestGarmentFromDTO_MissingRequiredField(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"id", `{"name":"x","material":"cotton","purchase_date":"2025-01-01","wash_count":0,"retired":false,"achievements":[]}`, "id"},
		{"wash count", `{"id":"a","name":"x","material":"cotton","purchase_date":"2025-01-01","retired":false,"achievements":[]}`, "wash_count"},
		{"retired", `{"id":"a","name":"x","material":"cotton","purchase_date":"2025-01-01","wash_count":0,"achievements":[]}`, "retired"},
		{"achievements", `{"id":"a","name":"x","material":"cotton","purchase_date":"2025-01-01","wash_count":0,"retired":false}`, "achievements"},
		{"achievement type", `{"id":"a","name":"x","material":"cotton","purchase_date":"2025-01-01","wash_count":1,"retired":false,"achievements":[{"id":"fresh_prince"}]}`, "achievements[0].type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GarmentFromDTO(decodeGarmentDTO(t, tt.raw))
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestGarmentFromDTO_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown material", `{"id":"a","name":"x","material":"silk","purchase_date":"2025-01-01","wash_count":0,"retired":false,"achievements":[]}`},
		{"bad date", `{"id":"a","name":"x","material":"cotton","purchase_date":"yesterday","wash_count":0,"retired":false,"achievements":[]}`},
		{"negative washes", `{"id":"a","name":"x","material":"cotton","purchase_date":"2025-01-01","wash_count":-1,"retired":false,"achievements":[]}`},
		{"unknown tier", `{"id":"a","name":"x","material":"cotton","purchase_date":"2025-01-01","wash_count":1,"retired":false,"achievements":[{"id":"fresh_prince","type":"platinum"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GarmentFromDTO(decodeGarmentDTO(t, tt.raw))
			assert.True(t, IsDecodeError(err))
		})
	}
}

func TestGarmentsFromDTO_PrefixesIndex(t *testing.T) {
	var list []GarmentDTO
	raw := `[` + garmentJSON + `,{"id":"b","name":"x","material":"cotton","purchase_date":"2025-01-01","retired":false,"achievements":[]}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &list))

	_, err := GarmentsFromDTO(list)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "[1].wash_count", de.Field)
}

func TestCreateRequestFromDraft(t *testing.T) {
	req := CreateRequestFromDraft(garment.Draft{
		Name:         "Tee",
		Material:     garment.MaterialCustom,
		CustomWashes: 40,
		PurchaseDate: timeutil.Date(2025, 6, 9),
	})

	assert.Equal(t, CreateGarmentRequest{
		Name:         "Tee",
		Material:     "custom",
		CustomWashes: 40,
		PurchaseDate: "2025-06-09",
	}, req)
}
