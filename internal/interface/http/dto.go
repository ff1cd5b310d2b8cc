package http

import (
	"time"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// Field names are snake_case. Dates are YYYY-MM-DD, instants RFC 3339.
// ══════════════════════════════════════════════════════════════════════════════

// GarmentResponse is the wire form of a garment.
type GarmentResponse struct {
	ID           string                `json:"id"`
	UserID       string                `json:"user_id"`
	Name         string                `json:"name"`
	Color        string                `json:"color"`
	Material     string                `json:"material"`
	CustomWashes *int                  `json:"custom_washes,omitempty"`
	Accessories  []string              `json:"accessories"`
	PurchaseDate string                `json:"purchase_date"`
	WashCount    int                   `json:"wash_count"`
	Retired      bool                  `json:"retired"`
	RetiredDate  *string               `json:"retired_date"`
	Achievements []AchievementResponse `json:"achievements"`

	// Derived values, informational only.
	MaxWashes   int     `json:"max_washes"`
	WearPercent float64 `json:"wear_percent"`
	AgeDays     int     `json:"age_days"`
}

// AchievementResponse is the wire form of an unlocked achievement.
type AchievementResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Type        string `json:"type"`
	UnlockedAt  string `json:"unlocked_at"`
}

// PatchResponse is returned by PATCH /api/v1/garments/{id}.
type PatchResponse struct {
	Garment  GarmentResponse       `json:"garment"`
	Unlocked []AchievementResponse `json:"unlocked"`
}

// CreateGarmentRequest is the POST /api/v1/garments body.
type CreateGarmentRequest struct {
	Name         string   `json:"name"`
	Color        string   `json:"color"`
	Material     string   `json:"material"`
	CustomWashes int      `json:"custom_washes"`
	Accessories  []string `json:"accessories"`
	PurchaseDate string   `json:"purchase_date"`
}

// PATCH actions.
const (
	ActionWash   = "wash"
	ActionRetire = "retire"
)

// PatchGarmentRequest is the PATCH /api/v1/garments/{id} body.
type PatchGarmentRequest struct {
	Action string `json:"action"`
}

// Draft converts the request to a domain draft. Dates are validated here,
// everything else by garment.Draft.Validate.
func (r CreateGarmentRequest) Draft(owner garment.OwnerID) (garment.Draft, error) {
	d := garment.Draft{
		OwnerID:      owner,
		Name:         r.Name,
		Color:        r.Color,
		Material:     garment.Material(r.Material),
		CustomWashes: r.CustomWashes,
		Accessories:  r.Accessories,
	}
	if r.PurchaseDate != "" {
		t, err := timeutil.ParseDate(r.PurchaseDate)
		if err != nil {
			return garment.Draft{}, err
		}
		d.PurchaseDate = t
	}
	return d, nil
}

func toGarmentResponse(g garment.Garment, now time.Time) GarmentResponse {
	resp := GarmentResponse{
		ID:           g.ID,
		UserID:       g.OwnerID.String(),
		Name:         g.Name,
		Color:        g.Color,
		Material:     string(g.Material),
		Accessories:  g.Accessories,
		PurchaseDate: timeutil.FormatDate(g.PurchaseDate),
		WashCount:    g.WashCount,
		Retired:      g.Retired,
		Achievements: toAchievementResponses(g.Achievements),
		MaxWashes:    g.EffectiveMaxWashes(),
		WearPercent:  g.WearPercent(),
		AgeDays:      g.AgeDays(now),
	}
	if resp.Accessories == nil {
		resp.Accessories = []string{}
	}
	if g.Material == garment.MaterialCustom {
		n := g.CustomWashes
		resp.CustomWashes = &n
	}
	if g.RetiredAt != nil {
		s := g.RetiredAt.UTC().Format(time.RFC3339)
		resp.RetiredDate = &s
	}
	return resp
}

func toGarmentResponses(items []garment.Garment, now time.Time) []GarmentResponse {
	out := make([]GarmentResponse, len(items))
	for i, g := range items {
		out[i] = toGarmentResponse(g, now)
	}
	return out
}

func toAchievementResponses(list []garment.Achievement) []AchievementResponse {
	out := make([]AchievementResponse, len(list))
	for i, a := range list {
		out[i] = AchievementResponse{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Icon:        a.Icon,
			Type:        string(a.Tier),
			UnlockedAt:  a.UnlockedAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}
