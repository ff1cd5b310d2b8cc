package pantheon

import (
	"errors"
	"fmt"
	"time"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DECODE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// DecodeError reports a backend payload that cannot be mapped to the domain.
type DecodeError struct {
	// Field is the JSON path of the offending field, e.g. "achievements[1].type".
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("pantheon: decode %s: %s", e.Field, e.Reason)
}

func missing(field string) error {
	return &DecodeError{Field: field, Reason: "required field is missing"}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to domain
// Every authoritative field is copied as sent. Nothing is defaulted or
// re-derived: a missing required field is an error.
// ══════════════════════════════════════════════════════════════════════════════

// GarmentFromDTO converts a backend garment to the domain type.
func GarmentFromDTO(dto GarmentDTO) (garment.Garment, error) {
	switch {
	case dto.ID == nil:
		return garment.Garment{}, missing("id")
	case dto.Name == nil:
		return garment.Garment{}, missing("name")
	case dto.Material == nil:
		return garment.Garment{}, missing("material")
	case dto.PurchaseDate == nil:
		return garment.Garment{}, missing("purchase_date")
	case dto.WashCount == nil:
		return garment.Garment{}, missing("wash_count")
	case dto.Retired == nil:
		return garment.Garment{}, missing("retired")
	case dto.Achievements == nil:
		return garment.Garment{}, missing("achievements")
	}

	material := garment.Material(*dto.Material)
	if !material.IsValid() {
		return garment.Garment{}, &DecodeError{Field: "material", Reason: fmt.Sprintf("unknown material %q", *dto.Material)}
	}

	purchased, err := timeutil.ParseDate(*dto.PurchaseDate)
	if err != nil {
		return garment.Garment{}, &DecodeError{Field: "purchase_date", Reason: err.Error()}
	}

	if *dto.WashCount < 0 {
		return garment.Garment{}, &DecodeError{Field: "wash_count", Reason: "negative wash count"}
	}

	g := garment.Garment{
		ID:           *dto.ID,
		Name:         *dto.Name,
		Material:     material,
		PurchaseDate: purchased,
		WashCount:    *dto.WashCount,
		Retired:      *dto.Retired,
		Achievements: make([]garment.Achievement, 0, len(*dto.Achievements)),
	}
	if dto.UserID != nil {
		g.OwnerID = garment.OwnerID(*dto.UserID)
	}
	if dto.Color != nil {
		g.Color = *dto.Color
	}
	if dto.CustomWashes != nil {
		g.CustomWashes = *dto.CustomWashes
	}
	if len(dto.Accessories) > 0 {
		g.Accessories = append([]string(nil), dto.Accessories...)
	}
	if dto.RetiredDate != nil && *dto.RetiredDate != "" {
		at, err := parseInstant(*dto.RetiredDate)
		if err != nil {
			return garment.Garment{}, &DecodeError{Field: "retired_date", Reason: err.Error()}
		}
		g.RetiredAt = &at
	}

	for i, a := range *dto.Achievements {
		ach, err := AchievementFromDTO(a)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Field = fmt.Sprintf("achievements[%d].%s", i, de.Field)
			}
			return garment.Garment{}, err
		}
		g.MergeAchievements([]garment.Achievement{ach})
	}

	return g, nil
}

// AchievementFromDTO converts a backend achievement to the domain type.
func AchievementFromDTO(dto AchievementDTO) (garment.Achievement, error) {
	if dto.ID == nil {
		return garment.Achievement{}, missing("id")
	}
	if dto.Type == nil {
		return garment.Achievement{}, missing("type")
	}
	tier := garment.Tier(*dto.Type)
	if !tier.IsValid() {
		return garment.Achievement{}, &DecodeError{Field: "type", Reason: fmt.Sprintf("unknown tier %q", *dto.Type)}
	}

	a := garment.Achievement{
		ID:          *dto.ID,
		Name:        dto.Name,
		Description: dto.Description,
		Icon:        dto.Icon,
		Tier:        tier,
	}
	if dto.UnlockedAt != nil && *dto.UnlockedAt != "" {
		at, err := parseInstant(*dto.UnlockedAt)
		if err != nil {
			return garment.Achievement{}, &DecodeError{Field: "unlocked_at", Reason: err.Error()}
		}
		a.UnlockedAt = at
	}
	return a, nil
}

// GarmentsFromDTO converts a list, failing on the first invalid element.
func GarmentsFromDTO(list []GarmentDTO) ([]garment.Garment, error) {
	out := make([]garment.Garment, 0, len(list))
	for i, dto := range list {
		g, err := GarmentFromDTO(dto)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Field = fmt.Sprintf("[%d].%s", i, de.Field)
			}
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// CreateRequestFromDraft converts a draft to the POST body.
func CreateRequestFromDraft(d garment.Draft) CreateGarmentRequest {
	return CreateGarmentRequest{
		Name:         d.Name,
		Color:        d.Color,
		Material:     string(d.Material),
		CustomWashes: d.CustomWashes,
		Accessories:  d.Accessories,
		PurchaseDate: timeutil.FormatDate(d.PurchaseDate),
	}
}

// parseInstant accepts RFC 3339 timestamps and bare dates.
func parseInstant(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return timeutil.ParseDate(value)
}
