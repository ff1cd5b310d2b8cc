// Package pantheon implements the REST client for the UnderLiv garment backend.
package pantheon

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse is the envelope every backend endpoint answers with.
type APIResponse[T any] struct {
	Success   bool         `json:"success"`
	Data      T            `json:"data"`
	Error     *APIErrorDTO `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

// APIErrorDTO is the error part of the envelope.
type APIErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	// Status is the HTTP status the error arrived with. Not part of the payload.
	Status int `json:"-"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	if e.Details != "" {
		return e.Code + ": " + e.Message + " (" + e.Details + ")"
	}
	return e.Code + ": " + e.Message
}

// ══════════════════════════════════════════════════════════════════════════════
// GARMENT DTOs
// Pointer fields distinguish "absent" from zero values so the mapper can
// reject payloads that omit required fields.
// ══════════════════════════════════════════════════════════════════════════════

// GarmentDTO is a garment as returned by the backend.
type GarmentDTO struct {
	ID           *string           `json:"id"`
	UserID       *string           `json:"user_id"`
	Name         *string           `json:"name"`
	Color        *string           `json:"color"`
	Material     *string           `json:"material"`
	CustomWashes *int              `json:"custom_washes"`
	Accessories  []string          `json:"accessories"`
	PurchaseDate *string           `json:"purchase_date"`
	WashCount    *int              `json:"wash_count"`
	Retired      *bool             `json:"retired"`
	RetiredDate  *string           `json:"retired_date"`
	Achievements *[]AchievementDTO `json:"achievements"`
}

// AchievementDTO is an unlocked achievement as returned by the backend.
type AchievementDTO struct {
	ID          *string `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Type        *string `json:"type"`
	UnlockedAt  *string `json:"unlocked_at"`
}

// PatchResultDTO is the body of PATCH /garments/{id}.
type PatchResultDTO struct {
	Garment  GarmentDTO       `json:"garment"`
	Unlocked []AchievementDTO `json:"unlocked"`
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// CreateGarmentRequest is the body of POST /garments.
type CreateGarmentRequest struct {
	Name         string   `json:"name"`
	Color        string   `json:"color,omitempty"`
	Material     string   `json:"material"`
	CustomWashes int      `json:"custom_washes,omitempty"`
	Accessories  []string `json:"accessories,omitempty"`
	PurchaseDate string   `json:"purchase_date"`
}

// PatchGarmentRequest is the body of PATCH /garments/{id}.
type PatchGarmentRequest struct {
	Action string `json:"action"`
}

// Patch actions.
const (
	ActionWash   = "wash"
	ActionRetire = "retire"
)
