package garment

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// OwnerID - идентификатор пользователя, которому принадлежит вещь.
type OwnerID string

// IsValid проверяет, что идентификатор не пустой.
func (o OwnerID) IsValid() bool {
	return strings.TrimSpace(string(o)) != ""
}

// String возвращает строковое представление владельца.
func (o OwnerID) String() string {
	return string(o)
}

// Material - категория материала. Определяет ожидаемый ресурс стирок.
type Material string

const (
	MaterialCotton    Material = "cotton"
	MaterialBlend     Material = "blend"
	MaterialSynthetic Material = "synthetic"
	// MaterialCustom - ресурс задаёт пользователь (CustomWashes).
	MaterialCustom Material = "custom"
)

// materialLifespans - ресурс стирок для фиксированных материалов.
var materialLifespans = map[Material]int{
	MaterialCotton:    60,
	MaterialBlend:     80,
	MaterialSynthetic: 100,
}

// IsValid проверяет, что материал известен.
func (m Material) IsValid() bool {
	if m == MaterialCustom {
		return true
	}
	_, ok := materialLifespans[m]
	return ok
}

// Lifespan возвращает табличный ресурс стирок. Для custom - false.
func (m Material) Lifespan() (int, bool) {
	n, ok := materialLifespans[m]
	return n, ok
}

// Materials возвращает все допустимые материалы.
func Materials() []Material {
	return []Material{MaterialCotton, MaterialBlend, MaterialSynthetic, MaterialCustom}
}

const (
	// DefaultColor - цвет по умолчанию.
	DefaultColor = "#FF6B6B"

	// DefaultCustomWashes - ресурс для custom, если пользователь его не указал.
	DefaultCustomWashes = 100

	// MaxNameLength - максимальная длина названия в символах.
	MaxNameLength = 100
)

// ══════════════════════════════════════════════════════════════════════════════
// DRAFT
// ══════════════════════════════════════════════════════════════════════════════

// Draft - данные, которые пользователь вводит при добавлении вещи.
type Draft struct {
	OwnerID      OwnerID
	Name         string
	Color        string
	Material     Material
	CustomWashes int
	Accessories  []string
	PurchaseDate time.Time
}

// Validate проверяет черновик.
func (d Draft) Validate() error {
	if !d.OwnerID.IsValid() {
		return shared.ErrMissingOwner
	}
	name := strings.TrimSpace(d.Name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return shared.ErrInvalidGarmentName
	}
	if !d.Material.IsValid() {
		return shared.ErrInvalidMaterial
	}
	if d.CustomWashes < 0 {
		return shared.ErrInvalidCustomWashes
	}
	if d.PurchaseDate.IsZero() {
		return shared.ErrInvalidPurchaseDate
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GARMENT ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Garment - отслеживаемая вещь. Агрегат: все изменения идут через методы.
//
// Инварианты:
//   - WashCount не убывает;
//   - Retired меняется только false -> true, RetiredAt ставится один раз;
//   - Achievements не содержит дубликатов по ID.
type Garment struct {
	ID           string        `json:"id"`
	OwnerID      OwnerID       `json:"ownerId"`
	Name         string        `json:"name"`
	Color        string        `json:"color"`
	Material     Material      `json:"material"`
	CustomWashes int           `json:"customWashes,omitempty"`
	Accessories  []string      `json:"accessories,omitempty"`
	PurchaseDate time.Time     `json:"purchaseDate"`
	WashCount    int           `json:"washCount"`
	Retired      bool          `json:"retired"`
	RetiredAt    *time.Time    `json:"retiredDate,omitempty"`
	Achievements []Achievement `json:"achievements"`
}

// New создаёт вещь из черновика: 0 стирок, активна, без достижений.
func New(id string, d Draft) (Garment, error) {
	if strings.TrimSpace(id) == "" {
		return Garment{}, shared.NewDomainError("garment", "New", shared.ErrInvalidID, "garment id is required")
	}
	if err := d.Validate(); err != nil {
		return Garment{}, err
	}

	color := strings.TrimSpace(d.Color)
	if color == "" {
		color = DefaultColor
	}

	custom := 0
	if d.Material == MaterialCustom {
		custom = d.CustomWashes
		if custom == 0 {
			custom = DefaultCustomWashes
		}
	}

	var accessories []string
	if len(d.Accessories) > 0 {
		accessories = append([]string(nil), d.Accessories...)
	}

	return Garment{
		ID:           id,
		OwnerID:      d.OwnerID,
		Name:         strings.TrimSpace(d.Name),
		Color:        color,
		Material:     d.Material,
		CustomWashes: custom,
		Accessories:  accessories,
		PurchaseDate: timeutil.StartOfDay(d.PurchaseDate),
		WashCount:    0,
		Retired:      false,
		Achievements: []Achievement{},
	}, nil
}

// IsActive возвращает true, если вещь не списана.
func (g Garment) IsActive() bool {
	return !g.Retired
}

// Wash увеличивает счётчик стирок на 1 и открывает новые достижения.
// Для списанной вещи ничего не делает и возвращает false.
func (g *Garment) Wash(now time.Time) ([]Achievement, bool) {
	if g.Retired {
		return nil, false
	}
	g.WashCount++
	unlocked := Evaluate(g.Achievements, g.WashCount, now)
	g.MergeAchievements(unlocked)
	return unlocked, true
}

// Retire списывает вещь. Повторный вызов ничего не меняет и возвращает false.
func (g *Garment) Retire(now time.Time) bool {
	if g.Retired {
		return false
	}
	at := now
	g.Retired = true
	g.RetiredAt = &at
	return true
}

// MergeAchievements добавляет достижения в конец списка, пропуская уже имеющиеся.
func (g *Garment) MergeAchievements(list []Achievement) {
	for _, a := range list {
		if containsAchievement(g.Achievements, a.ID) {
			continue
		}
		g.Achievements = append(g.Achievements, a)
	}
}

// HasAchievement проверяет наличие достижения.
func (g Garment) HasAchievement(id string) bool {
	return containsAchievement(g.Achievements, id)
}

// EffectiveMaxWashes - ресурс стирок: из таблицы материалов или CustomWashes
// для custom (не меньше 1).
func (g Garment) EffectiveMaxWashes() int {
	if n, ok := g.Material.Lifespan(); ok {
		return n
	}
	if g.CustomWashes < 1 {
		return 1
	}
	return g.CustomWashes
}

// Efficiency - доля израсходованного ресурса: WashCount / EffectiveMaxWashes.
func (g Garment) Efficiency() float64 {
	return float64(g.WashCount) / float64(g.EffectiveMaxWashes())
}

// WearPercent - Efficiency в процентах.
func (g Garment) WearPercent() float64 {
	return g.Efficiency() * 100
}

// AgeDays - количество полных дней с даты покупки.
func (g Garment) AgeDays(now time.Time) int {
	return timeutil.DaysBetween(g.PurchaseDate, now)
}

// Clone возвращает глубокую копию.
func (g Garment) Clone() Garment {
	c := g
	if g.Accessories != nil {
		c.Accessories = append([]string(nil), g.Accessories...)
	}
	c.Achievements = append([]Achievement{}, g.Achievements...)
	if g.RetiredAt != nil {
		at := *g.RetiredAt
		c.RetiredAt = &at
	}
	return c
}
