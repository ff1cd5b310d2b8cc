package garment

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT TIERS
// ══════════════════════════════════════════════════════════════════════════════

// Tier - уровень достижения. Упорядочен по требуемому числу стирок.
type Tier string

const (
	TierBronze    Tier = "bronze"
	TierSilver    Tier = "silver"
	TierGold      Tier = "gold"
	TierLegendary Tier = "legendary"
)

// Rank возвращает порядковый номер уровня (bronze = 1 ... legendary = 4).
// Для неизвестного уровня возвращает 0.
func (t Tier) Rank() int {
	switch t {
	case TierBronze:
		return 1
	case TierSilver:
		return 2
	case TierGold:
		return 3
	case TierLegendary:
		return 4
	default:
		return 0
	}
}

// IsValid проверяет, что уровень входит в каталог.
func (t Tier) IsValid() bool {
	return t.Rank() > 0
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Идентификаторы достижений каталога.
const (
	AchievementFreshPrince    = "fresh-prince"
	AchievementCleanMachine   = "clean-machine"
	AchievementWashWarrior    = "wash-warrior"
	AchievementImmortalBriefs = "immortal-briefs"
)

// Achievement - полученное достижение (value object).
// Список достижений вещи только дополняется и не содержит дубликатов по ID.
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Tier        Tier      `json:"type"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

// Milestone - запись статического каталога: достижение и порог стирок.
type Milestone struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Icon           string `json:"icon"`
	Tier           Tier   `json:"type"`
	RequiredWashes int    `json:"required_washes"`
}

// Unlock создаёт достижение с отметкой времени at.
func (m Milestone) Unlock(at time.Time) Achievement {
	return Achievement{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Icon:        m.Icon,
		Tier:        m.Tier,
		UnlockedAt:  at,
	}
}

// catalog отсортирован по возрастанию RequiredWashes.
var catalog = []Milestone{
	{
		ID:             AchievementFreshPrince,
		Name:           "Fresh Prince",
		Description:    "Washed 10 times - still looking royal!",
		Icon:           "👑",
		Tier:           TierBronze,
		RequiredWashes: 10,
	},
	{
		ID:             AchievementCleanMachine,
		Name:           "Clean Machine",
		Description:    "Reached 25 washes - squeaky clean champion!",
		Icon:           "🧽",
		Tier:           TierSilver,
		RequiredWashes: 25,
	},
	{
		ID:             AchievementWashWarrior,
		Name:           "Wash Warrior",
		Description:    "Survived 50 washes - legendary durability!",
		Icon:           "⚔️",
		Tier:           TierGold,
		RequiredWashes: 50,
	},
	{
		ID:             AchievementImmortalBriefs,
		Name:           "Immortal Briefs",
		Description:    "Over 75 washes and still going strong!",
		Icon:           "💎",
		Tier:           TierLegendary,
		RequiredWashes: 75,
	},
}

// Catalog возвращает копию каталога достижений.
func Catalog() []Milestone {
	out := make([]Milestone, len(catalog))
	copy(out, catalog)
	return out
}

// LookupAchievement ищет запись каталога по ID.
func LookupAchievement(id string) (Milestone, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// Evaluate возвращает достижения каталога, порог которых достигнут при
// washCount и которых ещё нет в existing. Порядок - порядок каталога,
// каждое достижение помечено временем now.
//
// Функция чистая: повторный вызов после слияния результата в existing
// возвращает пустой список.
func Evaluate(existing []Achievement, washCount int, now time.Time) []Achievement {
	var unlocked []Achievement
	for _, m := range catalog {
		if washCount < m.RequiredWashes {
			break
		}
		if containsAchievement(existing, m.ID) {
			continue
		}
		unlocked = append(unlocked, m.Unlock(now))
	}
	return unlocked
}

// NextAchievement возвращает ближайшее достижение, которое ещё не открыто
// при данном числе стирок, и сколько стирок до него осталось.
func NextAchievement(washCount int) (Milestone, int, bool) {
	for _, m := range catalog {
		if washCount < m.RequiredWashes {
			return m, m.RequiredWashes - washCount, true
		}
	}
	return Milestone{}, 0, false
}

func containsAchievement(list []Achievement, id string) bool {
	for _, a := range list {
		if a.ID == id {
			return true
		}
	}
	return false
}
