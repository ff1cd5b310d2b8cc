// Package leaderboard содержит агрегатор лидерборда Pantheon UnderLiv.
// Лидерборд строится по требованию из снимков коллекций всех пользователей:
// четыре независимых рейтинга и общая статистика зала славы.
// Ничего не кэшируется, результат детерминирован для одних и тех же входных данных.
package leaderboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию вещи в рейтинге.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsPodium возвращает true для первых трёх мест.
func (r Rank) IsPodium() bool {
	return r >= 1 && r <= 3
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// Medal возвращает медаль для призовых мест.
func (r Rank) Medal() string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// Metric определяет, по какому показателю построен рейтинг.
type Metric string

const (
	// MetricMostWashed - все вещи, по убыванию числа стирок.
	MetricMostWashed Metric = "most_washed"
	// MetricLongestLived - активные вещи, по убыванию возраста в днях.
	MetricLongestLived Metric = "longest_lived"
	// MetricLeastWashed - активные вещи с хотя бы одной стиркой, по возрастанию стирок.
	MetricLeastWashed Metric = "least_washed"
	// MetricBestEfficiency - активные вещи, по убыванию доли израсходованного ресурса.
	MetricBestEfficiency Metric = "best_efficiency"
)

// Metrics возвращает все рейтинги в порядке отображения.
func Metrics() []Metric {
	return []Metric{MetricMostWashed, MetricLongestLived, MetricLeastWashed, MetricBestEfficiency}
}

// DefaultLimit - сколько мест показывать в каждом рейтинге.
const DefaultLimit = 5

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна строка рейтинга.
type Entry struct {
	Rank      Rank             `json:"rank"`
	GarmentID string           `json:"garment_id"`
	Name      string           `json:"name"`
	Color     string           `json:"color"`
	OwnerID   garment.OwnerID  `json:"user_id"`
	Material  garment.Material `json:"material"`
	WashCount int              `json:"wash_count"`
	Retired   bool             `json:"retired"`

	// Value - значение показателя: стирки, дни или доля ресурса.
	Value float64 `json:"value"`
}

func newEntry(g garment.Garment, value float64) Entry {
	return Entry{
		GarmentID: g.ID,
		Name:      g.Name,
		Color:     g.Color,
		OwnerID:   g.OwnerID,
		Material:  g.Material,
		WashCount: g.WashCount,
		Retired:   g.Retired,
		Value:     value,
	}
}

// String возвращает строковое представление для логирования.
func (e Entry) String() string {
	return fmt.Sprintf("Entry{Rank: %d, Name: %s, Washes: %d, Value: %.2f}", e.Rank, e.Name, e.WashCount, e.Value)
}

// ══════════════════════════════════════════════════════════════════════════════
// BOARD
// ══════════════════════════════════════════════════════════════════════════════

// Stats - общая статистика зала славы.
type Stats struct {
	TotalGarments   int `json:"total_garments"`
	ActiveGarments  int `json:"active_garments"`
	RetiredGarments int `json:"retired_garments"`
	TotalWashes     int `json:"total_washes"`
}

// Board - результат агрегации.
type Board struct {
	MostWashed     []Entry   `json:"most_washed"`
	LongestLived   []Entry   `json:"longest_lived"`
	LeastWashed    []Entry   `json:"least_washed"`
	BestEfficiency []Entry   `json:"best_efficiency"`
	Stats          Stats     `json:"stats"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Ranking возвращает рейтинг по показателю.
func (b Board) Ranking(m Metric) []Entry {
	switch m {
	case MetricMostWashed:
		return b.MostWashed
	case MetricLongestLived:
		return b.LongestLived
	case MetricLeastWashed:
		return b.LeastWashed
	case MetricBestEfficiency:
		return b.BestEfficiency
	default:
		return nil
	}
}

// IsEmpty возвращает true, если в зале нет ни одной вещи.
func (b Board) IsEmpty() bool {
	return b.Stats.TotalGarments == 0
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATOR
// ══════════════════════════════════════════════════════════════════════════════

// Aggregate строит четыре рейтинга и статистику по вещам всех пользователей.
//
// Сортировки стабильные: при равенстве показателя сохраняется порядок входа.
// limit <= 0 означает DefaultLimit. Входной срез не изменяется.
func Aggregate(garments []garment.Garment, now time.Time, limit int) Board {
	if limit <= 0 {
		limit = DefaultLimit
	}

	board := Board{
		MostWashed:     []Entry{},
		LongestLived:   []Entry{},
		LeastWashed:    []Entry{},
		BestEfficiency: []Entry{},
		GeneratedAt:    now,
	}

	var all, lived, least, efficient []Entry
	for _, g := range garments {
		board.Stats.TotalGarments++
		board.Stats.TotalWashes += g.WashCount
		if g.Retired {
			board.Stats.RetiredGarments++
		} else {
			board.Stats.ActiveGarments++
		}

		all = append(all, newEntry(g, float64(g.WashCount)))
		if g.Retired {
			continue
		}
		lived = append(lived, newEntry(g, float64(g.AgeDays(now))))
		efficient = append(efficient, newEntry(g, g.Efficiency()))
		if g.WashCount > 0 {
			least = append(least, newEntry(g, float64(g.WashCount)))
		}
	}

	board.MostWashed = rank(all, descending, limit)
	board.LongestLived = rank(lived, descending, limit)
	board.LeastWashed = rank(least, ascending, limit)
	board.BestEfficiency = rank(efficient, descending, limit)
	return board
}

type order int

const (
	ascending order = iota
	descending
)

// rank сортирует записи по Value, обрезает до limit и присваивает ранги по позиции.
func rank(entries []Entry, o order, limit int) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		if o == descending {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Value < entries[j].Value
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.Rank = Rank(i + 1)
		out[i] = e
	}
	return out
}
