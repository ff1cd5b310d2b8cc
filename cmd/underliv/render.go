package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pantheon-hub/underliv/internal/application/registry"
	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/leaderboard"
	"github.com/pantheon-hub/underliv/pkg/timeutil"
)

// Палитра CLI.
var (
	accent     = lipgloss.Color("#FF6B6B")
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8F98"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB300"))

	tierStyles = map[garment.Tier]lipgloss.Style{
		garment.TierBronze:    lipgloss.NewStyle().Foreground(lipgloss.Color("#CD7F32")),
		garment.TierSilver:    lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")),
		garment.TierGold:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		garment.TierLegendary: lipgloss.NewStyle().Foreground(lipgloss.Color("#B388FF")).Bold(true),
	}
)

// shortIDLen - сколько символов ID показывать в таблицах.
const shortIDLen = 8

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func tierLabel(t garment.Tier) string {
	style, ok := tierStyles[t]
	if !ok {
		return string(t)
	}
	return style.Render(string(t))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ══════════════════════════════════════════════════════════════════════════════
// GARMENTS
// ══════════════════════════════════════════════════════════════════════════════

func printGarments(w io.Writer, items []garment.Garment, now time.Time) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No garments yet. Add one with `underliv add <name>`."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMATERIAL\tWASHES\tWEAR\tAGE\tSTATUS\tACHIEVEMENTS")
	for _, g := range items {
		status := okStyle.Render("active")
		if g.Retired {
			status = mutedStyle.Render("retired")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%.0f%%\t%dd\t%s\t%s\n",
			shortID(g.ID),
			g.Name,
			g.Material,
			g.WashCount, g.EffectiveMaxWashes(),
			g.WearPercent(),
			g.AgeDays(now),
			status,
			achievementIcons(g.Achievements),
		)
	}
	return tw.Flush()
}

func achievementIcons(list []garment.Achievement) string {
	if len(list) == 0 {
		return "-"
	}
	icons := make([]string, 0, len(list))
	for _, a := range list {
		icons = append(icons, a.Icon)
	}
	return strings.Join(icons, " ")
}

func printGarment(w io.Writer, verb string, g garment.Garment) {
	fmt.Fprintf(w, "%s %s %s\n", okStyle.Render(verb), g.Name, mutedStyle.Render("("+g.ID+")"))
}

func printWash(w io.Writer, res registry.WashResult) {
	g := res.Garment
	fmt.Fprintf(w, "%s %s: %d/%d washes (%.0f%% worn)\n",
		okStyle.Render("Washed"), g.Name, g.WashCount, g.EffectiveMaxWashes(), g.WearPercent())

	for _, a := range res.Unlocked {
		fmt.Fprintf(w, "%s %s %s [%s] %s\n",
			titleStyle.Render("Achievement unlocked!"), a.Icon, a.Name, tierLabel(a.Tier), mutedStyle.Render(a.Description))
	}

	if next, left, ok := garment.NextAchievement(g.WashCount); ok {
		fmt.Fprintf(w, "%s\n", mutedStyle.Render(fmt.Sprintf("%d more to %s %s", left, next.Icon, next.Name)))
	}
}

// printNotices выводит ошибки, накопленные за команду.
// Достижения печатает сама команда wash.
func printNotices(w io.Writer, notices []registry.Notice) {
	for _, n := range notices {
		if n.Kind != registry.NoticeError {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", warnStyle.Render("warning:"), n.Message)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD & CATALOG
// ══════════════════════════════════════════════════════════════════════════════

var metricTitles = map[leaderboard.Metric]string{
	leaderboard.MetricMostWashed:     "Most washed",
	leaderboard.MetricLongestLived:   "Longest lived",
	leaderboard.MetricLeastWashed:    "Least washed",
	leaderboard.MetricBestEfficiency: "Best efficiency",
}

func printBoard(w io.Writer, b leaderboard.Board) error {
	fmt.Fprintln(w, titleStyle.Render("Hall of Fame"))
	fmt.Fprintf(w, "%d garments, %d active, %d retired, %d washes total\n",
		b.Stats.TotalGarments, b.Stats.ActiveGarments, b.Stats.RetiredGarments, b.Stats.TotalWashes)

	for _, m := range leaderboard.Metrics() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(metricTitles[m]))

		entries := b.Ranking(m)
		if len(entries) == 0 {
			fmt.Fprintln(w, mutedStyle.Render("  nobody yet"))
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, e := range entries {
			name := e.Name
			if !e.Rank.IsPodium() {
				name = mutedStyle.Render(name)
			}
			fmt.Fprintf(tw, "  %s %s\t%s\t%s\t%s\n", e.Rank, e.Rank.Medal(), name, e.OwnerID, formatValue(m, e.Value))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(m leaderboard.Metric, v float64) string {
	switch m {
	case leaderboard.MetricLongestLived:
		return fmt.Sprintf("%.0f days", v)
	case leaderboard.MetricBestEfficiency:
		return fmt.Sprintf("%.0f%%", v*100)
	default:
		return fmt.Sprintf("%.0f washes", v)
	}
}

func printCatalog(w io.Writer, catalog []garment.Milestone) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ICON\tNAME\tTIER\tWASHES\tDESCRIPTION")
	for _, m := range catalog {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", m.Icon, m.Name, tierLabel(m.Tier), m.RequiredWashes, m.Description)
	}
	return tw.Flush()
}

func printGarmentAchievements(w io.Writer, g garment.Garment) {
	fmt.Fprintln(w, titleStyle.Render(g.Name))
	if len(g.Achievements) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  no achievements yet"))
	}
	for _, a := range g.Achievements {
		fmt.Fprintf(w, "  %s %s [%s] %s\n", a.Icon, a.Name, tierLabel(a.Tier), mutedStyle.Render(timeutil.FormatDate(a.UnlockedAt)))
	}
	if next, left, ok := garment.NextAchievement(g.WashCount); ok {
		fmt.Fprintf(w, "  next: %s %s in %d washes\n", next.Icon, next.Name, left)
	}
}
