package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/reward"
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd")).
			Bold(true)

	chartBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	todayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0")).
			Bold(true)
)

const (
	progressWidth = 30
	chartHeight   = 5
)

// RenderStats renders the profile summary, the level progress bar and the
// weekly chart.
func RenderStats(p domain.Profile, prog reward.Progress, week reward.Week, today domain.Date) string {
	var b strings.Builder

	name := p.Name
	if name == "" {
		name = "Sleeper"
	}
	b.WriteString(headingStyle.Render(fmt.Sprintf("  %s, %s", name, prog.Current.Name)))
	b.WriteByte('\n')

	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth), progress.WithoutPercentage())
	b.WriteString("  " + bar.ViewAs(prog.Fraction))
	if prog.MaxLevel() {
		b.WriteString(secondaryStyle.Render("  max level"))
	} else {
		b.WriteString(secondaryStyle.Render(fmt.Sprintf("  %d XP to %s", prog.XPToNext, prog.Next.Name)))
	}
	b.WriteByte('\n')

	b.WriteString(primaryStyle.Render(fmt.Sprintf("  %d XP  ·  %d naps  ·  %d min  ·  streak %d",
		p.XP, p.TotalNaps, p.TotalMinutes, p.CurrentStreak)))
	b.WriteString("\n\n")

	b.WriteString(RenderWeek(week, today))
	return b.String()
}

// RenderWeek renders a small Monday-first bar chart of naps per day.
func RenderWeek(week reward.Week, today domain.Date) string {
	counts := week.Counts()
	peak := 1
	for _, c := range counts {
		if c > peak {
			peak = c
		}
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("  Week of %s", week.Start)))
	b.WriteByte('\n')

	for row := chartHeight; row >= 1; row-- {
		b.WriteString("  ")
		for _, c := range counts {
			height := (c*chartHeight + peak - 1) / peak
			if height >= row {
				b.WriteString(chartBarStyle.Render(" ██ "))
			} else {
				b.WriteString("    ")
			}
		}
		b.WriteByte('\n')
	}

	b.WriteString("  ")
	for _, d := range week.Days {
		label := fmt.Sprintf(" %-3s", d.Date.Weekday().String()[:2])
		if d.Date == today {
			label = todayStyle.Render(label)
		} else {
			label = secondaryStyle.Render(label)
		}
		b.WriteString(label)
	}
	b.WriteByte('\n')

	b.WriteString(secondaryStyle.Render(fmt.Sprintf("  %d naps on %d of 7 days", week.Total(), week.ActiveDays())))
	b.WriteByte('\n')
	return b.String()
}

// RenderPresets lists the built-in nap lengths.
func RenderPresets(selected domain.NapConfig) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("  Presets"))
	b.WriteByte('\n')
	for _, p := range domain.Presets {
		marker := "  "
		if p.ID == selected.Source {
			marker = "> "
		}
		line := fmt.Sprintf("  %s%-9s %-14s %3d min  %s", marker, p.ID, p.Name, int(p.Duration/time.Minute), p.Description)
		b.WriteString(primaryStyle.Render(line))
		b.WriteByte('\n')
	}
	b.WriteString(secondaryStyle.Render(fmt.Sprintf("  or any length from %d to %d minutes",
		int(domain.MinNapDuration/time.Minute), int(domain.MaxNapDuration/time.Minute))))
	b.WriteByte('\n')
	return b.String()
}

// RenderHistory lists completed naps, newest first.
func RenderHistory(records []domain.SessionRecord) string {
	if len(records) == 0 {
		return secondaryStyle.Render("  No naps yet.") + "\n"
	}

	var b strings.Builder
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		line := fmt.Sprintf("  %s  %s  %-14s %3d min  +%d XP",
			r.Date, r.CompletedAt.Local().Format("15:04"), r.Label, r.DurationMinutes, r.XPAwarded)
		b.WriteString(primaryStyle.Render(line))
		b.WriteByte('\n')
	}
	return b.String()
}
