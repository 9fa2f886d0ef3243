package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/shiftr/internal/models"
)

// RecordCard renders one attendance record as a bordered card for the CLI
func RecordCard(r models.AttendanceRecord) string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	status := lipgloss.NewStyle().Foreground(lipgloss.Color(StatusColor(r.Status))).Bold(true)

	row := func(name, v string) string {
		return label.Render(fmt.Sprintf("%-10s", name)) + value.Render(v)
	}

	lines := []string{
		lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true).
			Render(fmt.Sprintf("%s · session #%d · %s", r.UserID, r.SessionID, r.AttendanceDate)),
		"",
		label.Render(fmt.Sprintf("%-10s", "Status")) + status.Render(StatusIcon(r.Status)+" "+r.Status),
		row("Record", fmt.Sprintf("#%d", r.ID)),
		row("In", clockOrDash(r.TimeIn)),
		row("Out", clockOrDash(r.TimeOut)),
	}
	if r.MinutesLate > 0 {
		lines = append(lines, row("Late", fmt.Sprintf("%d min", r.MinutesLate)))
	}
	for i, b := range r.Breaks {
		desc := fmt.Sprintf("%s %s → %s", b.Type, b.Start.Local().Format("15:04"), clockOrDash(b.End))
		if b.End != nil {
			desc += fmt.Sprintf(" (%d min)", b.DurationMinutes)
		}
		if b.AutoEnded {
			desc += " auto-ended"
		}
		lines = append(lines, row(fmt.Sprintf("Break %d", i+1), desc))
	}
	if r.TimeOut != nil {
		lines = append(lines, row("Worked", fmt.Sprintf("%.2fh", r.HoursWorked)))
	}
	if r.Note != "" {
		lines = append(lines, row("Note", r.Note))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func clockOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("15:04:05")
}
