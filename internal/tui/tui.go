package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/shiftr/internal/models"
)

// RunBreakTimer shows the break timer until the user ends the break or
// leaves. It reports whether the break should be ended now.
func RunBreakTimer(record *models.AttendanceRecord, open *models.BreakEntry, allowanceMinutes int, now func() time.Time) (bool, error) {
	model := NewBreakTimerModel(record, open, allowanceMinutes, now)

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m, ok := finalModel.(BreakTimerModel)
	return ok && m.Ending(), nil
}
