package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/shiftr/internal/models"
)

// BreakTimerModel watches an open break against the remaining allowance
type BreakTimerModel struct {
	width  int
	height int

	userID    string
	recordID  uint
	breakType string
	startedAt time.Time
	allowance time.Duration

	now     func() time.Time
	elapsed time.Duration
	frame   int
	bar     progress.Model

	ending  bool // E pressed: caller should end the break
	leaving bool // esc/q: break keeps running
}

// breakTickMsg is sent every second to refresh the timer
type breakTickMsg struct{}

// NewBreakTimerModel creates a timer for the open break of record
func NewBreakTimerModel(record *models.AttendanceRecord, open *models.BreakEntry, allowanceMinutes int, now func() time.Time) BreakTimerModel {
	if now == nil {
		now = time.Now
	}
	return BreakTimerModel{
		userID:    record.UserID,
		recordID:  record.ID,
		breakType: open.Type,
		startedAt: open.Start,
		allowance: time.Duration(allowanceMinutes) * time.Minute,
		now:       now,
		elapsed:   now().Sub(open.Start),
		bar: progress.New(
			progress.WithGradient(ColorAccentMain, ColorAccentBright),
			progress.WithoutPercentage(),
		),
	}
}

func tickBreak() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return breakTickMsg{} })
}

// Init starts the ticker
func (m BreakTimerModel) Init() tea.Cmd {
	return tickBreak()
}

// Update handles messages
func (m BreakTimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case breakTickMsg:
		m.elapsed = m.now().Sub(m.startedAt)
		m.frame = (m.frame + 1) % 4
		if m.ending || m.leaving {
			return m, nil
		}
		return m, tickBreak()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(msg.Width-10, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "e", "E":
			m.ending = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.leaving = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// Ending reports whether the user asked to end the break
func (m BreakTimerModel) Ending() bool { return m.ending }

// Over reports whether the break has run past the allowance
func (m BreakTimerModel) Over() bool { return m.elapsed > m.allowance }

func (m BreakTimerModel) fraction() float64 {
	if m.allowance <= 0 {
		return 1
	}
	f := float64(m.elapsed) / float64(m.allowance)
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}

// View renders the timer
func (m BreakTimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	width := m.width

	center := lipgloss.NewStyle().Align(lipgloss.Center).Width(width)
	clockColor := ColorAccentBright
	if m.Over() {
		clockColor = ColorError
	}

	cups := []string{"☕", "🫖", "☕", "🫖"}
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Render(fmt.Sprintf("%s  ON %s BREAK  %s", cups[m.frame], strings.ToUpper(m.breakType), cups[m.frame]))

	who := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Render(fmt.Sprintf("%s · record #%d", m.userID, m.recordID))

	var clockRows []string
	for _, line := range strings.Split(BigClock(m.elapsed, clockColor), "\n") {
		clockRows = append(clockRows, center.Render(line))
	}

	components := []string{
		center.Render(header),
		center.Render(who),
		strings.Join(clockRows, "\n"),
		center.Render(m.bar.ViewAs(m.fraction())),
		center.Render(m.allowanceLine()),
		center.Render(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Italic(true).
			Render("Started at "+m.startedAt.Local().Format("15:04:05"))),
	}

	panel := lipgloss.NewStyle().
		Width(width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(components, "\n\n"))

	return lipgloss.JoinVertical(lipgloss.Left, panel, m.renderHelpBar())
}

func (m BreakTimerModel) allowanceLine() string {
	allowed := int(m.allowance.Minutes())
	if m.Over() {
		over := int((m.elapsed - m.allowance).Minutes())
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Bold(true).
			Render(fmt.Sprintf("OVER the %d min allowance by %d min", allowed, over))
	}
	left := int((m.allowance - m.elapsed).Minutes())
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorSuccess)).
		Render(fmt.Sprintf("%d of %d min left", left, allowed))
}

// renderHelpBar renders the help bar at the bottom
func (m BreakTimerModel) renderHelpBar() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width).
		Render("e end break · esc/q exit (break keeps running) · ctrl+c quit")
}
