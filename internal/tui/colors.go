package tui

import "github.com/balkashynov/shiftr/internal/models"

// Color constants for shiftr TUI theme
const (
	// Base Colors
	ColorCardBackground = "#1B1530" // Dark purple
	ColorBorder         = "#3A3F55" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorHelpText      = "240" // Dark grey for help text

	// Accent Colors (Purple theme)
	ColorAccentMain   = "#7C3AED"
	ColorAccentBright = "#A78BFA"

	// State Colors
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
)

// StatusColor picks the state color for an attendance status
func StatusColor(status string) string {
	switch status {
	case models.StatusPresent:
		return ColorSuccess
	case models.StatusLate, models.StatusLeftEarly:
		return ColorWarning
	case models.StatusAbsent:
		return ColorError
	case models.StatusExcused:
		return ColorAccentBright
	}
	return ColorDisabledText
}

// StatusIcon is the emoji shown next to an attendance status
func StatusIcon(status string) string {
	switch status {
	case models.StatusPresent:
		return "✅"
	case models.StatusLate:
		return "⏰"
	case models.StatusLeftEarly:
		return "🚪"
	case models.StatusAbsent:
		return "🚫"
	case models.StatusExcused:
		return "📝"
	}
	return "○"
}
