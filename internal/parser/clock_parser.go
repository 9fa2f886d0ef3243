package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

var clockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClock parses a 24h "HH:MM" clock time into minutes after midnight
func ParseClock(input string) (int, error) {
	input = strings.TrimSpace(input)
	matches := clockRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return 0, fmt.Errorf("invalid time %q. Use HH:MM (24h)", input)
	}

	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])
	if hour > 23 {
		return 0, fmt.Errorf("hour must be between 0 and 23")
	}
	if minute > 59 {
		return 0, fmt.Errorf("minute must be between 0 and 59")
	}

	return hour*60 + minute, nil
}

// ParseWindow parses "HH:MM-HH:MM" into its two clock strings
func ParseWindow(input string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(input), "-")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid window %q. Use HH:MM-HH:MM", input)
	}

	start := strings.TrimSpace(parts[0])
	end := strings.TrimSpace(parts[1])
	if _, err := ParseClock(start); err != nil {
		return "", "", err
	}
	if _, err := ParseClock(end); err != nil {
		return "", "", err
	}
	return FormatClock(mustClock(start)), FormatClock(mustClock(end)), nil
}

// FormatClock renders minutes after midnight as "HH:MM"
func FormatClock(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ForwardMinutes is the wrap-safe distance from one clock time to the next
// occurrence of another, in [0, 1440)
func ForwardMinutes(from, to int) int {
	return ((to-from)%MinutesPerDay + MinutesPerDay) % MinutesPerDay
}

func mustClock(s string) int {
	m, _ := ParseClock(s)
	return m
}
