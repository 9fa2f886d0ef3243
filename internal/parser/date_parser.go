package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the persisted calendar date format
const DateLayout = "2006-01-02"

var (
	slashDateRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	daysAgoRegex   = regexp.MustCompile(`^(\d+)\s+(day|days)\s+ago$`)
)

// ParseDate parses a calendar date relative to now
// Supported formats:
// - today, yesterday, tomorrow
// - yyyy-mm-dd (e.g., "2026-03-02")
// - dd/mm/yyyy (e.g., "02/03/2026")
// - X days ago (e.g., "3 days ago")
// The result is returned as a YYYY-MM-DD string.
func ParseDate(input string, now time.Time) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "", "today":
		return now.Format(DateLayout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(DateLayout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(DateLayout), nil
	}

	if t, err := time.Parse(DateLayout, input); err == nil {
		return t.Format(DateLayout), nil
	}

	if date, err := parseSlashDate(input); err == nil {
		return date, nil
	}

	if matches := daysAgoRegex.FindStringSubmatch(input); len(matches) == 3 {
		amount, _ := strconv.Atoi(matches[1])
		if amount > 366 {
			return "", fmt.Errorf("days must be between 0 and 366")
		}
		return now.AddDate(0, 0, -amount).Format(DateLayout), nil
	}

	return "", fmt.Errorf("invalid date format. Use: today, yesterday, yyyy-mm-dd, dd/mm/yyyy or X days ago")
}

// parseSlashDate parses dd/mm/yyyy format
func parseSlashDate(input string) (string, error) {
	matches := slashDateRegex.FindStringSubmatch(input)
	if len(matches) != 4 {
		return "", fmt.Errorf("invalid date format")
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	if day < 1 || day > 31 {
		return "", fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month must be between 1 and 12")
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	// Check if date is valid (handles leap years, etc.)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return "", fmt.Errorf("invalid date")
	}

	return date.Format(DateLayout), nil
}

// DateAt returns the instant at minutes after midnight on date in loc
func DateAt(date string, minutes int, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minutes, 0, 0, loc), nil
}
