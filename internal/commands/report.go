package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/parser"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show attendance for today or the current week",
	Long: `Show today's attendance records, or with --week a timesheet of hours
worked per user per day for the current calendar week.

Example output (--week):
  User        Mon   Tue   Wed   Thu   Fri   Total
  ana         8.5   8.0     -   7.8     -    24.3
  bob         8.0   8.0   8.0     A     E    24.0
  Total      16.5  16.0   8.0   7.8   0.0    48.3

A marks an absence, E an excused day.`,
	RunE: withDB(func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		week, _ := cmd.Flags().GetBool("week")
		if week {
			return weeklyTimesheet(user)
		}
		return dailyReport(user)
	}),
}

// dailyReport lists today's records
func dailyReport(user string) error {
	today := engine.Now().Format(parser.DateLayout)
	records, err := engine.Report(context.Background(), user, today, today)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No attendance recorded on %s\n", today)
		return nil
	}

	fmt.Printf("%-6s  %-16s  %-7s  %-10s  %-8s  %-8s  %6s  %s\n",
		"Record", "User", "Session", "Status", "In", "Out", "Hours", "Late")
	for _, r := range records {
		late := "-"
		if r.MinutesLate > 0 {
			late = fmt.Sprintf("%dm", r.MinutesLate)
		}
		fmt.Printf("%-6d  %-16s  %-7d  %-10s  %-8s  %-8s  %6.2f  %s\n",
			r.ID, truncate(r.UserID, 16), r.SessionID, r.Status,
			clockOf(r.TimeIn), clockOf(r.TimeOut), r.HoursWorked, late)
	}
	return nil
}

func clockOf(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("15:04")
}

// weeklyTimesheet creates and displays the weekly hours grid
func weeklyTimesheet(user string) error {
	// Get current calendar week (Monday to Sunday)
	weekStart := getWeekStart(engine.Now())
	from := weekStart.Format(parser.DateLayout)
	to := weekStart.AddDate(0, 0, 6).Format(parser.DateLayout)

	records, err := engine.Report(context.Background(), user, from, to)
	if err != nil {
		return fmt.Errorf("failed to get records: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No attendance recorded this week.")
		return nil
	}

	// Group records by user and day
	userDays := make(map[string]map[time.Weekday]*dayCell)
	for _, r := range records {
		day, err := time.Parse(parser.DateLayout, r.AttendanceDate)
		if err != nil {
			continue
		}
		if userDays[r.UserID] == nil {
			userDays[r.UserID] = make(map[time.Weekday]*dayCell)
		}
		cell := userDays[r.UserID][day.Weekday()]
		if cell == nil {
			cell = &dayCell{}
			userDays[r.UserID][day.Weekday()] = cell
		}
		cell.add(r)
	}

	displayTimesheet(userDays, weekStart)
	return nil
}

// dayCell is one user's attendance on one day
type dayCell struct {
	hours   float64
	absent  bool
	excused bool
}

func (c *dayCell) add(r models.AttendanceRecord) {
	c.hours += r.HoursWorked
	switch r.Status {
	case models.StatusAbsent:
		c.absent = true
	case models.StatusExcused:
		c.excused = true
	}
}

func (c *dayCell) String() string {
	switch {
	case c == nil:
		return "-"
	case c.hours > 0:
		return fmt.Sprintf("%.1f", c.hours)
	case c.excused:
		return "E"
	case c.absent:
		return "A"
	}
	return "-"
}

// getWeekStart returns the start of the calendar week (Monday) for the given time
func getWeekStart(t time.Time) time.Time {
	weekday := t.Weekday()
	daysFromMonday := int(weekday - time.Monday)
	if weekday == time.Sunday {
		daysFromMonday = 6 // Sunday is 6 days from Monday
	}

	weekStart := t.AddDate(0, 0, -daysFromMonday)
	// Set to start of day
	return time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, weekStart.Location())
}

// visibleDays returns Mon-Fri plus any weekend day with attendance
func visibleDays(userDays map[string]map[time.Weekday]*dayCell) []time.Weekday {
	days := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	for _, weekend := range []time.Weekday{time.Saturday, time.Sunday} {
		for _, cells := range userDays {
			if cells[weekend] != nil {
				days = append(days, weekend)
				break
			}
		}
	}
	return days
}

// displayTimesheet outputs the formatted timesheet table
func displayTimesheet(userDays map[string]map[time.Weekday]*dayCell, weekStart time.Time) {
	users := make([]string, 0, len(userDays))
	for user := range userDays {
		users = append(users, user)
	}
	sort.Strings(users)

	days := visibleDays(userDays)

	nameWidth := 10
	for _, user := range users {
		if len(user) > nameWidth {
			nameWidth = len(user)
		}
	}
	if nameWidth > 24 {
		nameWidth = 24
	}
	const col = 6

	separator := func() {
		fmt.Print(strings.Repeat("-", nameWidth))
		for range days {
			fmt.Print(" " + strings.Repeat("-", col-1))
		}
		fmt.Println("  " + strings.Repeat("-", col))
	}

	// Print header
	fmt.Printf("%-*s", nameWidth, "User")
	for _, day := range days {
		fmt.Printf(" %*s", col-1, day.String()[:3])
	}
	fmt.Printf("  %*s\n", col, "Total")
	separator()

	dayTotals := make(map[time.Weekday]float64)
	grandTotal := 0.0
	for _, user := range users {
		fmt.Printf("%-*s", nameWidth, truncate(user, nameWidth))
		userTotal := 0.0
		for _, day := range days {
			cell := userDays[user][day]
			fmt.Printf(" %*s", col-1, cell.String())
			if cell != nil {
				userTotal += cell.hours
				dayTotals[day] += cell.hours
			}
		}
		fmt.Printf("  %*.1f\n", col, userTotal)
		grandTotal += userTotal
	}

	separator()
	fmt.Printf("%-*s", nameWidth, "Total")
	for _, day := range days {
		fmt.Printf(" %*.1f", col-1, dayTotals[day])
	}
	fmt.Printf("  %*.1f\n", col, grandTotal)

	fmt.Printf("\nWeek of %s to %s\n",
		weekStart.Format("Jan 2"),
		weekStart.AddDate(0, 0, 6).Format("Jan 2, 2006"))
}

func init() {
	reportCmd.Flags().String("user", "", "Only report on this user")
	reportCmd.Flags().Bool("week", false, "Show the weekly hours timesheet")
}
