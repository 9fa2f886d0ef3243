package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/parser"
)

// Shift is a schedule laid out on a concrete date. Every clock time is
// anchored forward from the scheduled time-in, so overnight shifts and
// break windows past midnight land on the following day.
type Shift struct {
	In         time.Time
	Out        time.Time
	BreakOpen  time.Time
	BreakClose time.Time
}

// ShiftFor anchors schedule on date (YYYY-MM-DD in the schedule timezone)
func ShiftFor(schedule *models.Schedule, date string) (Shift, error) {
	timeIn, err := parser.ParseClock(schedule.TimeIn)
	if err != nil {
		return Shift{}, fmt.Errorf("schedule #%d time_in: %w", schedule.ID, err)
	}
	timeOut, err := parser.ParseClock(schedule.TimeOut)
	if err != nil {
		return Shift{}, fmt.Errorf("schedule #%d time_out: %w", schedule.ID, err)
	}
	breakStart, err := parser.ParseClock(schedule.BreakStart)
	if err != nil {
		return Shift{}, fmt.Errorf("schedule #%d break_start: %w", schedule.ID, err)
	}
	breakEnd, err := parser.ParseClock(schedule.BreakEnd)
	if err != nil {
		return Shift{}, fmt.Errorf("schedule #%d break_end: %w", schedule.ID, err)
	}

	loc := schedule.Location()
	in, err := parser.DateAt(date, timeIn, loc)
	if err != nil {
		return Shift{}, err
	}

	length := parser.ForwardMinutes(timeIn, timeOut)
	if length == 0 {
		length = parser.MinutesPerDay
	}
	openAt := timeIn + parser.ForwardMinutes(timeIn, breakStart)
	closeAt := openAt + parser.ForwardMinutes(breakStart, breakEnd)

	// time.Date carries minutes past midnight onto the following days on
	// the wall clock, so a DST change inside the shift keeps clock times
	wall := func(offset int) time.Time {
		return time.Date(in.Year(), in.Month(), in.Day(), 0, offset, 0, 0, loc)
	}

	return Shift{
		In:         in,
		Out:        wall(timeIn + length),
		BreakOpen:  wall(openAt),
		BreakClose: wall(closeAt),
	}, nil
}

// ActivatesAt is when a session of this shift opens for check-in
func (s Shift) ActivatesAt(schedule *models.Schedule) time.Time {
	return s.In.Add(-minutes(schedule.GracePeriodMinutes))
}

// InBreakWindow reports whether t lies in [BreakOpen, BreakClose]
func (s Shift) InBreakWindow(t time.Time) bool {
	return !t.Before(s.BreakOpen) && !t.After(s.BreakClose)
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// wholeMinutes floors d to completed minutes, never below zero
func wholeMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// roundHours converts minutes to hours rounded to 2 decimals
func roundHours(mins float64) float64 {
	if mins < 0 {
		mins = 0
	}
	return math.Round(mins/60*100) / 100
}

// after returns t, or just past floor when t is not after it
func after(t, floor time.Time) time.Time {
	if t.After(floor) {
		return t
	}
	return floor.Add(time.Second)
}
