package attendance

import (
	"time"

	"github.com/balkashynov/shiftr/internal/models"
)

// Arrival is the outcome of a check-in evaluation
type Arrival struct {
	Status      string
	MinutesLate int
}

// EvaluateArrival classifies a check-in at now. Arriving before the
// scheduled time-in is never penalised.
func EvaluateArrival(schedule *models.Schedule, shift Shift, now time.Time) Arrival {
	elapsed := wholeMinutes(now.Sub(shift.In))
	if elapsed <= schedule.GracePeriodMinutes {
		return Arrival{Status: models.StatusPresent}
	}
	return Arrival{Status: models.StatusLate, MinutesLate: elapsed - schedule.GracePeriodMinutes}
}

// LeftEarly reports whether a check-out at now is materially before the
// scheduled time-out
func LeftEarly(schedule *models.Schedule, shift Shift, now time.Time) bool {
	return now.Before(shift.Out.Add(-minutes(schedule.LeaveEarlyMinutes)))
}

// BreakWindowPolicy decides whether breaks may start or end
type BreakWindowPolicy struct {
	Schedule *models.Schedule
	Shift    Shift
}

// CanStart returns nil when record may start a break at now
func (p BreakWindowPolicy) CanStart(record *models.AttendanceRecord, breaks []models.BreakEntry, now time.Time) error {
	if record.TimeIn == nil {
		return ErrNotCheckedIn
	}
	if record.TimeOut != nil {
		return ErrAlreadyCheckedOut
	}
	if OpenBreak(breaks) != nil || record.OnBreak() {
		return ErrBreakInProgress
	}
	if !p.Shift.InBreakWindow(now) {
		return ErrOutsideBreakWindow
	}
	if len(breaks) >= p.maxBreaks() || UsedBreakMinutes(breaks) >= p.Schedule.BreakMaxMinutes {
		return ErrBreakAlreadyUsed
	}
	return nil
}

// CanEnd returns the open break, or ErrNoActiveBreak
func (p BreakWindowPolicy) CanEnd(record *models.AttendanceRecord, breaks []models.BreakEntry) (*models.BreakEntry, error) {
	open := OpenBreak(breaks)
	if open == nil || record.BreakStart == nil || record.BreakEnd != nil {
		return nil, ErrNoActiveBreak
	}
	return open, nil
}

// Allowance is how many break minutes remain before the open break,
// counting only finished breaks
func (p BreakWindowPolicy) Allowance(breaks []models.BreakEntry) int {
	left := p.Schedule.BreakMaxMinutes - UsedBreakMinutes(breaks)
	if left < 0 {
		return 0
	}
	return left
}

// Excess is how far the break total runs over the schedule maximum
func (p BreakWindowPolicy) Excess(breaks []models.BreakEntry) int {
	over := UsedBreakMinutes(breaks) - p.Schedule.BreakMaxMinutes
	if over < 0 {
		return 0
	}
	return over
}

func (p BreakWindowPolicy) maxBreaks() int {
	if p.Schedule.MaxBreaks <= 0 {
		return 1
	}
	return p.Schedule.MaxBreaks
}

// OpenBreak returns the unterminated break, if any
func OpenBreak(breaks []models.BreakEntry) *models.BreakEntry {
	for i := range breaks {
		if breaks[i].End == nil {
			return &breaks[i]
		}
	}
	return nil
}

// UsedBreakMinutes sums the durations of finished breaks
func UsedBreakMinutes(breaks []models.BreakEntry) int {
	total := 0
	for _, b := range breaks {
		if b.End != nil {
			total += b.DurationMinutes
		}
	}
	return total
}

// breakTime is the exact time spent on finished breaks
func breakTime(breaks []models.BreakEntry) time.Duration {
	var total time.Duration
	for _, b := range breaks {
		if b.End != nil {
			total += b.End.Sub(b.Start)
		}
	}
	return total
}

// HoursWorked applies max(0, (out - in) - breaks) / 60 rounded to 2dp
func HoursWorked(timeIn, timeOut time.Time, breaks []models.BreakEntry) float64 {
	worked := timeOut.Sub(timeIn) - breakTime(breaks)
	return roundHours(worked.Minutes())
}
