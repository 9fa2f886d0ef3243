package attendance

import (
	"context"
	"strings"
	"time"

	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/parser"
)

// ScheduleInput holds the data needed to create a schedule
type ScheduleInput struct {
	Name                 string
	TimeIn               string
	TimeOut              string
	BreakStart           string
	BreakEnd             string
	BreakMaxMinutes      int
	MaxBreaks            int
	GracePeriodMinutes   int
	LateThresholdMinutes int
	LeaveEarlyMinutes    *int // defaults to LateThresholdMinutes
	Timezone             string
}

// CreateSchedule validates input and stores a new active schedule
func (e *Engine) CreateSchedule(ctx context.Context, in ScheduleInput) (*models.Schedule, error) {
	schedule, err := buildSchedule(in)
	if err != nil {
		return nil, err
	}

	existing, err := e.store.FindScheduleByName(ctx, schedule.Name)
	if err != nil {
		return nil, e.fail("create schedule", err)
	}
	if existing != nil {
		return nil, invalid("name", "schedule %q already exists", schedule.Name)
	}

	if err := e.store.CreateSchedule(ctx, schedule); err != nil {
		return nil, e.fail("create schedule", err)
	}
	return schedule, nil
}

func buildSchedule(in ScheduleInput) (*models.Schedule, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	clocks := []struct {
		field string
		value *string
	}{
		{"time_in", &in.TimeIn},
		{"time_out", &in.TimeOut},
		{"break_start", &in.BreakStart},
		{"break_end", &in.BreakEnd},
	}
	parsed := make(map[string]int, len(clocks))
	for _, c := range clocks {
		m, err := parser.ParseClock(*c.value)
		if err != nil {
			return nil, invalid(c.field, "%v", err)
		}
		parsed[c.field] = m
		*c.value = parser.FormatClock(m)
	}

	if parsed["time_in"] == parsed["time_out"] {
		return nil, invalid("time_out", "must differ from time_in")
	}
	if parsed["break_start"] == parsed["break_end"] {
		return nil, invalid("break_end", "break window must not be empty")
	}
	shiftLen := parser.ForwardMinutes(parsed["time_in"], parsed["time_out"])
	breakOpen := parser.ForwardMinutes(parsed["time_in"], parsed["break_start"])
	breakClose := parser.ForwardMinutes(parsed["time_in"], parsed["break_end"])
	if breakOpen >= shiftLen || breakClose > shiftLen {
		return nil, invalid("break_window", "must fall within the shift")
	}
	if breakClose <= breakOpen {
		return nil, invalid("break_window", "break_end must come after break_start")
	}
	if in.BreakMaxMinutes <= 0 {
		return nil, invalid("break_max_minutes", "must be positive")
	}
	if in.MaxBreaks < 0 || in.GracePeriodMinutes < 0 || in.LateThresholdMinutes < 0 {
		return nil, invalid("minutes", "must not be negative")
	}
	maxBreaks := in.MaxBreaks
	if maxBreaks == 0 {
		maxBreaks = 1
	}
	leaveEarly := in.LateThresholdMinutes
	if in.LeaveEarlyMinutes != nil {
		if *in.LeaveEarlyMinutes < 0 {
			return nil, invalid("leave_early_minutes", "must not be negative")
		}
		leaveEarly = *in.LeaveEarlyMinutes
	}

	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, invalid("timezone", "unknown timezone %q", tz)
	}

	return &models.Schedule{
		Name:                 name,
		TimeIn:               in.TimeIn,
		TimeOut:              in.TimeOut,
		BreakStart:           in.BreakStart,
		BreakEnd:             in.BreakEnd,
		BreakMaxMinutes:      in.BreakMaxMinutes,
		MaxBreaks:            maxBreaks,
		GracePeriodMinutes:   in.GracePeriodMinutes,
		LateThresholdMinutes: in.LateThresholdMinutes,
		LeaveEarlyMinutes:    leaveEarly,
		Timezone:             tz,
		Active:               true,
	}, nil
}

// AssignUsers adds users to a schedule's roster; repeats are ignored
func (e *Engine) AssignUsers(ctx context.Context, scheduleID uint, userIDs ...string) error {
	if _, err := e.store.GetSchedule(ctx, scheduleID); err != nil {
		return e.fail("assign users", err)
	}
	for _, userID := range userIDs {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return invalid("user_id", "is required")
		}
		if err := e.store.AddAssignment(ctx, scheduleID, userID); err != nil {
			return e.fail("assign users", err)
		}
	}
	return nil
}

// ListSchedules returns every schedule
func (e *Engine) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	return e.store.ListSchedules(ctx)
}
