package notify

import (
	"fmt"
	"time"

	"github.com/balkashynov/shiftr/internal/models"
)

// Kind tags each event type
type Kind string

const (
	KindAttendanceUpdated Kind = "attendance_updated"
	KindBreakUpdated      Kind = "break_updated"
	KindLateArrival       Kind = "late_arrival"
	KindAbsent            Kind = "absent"
	KindBreakExceeded     Kind = "break_exceeded"
)

// Event is one of the concrete event structs below
type Event interface {
	Kind() Kind
}

// Actions carried by AttendanceUpdated and BreakUpdated
const (
	ActionCheckedIn    = "checked_in"
	ActionCheckedOut   = "checked_out"
	ActionExcused      = "excused"
	ActionMarkedAbsent = "marked_absent"
	ActionBreakStart   = "break_started"
	ActionBreakEnd     = "break_ended"
	ActionAutoEnded    = "auto_ended"
)

// AttendanceUpdated is published after any committed change to a record
type AttendanceUpdated struct {
	Record models.AttendanceRecord `json:"record"`
	Action string                  `json:"action"`
}

// BreakUpdated is published when a break starts or ends
type BreakUpdated struct {
	Record    models.AttendanceRecord `json:"record"`
	Action    string                  `json:"action"`
	BreakType string                  `json:"break_type"`
}

// LateArrival notifies that an employee checked in after the grace period
type LateArrival struct {
	UserID      string    `json:"user_id"`
	SessionID   uint      `json:"session_id"`
	RecordID    uint      `json:"record_id"`
	MinutesLate int       `json:"minutes_late"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// Absent notifies that an employee never checked in for a session
type Absent struct {
	UserID    string `json:"user_id"`
	SessionID uint   `json:"session_id"`
	RecordID  uint   `json:"record_id"`
	Date      string `json:"date"`
}

// BreakExceeded notifies that breaks ran over the schedule allowance
type BreakExceeded struct {
	UserID         string `json:"user_id"`
	RecordID       uint   `json:"record_id"`
	BreakID        uint   `json:"break_id"`
	AllowedMinutes int    `json:"allowed_minutes"`
	ExcessMinutes  int    `json:"excess_minutes"`
	AutoEnded      bool   `json:"auto_ended"`
}

func (AttendanceUpdated) Kind() Kind { return KindAttendanceUpdated }
func (BreakUpdated) Kind() Kind      { return KindBreakUpdated }
func (LateArrival) Kind() Kind       { return KindLateArrival }
func (Absent) Kind() Kind            { return KindAbsent }
func (BreakExceeded) Kind() Kind     { return KindBreakExceeded }

// IsNotification reports whether e is meant for people rather than subscribers
func IsNotification(e Event) bool {
	switch e.(type) {
	case LateArrival, Absent, BreakExceeded:
		return true
	}
	return false
}

// Describe renders an event as a one-line human message
func Describe(e Event) string {
	switch ev := e.(type) {
	case LateArrival:
		return fmt.Sprintf("⏰ %s checked in %d min late (session #%d) at %s",
			ev.UserID, ev.MinutesLate, ev.SessionID, ev.CheckedInAt.Format("15:04"))
	case Absent:
		return fmt.Sprintf("🚫 %s was absent on %s (session #%d)", ev.UserID, ev.Date, ev.SessionID)
	case BreakExceeded:
		if ev.AutoEnded {
			return fmt.Sprintf("☕ %s's break was auto-ended %d min over the %d min allowance (record #%d)",
				ev.UserID, ev.ExcessMinutes, ev.AllowedMinutes, ev.RecordID)
		}
		return fmt.Sprintf("☕ %s exceeded the %d min break allowance by %d min (record #%d)",
			ev.UserID, ev.AllowedMinutes, ev.ExcessMinutes, ev.RecordID)
	case AttendanceUpdated:
		return fmt.Sprintf("%s %s (record #%d, status %s)", ev.Record.UserID, ev.Action, ev.Record.ID, ev.Record.Status)
	case BreakUpdated:
		return fmt.Sprintf("%s %s %s break (record #%d)", ev.Record.UserID, ev.Action, ev.BreakType, ev.Record.ID)
	}
	return fmt.Sprintf("%v", e)
}
