package models

import (
	"time"
)

// Attendance statuses
const (
	StatusPending   = "pending"
	StatusPresent   = "present"
	StatusLate      = "late"
	StatusLeftEarly = "left_early"
	StatusAbsent    = "absent"
	StatusExcused   = "excused"
)

// Break types
const (
	BreakRegular = "regular"
	BreakCoffee  = "coffee"
	BreakMeal    = "meal"
)

// AttendanceRecord is one employee's attendance for one session
type AttendanceRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID         string     `gorm:"uniqueIndex:idx_record_user_session;not null" json:"user_id"`
	SessionID      uint       `gorm:"uniqueIndex:idx_record_user_session;not null;index" json:"session_id"`
	AttendanceDate string     `gorm:"size:10;index" json:"attendance_date"`
	Status         string     `gorm:"default:pending;index" json:"status"`
	TimeIn         *time.Time `json:"time_in"`
	TimeOut        *time.Time `json:"time_out"`
	BreakStart     *time.Time `json:"break_start"`
	BreakEnd       *time.Time `json:"break_end"`
	MinutesLate    int        `json:"minutes_late"`
	HoursWorked    float64    `json:"hours_worked"`
	Note           string     `json:"note"`

	// Relationships
	Session Session      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Breaks  []BreakEntry `gorm:"foreignKey:AttendanceRecordID" json:"breaks"`
}

// OnBreak reports whether the record has an unterminated break
func (r *AttendanceRecord) OnBreak() bool {
	return r.BreakStart != nil && r.BreakEnd == nil
}

// BreakEntry is a single break taken during an attendance record
type BreakEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AttendanceRecordID uint       `gorm:"not null;index" json:"attendance_record_id"`
	Type               string     `gorm:"default:regular" json:"type"`
	Start              time.Time  `gorm:"column:started_at;not null" json:"start"`
	End                *time.Time `gorm:"column:ended_at;index" json:"end"`
	DurationMinutes    int        `json:"duration_minutes"` // calculated when the break ends
	AutoEnded          bool       `json:"auto_ended"`
}
