package models

import (
	"time"

	"gorm.io/gorm"
)

// Schedule is a reusable shift template
type Schedule struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name    string `gorm:"uniqueIndex;not null" json:"name"`
	TimeIn  string `gorm:"size:5;not null" json:"time_in"`  // HH:MM
	TimeOut string `gorm:"size:5;not null" json:"time_out"` // HH:MM, may be earlier than TimeIn for overnight shifts

	BreakStart      string `gorm:"size:5;not null" json:"break_start"`
	BreakEnd        string `gorm:"size:5;not null" json:"break_end"`
	BreakMaxMinutes int    `gorm:"not null" json:"break_max_minutes"`
	MaxBreaks       int    `gorm:"default:1" json:"max_breaks"`

	GracePeriodMinutes   int `json:"grace_period_minutes"`
	LateThresholdMinutes int `json:"late_threshold_minutes"`
	LeaveEarlyMinutes    int `json:"leave_early_minutes"`

	Timezone string `gorm:"default:UTC" json:"timezone"`
	Active   bool   `gorm:"default:true" json:"active"`

	// Relationships
	Assignments []Assignment `gorm:"foreignKey:ScheduleID" json:"-"`
}

// Location resolves the schedule's timezone, falling back to UTC
func (s *Schedule) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Assignment puts an employee on a schedule's roster
type Assignment struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	ScheduleID uint      `gorm:"uniqueIndex:idx_assignment_schedule_user;not null" json:"schedule_id"`
	UserID     string    `gorm:"uniqueIndex:idx_assignment_schedule_user;not null" json:"user_id"`
}
