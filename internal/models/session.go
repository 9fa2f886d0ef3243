package models

import (
	"time"

	"gorm.io/gorm"
)

// Session statuses
const (
	SessionPending = "pending"
	SessionActive  = "active"
	SessionLocked  = "locked"
)

// Session is one day's instantiation of a Schedule
type Session struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ScheduleID  uint       `gorm:"uniqueIndex:idx_session_schedule_date;not null" json:"schedule_id"`
	Date        string     `gorm:"uniqueIndex:idx_session_schedule_date;size:10;not null" json:"date"` // YYYY-MM-DD in the schedule timezone
	Status      string     `gorm:"default:pending;index" json:"status"`
	ActivatedAt *time.Time `json:"activated_at"`
	LockedAt    *time.Time `json:"locked_at"`

	// Relationships
	Schedule Schedule `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"schedule"`
}
