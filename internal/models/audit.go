package models

import "time"

// AuditEntry is an append-only record of an attendance mutation
type AuditEntry struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`
	Action     string    `gorm:"not null" json:"action"`
	UserID     string    `gorm:"index" json:"user_id"`
	SessionID  uint      `json:"session_id"`
	RecordID   uint      `gorm:"index" json:"record_id"`
	Detail     string    `json:"detail"`
}
