package attendance

import (
	"context"

	"github.com/balkashynov/shiftr/internal/models"
)

// Store is the persistence the engine needs. Lookups by id return a
// *NotFoundError when the row is missing; Find* lookups return nil, nil.
type Store interface {
	// InTx runs fn inside a transaction; fn's store sees only the
	// transaction. Returning an error rolls everything back.
	InTx(ctx context.Context, fn func(tx Store) error) error

	CreateSchedule(ctx context.Context, schedule *models.Schedule) error
	GetSchedule(ctx context.Context, id uint) (*models.Schedule, error)
	FindScheduleByName(ctx context.Context, name string) (*models.Schedule, error)
	ListSchedules(ctx context.Context) ([]models.Schedule, error)
	AddAssignment(ctx context.Context, scheduleID uint, userID string) error
	ListAssignedUsers(ctx context.Context, scheduleID uint) ([]string, error)

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id uint) (*models.Session, error)
	FindSession(ctx context.Context, scheduleID uint, date string) (*models.Session, error)
	ListSessionsForDate(ctx context.Context, date string) ([]models.Session, error)
	ListSessionsByStatus(ctx context.Context, status string) ([]models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error

	GetRecord(ctx context.Context, id uint) (*models.AttendanceRecord, error)
	FindRecord(ctx context.Context, userID string, sessionID uint) (*models.AttendanceRecord, error)
	ListSessionRecords(ctx context.Context, sessionID uint) ([]models.AttendanceRecord, error)
	ListUserRecords(ctx context.Context, userID string, from, to string) ([]models.AttendanceRecord, error)
	ListRecordsInRange(ctx context.Context, from, to string) ([]models.AttendanceRecord, error)
	CreateRecord(ctx context.Context, record *models.AttendanceRecord) error
	// EnsureRecords inserts records, skipping any (user, session) that
	// already has one
	EnsureRecords(ctx context.Context, records []models.AttendanceRecord) error
	SaveRecord(ctx context.Context, record *models.AttendanceRecord) error

	CreateBreak(ctx context.Context, entry *models.BreakEntry) error
	SaveBreak(ctx context.Context, entry *models.BreakEntry) error
	// ListOpenBreaks returns unfinished breaks of active sessions only
	ListOpenBreaks(ctx context.Context) ([]models.BreakEntry, error)
}

// AuditSink receives an append-only trail of committed mutations
type AuditSink interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}
