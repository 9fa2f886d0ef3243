package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/shiftr/internal/models"
)

func orderedBreaks(tx *gorm.DB) *gorm.DB {
	return tx.Order("started_at ASC, id ASC")
}

func (s *Store) records(ctx context.Context) *gorm.DB {
	return s.with(ctx).Preload("Breaks", orderedBreaks)
}

// GetRecord retrieves a record with its breaks
func (s *Store) GetRecord(ctx context.Context, id uint) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	if err := s.records(ctx).First(&record, id).Error; err != nil {
		return nil, notFound(err, "record", id)
	}
	return &record, nil
}

// FindRecord returns userID's record for the session, or nil
func (s *Store) FindRecord(ctx context.Context, userID string, sessionID uint) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := s.records(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&record).Error
	if err != nil {
		return nil, none(err)
	}
	return &record, nil
}

// ListSessionRecords returns every record of a session
func (s *Store) ListSessionRecords(ctx context.Context, sessionID uint) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := s.records(ctx).
		Where("session_id = ?", sessionID).
		Order("user_id ASC").
		Find(&records).Error
	return records, err
}

// ListUserRecords returns userID's records dated from..to inclusive
func (s *Store) ListUserRecords(ctx context.Context, userID string, from, to string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := s.records(ctx).
		Where("user_id = ? AND attendance_date >= ? AND attendance_date <= ?", userID, from, to).
		Order("attendance_date ASC, session_id ASC").
		Find(&records).Error
	return records, err
}

// ListRecordsInRange returns everyone's records dated from..to inclusive
func (s *Store) ListRecordsInRange(ctx context.Context, from, to string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := s.records(ctx).
		Where("attendance_date >= ? AND attendance_date <= ?", from, to).
		Order("attendance_date ASC, user_id ASC").
		Find(&records).Error
	return records, err
}

// CreateRecord inserts a record
func (s *Store) CreateRecord(ctx context.Context, record *models.AttendanceRecord) error {
	if err := s.with(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create record for %s: %w", record.UserID, err)
	}
	return nil
}

// EnsureRecords inserts records, leaving existing (user, session) rows alone
func (s *Store) EnsureRecords(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := s.with(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&records).Error
	if err != nil {
		return fmt.Errorf("failed to seed records: %w", err)
	}
	return nil
}

// SaveRecord writes every field of record; breaks are saved separately
func (s *Store) SaveRecord(ctx context.Context, record *models.AttendanceRecord) error {
	if err := s.with(ctx).Omit(clause.Associations).Save(record).Error; err != nil {
		return fmt.Errorf("failed to save record #%d: %w", record.ID, err)
	}
	return nil
}

// CreateBreak inserts a break entry
func (s *Store) CreateBreak(ctx context.Context, entry *models.BreakEntry) error {
	if err := s.with(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to start break: %w", err)
	}
	return nil
}

// SaveBreak writes every field of a break entry
func (s *Store) SaveBreak(ctx context.Context, entry *models.BreakEntry) error {
	if err := s.with(ctx).Save(entry).Error; err != nil {
		return fmt.Errorf("failed to save break #%d: %w", entry.ID, err)
	}
	return nil
}

// ListOpenBreaks returns every unfinished break in an active session.
// Breaks left open in locked sessions are frozen with the session.
func (s *Store) ListOpenBreaks(ctx context.Context) ([]models.BreakEntry, error) {
	var breaks []models.BreakEntry
	err := s.with(ctx).
		Select("break_entries.*").
		Joins("JOIN attendance_records ON attendance_records.id = break_entries.attendance_record_id").
		Joins("JOIN sessions ON sessions.id = attendance_records.session_id AND sessions.deleted_at IS NULL").
		Where("break_entries.ended_at IS NULL AND sessions.status = ?", models.SessionActive).
		Order("break_entries.started_at ASC").
		Find(&breaks).Error
	return breaks, err
}
