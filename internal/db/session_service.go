package db

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/balkashynov/shiftr/internal/models"
)

// CreateSession inserts a session
func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	if err := s.with(ctx).Omit(clause.Associations).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session with its schedule
func (s *Store) GetSession(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := s.with(ctx).Preload("Schedule").First(&session, id).Error; err != nil {
		return nil, notFound(err, "session", id)
	}
	return &session, nil
}

// FindSession returns the schedule's session for date, or nil
func (s *Store) FindSession(ctx context.Context, scheduleID uint, date string) (*models.Session, error) {
	var session models.Session
	err := s.with(ctx).
		Where("schedule_id = ? AND date = ?", scheduleID, date).
		First(&session).Error
	if err != nil {
		return nil, none(err)
	}
	return &session, nil
}

// ListSessionsForDate returns the sessions held on date
func (s *Store) ListSessionsForDate(ctx context.Context, date string) ([]models.Session, error) {
	var sessions []models.Session
	err := s.with(ctx).Preload("Schedule").
		Where("date = ?", date).
		Order("id ASC").
		Find(&sessions).Error
	return sessions, err
}

// ListSessionsByStatus returns every session in status
func (s *Store) ListSessionsByStatus(ctx context.Context, status string) ([]models.Session, error) {
	var sessions []models.Session
	err := s.with(ctx).Preload("Schedule").
		Where("status = ?", status).
		Order("date ASC, id ASC").
		Find(&sessions).Error
	return sessions, err
}

// SaveSession writes every field of session
func (s *Store) SaveSession(ctx context.Context, session *models.Session) error {
	if err := s.with(ctx).Omit(clause.Associations).Save(session).Error; err != nil {
		return fmt.Errorf("failed to save session #%d: %w", session.ID, err)
	}
	return nil
}
