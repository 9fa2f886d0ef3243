package db

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/balkashynov/shiftr/internal/models"
)

// CreateSchedule inserts a schedule
func (s *Store) CreateSchedule(ctx context.Context, schedule *models.Schedule) error {
	if err := s.with(ctx).Omit(clause.Associations).Create(schedule).Error; err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// GetSchedule retrieves a schedule by ID
func (s *Store) GetSchedule(ctx context.Context, id uint) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := s.with(ctx).First(&schedule, id).Error; err != nil {
		return nil, notFound(err, "schedule", id)
	}
	return &schedule, nil
}

// FindScheduleByName returns the schedule called name, or nil
func (s *Store) FindScheduleByName(ctx context.Context, name string) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := s.with(ctx).Where("name = ?", name).First(&schedule).Error; err != nil {
		return nil, none(err)
	}
	return &schedule, nil
}

// ListSchedules returns every schedule ordered by name
func (s *Store) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := s.with(ctx).Order("name ASC").Find(&schedules).Error
	return schedules, err
}

// AddAssignment puts userID on the schedule's roster; repeats are ignored
func (s *Store) AddAssignment(ctx context.Context, scheduleID uint, userID string) error {
	assignment := models.Assignment{ScheduleID: scheduleID, UserID: userID}
	err := s.with(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignment).Error
	if err != nil {
		return fmt.Errorf("failed to assign %s: %w", userID, err)
	}
	return nil
}

// ListAssignedUsers returns the roster of a schedule
func (s *Store) ListAssignedUsers(ctx context.Context, scheduleID uint) ([]string, error) {
	var users []string
	err := s.with(ctx).Model(&models.Assignment{}).
		Where("schedule_id = ?", scheduleID).
		Order("user_id ASC").
		Pluck("user_id", &users).Error
	return users, err
}
