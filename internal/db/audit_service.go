package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/balkashynov/shiftr/internal/models"
)

// Append stores an audit entry
func (s *Store) Append(ctx context.Context, entry models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := s.with(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns a record's audit trail, oldest first. A zero recordID
// returns the most recent entries across all records.
func (s *Store) ListAudit(ctx context.Context, recordID uint, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.AuditEntry
	q := s.with(ctx)
	if recordID != 0 {
		q = q.Where("record_id = ?", recordID).Order("occurred_at ASC")
	} else {
		q = q.Order("occurred_at DESC")
	}
	err := q.Limit(limit).Find(&entries).Error
	return entries, err
}
