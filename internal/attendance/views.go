package attendance

import (
	"context"
	"time"

	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/parser"
)

// Status returns userID's records for date (YYYY-MM-DD)
func (e *Engine) Status(ctx context.Context, userID, date string) ([]models.AttendanceRecord, error) {
	if userID == "" {
		return nil, invalid("user_id", "is required")
	}
	if _, err := time.Parse(parser.DateLayout, date); err != nil {
		return nil, invalid("date", "use YYYY-MM-DD")
	}
	return e.store.ListUserRecords(ctx, userID, date, date)
}

// Report returns records with their breaks between from and to
// inclusive. An empty userID reports on everyone.
func (e *Engine) Report(ctx context.Context, userID, from, to string) ([]models.AttendanceRecord, error) {
	if _, err := time.Parse(parser.DateLayout, from); err != nil {
		return nil, invalid("from", "use YYYY-MM-DD")
	}
	if _, err := time.Parse(parser.DateLayout, to); err != nil {
		return nil, invalid("to", "use YYYY-MM-DD")
	}
	if to < from {
		return nil, invalid("to", "must not be before from")
	}
	if userID == "" {
		return e.store.ListRecordsInRange(ctx, from, to)
	}
	return e.store.ListUserRecords(ctx, userID, from, to)
}

// Record returns one record with its breaks
func (e *Engine) Record(ctx context.Context, recordID uint) (*models.AttendanceRecord, error) {
	return e.store.GetRecord(ctx, recordID)
}

// Allowance returns the break minutes left for record and the open break,
// if any. Used by the break timer.
func (e *Engine) Allowance(ctx context.Context, recordID uint) (int, *models.BreakEntry, error) {
	rc, err := e.loadRecordCtx(ctx, e.store, recordID)
	if err != nil {
		return 0, nil, err
	}
	p := rc.policy()
	return p.Allowance(rc.record.Breaks), OpenBreak(rc.record.Breaks), nil
}

// ActiveSessions lists every session currently open for attendance
func (e *Engine) ActiveSessions(ctx context.Context) ([]models.Session, error) {
	return e.store.ListSessionsByStatus(ctx, models.SessionActive)
}
