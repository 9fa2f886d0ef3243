package attendance

import (
	"context"
	"time"

	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/parser"
)

// ActivateSessionForDate opens the schedule's session for date. The
// session is created pending if missing and becomes active once the
// scheduled time-in minus the grace period has passed. A session that is
// already active or locked is a DuplicateSessionError.
func (e *Engine) ActivateSessionForDate(ctx context.Context, scheduleID uint, date string) (*models.Session, error) {
	const op = "activate session"
	if _, err := time.Parse(parser.DateLayout, date); err != nil {
		return nil, invalid("date", "use YYYY-MM-DD")
	}

	schedule, err := e.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, e.fail(op, err)
	}
	if !schedule.Active {
		return nil, invalid("schedule_id", "schedule %q is inactive", schedule.Name)
	}
	shift, err := ShiftFor(schedule, date)
	if err != nil {
		return nil, e.fail(op, err)
	}

	release, err := e.locks.acquire(ctx, scheduleDateKey(scheduleID, date), e.cfg.LockTimeout)
	if err != nil {
		return nil, e.fail(op, err)
	}
	defer release()

	var session *models.Session
	err = e.store.InTx(ctx, func(tx Store) error {
		existing, err := tx.FindSession(ctx, scheduleID, date)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status != models.SessionPending {
			return &DuplicateSessionError{ScheduleID: scheduleID, Date: date, Status: existing.Status}
		}
		if existing == nil {
			existing = &models.Session{ScheduleID: scheduleID, Date: date, Status: models.SessionPending}
			if err := tx.CreateSession(ctx, existing); err != nil {
				return err
			}
		}
		session = existing

		now := e.clock.Now()
		if now.Before(shift.ActivatesAt(schedule)) {
			return nil
		}
		return e.activate(ctx, tx, session, now)
	})
	if err != nil {
		return nil, e.fail(op, err)
	}
	return session, nil
}

// activate flips a pending session to active and seeds pending records
// for the schedule's roster
func (e *Engine) activate(ctx context.Context, tx Store, session *models.Session, now time.Time) error {
	session.Status = models.SessionActive
	session.ActivatedAt = &now
	if err := tx.SaveSession(ctx, session); err != nil {
		return err
	}

	users, err := tx.ListAssignedUsers(ctx, session.ScheduleID)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}
	records := make([]models.AttendanceRecord, 0, len(users))
	for _, userID := range users {
		records = append(records, models.AttendanceRecord{
			UserID:         userID,
			SessionID:      session.ID,
			AttendanceDate: session.Date,
			Status:         models.StatusPending,
		})
	}
	return tx.EnsureRecords(ctx, records)
}

// promoteIfDue activates a pending session whose activation time has
// passed and returns the fresh session
func (e *Engine) promoteIfDue(ctx context.Context, sessionID uint) (*models.Session, error) {
	release, err := e.locks.acquire(ctx, sessionKey(sessionID), e.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	var session *models.Session
	err = e.store.InTx(ctx, func(tx Store) error {
		s, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		session = s
		if s.Status != models.SessionPending {
			return nil
		}
		schedule, err := tx.GetSchedule(ctx, s.ScheduleID)
		if err != nil {
			return err
		}
		shift, err := ShiftFor(schedule, s.Date)
		if err != nil {
			return err
		}
		now := e.clock.Now()
		if now.Before(shift.ActivatesAt(schedule)) {
			return nil
		}
		return e.activate(ctx, tx, s, now)
	})
	return session, err
}

// PromoteDueSessions activates every pending session that is due and
// returns how many were activated
func (e *Engine) PromoteDueSessions(ctx context.Context) (int, error) {
	pending, err := e.store.ListSessionsByStatus(ctx, models.SessionPending)
	if err != nil {
		return 0, e.fail("promote sessions", err)
	}

	promoted := 0
	for _, p := range pending {
		s, err := e.promoteIfDue(ctx, p.ID)
		if err != nil {
			e.logger.Printf("promote session #%d: %v", p.ID, err)
			continue
		}
		if s.Status == models.SessionActive {
			promoted++
		}
	}
	return promoted, nil
}

// LockSession freezes an active session against further edits
func (e *Engine) LockSession(ctx context.Context, sessionID uint) (*models.Session, error) {
	const op = "lock session"
	release, err := e.locks.acquire(ctx, sessionKey(sessionID), e.cfg.LockTimeout)
	if err != nil {
		return nil, e.fail(op, err)
	}
	defer release()

	var session *models.Session
	err = e.store.InTx(ctx, func(tx Store) error {
		s, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Status != models.SessionActive {
			return ErrSessionNotActive
		}
		now := e.clock.Now()
		s.Status = models.SessionLocked
		s.LockedAt = &now
		session = s
		return tx.SaveSession(ctx, s)
	})
	if err != nil {
		return nil, e.fail(op, err)
	}
	return session, nil
}

// SessionsForDate lists the sessions scheduled on date
func (e *Engine) SessionsForDate(ctx context.Context, date string) ([]models.Session, error) {
	return e.store.ListSessionsForDate(ctx, date)
}
