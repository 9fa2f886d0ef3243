package attendance

import (
	"context"
	"fmt"
	"strings"

	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/notify"
)

// CheckIn times userID in for sessionID. The record is created if the
// roster did not already seed one.
func (e *Engine) CheckIn(ctx context.Context, userID string, sessionID uint) (*models.AttendanceRecord, error) {
	const op = "check in"
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalid("user_id", "is required")
	}

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, e.fail(op, err)
	}
	if session.Status == models.SessionPending {
		if _, err := e.promoteIfDue(ctx, sessionID); err != nil {
			return nil, e.fail(op, err)
		}
	}

	release, err := e.locks.acquire(ctx, recordKey(sessionID, userID), e.cfg.LockTimeout)
	if err != nil {
		return nil, e.fail(op, err)
	}
	defer release()

	var result *models.AttendanceRecord
	o := &outcome{}
	err = e.store.InTx(ctx, func(tx Store) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != models.SessionActive {
			return ErrSessionNotActive
		}
		schedule, err := tx.GetSchedule(ctx, session.ScheduleID)
		if err != nil {
			return err
		}
		shift, err := ShiftFor(schedule, session.Date)
		if err != nil {
			return fmt.Errorf("laying out session #%d: %w", session.ID, err)
		}

		record, err := tx.FindRecord(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if record != nil && record.TimeIn != nil {
			return ErrAlreadyCheckedIn
		}

		now := e.clock.Now()
		arrival := EvaluateArrival(schedule, shift, now)

		if record == nil {
			record = &models.AttendanceRecord{
				UserID:         userID,
				SessionID:      sessionID,
				AttendanceDate: session.Date,
			}
		}
		record.TimeIn = &now
		record.Status = arrival.Status
		record.MinutesLate = arrival.MinutesLate

		if record.ID == 0 {
			err = tx.CreateRecord(ctx, record)
		} else {
			err = tx.SaveRecord(ctx, record)
		}
		if err != nil {
			return err
		}

		o.record(now, notify.ActionCheckedIn, record, fmt.Sprintf("status=%s minutes_late=%d", record.Status, record.MinutesLate))
		o.emit(notify.AttendanceUpdated{Record: *record, Action: notify.ActionCheckedIn})
		if record.Status == models.StatusLate {
			o.emit(notify.LateArrival{
				UserID:      userID,
				SessionID:   sessionID,
				RecordID:    record.ID,
				MinutesLate: record.MinutesLate,
				CheckedInAt: now,
			})
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, e.fail(op, err)
	}

	e.finish(ctx, o)
	return result, nil
}
