package attendance

import (
	"context"
	"sort"
	"strings"

	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/notify"
)

// AbsenceResult summarises one absence pass over a session
type AbsenceResult struct {
	SessionID uint     `json:"session_id"`
	Marked    []string `json:"marked"`  // users newly marked absent
	Skipped   []string `json:"skipped"` // users whose record was busy
}

// MarkAbsences marks everyone on the roster who never checked in as absent.
// It is safe to run repeatedly: only records still pending (or missing)
// change.
func (e *Engine) MarkAbsences(ctx context.Context, sessionID uint) (*AbsenceResult, error) {
	const op = "mark absences"

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, e.fail(op, err)
	}
	if session.Status == models.SessionPending {
		if session, err = e.promoteIfDue(ctx, sessionID); err != nil {
			return nil, e.fail(op, err)
		}
	}
	if session.Status != models.SessionActive {
		return nil, ErrSessionNotActive
	}

	schedule, err := e.store.GetSchedule(ctx, session.ScheduleID)
	if err != nil {
		return nil, e.fail(op, err)
	}
	shift, err := ShiftFor(schedule, session.Date)
	if err != nil {
		return nil, e.fail(op, err)
	}
	if e.clock.Now().Before(shift.Out.Add(e.cfg.AbsenceCutoff)) {
		return nil, ErrCutoffNotReached
	}

	users, err := e.expectedUsers(ctx, session)
	if err != nil {
		return nil, e.fail(op, err)
	}

	res := &AbsenceResult{SessionID: sessionID}
	for _, userID := range users {
		marked, err := e.markAbsent(ctx, session, userID)
		switch {
		case IsConcurrency(err):
			res.Skipped = append(res.Skipped, userID)
		case err != nil:
			return res, e.fail(op, err)
		case marked:
			res.Marked = append(res.Marked, userID)
		}
	}
	return res, nil
}

// expectedUsers is the roster plus anyone who already has a record
func (e *Engine) expectedUsers(ctx context.Context, session *models.Session) ([]string, error) {
	roster, err := e.store.ListAssignedUsers(ctx, session.ScheduleID)
	if err != nil {
		return nil, err
	}
	records, err := e.store.ListSessionRecords(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(roster)+len(records))
	for _, u := range roster {
		seen[u] = true
	}
	for _, r := range records {
		seen[r.UserID] = true
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

func (e *Engine) markAbsent(ctx context.Context, session *models.Session, userID string) (bool, error) {
	release, err := e.locks.acquire(ctx, recordKey(session.ID, userID), e.cfg.LockTimeout)
	if err != nil {
		return false, err
	}
	defer release()

	marked := false
	o := &outcome{}
	err = e.store.InTx(ctx, func(tx Store) error {
		current, err := tx.GetSession(ctx, session.ID)
		if err != nil {
			return err
		}
		if current.Status != models.SessionActive {
			return ErrSessionNotActive
		}

		record, err := tx.FindRecord(ctx, userID, session.ID)
		if err != nil {
			return err
		}
		switch {
		case record == nil:
			record = &models.AttendanceRecord{
				UserID:         userID,
				SessionID:      session.ID,
				AttendanceDate: session.Date,
				Status:         models.StatusAbsent,
			}
			if err := tx.CreateRecord(ctx, record); err != nil {
				return err
			}
		case record.Status == models.StatusPending && record.TimeIn == nil:
			record.Status = models.StatusAbsent
			if err := tx.SaveRecord(ctx, record); err != nil {
				return err
			}
		default:
			return nil
		}

		now := e.clock.Now()
		o.record(now, notify.ActionMarkedAbsent, record, "")
		o.emit(notify.AttendanceUpdated{Record: *record, Action: notify.ActionMarkedAbsent})
		o.emit(notify.Absent{UserID: userID, SessionID: session.ID, RecordID: record.ID, Date: session.Date})
		marked = true
		return nil
	})
	if err != nil {
		return false, err
	}

	e.finish(ctx, o)
	return marked, nil
}

// Excuse clears a pending or absent record with a reason
func (e *Engine) Excuse(ctx context.Context, recordID uint, reason string) (*models.AttendanceRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "is required")
	}

	return e.mutateRecord(ctx, "excuse", recordID, func(rc *recordCtx, o *outcome) error {
		rec := rc.record
		if rec.TimeIn != nil || (rec.Status != models.StatusPending && rec.Status != models.StatusAbsent) {
			return ErrCannotExcuse
		}
		rec.Status = models.StatusExcused
		rec.MinutesLate = 0
		rec.Note = reason
		if err := rc.tx.SaveRecord(ctx, rec); err != nil {
			return err
		}

		o.record(rc.now, notify.ActionExcused, rec, reason)
		o.emit(notify.AttendanceUpdated{Record: *rec, Action: notify.ActionExcused})
		return nil
	})
}
