package attendance

import (
	"context"
	"fmt"

	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/notify"
)

// CheckOut times the record out, closing any open break at the same
// moment, and settles hours worked
func (e *Engine) CheckOut(ctx context.Context, recordID uint) (*models.AttendanceRecord, error) {
	return e.mutateRecord(ctx, "check out", recordID, func(rc *recordCtx, o *outcome) error {
		rec := rc.record
		if rec.TimeIn == nil {
			return ErrNotCheckedIn
		}
		if rec.TimeOut != nil {
			return ErrAlreadyCheckedOut
		}

		if open := OpenBreak(rec.Breaks); open != nil {
			if err := e.closeBreak(ctx, rc, o, open); err != nil {
				return err
			}
		}

		out := after(rc.now, *rec.TimeIn)
		if rec.BreakEnd != nil && rec.BreakEnd.After(out) {
			out = *rec.BreakEnd
		}
		rec.TimeOut = &out
		rec.HoursWorked = HoursWorked(*rec.TimeIn, out, rec.Breaks)

		if LeftEarly(rc.schedule, rc.shift, out) &&
			(rec.Status == models.StatusPresent || rec.Status == models.StatusLate) {
			rec.Status = models.StatusLeftEarly
		}
		if err := rc.tx.SaveRecord(ctx, rec); err != nil {
			return err
		}

		o.record(rc.now, notify.ActionCheckedOut, rec, fmt.Sprintf("status=%s hours=%.2f", rec.Status, rec.HoursWorked))
		o.emit(notify.AttendanceUpdated{Record: *rec, Action: notify.ActionCheckedOut})
		return nil
	})
}
