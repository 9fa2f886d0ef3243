package attendance

import (
	"context"
	"fmt"

	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/notify"
)

// StartBreak opens a break of breakType ("regular" when empty)
func (e *Engine) StartBreak(ctx context.Context, recordID uint, breakType string) (*models.AttendanceRecord, error) {
	if breakType == "" {
		breakType = models.BreakRegular
	}
	switch breakType {
	case models.BreakRegular, models.BreakCoffee, models.BreakMeal:
	default:
		return nil, invalid("type", "unknown break type %q (regular, coffee, meal)", breakType)
	}

	return e.mutateRecord(ctx, "start break", recordID, func(rc *recordCtx, o *outcome) error {
		if err := rc.policy().CanStart(rc.record, rc.record.Breaks, rc.now); err != nil {
			return err
		}

		entry := &models.BreakEntry{
			AttendanceRecordID: rc.record.ID,
			Type:               breakType,
			Start:              rc.now,
		}
		if err := rc.tx.CreateBreak(ctx, entry); err != nil {
			return err
		}
		rc.record.Breaks = append(rc.record.Breaks, *entry)
		rc.record.BreakStart = &entry.Start
		rc.record.BreakEnd = nil
		if err := rc.tx.SaveRecord(ctx, rc.record); err != nil {
			return err
		}

		o.record(rc.now, notify.ActionBreakStart, rc.record, "type="+breakType)
		o.emit(notify.BreakUpdated{Record: *rc.record, Action: notify.ActionBreakStart, BreakType: breakType})
		return nil
	})
}

// EndBreak closes the open break. Running over the allowance is reported
// but never refused.
func (e *Engine) EndBreak(ctx context.Context, recordID uint) (*models.AttendanceRecord, error) {
	return e.mutateRecord(ctx, "end break", recordID, func(rc *recordCtx, o *outcome) error {
		open, err := rc.policy().CanEnd(rc.record, rc.record.Breaks)
		if err != nil {
			return err
		}
		return e.closeBreak(ctx, rc, o, open)
	})
}

// closeBreak ends open at rc.now and reports any overage
func (e *Engine) closeBreak(ctx context.Context, rc *recordCtx, o *outcome, open *models.BreakEntry) error {
	end := after(rc.now, open.Start)
	open.End = &end
	open.DurationMinutes = wholeMinutes(end.Sub(open.Start))
	if err := rc.tx.SaveBreak(ctx, open); err != nil {
		return err
	}
	rc.record.BreakStart = &open.Start
	rc.record.BreakEnd = &end
	if err := rc.tx.SaveRecord(ctx, rc.record); err != nil {
		return err
	}

	o.record(rc.now, notify.ActionBreakEnd, rc.record, fmt.Sprintf("type=%s minutes=%d", open.Type, open.DurationMinutes))
	o.emit(notify.BreakUpdated{Record: *rc.record, Action: notify.ActionBreakEnd, BreakType: open.Type})

	if excess := rc.policy().Excess(rc.record.Breaks); excess > 0 {
		o.emit(notify.BreakExceeded{
			UserID:         rc.record.UserID,
			RecordID:       rc.record.ID,
			BreakID:        open.ID,
			AllowedMinutes: rc.schedule.BreakMaxMinutes,
			ExcessMinutes:  excess,
		})
	}
	return nil
}

// SweepResult summarises one break sweep
type SweepResult struct {
	Ended   int `json:"ended"`
	Skipped int `json:"skipped"`
}

// SweepBreaks force-ends breaks that ran past their allowance plus the
// configured tolerance. Each is closed at start + allowance. Records whose
// lock is busy are left for the next sweep.
func (e *Engine) SweepBreaks(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	if !e.cfg.AutoEndBreaks {
		return res, nil
	}

	open, err := e.store.ListOpenBreaks(ctx)
	if err != nil {
		return res, e.fail("sweep breaks", err)
	}

	for _, b := range open {
		ended, err := e.sweepBreak(ctx, b)
		switch {
		case err != nil:
			res.Skipped++
			if !IsPolicyViolation(err) {
				e.logger.Printf("sweep break #%d: %v", b.ID, err)
			}
		case ended:
			res.Ended++
		}
	}
	return res, nil
}

func (e *Engine) sweepBreak(ctx context.Context, b models.BreakEntry) (bool, error) {
	record, err := e.store.GetRecord(ctx, b.AttendanceRecordID)
	if err != nil {
		return false, err
	}

	release, ok := e.locks.tryAcquire(recordKey(record.SessionID, record.UserID))
	if !ok {
		return false, ErrConcurrentModification
	}
	defer release()

	ended := false
	o := &outcome{}
	err = e.store.InTx(ctx, func(tx Store) error {
		rc, err := e.loadRecordCtx(ctx, tx, record.ID)
		if err != nil {
			return err
		}
		if rc.session.Status != models.SessionActive {
			return nil
		}
		open := OpenBreak(rc.record.Breaks)
		if open == nil || open.ID != b.ID {
			return nil
		}

		allowance := rc.policy().Allowance(rc.record.Breaks)
		elapsed := wholeMinutes(rc.now.Sub(open.Start))
		if rc.now.Sub(open.Start) <= minutes(allowance)+e.cfg.BreakTolerance {
			return nil
		}

		end := after(open.Start.Add(minutes(allowance)), open.Start)
		open.End = &end
		open.DurationMinutes = wholeMinutes(end.Sub(open.Start))
		open.AutoEnded = true
		if err := tx.SaveBreak(ctx, open); err != nil {
			return err
		}
		rc.record.BreakStart = &open.Start
		rc.record.BreakEnd = &end
		if err := tx.SaveRecord(ctx, rc.record); err != nil {
			return err
		}

		o.record(rc.now, notify.ActionAutoEnded, rc.record, fmt.Sprintf("allowed=%d elapsed=%d", allowance, elapsed))
		o.emit(notify.BreakUpdated{Record: *rc.record, Action: notify.ActionAutoEnded, BreakType: open.Type})
		o.emit(notify.BreakExceeded{
			UserID:         rc.record.UserID,
			RecordID:       rc.record.ID,
			BreakID:        open.ID,
			AllowedMinutes: allowance,
			ExcessMinutes:  elapsed - allowance,
			AutoEnded:      true,
		})
		ended = true
		return nil
	})
	if err != nil {
		return false, err
	}

	e.finish(ctx, o)
	return ended, nil
}
