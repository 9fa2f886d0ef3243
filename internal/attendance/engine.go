package attendance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/balkashynov/shiftr/internal/clock"
	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/notify"
)

// Config holds the engine's tunable policy
type Config struct {
	LockTimeout    time.Duration // bounded wait for a record lock
	BreakTolerance time.Duration // grace past the allowance before a sweep force-ends a break
	AutoEndBreaks  bool          // whether SweepBreaks ends overlong breaks at all
	AbsenceCutoff  time.Duration // delay after scheduled time-out before absences may be marked
}

// DefaultConfig returns the stock policy
func DefaultConfig() Config {
	return Config{
		LockTimeout:    2 * time.Second,
		BreakTolerance: 5 * time.Minute,
		AutoEndBreaks:  true,
		AbsenceCutoff:  0,
	}
}

// Deps are the engine's collaborators. Nil fields get defaults.
type Deps struct {
	Clock  clock.Clock
	Bus    *notify.Bus
	Audit  AuditSink
	Logger *log.Logger
}

// Engine is the only code path that mutates attendance
type Engine struct {
	store  Store
	clock  clock.Clock
	bus    *notify.Bus
	audit  AuditSink
	logger *log.Logger
	cfg    Config
	locks  *lockTable
}

// NewEngine wires an engine over store
func NewEngine(store Store, deps Deps, cfg Config) *Engine {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Bus == nil {
		deps.Bus = notify.NewBus(deps.Logger)
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultConfig().LockTimeout
	}
	return &Engine{
		store:  store,
		clock:  deps.Clock,
		bus:    deps.Bus,
		audit:  deps.Audit,
		logger: deps.Logger,
		cfg:    cfg,
		locks:  newLockTable(),
	}
}

// Bus returns the event bus the engine publishes on
func (e *Engine) Bus() *notify.Bus { return e.bus }

// Now returns the engine clock's current time
func (e *Engine) Now() time.Time { return e.clock.Now() }

// outcome collects the side effects of one committed mutation
type outcome struct {
	events []notify.Event
	audit  []models.AuditEntry
}

func (o *outcome) emit(ev notify.Event) {
	o.events = append(o.events, ev)
}

func (o *outcome) record(at time.Time, action string, rec *models.AttendanceRecord, detail string) {
	o.audit = append(o.audit, models.AuditEntry{
		ID:         uuid.NewString(),
		OccurredAt: at,
		Action:     action,
		UserID:     rec.UserID,
		SessionID:  rec.SessionID,
		RecordID:   rec.ID,
		Detail:     detail,
	})
}

// finish runs after commit. Nothing here can undo the mutation.
func (e *Engine) finish(ctx context.Context, o *outcome) {
	if e.audit != nil {
		for _, entry := range o.audit {
			if err := e.audit.Append(ctx, entry); err != nil {
				e.logger.Printf("Failed to append audit entry %s: %v", entry.Action, err)
			}
		}
	}
	for _, ev := range o.events {
		e.bus.Publish(ctx, ev)
	}
}

// fail logs the error classes the caller may not surface and returns err
func (e *Engine) fail(op string, err error) error {
	switch {
	case err == nil, IsPolicyViolation(err), IsValidation(err):
	case IsNotFound(err), IsConcurrency(err):
		e.logger.Printf("%s: %v", op, err)
	default:
		e.logger.Printf("%s failed: %v", op, err)
	}
	return err
}

// recordCtx is everything a record mutation needs, loaded inside the tx
type recordCtx struct {
	tx       Store
	record   *models.AttendanceRecord
	session  *models.Session
	schedule *models.Schedule
	shift    Shift
	now      time.Time
}

func (rc *recordCtx) policy() BreakWindowPolicy {
	return BreakWindowPolicy{Schedule: rc.schedule, Shift: rc.shift}
}

// mutateRecord locks the record, reloads it in a transaction, runs fn and
// publishes fn's outcome once the transaction commits
func (e *Engine) mutateRecord(ctx context.Context, op string, recordID uint, fn func(rc *recordCtx, o *outcome) error) (*models.AttendanceRecord, error) {
	existing, err := e.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, e.fail(op, err)
	}

	release, err := e.locks.acquire(ctx, recordKey(existing.SessionID, existing.UserID), e.cfg.LockTimeout)
	if err != nil {
		return nil, e.fail(op, err)
	}
	defer release()

	var result *models.AttendanceRecord
	o := &outcome{}
	err = e.store.InTx(ctx, func(tx Store) error {
		rc, err := e.loadRecordCtx(ctx, tx, recordID)
		if err != nil {
			return err
		}
		if rc.session.Status != models.SessionActive {
			return ErrSessionNotActive
		}
		if err := fn(rc, o); err != nil {
			return err
		}
		result = rc.record
		return nil
	})
	if err != nil {
		return nil, e.fail(op, err)
	}

	e.finish(ctx, o)
	return result, nil
}

func (e *Engine) loadRecordCtx(ctx context.Context, tx Store, recordID uint) (*recordCtx, error) {
	record, err := tx.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	session, err := tx.GetSession(ctx, record.SessionID)
	if err != nil {
		return nil, err
	}
	schedule, err := tx.GetSchedule(ctx, session.ScheduleID)
	if err != nil {
		return nil, err
	}
	shift, err := ShiftFor(schedule, session.Date)
	if err != nil {
		return nil, fmt.Errorf("laying out session #%d: %w", session.ID, err)
	}
	return &recordCtx{
		tx:       tx,
		record:   record,
		session:  session,
		schedule: schedule,
		shift:    shift,
		now:      e.clock.Now(),
	}, nil
}
