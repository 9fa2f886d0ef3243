package attendance_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/balkashynov/shiftr/internal/attendance"
	"github.com/balkashynov/shiftr/internal/clock"
	"github.com/balkashynov/shiftr/internal/db"
	"github.com/balkashynov/shiftr/internal/models"
	"github.com/balkashynov/shiftr/internal/notify"
)

const monday = "2024-03-04"

type harness struct {
	eng    *attendance.Engine
	store  *db.Store
	clock  *clock.Fake
	events *notify.Recorder
	logs   *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := db.Open(db.Options{DSN: filepath.Join(t.TempDir(), "shiftr.db")})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := &harness{
		store:  store,
		clock:  clock.NewFake(at(monday, 6, 0, 0)),
		events: &notify.Recorder{},
		logs:   &bytes.Buffer{},
	}
	logger := log.New(h.logs, "", 0)
	bus := notify.NewBus(logger)
	bus.Subscribe(func(ctx context.Context, env notify.Envelope) { h.events.Send(ctx, env.Event) })

	h.eng = attendance.NewEngine(store, attendance.Deps{
		Clock:  h.clock,
		Bus:    bus,
		Audit:  store,
		Logger: logger,
	}, attendance.DefaultConfig())
	return h
}

func at(date string, hour, minute, sec int) time.Time {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(sec)*time.Second)
}

func dayShift() attendance.ScheduleInput {
	return attendance.ScheduleInput{
		Name:                 "day",
		TimeIn:               "08:00",
		TimeOut:              "17:00",
		BreakStart:           "12:00",
		BreakEnd:             "13:00",
		BreakMaxMinutes:      60,
		MaxBreaks:            1,
		GracePeriodMinutes:   10,
		LateThresholdMinutes: 15,
		Timezone:             "UTC",
	}
}

// openSession creates the schedule, puts users on its roster and activates
// the session for date with the clock at activateAt
func (h *harness) openSession(t *testing.T, in attendance.ScheduleInput, date string, activateAt time.Time, users ...string) *models.Session {
	t.Helper()
	ctx := context.Background()
	schedule, err := h.eng.CreateSchedule(ctx, in)
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	if len(users) > 0 {
		if err := h.eng.AssignUsers(ctx, schedule.ID, users...); err != nil {
			t.Fatalf("AssignUsers: %v", err)
		}
	}
	h.clock.Set(activateAt)
	session, err := h.eng.ActivateSessionForDate(ctx, schedule.ID, date)
	if err != nil {
		t.Fatalf("ActivateSessionForDate: %v", err)
	}
	return session
}

func (h *harness) checkIn(t *testing.T, user string, sessionID uint, now time.Time) *models.AttendanceRecord {
	t.Helper()
	h.clock.Set(now)
	record, err := h.eng.CheckIn(context.Background(), user, sessionID)
	if err != nil {
		t.Fatalf("CheckIn(%s): %v", user, err)
	}
	return record
}

func TestCheckInGracePeriod(t *testing.T) {
	tests := []struct {
		name       string
		hour       int
		minute     int
		sec        int
		wantStatus string
		wantLate   int
	}{
		{"early arrival", 7, 55, 0, models.StatusPresent, 0},
		{"on time", 8, 0, 0, models.StatusPresent, 0},
		{"end of grace", 8, 10, 0, models.StatusPresent, 0},
		{"partial minute past grace", 8, 10, 59, models.StatusPresent, 0},
		{"one minute past grace", 8, 11, 0, models.StatusLate, 1},
		{"an hour late", 9, 0, 0, models.StatusLate, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0))

			record := h.checkIn(t, "ana", session.ID, at(monday, tt.hour, tt.minute, tt.sec))

			if record.Status != tt.wantStatus {
				t.Errorf("Expected status %s, got %s", tt.wantStatus, record.Status)
			}
			if record.MinutesLate != tt.wantLate {
				t.Errorf("Expected %d minutes late, got %d", tt.wantLate, record.MinutesLate)
			}
			late := h.events.OfKind(notify.KindLateArrival)
			if (tt.wantStatus == models.StatusLate) != (len(late) == 1) {
				t.Errorf("Expected LateArrival only when late, got %d", len(late))
			}
		})
	}
}

func TestCheckInTwiceIsRejected(t *testing.T) {
	h := newHarness(t)
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0))
	h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))

	_, err := h.eng.CheckIn(context.Background(), "ana", session.ID)
	if !errors.Is(err, attendance.ErrAlreadyCheckedIn) {
		t.Errorf("Expected ErrAlreadyCheckedIn, got %v", err)
	}
}

func TestCheckInValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.eng.CheckIn(ctx, "  ", 1); !attendance.IsValidation(err) {
		t.Errorf("Expected validation error for blank user, got %v", err)
	}
	if _, err := h.eng.CheckIn(ctx, "ana", 42); !attendance.IsNotFound(err) {
		t.Errorf("Expected not found for unknown session, got %v", err)
	}
}

func TestRoundTripHoursWorked(t *testing.T) {
	h := newHarness(t)
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0))
	record := h.checkIn(t, "ana", session.ID, at(monday, 8, 3, 0))

	h.clock.Set(at(monday, 17, 7, 0))
	out, err := h.eng.CheckOut(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	want := 9.07 // 9h04m
	if diff := out.HoursWorked - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("Expected ~%.2f hours, got %.2f", want, out.HoursWorked)
	}
	if out.Status != models.StatusPresent {
		t.Errorf("Expected present, got %s", out.Status)
	}
	if _, err := h.eng.CheckOut(context.Background(), record.ID); !errors.Is(err, attendance.ErrAlreadyCheckedOut) {
		t.Errorf("Expected ErrAlreadyCheckedOut, got %v", err)
	}
}

func TestCheckOutEarly(t *testing.T) {
	tests := []struct {
		name       string
		checkIn    time.Time
		checkOut   time.Time
		wantStatus string
		wantLate   int
	}{
		{"inside leave-early allowance", at(monday, 8, 0, 0), at(monday, 16, 45, 0), models.StatusPresent, 0},
		{"present leaves early", at(monday, 8, 0, 0), at(monday, 16, 44, 0), models.StatusLeftEarly, 0},
		{"late keeps minutes late", at(monday, 8, 30, 0), at(monday, 15, 0, 0), models.StatusLeftEarly, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0))
			record := h.checkIn(t, "ana", session.ID, tt.checkIn)

			h.clock.Set(tt.checkOut)
			out, err := h.eng.CheckOut(context.Background(), record.ID)
			if err != nil {
				t.Fatalf("CheckOut: %v", err)
			}
			if out.Status != tt.wantStatus || out.MinutesLate != tt.wantLate {
				t.Errorf("Expected %s/%d, got %s/%d", tt.wantStatus, tt.wantLate, out.Status, out.MinutesLate)
			}
		})
	}
}

func TestOvernightShift(t *testing.T) {
	h := newHarness(t)
	night := attendance.ScheduleInput{
		Name:               "night",
		TimeIn:             "22:00",
		TimeOut:            "06:00",
		BreakStart:         "01:00",
		BreakEnd:           "02:00",
		BreakMaxMinutes:    30,
		GracePeriodMinutes: 10,
		Timezone:           "UTC",
	}
	session := h.openSession(t, night, monday, at(monday, 21, 50, 0))
	record := h.checkIn(t, "ana", session.ID, at(monday, 22, 5, 0))
	if record.Status != models.StatusPresent {
		t.Fatalf("Expected present, got %s", record.Status)
	}

	// the break window is after midnight
	h.clock.Set(at(monday, 23, 0, 0))
	if _, err := h.eng.StartBreak(context.Background(), record.ID, ""); !errors.Is(err, attendance.ErrOutsideBreakWindow) {
		t.Errorf("Expected ErrOutsideBreakWindow before midnight, got %v", err)
	}

	h.clock.Set(at("2024-03-05", 6, 10, 0))
	out, err := h.eng.CheckOut(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if out.HoursWorked != 8.08 {
		t.Errorf("Expected 8.08 hours, got %.2f", out.HoursWorked)
	}
	if out.Status != models.StatusPresent {
		t.Errorf("Expected present, got %s", out.Status)
	}
}

func TestOvernightBreakWindow(t *testing.T) {
	h := newHarness(t)
	night := attendance.ScheduleInput{
		Name:            "night",
		TimeIn:          "22:00",
		TimeOut:         "06:00",
		BreakStart:      "01:00",
		BreakEnd:        "02:00",
		BreakMaxMinutes: 30,
		Timezone:        "UTC",
	}
	session := h.openSession(t, night, monday, at(monday, 22, 0, 0))
	record := h.checkIn(t, "ana", session.ID, at(monday, 22, 0, 0))

	h.clock.Set(at("2024-03-05", 1, 30, 0))
	got, err := h.eng.StartBreak(context.Background(), record.ID, models.BreakMeal)
	if err != nil {
		t.Fatalf("StartBreak: %v", err)
	}
	if !got.OnBreak() {
		t.Error("Expected record to be on break")
	}
}

func TestBreakWindowBoundary(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		wantErr error
	}{
		{"before window", at(monday, 11, 59, 59), attendance.ErrOutsideBreakWindow},
		{"window opens", at(monday, 12, 0, 0), nil},
		{"exactly window end", at(monday, 13, 0, 0), nil},
		{"one second past end", at(monday, 13, 0, 1), attendance.ErrOutsideBreakWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0))
			record := h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))

			h.clock.Set(tt.start)
			_, err := h.eng.StartBreak(context.Background(), record.ID, models.BreakCoffee)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBreakLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0), "ana")

	pending, err := h.store.FindRecord(ctx, "ana", session.ID)
	if err != nil || pending == nil {
		t.Fatalf("Expected seeded record, got %v, %v", pending, err)
	}
	h.clock.Set(at(monday, 12, 0, 0))
	if _, err := h.eng.StartBreak(ctx, pending.ID, ""); !errors.Is(err, attendance.ErrNotCheckedIn) {
		t.Errorf("Expected ErrNotCheckedIn, got %v", err)
	}
	if _, err := h.eng.StartBreak(ctx, pending.ID, "nap"); !attendance.IsValidation(err) {
		t.Errorf("Expected validation error for unknown type, got %v", err)
	}

	record := h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))
	if record.ID != pending.ID {
		t.Errorf("Expected check-in to reuse record #%d, got #%d", pending.ID, record.ID)
	}

	h.clock.Set(at(monday, 12, 5, 0))
	if _, err := h.eng.EndBreak(ctx, record.ID); !errors.Is(err, attendance.ErrNoActiveBreak) {
		t.Errorf("Expected ErrNoActiveBreak, got %v", err)
	}
	if _, err := h.eng.StartBreak(ctx, record.ID, ""); err != nil {
		t.Fatalf("StartBreak: %v", err)
	}
	if _, err := h.eng.StartBreak(ctx, record.ID, ""); !errors.Is(err, attendance.ErrBreakInProgress) {
		t.Errorf("Expected ErrBreakInProgress, got %v", err)
	}

	h.clock.Set(at(monday, 12, 35, 0))
	ended, err := h.eng.EndBreak(ctx, record.ID)
	if err != nil {
		t.Fatalf("EndBreak: %v", err)
	}
	if ended.OnBreak() || len(ended.Breaks) != 1 || ended.Breaks[0].DurationMinutes != 30 {
		t.Errorf("Unexpected record after break: %+v", ended)
	}

	h.clock.Set(at(monday, 12, 40, 0))
	if _, err := h.eng.StartBreak(ctx, record.ID, ""); !errors.Is(err, attendance.ErrBreakAlreadyUsed) {
		t.Errorf("Expected ErrBreakAlreadyUsed, got %v", err)
	}

	updates := h.events.OfKind(notify.KindBreakUpdated)
	if len(updates) != 2 {
		t.Fatalf("Expected 2 break updates, got %d", len(updates))
	}
	if got := updates[0].(notify.BreakUpdated); got.Action != notify.ActionBreakStart || got.BreakType != models.BreakRegular {
		t.Errorf("Unexpected first update %+v", got)
	}
	if len(h.events.OfKind(notify.KindBreakExceeded)) != 0 {
		t.Error("Expected no BreakExceeded for a 30 minute break")
	}
}

func TestMultipleBreaksAndOverage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := dayShift()
	in.MaxBreaks = 2
	session := h.openSession(t, in, monday, at(monday, 7, 50, 0))
	record := h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))

	steps := []struct {
		at    time.Time
		start bool
	}{
		{at(monday, 12, 0, 0), true},
		{at(monday, 12, 20, 0), false},
		{at(monday, 12, 30, 0), true},
		{at(monday, 13, 20, 0), false}, // 50 more, 10 over
	}
	for _, s := range steps {
		h.clock.Set(s.at)
		var err error
		if s.start {
			_, err = h.eng.StartBreak(ctx, record.ID, models.BreakCoffee)
		} else {
			_, err = h.eng.EndBreak(ctx, record.ID)
		}
		if err != nil {
			t.Fatalf("break step at %s: %v", s.at.Format("15:04"), err)
		}
	}

	exceeded := h.events.OfKind(notify.KindBreakExceeded)
	if len(exceeded) != 1 {
		t.Fatalf("Expected one BreakExceeded, got %d", len(exceeded))
	}
	if ev := exceeded[0].(notify.BreakExceeded); ev.ExcessMinutes != 10 || ev.AutoEnded {
		t.Errorf("Expected 10 min manual overage, got %+v", ev)
	}

	h.clock.Set(at(monday, 17, 0, 0))
	out, err := h.eng.CheckOut(ctx, record.ID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if out.HoursWorked != 7.83 { // 9h less 70m of breaks
		t.Errorf("Expected 7.83 hours, got %.2f", out.HoursWorked)
	}
}

func TestCheckOutClosesOpenBreak(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0))
	record := h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))

	h.clock.Set(at(monday, 12, 0, 0))
	if _, err := h.eng.StartBreak(ctx, record.ID, ""); err != nil {
		t.Fatalf("StartBreak: %v", err)
	}
	h.clock.Set(at(monday, 12, 30, 0))
	out, err := h.eng.CheckOut(ctx, record.ID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	if out.OnBreak() || out.Breaks[0].End == nil {
		t.Fatal("Expected the open break to be closed")
	}
	if out.HoursWorked != 4 {
		t.Errorf("Expected 4 hours, got %.2f", out.HoursWorked)
	}
	if out.Status != models.StatusLeftEarly {
		t.Errorf("Expected left_early, got %s", out.Status)
	}
}

func TestSweepForceEndsOverlongBreak(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0))
	record := h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))

	start := at(monday, 12, 0, 0)
	h.clock.Set(start)
	if _, err := h.eng.StartBreak(ctx, record.ID, ""); err != nil {
		t.Fatalf("StartBreak: %v", err)
	}

	// within allowance plus tolerance
	h.clock.Set(start.Add(64 * time.Minute))
	res, err := h.eng.SweepBreaks(ctx)
	if err != nil || res.Ended != 0 {
		t.Fatalf("Expected nothing ended at T+64, got %+v (%v)", res, err)
	}

	h.clock.Set(start.Add(75 * time.Minute))
	res, err = h.eng.SweepBreaks(ctx)
	if err != nil || res.Ended != 1 {
		t.Fatalf("Expected one break ended at T+75, got %+v (%v)", res, err)
	}

	got, err := h.store.GetRecord(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	b := got.Breaks[0]
	if b.End == nil || !b.End.Equal(start.Add(60*time.Minute)) {
		t.Errorf("Expected break to end at T+60, got %v", b.End)
	}
	if !b.AutoEnded || b.DurationMinutes != 60 {
		t.Errorf("Expected auto-ended 60 minute break, got %+v", b)
	}

	exceeded := h.events.OfKind(notify.KindBreakExceeded)
	if len(exceeded) != 1 {
		t.Fatalf("Expected one BreakExceeded, got %d", len(exceeded))
	}
	if ev := exceeded[0].(notify.BreakExceeded); ev.ExcessMinutes != 15 || !ev.AutoEnded || ev.AllowedMinutes != 60 {
		t.Errorf("Expected 15 min auto-ended overage, got %+v", ev)
	}

	res, err = h.eng.SweepBreaks(ctx)
	if err != nil || res.Ended != 0 {
		t.Errorf("Expected second sweep to be a no-op, got %+v (%v)", res, err)
	}
}

func TestSweepIgnoresLockedSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0))
	record := h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))

	start := at(monday, 12, 0, 0)
	h.clock.Set(start)
	if _, err := h.eng.StartBreak(ctx, record.ID, ""); err != nil {
		t.Fatalf("StartBreak: %v", err)
	}
	if _, err := h.eng.LockSession(ctx, session.ID); err != nil {
		t.Fatalf("LockSession: %v", err)
	}

	h.clock.Set(start.Add(3 * time.Hour))
	for i := 0; i < 2; i++ {
		res, err := h.eng.SweepBreaks(ctx)
		if err != nil || res != (attendance.SweepResult{}) {
			t.Fatalf("Expected locked session to be left alone, got %+v (%v)", res, err)
		}
	}

	got, err := h.store.GetRecord(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !got.OnBreak() || got.Breaks[0].End != nil {
		t.Errorf("Expected the frozen break to stay as it was, got %+v", got.Breaks)
	}
}

func TestSweepDisabled(t *testing.T) {
	h := newHarness(t)
	cfg := attendance.DefaultConfig()
	cfg.AutoEndBreaks = false
	eng := attendance.NewEngine(h.store, attendance.Deps{Clock: h.clock}, cfg)

	res, err := eng.SweepBreaks(context.Background())
	if err != nil || res.Ended != 0 {
		t.Errorf("Expected disabled sweep to do nothing, got %+v (%v)", res, err)
	}
}

func TestConcurrentCheckIn(t *testing.T) {
	h := newHarness(t)
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0), "ana")
	h.clock.Set(at(monday, 8, 0, 0))

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	startLine := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-startLine
			_, err := h.eng.CheckIn(context.Background(), "ana", session.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	close(startLine)
	wg.Wait()

	if successes != 1 {
		t.Fatalf("Expected exactly one successful check-in, got %d", successes)
	}
	for _, err := range failures {
		if !errors.Is(err, attendance.ErrAlreadyCheckedIn) && !attendance.IsConcurrency(err) {
			t.Errorf("Unexpected failure: %v", err)
		}
	}
	if n := len(h.events.OfKind(notify.KindAttendanceUpdated)); n != 1 {
		t.Errorf("Expected one AttendanceUpdated, got %d", n)
	}
}

func TestMarkAbsences(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0), "ana", "bob", "cy")
	h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))
	if err := h.eng.AssignUsers(ctx, session.ScheduleID, "dan"); err != nil {
		t.Fatalf("AssignUsers: %v", err)
	}

	h.clock.Set(at(monday, 16, 59, 59))
	if _, err := h.eng.MarkAbsences(ctx, session.ID); !errors.Is(err, attendance.ErrCutoffNotReached) {
		t.Fatalf("Expected ErrCutoffNotReached, got %v", err)
	}

	h.clock.Set(at(monday, 17, 0, 0))
	res, err := h.eng.MarkAbsences(ctx, session.ID)
	if err != nil {
		t.Fatalf("MarkAbsences: %v", err)
	}
	if len(res.Marked) != 3 || res.Marked[0] != "bob" || res.Marked[2] != "dan" {
		t.Errorf("Expected bob, cy and dan marked, got %v", res.Marked)
	}

	again, err := h.eng.MarkAbsences(ctx, session.ID)
	if err != nil {
		t.Fatalf("second MarkAbsences: %v", err)
	}
	if len(again.Marked) != 0 {
		t.Errorf("Expected second pass to mark nobody, got %v", again.Marked)
	}

	absent := h.events.OfKind(notify.KindAbsent)
	if len(absent) != 3 {
		t.Errorf("Expected exactly 3 Absent notifications, got %d", len(absent))
	}
	records, err := h.store.ListSessionRecords(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListSessionRecords: %v", err)
	}
	for _, r := range records {
		want := models.StatusAbsent
		if r.UserID == "ana" {
			want = models.StatusPresent
		}
		if r.Status != want {
			t.Errorf("Expected %s to be %s, got %s", r.UserID, want, r.Status)
		}
	}
}

func TestExcuse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0), "ana", "bob")
	present := h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))

	h.clock.Set(at(monday, 17, 0, 0))
	if _, err := h.eng.MarkAbsences(ctx, session.ID); err != nil {
		t.Fatalf("MarkAbsences: %v", err)
	}
	bob, err := h.store.FindRecord(ctx, "bob", session.ID)
	if err != nil || bob == nil {
		t.Fatalf("FindRecord: %v, %v", bob, err)
	}
	h.clock.Set(at(monday, 17, 5, 0))

	if _, err := h.eng.Excuse(ctx, bob.ID, " "); !attendance.IsValidation(err) {
		t.Errorf("Expected validation error for blank reason, got %v", err)
	}
	excused, err := h.eng.Excuse(ctx, bob.ID, "doctor")
	if err != nil {
		t.Fatalf("Excuse: %v", err)
	}
	if excused.Status != models.StatusExcused || excused.Note != "doctor" {
		t.Errorf("Unexpected excused record %+v", excused)
	}
	if _, err := h.eng.Excuse(ctx, present.ID, "late bus"); !errors.Is(err, attendance.ErrCannotExcuse) {
		t.Errorf("Expected ErrCannotExcuse for a checked-in record, got %v", err)
	}

	trail, err := h.store.ListAudit(ctx, bob.ID, 0)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(trail) != 2 || trail[1].Action != notify.ActionExcused || trail[1].Detail != "doctor" {
		t.Errorf("Unexpected audit trail %+v", trail)
	}
}

func TestLockedSessionRejectsMutations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0), "ana", "bob")
	record := h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))

	if _, err := h.eng.LockSession(ctx, session.ID); err != nil {
		t.Fatalf("LockSession: %v", err)
	}
	if _, err := h.eng.LockSession(ctx, session.ID); !errors.Is(err, attendance.ErrSessionNotActive) {
		t.Errorf("Expected relocking to fail, got %v", err)
	}

	h.clock.Set(at(monday, 12, 0, 0))
	checks := map[string]func() error{
		"check in":  func() error { _, err := h.eng.CheckIn(ctx, "bob", session.ID); return err },
		"break":     func() error { _, err := h.eng.StartBreak(ctx, record.ID, ""); return err },
		"check out": func() error { _, err := h.eng.CheckOut(ctx, record.ID); return err },
	}
	for name, fn := range checks {
		if err := fn(); !errors.Is(err, attendance.ErrSessionNotActive) {
			t.Errorf("%s: expected ErrSessionNotActive, got %v", name, err)
		}
	}
}

func TestSessionActivation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	schedule, err := h.eng.CreateSchedule(ctx, dayShift())
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	h.clock.Set(at(monday, 6, 0, 0))
	first, err := h.eng.ActivateSessionForDate(ctx, schedule.ID, monday)
	if err != nil {
		t.Fatalf("ActivateSessionForDate: %v", err)
	}
	if first.Status != models.SessionPending {
		t.Fatalf("Expected pending before activation time, got %s", first.Status)
	}
	again, err := h.eng.ActivateSessionForDate(ctx, schedule.ID, monday)
	if err != nil || again.ID != first.ID {
		t.Fatalf("Expected pending session to be reused, got %v, %v", again, err)
	}

	if _, err := h.eng.CheckIn(ctx, "ana", first.ID); !errors.Is(err, attendance.ErrSessionNotActive) {
		t.Errorf("Expected ErrSessionNotActive before activation, got %v", err)
	}

	// lazily promoted by the first check-in once due
	record := h.checkIn(t, "ana", first.ID, at(monday, 7, 50, 0))
	if record.Status != models.StatusPresent {
		t.Errorf("Expected present, got %s", record.Status)
	}

	_, err = h.eng.ActivateSessionForDate(ctx, schedule.ID, monday)
	var dup *attendance.DuplicateSessionError
	if !errors.As(err, &dup) || dup.Status != models.SessionActive {
		t.Errorf("Expected DuplicateSessionError, got %v", err)
	}

	if _, err := h.eng.ActivateSessionForDate(ctx, schedule.ID, "04/03/2024"); !attendance.IsValidation(err) {
		t.Errorf("Expected validation error for bad date, got %v", err)
	}
}

func TestPromoteDueSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	schedule, err := h.eng.CreateSchedule(ctx, dayShift())
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	if err := h.eng.AssignUsers(ctx, schedule.ID, "ana", "bob"); err != nil {
		t.Fatalf("AssignUsers: %v", err)
	}
	session, err := h.eng.ActivateSessionForDate(ctx, schedule.ID, monday)
	if err != nil {
		t.Fatalf("ActivateSessionForDate: %v", err)
	}

	if n, err := h.eng.PromoteDueSessions(ctx); err != nil || n != 0 {
		t.Fatalf("Expected nothing due at 06:00, got %d (%v)", n, err)
	}

	h.clock.Set(at(monday, 7, 50, 0))
	if n, err := h.eng.PromoteDueSessions(ctx); err != nil || n != 1 {
		t.Fatalf("Expected one session promoted, got %d (%v)", n, err)
	}
	records, err := h.store.ListSessionRecords(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListSessionRecords: %v", err)
	}
	if len(records) != 2 || records[0].Status != models.StatusPending {
		t.Errorf("Expected 2 pending records seeded, got %+v", records)
	}
}

func TestCreateScheduleValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *attendance.ScheduleInput)
		wantField string
	}{
		{"blank name", func(in *attendance.ScheduleInput) { in.Name = " " }, "name"},
		{"bad clock", func(in *attendance.ScheduleInput) { in.TimeIn = "25:00" }, "time_in"},
		{"same in and out", func(in *attendance.ScheduleInput) { in.TimeOut = "08:00" }, "time_out"},
		{"empty break window", func(in *attendance.ScheduleInput) { in.BreakEnd = "12:00" }, "break_end"},
		{"break outside shift", func(in *attendance.ScheduleInput) { in.BreakStart, in.BreakEnd = "18:00", "19:00" }, "break_window"},
		{"inverted break window", func(in *attendance.ScheduleInput) { in.BreakStart, in.BreakEnd = "13:00", "12:00" }, "break_window"},
		{"inverted overnight break", func(in *attendance.ScheduleInput) {
			in.TimeIn, in.TimeOut, in.BreakStart, in.BreakEnd = "22:00", "06:00", "02:00", "01:00"
		}, "break_window"},
		{"zero break max", func(in *attendance.ScheduleInput) { in.BreakMaxMinutes = 0 }, "break_max_minutes"},
		{"negative grace", func(in *attendance.ScheduleInput) { in.GracePeriodMinutes = -1 }, "minutes"},
		{"unknown timezone", func(in *attendance.ScheduleInput) { in.Timezone = "Mars/Olympus" }, "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			in := dayShift()
			tt.mutate(&in)

			_, err := h.eng.CreateSchedule(context.Background(), in)
			var ve *attendance.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Expected field %s, got %s", tt.wantField, ve.Field)
			}
		})
	}
}

func TestCreateScheduleDefaults(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := dayShift()
	in.TimeIn = "8:00"
	in.MaxBreaks = 0

	schedule, err := h.eng.CreateSchedule(ctx, in)
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	if schedule.TimeIn != "08:00" || schedule.MaxBreaks != 1 || schedule.LeaveEarlyMinutes != 15 {
		t.Errorf("Unexpected defaults %+v", schedule)
	}

	if _, err := h.eng.CreateSchedule(ctx, dayShift()); !attendance.IsValidation(err) {
		t.Errorf("Expected duplicate name to be rejected, got %v", err)
	}
}

func TestStatusAndReport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.openSession(t, dayShift(), monday, at(monday, 7, 50, 0), "ana", "bob")
	h.checkIn(t, "ana", session.ID, at(monday, 8, 0, 0))

	mine, err := h.eng.Status(ctx, "ana", monday)
	if err != nil || len(mine) != 1 || mine[0].TimeIn == nil {
		t.Fatalf("Status = %+v, %v", mine, err)
	}

	all, err := h.eng.Report(ctx, "", "2024-03-04", "2024-03-10")
	if err != nil || len(all) != 2 {
		t.Errorf("Expected 2 records in report, got %d (%v)", len(all), err)
	}
	if _, err := h.eng.Report(ctx, "ana", "2024-03-10", "2024-03-04"); !attendance.IsValidation(err) {
		t.Errorf("Expected inverted range to be rejected, got %v", err)
	}
}
