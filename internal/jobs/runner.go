package jobs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/balkashynov/shiftr/internal/attendance"
)

// Runner drives the timer-based parts of the engine: promoting due
// sessions, force-ending overlong breaks and marking absences once a
// session's cutoff has passed
type Runner struct {
	Engine   *attendance.Engine
	Interval time.Duration
	Logger   *log.Logger

	mu   sync.Mutex
	done map[uint]bool // sessions whose absences are settled
}

// TickResult reports what one tick changed
type TickResult struct {
	Promoted    int
	BreaksEnded int
	Absent      int
}

// NewRunner creates a runner ticking every interval
func NewRunner(eng *attendance.Engine, interval time.Duration, lg *log.Logger) *Runner {
	if lg == nil {
		lg = log.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{
		Engine:   eng,
		Interval: interval,
		Logger:   lg,
		done:     make(map[uint]bool),
	}
}

// Run ticks until ctx is cancelled
func (r *Runner) Run(ctx context.Context) error {
	r.Logger.Printf("⏱  Job runner started (every %s)", r.Interval)
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.Logger.Printf("Job runner stopped")
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs every job once. Failures are logged; one failing job does not
// stop the others.
func (r *Runner) Tick(ctx context.Context) TickResult {
	var res TickResult
	lg := r.Logger

	promoted, err := r.Engine.PromoteDueSessions(ctx)
	if err != nil {
		lg.Printf("❌ Promote sessions: %v", err)
	}
	res.Promoted = promoted

	sweep, err := r.Engine.SweepBreaks(ctx)
	if err != nil {
		lg.Printf("❌ Break sweep: %v", err)
	}
	res.BreaksEnded = sweep.Ended

	res.Absent = r.markAbsences(ctx)

	if res != (TickResult{}) {
		lg.Printf("✅ Tick: %d session(s) opened, %d break(s) auto-ended, %d absence(s)",
			res.Promoted, res.BreaksEnded, res.Absent)
	}
	return res
}

func (r *Runner) markAbsences(ctx context.Context) int {
	sessions, err := r.Engine.ActiveSessions(ctx)
	if err != nil {
		r.Logger.Printf("❌ List active sessions: %v", err)
		return 0
	}

	active := make(map[uint]bool, len(sessions))
	for _, s := range sessions {
		active[s.ID] = true
	}
	r.forget(active)

	marked := 0
	for _, s := range sessions {
		if r.settled(s.ID) {
			continue
		}
		res, err := r.Engine.MarkAbsences(ctx, s.ID)
		switch {
		case errors.Is(err, attendance.ErrCutoffNotReached):
			continue
		case err != nil:
			r.Logger.Printf("❌ Mark absences for session #%d: %v", s.ID, err)
			continue
		}
		marked += len(res.Marked)
		if len(res.Skipped) == 0 {
			r.settle(s.ID)
		}
	}
	return marked
}

func (r *Runner) settled(id uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done[id]
}

func (r *Runner) settle(id uint) {
	r.mu.Lock()
	r.done[id] = true
	r.mu.Unlock()
}

// forget drops settled sessions that are no longer active
func (r *Runner) forget(active map[uint]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.done {
		if !active[id] {
			delete(r.done, id)
		}
	}
}
