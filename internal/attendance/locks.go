package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// lockTable hands out one single-holder semaphore per key. Entries are
// dropped once nobody holds or waits on them.
type lockTable struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[string]*lockEntry)}
}

func (t *lockTable) ref(key string) *lockEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		t.entries[key] = e
	}
	e.refs++
	return e
}

func (t *lockTable) unref(key string, e *lockEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(t.entries, key)
	}
}

// acquire waits up to timeout for key
func (t *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	e := t.ref(key)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := e.sem.Acquire(waitCtx, 1); err != nil {
		t.unref(key, e)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			t.unref(key, e)
		})
	}, nil
}

// tryAcquire takes key only if it is free right now
func (t *lockTable) tryAcquire(key string) (func(), bool) {
	e := t.ref(key)
	if !e.sem.TryAcquire(1) {
		t.unref(key, e)
		return nil, false
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			t.unref(key, e)
		})
	}, true
}

// recordKey serialises everything touching one employee's attendance for
// one session, including the check-in that creates the record
func recordKey(sessionID uint, userID string) string {
	return fmt.Sprintf("record:%d:%s", sessionID, userID)
}

func sessionKey(sessionID uint) string {
	return fmt.Sprintf("session:%d", sessionID)
}

func scheduleDateKey(scheduleID uint, date string) string {
	return fmt.Sprintf("schedule:%d:%s", scheduleID, date)
}
