package attendance

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PolicyViolation is an expected, user-facing refusal of an action
type PolicyViolation struct {
	Code    string
	Message string
}

func (e *PolicyViolation) Error() string { return e.Message }

var (
	ErrSessionNotActive   = &PolicyViolation{"session_not_active", "This session is not open for attendance"}
	ErrAlreadyCheckedIn   = &PolicyViolation{"already_checked_in", "You have already timed in for this session"}
	ErrAlreadyCheckedOut  = &PolicyViolation{"already_checked_out", "You have already timed out for this session"}
	ErrNotCheckedIn       = &PolicyViolation{"not_checked_in", "You must time in first"}
	ErrOutsideBreakWindow = &PolicyViolation{"outside_break_window", "Breaks can only be taken during the break window"}
	ErrBreakAlreadyUsed   = &PolicyViolation{"break_already_used", "You have already used your break allowance for today"}
	ErrBreakInProgress    = &PolicyViolation{"break_in_progress", "You are already on a break"}
	ErrNoActiveBreak      = &PolicyViolation{"no_active_break", "You are not on a break"}
	ErrCutoffNotReached   = &PolicyViolation{"cutoff_not_reached", "Absences can only be marked after the session cutoff"}
	ErrCannotExcuse       = &PolicyViolation{"cannot_excuse", "Only pending or absent records can be excused"}
)

// DuplicateSessionError is returned when a schedule already has an open
// or locked session for the date
type DuplicateSessionError struct {
	ScheduleID uint
	Date       string
	Status     string
}

func (e *DuplicateSessionError) Error() string {
	return fmt.Sprintf("schedule #%d already has a %s session for %s", e.ScheduleID, e.Status, e.Date)
}

// ErrConcurrentModification is returned when a record lock cannot be
// acquired within the configured timeout
var ErrConcurrentModification = errors.New("record is being modified by another request, try again")

// NotFoundError reports an unknown entity
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s #%v not found", e.Entity, e.ID)
}

// IsPolicyViolation reports whether err is an expected refusal
func IsPolicyViolation(err error) bool {
	var pv *PolicyViolation
	var dup *DuplicateSessionError
	return errors.As(err, &pv) || errors.As(err, &dup)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConcurrency reports whether err is a lock conflict
func IsConcurrency(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
