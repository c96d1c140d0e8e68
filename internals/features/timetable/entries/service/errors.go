package service

import (
	"errors"
	"fmt"
)

var (
	ErrEntryNotFound   = errors.New("timetable entry not found")
	ErrVersionConflict = errors.New("timetable entry was modified by someone else")
)

// VersionConflictError is returned when the caller's expected version is
// stale. The entry is left untouched.
type VersionConflictError struct {
	EntryID  uint
	Expected int
	// Current is 0 when the update lost a race and the new version is unknown.
	Current int
}

func (e *VersionConflictError) Error() string {
	if e.Current == 0 {
		return fmt.Sprintf("entry %d: version %d is no longer current, reload and retry", e.EntryID, e.Expected)
	}
	return fmt.Sprintf("entry %d: expected version %d but current is %d, reload and retry", e.EntryID, e.Expected, e.Current)
}

func (e *VersionConflictError) Unwrap() error { return ErrVersionConflict }

const (
	RuleTeacherUnavailable = "teacher_unavailable"
	RuleTeacherOverlap     = "teacher_overlap"
	RuleRoomCapacity       = "room_capacity"
	RuleRoomUnavailable    = "room_unavailable"
	RuleRoomOverlap        = "room_overlap"
	RuleSportRoom          = "sport_room"
	RuleSubjectNotFound    = "subject_not_found"
	RuleRoomNotFound       = "room_not_found"
)

// ViolationError is a rejected edit; Reason is meant for the operator.
type ViolationError struct {
	Rule   string
	Reason string
}

func (e *ViolationError) Error() string { return e.Reason }

func violation(rule, format string, args ...interface{}) error {
	return &ViolationError{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

func AsViolation(err error) (*ViolationError, bool) {
	var v *ViolationError
	ok := errors.As(err, &v)
	return v, ok
}
