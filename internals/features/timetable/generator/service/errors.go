package service

import "errors"

var (
	ErrInsufficientCurriculum = errors.New("curriculum hours do not cover the week")
	ErrInvalidSlotGrid        = errors.New("time slot grid is incomplete")
	ErrNoFeasibleSchedule     = errors.New("no feasible schedule found")
	ErrConcurrentReplace      = errors.New("timetable was replaced concurrently")
	ErrOccupancyChanged       = errors.New("another class took a teacher or room in the meantime")
	ErrClassNotFound          = errors.New("class not found")
)

// IsPrecondition reports errors raised before any attempt ran.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrInsufficientCurriculum) ||
		errors.Is(err, ErrInvalidSlotGrid) ||
		errors.Is(err, ErrClassNotFound)
}
