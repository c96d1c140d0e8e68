// internals/features/timetable/entries/service/validator.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	availrepo "timetable_backend/internals/features/timetable/availability/repository"
	catalogmodel "timetable_backend/internals/features/timetable/catalog/model"
	catalogrepo "timetable_backend/internals/features/timetable/catalog/repository"
	catalogsvc "timetable_backend/internals/features/timetable/catalog/service"
	"timetable_backend/internals/features/timetable/entries/model"
	notifsvc "timetable_backend/internals/features/timetable/notifications/service"
	"timetable_backend/internals/metrics"
)

// EditCommand changes one timetable cell. Nil fields keep the current value;
// RoomID pointing at 0 clears the room.
type EditCommand struct {
	EntryID         uint
	ExpectedVersion int
	SubjectID       *uint
	RoomID          *uint
	Username        string
}

// Validator re-checks teacher and room constraints before an edit is written.
// The versioned UPDATE is the only guard against concurrent edits.
type Validator struct {
	Repo   Repository
	Sport  catalogsvc.SportRule
	Events notifsvc.Publisher
}

func NewValidator(repo Repository, sport catalogsvc.SportRule, events notifsvc.Publisher) *Validator {
	if events == nil {
		events = notifsvc.LogPublisher{}
	}
	return &Validator{Repo: repo, Sport: sport, Events: events}
}

type editPlan struct {
	entry          *model.TimetableEntryModel
	cell           availrepo.Cell
	subject        *catalogmodel.SubjectModel
	room           *catalogmodel.RoomModel
	roomID         *uint
	subjectChanged bool
	roomChanged    bool
}

func (v *Validator) ApplyEdit(ctx context.Context, cmd EditCommand) (*model.TimetableEntryModel, error) {
	out, err := v.applyEdit(ctx, cmd)
	var vc *VersionConflictError
	switch {
	case err == nil:
		metrics.EditOutcomes.WithLabelValues("applied").Inc()
	case errors.As(err, &vc):
		metrics.EditOutcomes.WithLabelValues("stale").Inc()
	case isViolation(err):
		metrics.EditOutcomes.WithLabelValues("violation").Inc()
	default:
		metrics.EditOutcomes.WithLabelValues("error").Inc()
	}
	return out, err
}

func isViolation(err error) bool {
	_, ok := AsViolation(err)
	return ok
}

func (v *Validator) applyEdit(ctx context.Context, cmd EditCommand) (*model.TimetableEntryModel, error) {
	entry, err := v.Repo.GetEntry(ctx, cmd.EntryID)
	if err != nil {
		return nil, err
	}
	if entry.TimetableEntryVersion != cmd.ExpectedVersion {
		return nil, &VersionConflictError{EntryID: entry.TimetableEntryID, Expected: cmd.ExpectedVersion, Current: entry.TimetableEntryVersion}
	}
	if entry.TimeSlot == nil {
		return nil, fmt.Errorf("entry %d: time slot %d missing", entry.TimetableEntryID, entry.TimetableEntryTimeSlotID)
	}

	p := editPlan{
		entry:  entry,
		cell:   availrepo.Cell{Weekday: entry.TimeSlot.TimeSlotWeekday, IndexInDay: entry.TimeSlot.TimeSlotIndexInDay},
		roomID: entry.TimetableEntryRoomID,
	}

	subjectID := entry.TimetableEntrySubjectID
	if cmd.SubjectID != nil && *cmd.SubjectID != subjectID {
		subjectID = *cmd.SubjectID
		p.subjectChanged = true
	}
	if cmd.RoomID != nil {
		next := cmd.RoomID
		if *next == 0 {
			next = nil
		}
		if !sameRoom(next, entry.TimetableEntryRoomID) {
			p.roomID = next
			p.roomChanged = true
		}
	}

	if p.subject, err = v.Repo.FindSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	if p.subject == nil {
		return nil, violation(RuleSubjectNotFound, "subject %d does not exist", subjectID)
	}

	others, err := v.Repo.EntriesAtSlot(ctx, entry.TimetableEntryTimeSlotID, entry.TimetableEntryID)
	if err != nil {
		return nil, err
	}

	if err := v.checkTeachers(ctx, &p, others); err != nil {
		return nil, err
	}
	if err := v.checkRoom(ctx, &p, others); err != nil {
		return nil, err
	}
	if err := v.checkSport(ctx, &p); err != nil {
		return nil, err
	}

	ok, err := v.Repo.UpdateIfVersion(ctx, entry.TimetableEntryID, cmd.ExpectedVersion, subjectID, p.roomID)
	if err != nil {
		return nil, fmt.Errorf("update entry %d: %w", entry.TimetableEntryID, err)
	}
	if !ok {
		return nil, &VersionConflictError{EntryID: entry.TimetableEntryID, Expected: cmd.ExpectedVersion}
	}

	updated, err := v.Repo.GetEntry(ctx, entry.TimetableEntryID)
	if err != nil {
		return nil, err
	}
	log.Printf("[EDIT] entry=%d class=%d subject=%d room=%v version=%d by=%s",
		updated.TimetableEntryID, updated.TimetableEntryClassID, subjectID, roomLabel(p.roomID), updated.TimetableEntryVersion, cmd.Username)

	ev := notifsvc.EntryModified(entry.TimetableEntryClassID, entry.TimetableEntryID, subjectID, p.subject.SubjectName, cmd.Username)
	if err := v.Events.Publish(ctx, ev); err != nil {
		metrics.NotificationFailures.WithLabelValues(notifsvc.EventEntryModified).Inc()
		log.Printf("[EDIT] entry=%d notification failed: %v", entry.TimetableEntryID, err)
	}
	return updated, nil
}

// checkTeachers requires every teacher of the final subject to be available
// and not teaching any other class at the same slot.
func (v *Validator) checkTeachers(ctx context.Context, p *editPlan, others []model.TimetableEntryModel) error {
	classID := p.entry.TimetableEntryClassID
	teachers, err := v.Repo.TeacherIDs(ctx, classID, p.subject.SubjectID)
	if err != nil {
		return err
	}
	if len(teachers) == 0 {
		return nil
	}

	for _, t := range teachers {
		ok, err := v.Repo.IsTeacherAvailable(ctx, t, p.cell)
		if err != nil {
			return err
		}
		if !ok {
			return violation(RuleTeacherUnavailable, "teacher %d is not available on weekday %d hour %d (class %d, subject %s)",
				t, p.cell.Weekday, p.cell.IndexInDay, classID, p.subject.SubjectName)
		}
	}

	if len(others) == 0 {
		return nil
	}
	pairs := make([]catalogrepo.ClassSubject, 0, len(others))
	for _, o := range others {
		pairs = append(pairs, catalogrepo.ClassSubject{ClassID: o.TimetableEntryClassID, SubjectID: o.TimetableEntrySubjectID})
	}
	sets, err := v.Repo.TeacherSets(ctx, pairs)
	if err != nil {
		return err
	}
	for _, t := range teachers {
		for _, o := range others {
			for _, busy := range sets[catalogrepo.ClassSubject{ClassID: o.TimetableEntryClassID, SubjectID: o.TimetableEntrySubjectID}] {
				if busy == t {
					return violation(RuleTeacherOverlap, "teacher %d already teaches class %d (entry %d) on weekday %d hour %d",
						t, o.TimetableEntryClassID, o.TimetableEntryID, p.cell.Weekday, p.cell.IndexInDay)
				}
			}
		}
	}
	return nil
}

// checkRoom runs only when the room is being set or changed.
func (v *Validator) checkRoom(ctx context.Context, p *editPlan, others []model.TimetableEntryModel) error {
	if !p.roomChanged || p.roomID == nil {
		return nil
	}
	roomID := *p.roomID
	room, err := v.Repo.FindRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return violation(RuleRoomNotFound, "room %d does not exist", roomID)
	}
	p.room = room

	classID := p.entry.TimetableEntryClassID
	students, err := v.Repo.CountStudents(ctx, classID)
	if err != nil {
		return err
	}
	if int64(room.RoomCapacity) < students {
		return violation(RuleRoomCapacity, "room %s holds %d students, class %d has %d",
			room.RoomName, room.RoomCapacity, classID, students)
	}

	ok, err := v.Repo.IsRoomAvailable(ctx, roomID, p.cell)
	if err != nil {
		return err
	}
	if !ok {
		return violation(RuleRoomUnavailable, "room %s is not available on weekday %d hour %d",
			room.RoomName, p.cell.Weekday, p.cell.IndexInDay)
	}

	for _, o := range others {
		if o.TimetableEntryRoomID != nil && *o.TimetableEntryRoomID == roomID {
			return violation(RuleRoomOverlap, "room %s is already used by class %d (entry %d) on weekday %d hour %d",
				room.RoomName, o.TimetableEntryClassID, o.TimetableEntryID, p.cell.Weekday, p.cell.IndexInDay)
		}
	}
	return nil
}

// checkSport applies the sport room pairing to the final subject and room.
func (v *Validator) checkSport(ctx context.Context, p *editPlan) error {
	if !(p.subjectChanged || p.roomChanged) || p.roomID == nil {
		return nil
	}
	room := p.room
	if room == nil {
		var err error
		if room, err = v.Repo.FindRoom(ctx, *p.roomID); err != nil {
			return err
		}
		if room == nil {
			return violation(RuleRoomNotFound, "room %d does not exist", *p.roomID)
		}
	}
	if reason := v.Sport.Check(p.subject.SubjectName, room.RoomName); reason != "" {
		return violation(RuleSportRoom, "%s", reason)
	}
	return nil
}

func sameRoom(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func roomLabel(id *uint) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprint(*id)
}
