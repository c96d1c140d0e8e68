package service

import (
	"context"
	"errors"
	"testing"

	availrepo "timetable_backend/internals/features/timetable/availability/repository"
	catalogmodel "timetable_backend/internals/features/timetable/catalog/model"
	catalogrepo "timetable_backend/internals/features/timetable/catalog/repository"
	catalogsvc "timetable_backend/internals/features/timetable/catalog/service"
	"timetable_backend/internals/features/timetable/entries/model"
	notifsvc "timetable_backend/internals/features/timetable/notifications/service"
)

type fakeRepo struct {
	slots     map[uint]catalogmodel.TimeSlotModel
	entries   map[uint]*model.TimetableEntryModel
	subjects  map[uint]catalogmodel.SubjectModel
	rooms     map[uint]catalogmodel.RoomModel
	teachers  map[catalogrepo.ClassSubject][]uint
	tBlocked  map[uint]map[availrepo.Cell]bool
	rBlocked  map[uint]map[availrepo.Cell]bool
	students  map[uint]int64
	loseRace  bool
	updateErr error
}

func (r *fakeRepo) GetEntry(_ context.Context, id uint) (*model.TimetableEntryModel, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	cp := *e
	slot := r.slots[e.TimetableEntryTimeSlotID]
	cp.TimeSlot = &slot
	return &cp, nil
}

func (r *fakeRepo) FindSubject(_ context.Context, id uint) (*catalogmodel.SubjectModel, error) {
	s, ok := r.subjects[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeRepo) FindRoom(_ context.Context, id uint) (*catalogmodel.RoomModel, error) {
	room, ok := r.rooms[id]
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (r *fakeRepo) TeacherIDs(_ context.Context, classID, subjectID uint) ([]uint, error) {
	return r.teachers[catalogrepo.ClassSubject{ClassID: classID, SubjectID: subjectID}], nil
}

func (r *fakeRepo) TeacherSets(_ context.Context, pairs []catalogrepo.ClassSubject) (map[catalogrepo.ClassSubject][]uint, error) {
	out := map[catalogrepo.ClassSubject][]uint{}
	for _, p := range pairs {
		if ts, ok := r.teachers[p]; ok {
			out[p] = ts
		}
	}
	return out, nil
}

func (r *fakeRepo) IsTeacherAvailable(_ context.Context, teacherID uint, cell availrepo.Cell) (bool, error) {
	return !r.tBlocked[teacherID][cell], nil
}

func (r *fakeRepo) IsRoomAvailable(_ context.Context, roomID uint, cell availrepo.Cell) (bool, error) {
	return !r.rBlocked[roomID][cell], nil
}

func (r *fakeRepo) CountStudents(_ context.Context, classID uint) (int64, error) {
	return r.students[classID], nil
}

func (r *fakeRepo) EntriesAtSlot(_ context.Context, timeSlotID, excludeID uint) ([]model.TimetableEntryModel, error) {
	var out []model.TimetableEntryModel
	for id, e := range r.entries {
		if id != excludeID && e.TimetableEntryTimeSlotID == timeSlotID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateIfVersion(_ context.Context, id uint, expected int, subjectID uint, roomID *uint) (bool, error) {
	if r.updateErr != nil {
		return false, r.updateErr
	}
	e, ok := r.entries[id]
	if !ok || e.TimetableEntryVersion != expected || r.loseRace {
		return false, nil
	}
	e.TimetableEntrySubjectID = subjectID
	e.TimetableEntryRoomID = roomID
	e.TimetableEntryVersion++
	return true, nil
}

func (r *fakeRepo) ListByClass(_ context.Context, classID uint) ([]model.TimetableEntryModel, error) {
	var out []model.TimetableEntryModel
	for _, e := range r.entries {
		if e.TimetableEntryClassID == classID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type recordingEvents struct {
	err    error
	events []notifsvc.Event
}

func (e *recordingEvents) Publish(_ context.Context, ev notifsvc.Event) error {
	e.events = append(e.events, ev)
	return e.err
}

const (
	classX = 1
	classY = 2

	subjMath    = 10
	subjPhysics = 11
	subjSport   = 12
	subjHistory = 13

	roomA     = 100
	roomB     = 101
	roomSmall = 102
	roomSport = 103

	// Tuesday, hour 2
	slotTue2 = 9
)

func uptr(v uint) *uint { return &v }

// Class X has Math (teacher 1) at Tue/2 in room A. Class Y has History
// (teacher 3) at Tue/2 in room B. Physics is taught by teacher 1 in class Y
// and by teachers 5 and 6 in class X.
func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		slots: map[uint]catalogmodel.TimeSlotModel{
			slotTue2: {TimeSlotID: slotTue2, TimeSlotWeekday: 1, TimeSlotIndexInDay: 2},
		},
		entries: map[uint]*model.TimetableEntryModel{
			1: {TimetableEntryID: 1, TimetableEntryClassID: classX, TimetableEntryTimeSlotID: slotTue2, TimetableEntrySubjectID: subjMath, TimetableEntryRoomID: uptr(roomA), TimetableEntryVersion: 1},
			2: {TimetableEntryID: 2, TimetableEntryClassID: classY, TimetableEntryTimeSlotID: slotTue2, TimetableEntrySubjectID: subjHistory, TimetableEntryRoomID: uptr(roomB), TimetableEntryVersion: 3},
		},
		subjects: map[uint]catalogmodel.SubjectModel{
			subjMath:    {SubjectID: subjMath, SubjectName: "Mathematics"},
			subjPhysics: {SubjectID: subjPhysics, SubjectName: "Physics"},
			subjSport:   {SubjectID: subjSport, SubjectName: "Sport"},
			subjHistory: {SubjectID: subjHistory, SubjectName: "History"},
		},
		rooms: map[uint]catalogmodel.RoomModel{
			roomA:     {RoomID: roomA, RoomName: "Room 101", RoomCapacity: 30},
			roomB:     {RoomID: roomB, RoomName: "Room 102", RoomCapacity: 30},
			roomSmall: {RoomID: roomSmall, RoomName: "Room 103", RoomCapacity: 10},
			roomSport: {RoomID: roomSport, RoomName: "Sala Sport", RoomCapacity: 60},
		},
		teachers: map[catalogrepo.ClassSubject][]uint{
			{ClassID: classX, SubjectID: subjMath}:    {1},
			{ClassID: classX, SubjectID: subjPhysics}: {5, 6},
			{ClassID: classX, SubjectID: subjSport}:   {7},
			{ClassID: classY, SubjectID: subjHistory}: {3},
			{ClassID: classY, SubjectID: subjPhysics}: {1},
			{ClassID: classY, SubjectID: subjSport}:   {7},
		},
		tBlocked: map[uint]map[availrepo.Cell]bool{},
		rBlocked: map[uint]map[availrepo.Cell]bool{},
		students: map[uint]int64{classX: 25, classY: 20},
	}
}

func newTestValidator(repo *fakeRepo) (*Validator, *recordingEvents) {
	ev := &recordingEvents{}
	return NewValidator(repo, catalogsvc.NewSportRule("Sala Sport", "Sport"), ev), ev
}

func expectRule(t *testing.T, err error, rule string) {
	t.Helper()
	v, ok := AsViolation(err)
	if !ok {
		t.Fatalf("expected %s violation, got %v", rule, err)
	}
	if v.Rule != rule {
		t.Fatalf("expected rule %s, got %s (%s)", rule, v.Rule, v.Reason)
	}
	if v.Reason == "" {
		t.Fatalf("violation without reason")
	}
}

func TestApplyEditRejectsStaleVersion(t *testing.T) {
	repo := newFakeRepo()
	v, ev := newTestValidator(repo)

	_, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 2, SubjectID: uptr(subjPhysics)})
	var vc *VersionConflictError
	if !errors.As(err, &vc) || !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	if vc.Current != 1 || vc.Expected != 2 {
		t.Fatalf("unexpected conflict detail %+v", vc)
	}
	if e := repo.entries[1]; e.TimetableEntrySubjectID != subjMath || e.TimetableEntryVersion != 1 {
		t.Fatalf("stale edit changed the entry: %+v", e)
	}
	if len(ev.events) != 0 {
		t.Fatalf("stale edit must not notify")
	}
}

func TestApplyEditBumpsVersion(t *testing.T) {
	repo := newFakeRepo()
	v, ev := newTestValidator(repo)

	out, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, SubjectID: uptr(subjPhysics), Username: "ana"})
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	if out.TimetableEntryVersion != 2 || out.TimetableEntrySubjectID != subjPhysics {
		t.Fatalf("unexpected entry %+v", out)
	}
	if len(ev.events) != 1 || ev.events[0].Type != notifsvc.EventEntryModified || ev.events[0].Username != "ana" || ev.events[0].SubjectName != "Physics" {
		t.Fatalf("events = %+v", ev.events)
	}

	// the old version is now stale
	if _, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1}); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("replayed edit should conflict, got %v", err)
	}
}

func TestApplyEditUnknownEntry(t *testing.T) {
	v, _ := newTestValidator(newFakeRepo())
	if _, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 99, ExpectedVersion: 1}); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyEditLostRace(t *testing.T) {
	repo := newFakeRepo()
	repo.loseRace = true
	v, _ := newTestValidator(repo)
	_, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, SubjectID: uptr(subjPhysics)})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected version conflict when update matches no row, got %v", err)
	}
}

func TestApplyEditRejectsCrossClassTeacherOverlap(t *testing.T) {
	repo := newFakeRepo()
	v, _ := newTestValidator(repo)

	// class Y's Physics is taught by teacher 1, busy with class X's Math at Tue/2
	_, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 2, ExpectedVersion: 3, SubjectID: uptr(subjPhysics)})
	expectRule(t, err, RuleTeacherOverlap)
	if repo.entries[2].TimetableEntrySubjectID != subjHistory {
		t.Fatalf("rejected edit changed the entry")
	}
}

func TestApplyEditRequiresAllTeachersFree(t *testing.T) {
	repo := newFakeRepo()
	// only the second of Physics' two teachers is blocked
	repo.tBlocked[6] = map[availrepo.Cell]bool{{Weekday: 1, IndexInDay: 2}: true}
	v, _ := newTestValidator(repo)

	_, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, SubjectID: uptr(subjPhysics)})
	expectRule(t, err, RuleTeacherUnavailable)
}

func TestApplyEditChecksTeachersOfCurrentSubject(t *testing.T) {
	repo := newFakeRepo()
	repo.tBlocked[1] = map[availrepo.Cell]bool{{Weekday: 1, IndexInDay: 2}: true}
	v, _ := newTestValidator(repo)

	// room-only edit still re-validates Math's teacher
	_, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, RoomID: uptr(roomSmall)})
	expectRule(t, err, RuleTeacherUnavailable)
}

func TestApplyEditRoomRules(t *testing.T) {
	cases := []struct {
		name  string
		setup func(r *fakeRepo)
		room  uint
		rule  string
	}{
		{"capacity", nil, roomSmall, RuleRoomCapacity},
		{"overlap", nil, roomB, RuleRoomOverlap},
		{"unknown room", nil, 999, RuleRoomNotFound},
		{"unavailable", func(r *fakeRepo) {
			r.rooms[104] = catalogmodel.RoomModel{RoomID: 104, RoomName: "Room 201", RoomCapacity: 40}
			r.rBlocked[104] = map[availrepo.Cell]bool{{Weekday: 1, IndexInDay: 2}: true}
		}, 104, RuleRoomUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			if tc.setup != nil {
				tc.setup(repo)
			}
			v, _ := newTestValidator(repo)
			_, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, RoomID: uptr(tc.room)})
			expectRule(t, err, tc.rule)
			if *repo.entries[1].TimetableEntryRoomID != roomA {
				t.Fatalf("rejected edit changed the room")
			}
		})
	}
}

func TestApplyEditClearsRoom(t *testing.T) {
	repo := newFakeRepo()
	v, _ := newTestValidator(repo)
	out, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, RoomID: uptr(0)})
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	if out.TimetableEntryRoomID != nil {
		t.Fatalf("room not cleared: %v", *out.TimetableEntryRoomID)
	}
}

func TestApplyEditSportRoomPairing(t *testing.T) {
	t.Run("sport subject in classroom", func(t *testing.T) {
		repo := newFakeRepo()
		v, _ := newTestValidator(repo)
		_, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, SubjectID: uptr(subjSport)})
		expectRule(t, err, RuleSportRoom)
	})
	t.Run("other subject in sport room", func(t *testing.T) {
		repo := newFakeRepo()
		v, _ := newTestValidator(repo)
		_, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, RoomID: uptr(roomSport)})
		expectRule(t, err, RuleSportRoom)
	})
	t.Run("sport subject moved into sport room", func(t *testing.T) {
		repo := newFakeRepo()
		v, _ := newTestValidator(repo)
		out, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, SubjectID: uptr(subjSport), RoomID: uptr(roomSport)})
		if err != nil {
			t.Fatalf("ApplyEdit: %v", err)
		}
		if out.TimetableEntrySubjectID != subjSport || *out.TimetableEntryRoomID != roomSport {
			t.Fatalf("unexpected entry %+v", out)
		}
	})
}

func TestApplyEditUnknownSubject(t *testing.T) {
	v, _ := newTestValidator(newFakeRepo())
	_, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, SubjectID: uptr(404)})
	expectRule(t, err, RuleSubjectNotFound)
}

func TestApplyEditSurvivesNotificationFailure(t *testing.T) {
	repo := newFakeRepo()
	v, ev := newTestValidator(repo)
	ev.err = errors.New("bus down")

	out, err := v.ApplyEdit(context.Background(), EditCommand{EntryID: 1, ExpectedVersion: 1, SubjectID: uptr(subjPhysics)})
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	if out.TimetableEntryVersion != 2 || repo.entries[1].TimetableEntryVersion != 2 {
		t.Fatalf("edit should stay applied, got %+v", out)
	}
}
