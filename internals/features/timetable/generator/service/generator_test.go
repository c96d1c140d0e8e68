package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"timetable_backend/internals/databases/dbtest"
	availmodel "timetable_backend/internals/features/timetable/availability/model"
	catalogmodel "timetable_backend/internals/features/timetable/catalog/model"
	catalogsvc "timetable_backend/internals/features/timetable/catalog/service"
	conflictmodel "timetable_backend/internals/features/timetable/conflicts/model"
	conflictsvc "timetable_backend/internals/features/timetable/conflicts/service"
	entrymodel "timetable_backend/internals/features/timetable/entries/model"
	"timetable_backend/internals/seeds/timetable/timeslots"
)

func openGeneratorDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := dbtest.Open(t,
		&catalogmodel.TimeSlotModel{},
		&catalogmodel.SchoolClassModel{},
		&catalogmodel.SubjectModel{},
		&catalogmodel.RoomModel{},
		&catalogmodel.CurriculumModel{},
		&catalogmodel.CurriculumTeacherModel{},
		&catalogmodel.UserProfileModel{},
		&availmodel.TeacherAvailabilityModel{},
		&availmodel.RoomAvailabilityModel{},
		&entrymodel.TimetableEntryModel{},
	)
	if err := timeslots.SeedTimeSlots(db); err != nil {
		t.Fatalf("seed slots: %v", err)
	}
	for i := 1; i <= 7; i++ {
		room := catalogmodel.RoomModel{RoomName: fmt.Sprintf("Room %d", i), RoomCapacity: 30}
		if err := db.Create(&room).Error; err != nil {
			t.Fatalf("seed room: %v", err)
		}
	}
	return db
}

// seedClass creates a class with seven 5-hour subjects taught by
// teacherBase+1..teacherBase+7. Subjects are shared between classes by name.
func seedClass(t *testing.T, db *gorm.DB, name string, teacherBase uint, hours int) uint {
	t.Helper()
	cls := catalogmodel.SchoolClassModel{SchoolClassName: name}
	if err := db.Create(&cls).Error; err != nil {
		t.Fatalf("seed class: %v", err)
	}
	for i := 1; i <= 7; i++ {
		subj := catalogmodel.SubjectModel{SubjectName: fmt.Sprintf("Subject %d", i)}
		if err := db.Where("subject_name = ?", subj.SubjectName).FirstOrCreate(&subj).Error; err != nil {
			t.Fatalf("seed subject: %v", err)
		}
		teacher := teacherBase + uint(i)
		cur := catalogmodel.CurriculumModel{
			CurriculumClassID:      cls.SchoolClassID,
			CurriculumSubjectID:    subj.SubjectID,
			CurriculumHoursPerWeek: hours,
			CurriculumTeacherID:    &teacher,
		}
		if err := db.Create(&cur).Error; err != nil {
			t.Fatalf("seed curriculum: %v", err)
		}
	}
	for i := 0; i < 20; i++ {
		classID := cls.SchoolClassID
		p := catalogmodel.UserProfileModel{UserProfileUsername: fmt.Sprintf("%s-student-%d", name, i), UserProfileClassID: &classID}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed student: %v", err)
		}
	}
	return cls.SchoolClassID
}

func newTestGenerator(db *gorm.DB, seed uint64) *Generator {
	return &Generator{DB: db, Sport: catalogsvc.NewSportRule("Sala Sport", "Sport"), Seed: seed}
}

func TestGenerateStoresFullWeekAndReplaces(t *testing.T) {
	db := openGeneratorDB(t)
	ctx := context.Background()
	classID := seedClass(t, db, "9A", 0, 5)
	gen := newTestGenerator(db, 99)

	for run := 0; run < 2; run++ {
		rec := conflictsvc.NewRecorder()
		rows, err := gen.Generate(ctx, classID, rec)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if len(rows) != SlotsPerWeek {
			t.Fatalf("run %d: %d rows", run, len(rows))
		}
		if rec.Len() != 0 {
			t.Fatalf("run %d: unexpected conflicts %+v", run, rec.Pending())
		}
	}

	var stored []entrymodel.TimetableEntryModel
	if err := db.Where("timetable_entry_class_id = ?", classID).Find(&stored).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stored) != SlotsPerWeek {
		t.Fatalf("stored %d rows after regeneration, want %d", len(stored), SlotsPerWeek)
	}
	seen := map[uint]bool{}
	for _, e := range stored {
		if seen[e.TimetableEntryTimeSlotID] {
			t.Fatalf("duplicate slot %d", e.TimetableEntryTimeSlotID)
		}
		seen[e.TimetableEntryTimeSlotID] = true
		if e.TimetableEntryVersion != 1 {
			t.Fatalf("entry %d has version %d", e.TimetableEntryID, e.TimetableEntryVersion)
		}
	}
}

func TestGenerateKeepsTeachersAndRoomsUniqueAcrossClasses(t *testing.T) {
	db := openGeneratorDB(t)
	ctx := context.Background()
	// both classes share teachers 1..7
	a := seedClass(t, db, "9A", 0, 5)
	b := seedClass(t, db, "9B", 0, 5)
	gen := newTestGenerator(db, 5)

	if _, err := gen.Generate(ctx, a, conflictsvc.NewRecorder()); err != nil {
		t.Fatalf("class a: %v", err)
	}
	if _, err := gen.Generate(ctx, b, conflictsvc.NewRecorder()); err != nil {
		t.Fatalf("class b: %v", err)
	}

	var all []entrymodel.TimetableEntryModel
	if err := db.Find(&all).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	type key struct{ slot, id uint }
	rooms := map[key]bool{}
	subjects := map[key]bool{}
	for _, e := range all {
		if e.TimetableEntryRoomID != nil {
			k := key{e.TimetableEntryTimeSlotID, *e.TimetableEntryRoomID}
			if rooms[k] {
				t.Fatalf("room %d double-booked at slot %d", k.id, k.slot)
			}
			rooms[k] = true
		}
		// same subject means same teacher here
		k := key{e.TimetableEntryTimeSlotID, e.TimetableEntrySubjectID}
		if subjects[k] {
			t.Fatalf("teacher of subject %d double-booked at slot %d", k.id, k.slot)
		}
		subjects[k] = true
	}
}

func TestGenerateRejectsShortCurriculumWithoutNoSolution(t *testing.T) {
	db := openGeneratorDB(t)
	classID := seedClass(t, db, "9A", 0, 4)
	rec := conflictsvc.NewRecorder()

	_, err := newTestGenerator(db, 1).Generate(context.Background(), classID, rec)
	if !errors.Is(err, ErrInsufficientCurriculum) {
		t.Fatalf("expected insufficient curriculum, got %v", err)
	}
	if rec.CountOf(conflictmodel.ConflictNoSolution) != 0 {
		t.Fatalf("precondition failure must not record no_solution")
	}
}

func TestGenerateUnknownClass(t *testing.T) {
	db := openGeneratorDB(t)
	_, err := newTestGenerator(db, 1).Generate(context.Background(), 404, conflictsvc.NewRecorder())
	if !errors.Is(err, ErrClassNotFound) || !IsPrecondition(err) {
		t.Fatalf("expected class not found, got %v", err)
	}
}

func TestGenerateRecordsSingleRoomShortfall(t *testing.T) {
	db := openGeneratorDB(t)
	ctx := context.Background()
	classID := seedClass(t, db, "9A", 0, 5)

	var rooms []catalogmodel.RoomModel
	if err := db.Find(&rooms).Error; err != nil {
		t.Fatalf("rooms: %v", err)
	}
	for _, r := range rooms {
		row := availmodel.RoomAvailabilityModel{
			RoomAvailabilityRoomID:     r.RoomID,
			RoomAvailabilityWeekday:    0,
			RoomAvailabilityIndexInDay: 3,
			RoomAvailabilityAvailable:  false,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("block room: %v", err)
		}
	}

	rec := conflictsvc.NewRecorder()
	rows, err := newTestGenerator(db, 3).Generate(ctx, classID, rec)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(rows) != SlotsPerWeek {
		t.Fatalf("got %d rows", len(rows))
	}
	if rec.Len() != 1 || rec.CountOf(conflictmodel.ConflictRoomUnavailable) != 1 {
		t.Fatalf("want exactly one room_unavailable conflict, got %+v", rec.Pending())
	}
	ctxMap := rec.Pending()[0].ConflictReportContext
	if ctxMap["weekday"] != 0 || ctxMap["index_in_day"] != 3 {
		t.Fatalf("conflict context points elsewhere: %+v", ctxMap)
	}
}

func TestGenerateRecordsNoSolution(t *testing.T) {
	db := openGeneratorDB(t)
	classID := seedClass(t, db, "9A", 0, 5)
	// teacher 1 is never available
	for d := 0; d < DaysPerWeek; d++ {
		for h := 1; h <= HoursPerDay; h++ {
			row := availmodel.TeacherAvailabilityModel{
				TeacherAvailabilityTeacherID:  1,
				TeacherAvailabilityWeekday:    d,
				TeacherAvailabilityIndexInDay: h,
				TeacherAvailabilityAvailable:  false,
			}
			if err := db.Create(&row).Error; err != nil {
				t.Fatalf("block teacher: %v", err)
			}
		}
	}

	gen := newTestGenerator(db, 1)
	gen.Opts.MaxAttempts = 5
	rec := conflictsvc.NewRecorder()
	_, err := gen.Generate(context.Background(), classID, rec)
	if !errors.Is(err, ErrNoFeasibleSchedule) {
		t.Fatalf("expected no feasible schedule, got %v", err)
	}
	if rec.CountOf(conflictmodel.ConflictNoSolution) != 1 {
		t.Fatalf("want one no_solution conflict, got %+v", rec.Pending())
	}
	if rec.CountOf(conflictmodel.ConflictTeacherUnavailable) != 1 {
		t.Fatalf("want the blocking teacher reported, got %+v", rec.Pending())
	}

	var n int64
	db.Model(&entrymodel.TimetableEntryModel{}).Where("timetable_entry_class_id = ?", classID).Count(&n)
	if n != 0 {
		t.Fatalf("failed generation stored %d rows", n)
	}
}

func TestReplaceRejectsSlotsTakenSinceSnapshot(t *testing.T) {
	db := openGeneratorDB(t)
	ctx := context.Background()
	// both classes share teachers 1..7; subject i is taught by teacher i
	a := seedClass(t, db, "9A", 0, 5)
	b := seedClass(t, db, "9B", 0, 5)
	gen := newTestGenerator(db, 3)

	stored, err := gen.Generate(ctx, a, conflictsvc.NewRecorder())
	if err != nil {
		t.Fatalf("class a: %v", err)
	}

	// a plan for b built as if a's week were still free
	stale := Plan{ClassID: b}
	for _, e := range stored {
		stale.Assignments = append(stale.Assignments, Assignment{
			Slot:       Slot{ID: e.TimetableEntryTimeSlotID},
			SubjectID:  e.TimetableEntrySubjectID,
			TeacherIDs: []uint{e.TimetableEntrySubjectID},
		})
	}
	if _, err := gen.Replace(ctx, b, stale); !errors.Is(err, ErrOccupancyChanged) {
		t.Fatalf("stale plan err = %v, want ErrOccupancyChanged", err)
	}
	var n int64
	db.Model(&entrymodel.TimetableEntryModel{}).Where("timetable_entry_class_id = ?", b).Count(&n)
	if n != 0 {
		t.Fatalf("stale plan stored %d rows", n)
	}

	// a fresh snapshot sees a's week and stores cleanly
	if _, err := gen.Generate(ctx, b, conflictsvc.NewRecorder()); err != nil {
		t.Fatalf("class b: %v", err)
	}
}
