// internals/features/timetable/generator/service/generator.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"timetable_backend/internals/configs"
	availrepo "timetable_backend/internals/features/timetable/availability/repository"
	catalogrepo "timetable_backend/internals/features/timetable/catalog/repository"
	catalogsvc "timetable_backend/internals/features/timetable/catalog/service"
	conflictmodel "timetable_backend/internals/features/timetable/conflicts/model"
	conflictsvc "timetable_backend/internals/features/timetable/conflicts/service"
	entrymodel "timetable_backend/internals/features/timetable/entries/model"
	"timetable_backend/internals/metrics"
)

// Generator loads a class snapshot, runs Build and replaces the class's
// entries with the result.
type Generator struct {
	DB    *gorm.DB
	Opts  Options
	Sport catalogsvc.SportRule
	// Seed fixes the random source per class; 0 draws a fresh seed per run.
	Seed uint64
}

func NewGenerator(db *gorm.DB, cfg configs.TimetableConfig) *Generator {
	return &Generator{
		DB: db,
		Opts: Options{
			MaxSamePerDay: cfg.MaxSameSubjectPerDay,
			MaxAttempts:   cfg.MaxAttempts,
		},
		Sport: catalogsvc.NewSportRule(cfg.SportRoomName, cfg.SportSubjectName),
		Seed:  cfg.Seed,
	}
}

func (g *Generator) newRand(classID uint) *rand.Rand {
	if g.Seed != 0 {
		return rand.New(rand.NewPCG(g.Seed, uint64(classID)))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), uint64(time.Now().UnixNano())))
}

/* ====================== SNAPSHOT ====================== */

// LoadSnapshot reads everything Build needs for classID, including what
// other classes already occupy.
func (g *Generator) LoadSnapshot(ctx context.Context, classID uint) (Snapshot, error) {
	db := g.DB.WithContext(ctx)

	if _, err := catalogrepo.FindClass(ctx, db, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Snapshot{}, fmt.Errorf("%w: class %d", ErrClassNotFound, classID)
		}
		return Snapshot{}, fmt.Errorf("load class %d: %w", classID, err)
	}

	slotRows, err := catalogrepo.ListTimeSlots(ctx, db)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load time slots: %w", err)
	}
	slots := make([]Slot, 0, len(slotRows))
	slotCell := make(map[uint]Cell, len(slotRows))
	for _, s := range slotRows {
		sl := Slot{ID: s.TimeSlotID, Weekday: s.TimeSlotWeekday, IndexInDay: s.TimeSlotIndexInDay}
		slots = append(slots, sl)
		slotCell[sl.ID] = sl.Cell()
	}

	curricula, err := catalogrepo.ListCurricula(ctx, db, classID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load curriculum of class %d: %w", classID, err)
	}
	subjectIDs := make([]uint, 0, len(curricula))
	for _, c := range curricula {
		subjectIDs = append(subjectIDs, c.SubjectID)
	}
	subjects, err := catalogrepo.ListSubjects(ctx, db, subjectIDs)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load subjects: %w", err)
	}
	sportSubject := make(map[uint]bool, len(subjects))
	for _, s := range subjects {
		sportSubject[s.SubjectID] = g.Sport.IsSportSubject(s.SubjectName)
	}

	var teacherIDs []uint
	lessons := make([]Lesson, 0, len(curricula))
	for _, c := range curricula {
		lessons = append(lessons, Lesson{
			SubjectID:  c.SubjectID,
			Hours:      c.HoursPerWeek,
			TeacherIDs: c.TeacherIDs,
			Sport:      sportSubject[c.SubjectID],
		})
		teacherIDs = append(teacherIDs, c.TeacherIDs...)
	}

	students, err := catalogrepo.CountStudents(ctx, db, classID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count students of class %d: %w", classID, err)
	}

	roomRows, err := catalogrepo.ListRooms(ctx, db)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load rooms: %w", err)
	}
	rooms := make([]RoomOption, 0, len(roomRows))
	for _, r := range roomRows {
		rooms = append(rooms, RoomOption{ID: r.RoomID, Capacity: r.RoomCapacity, Sport: g.Sport.IsSportRoom(r.RoomName)})
	}

	teacherCells, err := availrepo.TeacherUnavailableCells(ctx, db, teacherIDs)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load teacher availability: %w", err)
	}
	roomCells, err := availrepo.RoomUnavailableCells(ctx, db)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load room availability: %w", err)
	}

	busyTeachers, busyRooms, err := g.loadOccupancy(ctx, db, classID)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		ClassID:            classID,
		Slots:              slots,
		Lessons:            lessons,
		StudentCount:       int(students),
		Rooms:              rooms,
		TeacherUnavailable: toCellSet(teacherCells),
		RoomUnavailable:    toCellSet(roomCells),
		BusyTeachers:       busyTeachers,
		BusyRooms:          busyRooms,
	}, nil
}

func toCellSet(in map[uint][]availrepo.Cell) map[uint]map[Cell]bool {
	out := make(map[uint]map[Cell]bool, len(in))
	for id, cells := range in {
		set := make(map[Cell]bool, len(cells))
		for _, c := range cells {
			set[Cell{Weekday: c.Weekday, IndexInDay: c.IndexInDay}] = true
		}
		out[id] = set
	}
	return out
}

// loadOccupancy maps slot id to the teachers and rooms held by other classes.
func (g *Generator) loadOccupancy(ctx context.Context, db *gorm.DB, classID uint) (map[uint]map[uint]bool, map[uint]map[uint]bool, error) {
	var others []entrymodel.TimetableEntryModel
	if err := db.WithContext(ctx).
		Where("timetable_entry_class_id <> ?", classID).
		Find(&others).Error; err != nil {
		return nil, nil, fmt.Errorf("load other classes' entries: %w", err)
	}

	pairs := make([]catalogrepo.ClassSubject, 0, len(others))
	for _, e := range others {
		pairs = append(pairs, catalogrepo.ClassSubject{ClassID: e.TimetableEntryClassID, SubjectID: e.TimetableEntrySubjectID})
	}
	sets, err := catalogrepo.TeacherSets(ctx, db, pairs)
	if err != nil {
		return nil, nil, fmt.Errorf("load teachers of other classes: %w", err)
	}

	teachers := make(map[uint]map[uint]bool)
	rooms := make(map[uint]map[uint]bool)
	for _, e := range others {
		slot := e.TimetableEntryTimeSlotID
		for _, t := range sets[catalogrepo.ClassSubject{ClassID: e.TimetableEntryClassID, SubjectID: e.TimetableEntrySubjectID}] {
			if teachers[slot] == nil {
				teachers[slot] = make(map[uint]bool)
			}
			teachers[slot][t] = true
		}
		if e.TimetableEntryRoomID != nil {
			if rooms[slot] == nil {
				rooms[slot] = make(map[uint]bool)
			}
			rooms[slot][*e.TimetableEntryRoomID] = true
		}
	}
	return teachers, rooms, nil
}

/* ====================== GENERATE ====================== */

// Generate builds and stores a new timetable for classID. Conflicts go to rec:
// room shortfalls only once the new entries are stored, no_solution when the
// attempt budget runs out.
func (g *Generator) Generate(ctx context.Context, classID uint, rec *conflictsvc.Recorder) ([]entrymodel.TimetableEntryModel, error) {
	start := time.Now()
	defer func() { metrics.GenerationDuration.Observe(time.Since(start).Seconds()) }()

	var (
		snap Snapshot
		plan Plan
		rows []entrymodel.TimetableEntryModel
		err  error
	)
	for try := 1; ; try++ {
		snap, err = g.LoadSnapshot(ctx, classID)
		if err != nil {
			g.countResult(err)
			return nil, err
		}

		plan, err = Build(snap, g.Opts, g.newRand(classID))
		if err != nil {
			g.countResult(err)
			if errors.Is(err, ErrNoFeasibleSchedule) {
				metrics.GenerationAttempts.Observe(float64(plan.Attempts))
				g.recordDeadEnd(rec, plan)
			}
			return nil, err
		}
		metrics.GenerationAttempts.Observe(float64(plan.Attempts))

		rows, err = g.Replace(ctx, classID, plan)
		if errors.Is(err, ErrOccupancyChanged) && try < replaceTries {
			log.Printf("[GENERATOR] class=%d %v, rebuilding (try %d)", classID, err, try+1)
			continue
		}
		if err != nil {
			g.countResult(err)
			return nil, err
		}
		break
	}

	for _, s := range plan.Shortfalls {
		rec.Record(conflictmodel.ConflictRoomUnavailable,
			fmt.Sprintf("no room for class %d (subject %d, %d students) at weekday %d hour %d; entry stored without room",
				classID, s.SubjectID, snap.StudentCount, s.Slot.Weekday, s.Slot.IndexInDay),
			map[string]interface{}{
				"class_id":     classID,
				"time_slot_id": s.Slot.ID,
				"weekday":      s.Slot.Weekday,
				"index_in_day": s.Slot.IndexInDay,
				"subject_id":   s.SubjectID,
				"candidates":   s.Candidates,
			})
	}
	metrics.RoomShortfalls.Add(float64(len(plan.Shortfalls)))
	metrics.GenerationResults.WithLabelValues("success").Inc()

	log.Printf("[GENERATOR] class=%d entries=%d attempts=%d room_shortfalls=%d",
		classID, len(rows), plan.Attempts, len(plan.Shortfalls))
	return rows, nil
}

func (g *Generator) recordDeadEnd(rec *conflictsvc.Recorder, plan Plan) {
	ctx := map[string]interface{}{
		"class_id": plan.ClassID,
		"attempts": plan.Attempts,
	}
	if d := plan.DeadEnd; d != nil {
		ctx["weekday"] = d.Slot.Weekday
		ctx["index_in_day"] = d.Slot.IndexInDay
		if len(d.BlockedTeachers) > 0 {
			rec.Record(conflictmodel.ConflictTeacherUnavailable,
				fmt.Sprintf("teachers %v unavailable for class %d at weekday %d hour %d",
					d.BlockedTeachers, plan.ClassID, d.Slot.Weekday, d.Slot.IndexInDay),
				map[string]interface{}{
					"class_id":     plan.ClassID,
					"weekday":      d.Slot.Weekday,
					"index_in_day": d.Slot.IndexInDay,
					"teacher_ids":  d.BlockedTeachers,
				})
		}
	}
	rec.Record(conflictmodel.ConflictNoSolution,
		fmt.Sprintf("no complete timetable for class %d after %d attempts", plan.ClassID, plan.Attempts),
		ctx)
}

func (g *Generator) countResult(err error) {
	switch {
	case IsPrecondition(err):
		metrics.GenerationResults.WithLabelValues("precondition").Inc()
	case errors.Is(err, ErrNoFeasibleSchedule):
		metrics.GenerationResults.WithLabelValues("infeasible").Inc()
	default:
		metrics.GenerationResults.WithLabelValues("error").Inc()
	}
}

// replaceTries bounds how often Generate rebuilds after another class
// claimed a teacher or room between snapshot and write.
const replaceTries = 3

// Replace deletes the class's entries and inserts the plan in one transaction.
// Every inserted row starts at version 1. Writers are serialized and the
// plan is checked against other classes' current entries before the write;
// a clash returns ErrOccupancyChanged.
func (g *Generator) Replace(ctx context.Context, classID uint, plan Plan) ([]entrymodel.TimetableEntryModel, error) {
	rows := make([]entrymodel.TimetableEntryModel, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		rows = append(rows, entrymodel.TimetableEntryModel{
			TimetableEntryClassID:    classID,
			TimetableEntryTimeSlotID: a.Slot.ID,
			TimetableEntrySubjectID:  a.SubjectID,
			TimetableEntryRoomID:     a.RoomID,
			TimetableEntryVersion:    1,
		})
	}

	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTimetables(tx); err != nil {
			return err
		}
		if err := g.checkStillFree(ctx, tx, classID, plan); err != nil {
			return err
		}
		if err := tx.Where("timetable_entry_class_id = ?", classID).
			Delete(&entrymodel.TimetableEntryModel{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(&rows, SlotsPerWeek).Error
	})
	if err != nil {
		if errors.Is(err, ErrOccupancyChanged) {
			return nil, err
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: class %d", ErrConcurrentReplace, classID)
		}
		return nil, fmt.Errorf("store timetable of class %d: %w", classID, err)
	}
	return rows, nil
}

// timetableLockKey is the advisory lock taken by every Replace.
const timetableLockKey = 7_300_101

// lockTimetables holds the advisory lock until tx ends. Other dialects run
// without it.
func lockTimetables(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", timetableLockKey).Error; err != nil {
		return fmt.Errorf("lock timetables: %w", err)
	}
	return nil
}

func (g *Generator) checkStillFree(ctx context.Context, tx *gorm.DB, classID uint, plan Plan) error {
	teachers, rooms, err := g.loadOccupancy(ctx, tx, classID)
	if err != nil {
		return err
	}
	for _, a := range plan.Assignments {
		for _, t := range a.TeacherIDs {
			if teachers[a.Slot.ID][t] {
				return fmt.Errorf("%w: teacher %d at slot %d", ErrOccupancyChanged, t, a.Slot.ID)
			}
		}
		if a.RoomID != nil && rooms[a.Slot.ID][*a.RoomID] {
			return fmt.Errorf("%w: room %d at slot %d", ErrOccupancyChanged, *a.RoomID, a.Slot.ID)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
