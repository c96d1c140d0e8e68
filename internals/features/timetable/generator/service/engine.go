// internals/features/timetable/generator/service/engine.go
package service

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

const (
	DaysPerWeek  = 5
	HoursPerDay  = 7
	SlotsPerWeek = DaysPerWeek * HoursPerDay

	// hours 1..EarlyHours of a day are filled before the late ones
	EarlyHours = 5

	DefaultMaxSamePerDay = 2
	DefaultMaxAttempts   = 100
)

// Cell is a (weekday, hour) position, the key availability is stored under.
type Cell struct {
	Weekday    int
	IndexInDay int
}

type Slot struct {
	ID         uint
	Weekday    int
	IndexInDay int
}

func (s Slot) Cell() Cell { return Cell{Weekday: s.Weekday, IndexInDay: s.IndexInDay} }

// Lesson is one curriculum row of the class being scheduled.
type Lesson struct {
	SubjectID  uint
	Hours      int
	TeacherIDs []uint
	Sport      bool
}

type RoomOption struct {
	ID       uint
	Capacity int
	Sport    bool
}

// Snapshot is everything Build needs. Busy* hold what other classes already
// occupy, keyed by slot id.
type Snapshot struct {
	ClassID      uint
	Slots        []Slot
	Lessons      []Lesson
	StudentCount int
	Rooms        []RoomOption

	TeacherUnavailable map[uint]map[Cell]bool
	RoomUnavailable    map[uint]map[Cell]bool
	BusyTeachers       map[uint]map[uint]bool
	BusyRooms          map[uint]map[uint]bool
}

type Options struct {
	MaxSamePerDay int
	MaxAttempts   int
}

func (o Options) normalized() Options {
	if o.MaxSamePerDay <= 0 {
		o.MaxSamePerDay = DefaultMaxSamePerDay
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}

type Assignment struct {
	Slot       Slot
	SubjectID  uint
	TeacherIDs []uint
	RoomID     *uint
}

// RoomShortfall is a slot that got a subject but no room.
type RoomShortfall struct {
	Slot       Slot
	SubjectID  uint
	Candidates int
}

// DeadEnd is the slot where the last failed attempt stopped, with the
// teachers that blocked the remaining candidates there.
type DeadEnd struct {
	Slot            Slot
	BlockedTeachers []uint
}

type Plan struct {
	ClassID     uint
	Assignments []Assignment
	Shortfalls  []RoomShortfall
	Attempts    int
	DeadEnd     *DeadEnd
}

// VisitOrder sorts slots day by day, early hours first, each ascending.
func VisitOrder(slots []Slot) []Slot {
	out := append([]Slot(nil), slots...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Weekday != b.Weekday {
			return a.Weekday < b.Weekday
		}
		aLate, bLate := a.IndexInDay > EarlyHours, b.IndexInDay > EarlyHours
		if aLate != bLate {
			return !aLate
		}
		return a.IndexInDay < b.IndexInDay
	})
	return out
}

func validate(s Snapshot) error {
	if len(s.Slots) != SlotsPerWeek {
		return fmt.Errorf("%w: found %d time slots, need %d", ErrInvalidSlotGrid, len(s.Slots), SlotsPerWeek)
	}
	seen := make(map[Cell]bool, SlotsPerWeek)
	for _, sl := range s.Slots {
		c := sl.Cell()
		if c.Weekday < 0 || c.Weekday >= DaysPerWeek || c.IndexInDay < 1 || c.IndexInDay > HoursPerDay || seen[c] {
			return fmt.Errorf("%w: bad or duplicate slot (weekday %d, hour %d)", ErrInvalidSlotGrid, c.Weekday, c.IndexInDay)
		}
		seen[c] = true
	}
	total := 0
	for _, l := range s.Lessons {
		total += l.Hours
	}
	if total != SlotsPerWeek {
		return fmt.Errorf("%w: class %d curriculum has %d hours, need %d", ErrInsufficientCurriculum, s.ClassID, total, SlotsPerWeek)
	}
	return nil
}

// Build runs up to MaxAttempts randomized greedy passes over the grid and
// returns the first complete plan. It never returns a partial plan.
func Build(s Snapshot, opts Options, rng *rand.Rand) (Plan, error) {
	if err := validate(s); err != nil {
		return Plan{}, err
	}
	opts = opts.normalized()
	order := VisitOrder(s.Slots)

	var pool []int
	for i, l := range s.Lessons {
		for h := 0; h < l.Hours; h++ {
			pool = append(pool, i)
		}
	}

	var rooms, sportRooms []RoomOption
	for _, r := range s.Rooms {
		if r.Capacity < s.StudentCount {
			continue
		}
		if r.Sport {
			sportRooms = append(sportRooms, r)
		} else {
			rooms = append(rooms, r)
		}
	}

	var stuck DeadEnd
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		a := attemptState{snap: &s, opts: opts, rng: rng, rooms: rooms, sportRooms: sportRooms}
		plan, dead, ok := a.run(order, pool)
		if ok {
			plan.ClassID = s.ClassID
			plan.Attempts = attempt
			return plan, nil
		}
		stuck = dead
	}
	return Plan{ClassID: s.ClassID, Attempts: opts.MaxAttempts, DeadEnd: &stuck},
		fmt.Errorf("%w: class %d after %d attempts, last dead end at weekday %d hour %d",
			ErrNoFeasibleSchedule, s.ClassID, opts.MaxAttempts, stuck.Slot.Weekday, stuck.Slot.IndexInDay)
}

type attemptState struct {
	snap       *Snapshot
	opts       Options
	rng        *rand.Rand
	rooms      []RoomOption
	sportRooms []RoomOption
}

func (a *attemptState) run(order []Slot, base []int) (Plan, DeadEnd, bool) {
	pool := append([]int(nil), base...)
	a.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	perDay := make(map[int]map[int]int, DaysPerWeek)
	plan := Plan{Assignments: make([]Assignment, 0, len(order))}

	for _, slot := range order {
		day := perDay[slot.Weekday]
		if day == nil {
			day = make(map[int]int)
			perDay[slot.Weekday] = day
		}

		chosen := -1
		var rejected []int
		for len(pool) > 0 {
			cand := pool[0]
			pool = pool[1:]
			if day[cand] < a.opts.MaxSamePerDay && a.teachersFree(a.snap.Lessons[cand], slot) {
				chosen = cand
				break
			}
			rejected = append(rejected, cand)
		}
		if len(rejected) > 0 {
			a.rng.Shuffle(len(rejected), func(i, j int) { rejected[i], rejected[j] = rejected[j], rejected[i] })
			pool = append(rejected, pool...)
		}
		if chosen < 0 {
			return Plan{}, a.deadEnd(slot, rejected), false
		}
		day[chosen]++

		lesson := a.snap.Lessons[chosen]
		asg := Assignment{Slot: slot, SubjectID: lesson.SubjectID, TeacherIDs: lesson.TeacherIDs}
		if roomID, candidates, ok := a.pickRoom(lesson, slot); ok {
			asg.RoomID = &roomID
		} else {
			plan.Shortfalls = append(plan.Shortfalls, RoomShortfall{Slot: slot, SubjectID: lesson.SubjectID, Candidates: candidates})
		}
		plan.Assignments = append(plan.Assignments, asg)
	}
	return plan, DeadEnd{}, true
}

func (a *attemptState) deadEnd(slot Slot, rejected []int) DeadEnd {
	cell := slot.Cell()
	busy := a.snap.BusyTeachers[slot.ID]
	seen := map[uint]bool{}
	d := DeadEnd{Slot: slot}
	for _, i := range rejected {
		for _, t := range a.snap.Lessons[i].TeacherIDs {
			if seen[t] || !(a.snap.TeacherUnavailable[t][cell] || busy[t]) {
				continue
			}
			seen[t] = true
			d.BlockedTeachers = append(d.BlockedTeachers, t)
		}
	}
	sort.Slice(d.BlockedTeachers, func(i, j int) bool { return d.BlockedTeachers[i] < d.BlockedTeachers[j] })
	return d
}

func (a *attemptState) teachersFree(l Lesson, slot Slot) bool {
	cell := slot.Cell()
	busy := a.snap.BusyTeachers[slot.ID]
	for _, t := range l.TeacherIDs {
		if a.snap.TeacherUnavailable[t][cell] || busy[t] {
			return false
		}
	}
	return true
}

// pickRoom tries the lesson's candidate rooms in random order. Sport lessons
// only see sport rooms and the others never do.
func (a *attemptState) pickRoom(l Lesson, slot Slot) (uint, int, bool) {
	cands := a.rooms
	if l.Sport {
		cands = a.sportRooms
	}
	cell := slot.Cell()
	busy := a.snap.BusyRooms[slot.ID]
	for _, i := range a.rng.Perm(len(cands)) {
		r := cands[i]
		if a.snap.RoomUnavailable[r.ID][cell] || busy[r.ID] {
			continue
		}
		return r.ID, len(cands), true
	}
	return 0, len(cands), false
}
