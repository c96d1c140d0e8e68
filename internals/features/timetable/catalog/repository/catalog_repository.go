// internals/features/timetable/catalog/repository/catalog_repository.go
package repository

import (
	"context"

	"gorm.io/gorm"

	"timetable_backend/internals/features/timetable/catalog/model"
)

// Curriculum is the catalog view of a curricula row with its teachers merged.
type Curriculum struct {
	ID           uint
	ClassID      uint
	SubjectID    uint
	HoursPerWeek int
	TeacherIDs   []uint
}

// ClassSubject identifies one curriculum row.
type ClassSubject struct {
	ClassID   uint
	SubjectID uint
}

// MergeTeacherIDs folds the legacy single teacher and the teacher set into one
// ordered list without duplicates. Legacy teacher goes first.
func MergeTeacherIDs(legacy *uint, set []uint) []uint {
	out := make([]uint, 0, len(set)+1)
	seen := make(map[uint]struct{}, len(set)+1)
	add := func(id uint) {
		if id == 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if legacy != nil {
		add(*legacy)
	}
	for _, id := range set {
		add(id)
	}
	return out
}

func toCurriculum(m model.CurriculumModel) Curriculum {
	set := make([]uint, 0, len(m.Teachers))
	for _, t := range m.Teachers {
		set = append(set, t.CurriculumTeacherTeacherID)
	}
	return Curriculum{
		ID:           m.CurriculumID,
		ClassID:      m.CurriculumClassID,
		SubjectID:    m.CurriculumSubjectID,
		HoursPerWeek: m.CurriculumHoursPerWeek,
		TeacherIDs:   MergeTeacherIDs(m.CurriculumTeacherID, set),
	}
}

func preloadTeachers(db *gorm.DB) *gorm.DB {
	return db.Preload("Teachers", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("curriculum_teacher_id ASC")
	})
}

/* ====================== TIME SLOTS ====================== */

func ListTimeSlots(ctx context.Context, db *gorm.DB) ([]model.TimeSlotModel, error) {
	var slots []model.TimeSlotModel
	err := db.WithContext(ctx).
		Order("time_slot_weekday ASC, time_slot_index_in_day ASC").
		Find(&slots).Error
	return slots, err
}

func FindTimeSlot(ctx context.Context, db *gorm.DB, id uint) (*model.TimeSlotModel, error) {
	var slot model.TimeSlotModel
	if err := db.WithContext(ctx).First(&slot, "time_slot_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

/* ====================== CLASSES / SUBJECTS / ROOMS ====================== */

func FindClass(ctx context.Context, db *gorm.DB, id uint) (*model.SchoolClassModel, error) {
	var cls model.SchoolClassModel
	if err := db.WithContext(ctx).First(&cls, "school_class_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cls, nil
}

func FindSubject(ctx context.Context, db *gorm.DB, id uint) (*model.SubjectModel, error) {
	var subj model.SubjectModel
	if err := db.WithContext(ctx).First(&subj, "subject_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &subj, nil
}

func ListSubjects(ctx context.Context, db *gorm.DB, ids []uint) ([]model.SubjectModel, error) {
	var subjects []model.SubjectModel
	if len(ids) == 0 {
		return subjects, nil
	}
	err := db.WithContext(ctx).Where("subject_id IN ?", ids).Find(&subjects).Error
	return subjects, err
}

func FindRoom(ctx context.Context, db *gorm.DB, id uint) (*model.RoomModel, error) {
	var room model.RoomModel
	if err := db.WithContext(ctx).First(&room, "room_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func ListRooms(ctx context.Context, db *gorm.DB) ([]model.RoomModel, error) {
	var rooms []model.RoomModel
	err := db.WithContext(ctx).Order("room_id ASC").Find(&rooms).Error
	return rooms, err
}

func CountStudents(ctx context.Context, db *gorm.DB, classID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&model.UserProfileModel{}).
		Where("user_profile_class_id = ?", classID).
		Count(&n).Error
	return n, err
}

/* ====================== CURRICULA ====================== */

func ListCurricula(ctx context.Context, db *gorm.DB, classID uint) ([]Curriculum, error) {
	var rows []model.CurriculumModel
	if err := preloadTeachers(db.WithContext(ctx)).
		Where("curriculum_class_id = ?", classID).
		Order("curriculum_subject_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Curriculum, 0, len(rows))
	for _, r := range rows {
		out = append(out, toCurriculum(r))
	}
	return out, nil
}

// TeacherIDs returns the merged teacher set for (class, subject). A subject
// without a curriculum row for the class has no teachers.
func TeacherIDs(ctx context.Context, db *gorm.DB, classID, subjectID uint) ([]uint, error) {
	var rows []model.CurriculumModel
	if err := preloadTeachers(db.WithContext(ctx)).
		Where("curriculum_class_id = ? AND curriculum_subject_id = ?", classID, subjectID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return toCurriculum(rows[0]).TeacherIDs, nil
}

// TeacherSets resolves the merged teacher set of many (class, subject) pairs
// with one query per distinct class.
func TeacherSets(ctx context.Context, db *gorm.DB, pairs []ClassSubject) (map[ClassSubject][]uint, error) {
	out := make(map[ClassSubject][]uint, len(pairs))
	byClass := make(map[uint][]uint)
	for _, p := range pairs {
		byClass[p.ClassID] = append(byClass[p.ClassID], p.SubjectID)
	}
	for classID, subjectIDs := range byClass {
		var rows []model.CurriculumModel
		if err := preloadTeachers(db.WithContext(ctx)).
			Where("curriculum_class_id = ? AND curriculum_subject_id IN ?", classID, subjectIDs).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			c := toCurriculum(r)
			out[ClassSubject{ClassID: c.ClassID, SubjectID: c.SubjectID}] = c.TeacherIDs
		}
	}
	return out, nil
}
