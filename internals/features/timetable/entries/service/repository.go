// internals/features/timetable/entries/service/repository.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	availrepo "timetable_backend/internals/features/timetable/availability/repository"
	catalogmodel "timetable_backend/internals/features/timetable/catalog/model"
	catalogrepo "timetable_backend/internals/features/timetable/catalog/repository"
	"timetable_backend/internals/features/timetable/entries/model"
)

// Repository is what the edit validator reads and writes.
type Repository interface {
	// GetEntry loads the entry with its TimeSlot.
	GetEntry(ctx context.Context, id uint) (*model.TimetableEntryModel, error)
	// FindSubject and FindRoom return nil, nil when the row does not exist.
	FindSubject(ctx context.Context, id uint) (*catalogmodel.SubjectModel, error)
	FindRoom(ctx context.Context, id uint) (*catalogmodel.RoomModel, error)
	TeacherIDs(ctx context.Context, classID, subjectID uint) ([]uint, error)
	TeacherSets(ctx context.Context, pairs []catalogrepo.ClassSubject) (map[catalogrepo.ClassSubject][]uint, error)
	IsTeacherAvailable(ctx context.Context, teacherID uint, cell availrepo.Cell) (bool, error)
	IsRoomAvailable(ctx context.Context, roomID uint, cell availrepo.Cell) (bool, error)
	CountStudents(ctx context.Context, classID uint) (int64, error)
	// EntriesAtSlot returns every entry of any class at the slot except excludeID.
	EntriesAtSlot(ctx context.Context, timeSlotID, excludeID uint) ([]model.TimetableEntryModel, error)
	// UpdateIfVersion writes subject and room and bumps the version only when
	// the stored version still equals expected. It reports whether a row changed.
	UpdateIfVersion(ctx context.Context, id uint, expected int, subjectID uint, roomID *uint) (bool, error)
	ListByClass(ctx context.Context, classID uint) ([]model.TimetableEntryModel, error)
}

type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository { return &GormRepository{DB: db} }

func (r *GormRepository) GetEntry(ctx context.Context, id uint) (*model.TimetableEntryModel, error) {
	var e model.TimetableEntryModel
	err := r.DB.WithContext(ctx).Preload("TimeSlot").First(&e, "timetable_entry_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrEntryNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *GormRepository) FindSubject(ctx context.Context, id uint) (*catalogmodel.SubjectModel, error) {
	s, err := catalogrepo.FindSubject(ctx, r.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return s, err
}

func (r *GormRepository) FindRoom(ctx context.Context, id uint) (*catalogmodel.RoomModel, error) {
	room, err := catalogrepo.FindRoom(ctx, r.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return room, err
}

func (r *GormRepository) TeacherIDs(ctx context.Context, classID, subjectID uint) ([]uint, error) {
	return catalogrepo.TeacherIDs(ctx, r.DB, classID, subjectID)
}

func (r *GormRepository) TeacherSets(ctx context.Context, pairs []catalogrepo.ClassSubject) (map[catalogrepo.ClassSubject][]uint, error) {
	return catalogrepo.TeacherSets(ctx, r.DB, pairs)
}

func (r *GormRepository) IsTeacherAvailable(ctx context.Context, teacherID uint, cell availrepo.Cell) (bool, error) {
	return availrepo.IsTeacherAvailable(ctx, r.DB, teacherID, cell)
}

func (r *GormRepository) IsRoomAvailable(ctx context.Context, roomID uint, cell availrepo.Cell) (bool, error) {
	return availrepo.IsRoomAvailable(ctx, r.DB, roomID, cell)
}

func (r *GormRepository) CountStudents(ctx context.Context, classID uint) (int64, error) {
	return catalogrepo.CountStudents(ctx, r.DB, classID)
}

func (r *GormRepository) EntriesAtSlot(ctx context.Context, timeSlotID, excludeID uint) ([]model.TimetableEntryModel, error) {
	var rows []model.TimetableEntryModel
	err := r.DB.WithContext(ctx).
		Where("timetable_entry_time_slot_id = ? AND timetable_entry_id <> ?", timeSlotID, excludeID).
		Order("timetable_entry_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *GormRepository) UpdateIfVersion(ctx context.Context, id uint, expected int, subjectID uint, roomID *uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.TimetableEntryModel{}).
		Where("timetable_entry_id = ? AND timetable_entry_version = ?", id, expected).
		Updates(map[string]interface{}{
			"timetable_entry_subject_id": subjectID,
			"timetable_entry_room_id":    roomID,
			"timetable_entry_version":    gorm.Expr("timetable_entry_version + 1"),
			"timetable_entry_updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListByClass returns the class timetable in grid order.
func (r *GormRepository) ListByClass(ctx context.Context, classID uint) ([]model.TimetableEntryModel, error) {
	var rows []model.TimetableEntryModel
	if err := r.DB.WithContext(ctx).
		Preload("TimeSlot").
		Where("timetable_entry_class_id = ?", classID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].TimeSlot, rows[j].TimeSlot
		if a == nil || b == nil {
			return rows[i].TimetableEntryTimeSlotID < rows[j].TimetableEntryTimeSlotID
		}
		if a.TimeSlotWeekday != b.TimeSlotWeekday {
			return a.TimeSlotWeekday < b.TimeSlotWeekday
		}
		return a.TimeSlotIndexInDay < b.TimeSlotIndexInDay
	})
	return rows, nil
}
