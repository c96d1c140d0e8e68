// internals/features/timetable/availability/repository/availability_repository.go
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timetable_backend/internals/features/timetable/availability/model"
)

// Cell is one (weekday, hour) position of the weekly grid.
type Cell struct {
	Weekday    int `json:"weekday"`
	IndexInDay int `json:"index_in_day"`
}

// CellState is a cell with its availability flag, used for bulk upserts.
type CellState struct {
	Cell
	Available bool `json:"available"`
}

/* ====================== POINT LOOKUPS ====================== */

// IsTeacherAvailable returns true when no row marks the cell unavailable.
func IsTeacherAvailable(ctx context.Context, db *gorm.DB, teacherID uint, cell Cell) (bool, error) {
	var rows []model.TeacherAvailabilityModel
	if err := db.WithContext(ctx).
		Where("teacher_availability_teacher_id = ? AND teacher_availability_weekday = ? AND teacher_availability_index_in_day = ?",
			teacherID, cell.Weekday, cell.IndexInDay).
		Limit(1).
		Find(&rows).Error; err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return true, nil
	}
	return rows[0].TeacherAvailabilityAvailable, nil
}

// IsRoomAvailable returns true when no row marks the cell unavailable.
func IsRoomAvailable(ctx context.Context, db *gorm.DB, roomID uint, cell Cell) (bool, error) {
	var rows []model.RoomAvailabilityModel
	if err := db.WithContext(ctx).
		Where("room_availability_room_id = ? AND room_availability_weekday = ? AND room_availability_index_in_day = ?",
			roomID, cell.Weekday, cell.IndexInDay).
		Limit(1).
		Find(&rows).Error; err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return true, nil
	}
	return rows[0].RoomAvailabilityAvailable, nil
}

/* ====================== BULK (snapshot) ====================== */

// TeacherUnavailableCells returns, per teacher, the cells explicitly marked unavailable.
func TeacherUnavailableCells(ctx context.Context, db *gorm.DB, teacherIDs []uint) (map[uint][]Cell, error) {
	out := make(map[uint][]Cell)
	if len(teacherIDs) == 0 {
		return out, nil
	}
	var rows []model.TeacherAvailabilityModel
	if err := db.WithContext(ctx).
		Where("teacher_availability_teacher_id IN ? AND teacher_availability_available = ?", teacherIDs, false).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.TeacherAvailabilityTeacherID] = append(out[r.TeacherAvailabilityTeacherID],
			Cell{Weekday: r.TeacherAvailabilityWeekday, IndexInDay: r.TeacherAvailabilityIndexInDay})
	}
	return out, nil
}

// RoomUnavailableCells returns, per room, the cells explicitly marked unavailable.
func RoomUnavailableCells(ctx context.Context, db *gorm.DB) (map[uint][]Cell, error) {
	out := make(map[uint][]Cell)
	var rows []model.RoomAvailabilityModel
	if err := db.WithContext(ctx).
		Where("room_availability_available = ?", false).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.RoomAvailabilityRoomID] = append(out[r.RoomAvailabilityRoomID],
			Cell{Weekday: r.RoomAvailabilityWeekday, IndexInDay: r.RoomAvailabilityIndexInDay})
	}
	return out, nil
}

/* ====================== MAINTENANCE ====================== */

func ListTeacher(ctx context.Context, db *gorm.DB, teacherID uint) ([]model.TeacherAvailabilityModel, error) {
	var rows []model.TeacherAvailabilityModel
	err := db.WithContext(ctx).
		Where("teacher_availability_teacher_id = ?", teacherID).
		Order("teacher_availability_weekday ASC, teacher_availability_index_in_day ASC").
		Find(&rows).Error
	return rows, err
}

func ListRoom(ctx context.Context, db *gorm.DB, roomID uint) ([]model.RoomAvailabilityModel, error) {
	var rows []model.RoomAvailabilityModel
	err := db.WithContext(ctx).
		Where("room_availability_room_id = ?", roomID).
		Order("room_availability_weekday ASC, room_availability_index_in_day ASC").
		Find(&rows).Error
	return rows, err
}

// UpsertTeacher writes every given cell for the teacher in one transaction.
func UpsertTeacher(ctx context.Context, db *gorm.DB, teacherID uint, cells []CellState) error {
	if len(cells) == 0 {
		return nil
	}
	rows := make([]model.TeacherAvailabilityModel, 0, len(cells))
	for _, c := range cells {
		rows = append(rows, model.TeacherAvailabilityModel{
			TeacherAvailabilityTeacherID:  teacherID,
			TeacherAvailabilityWeekday:    c.Weekday,
			TeacherAvailabilityIndexInDay: c.IndexInDay,
			TeacherAvailabilityAvailable:  c.Available,
		})
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "teacher_availability_teacher_id"},
				{Name: "teacher_availability_weekday"},
				{Name: "teacher_availability_index_in_day"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"teacher_availability_available",
				"teacher_availability_updated_at",
			}),
		}).Create(&rows).Error
	})
}

// UpsertRoom writes every given cell for the room in one transaction.
func UpsertRoom(ctx context.Context, db *gorm.DB, roomID uint, cells []CellState) error {
	if len(cells) == 0 {
		return nil
	}
	rows := make([]model.RoomAvailabilityModel, 0, len(cells))
	for _, c := range cells {
		rows = append(rows, model.RoomAvailabilityModel{
			RoomAvailabilityRoomID:     roomID,
			RoomAvailabilityWeekday:    c.Weekday,
			RoomAvailabilityIndexInDay: c.IndexInDay,
			RoomAvailabilityAvailable:  c.Available,
		})
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "room_availability_room_id"},
				{Name: "room_availability_weekday"},
				{Name: "room_availability_index_in_day"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"room_availability_available",
				"room_availability_updated_at",
			}),
		}).Create(&rows).Error
	})
}
