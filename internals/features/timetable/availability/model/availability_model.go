// file: internals/features/timetable/availability/model/availability_model.go
package model

import "time"

// TeacherAvailabilityModel marks one (teacher, weekday, hour) cell.
// A missing row means the teacher is available.
type TeacherAvailabilityModel struct {
	TeacherAvailabilityID         uint      `json:"teacher_availability_id" gorm:"column:teacher_availability_id;primaryKey;autoIncrement"`
	TeacherAvailabilityTeacherID  uint      `json:"teacher_availability_teacher_id" gorm:"column:teacher_availability_teacher_id;not null;uniqueIndex:uq_teacher_availability_cell"`
	TeacherAvailabilityWeekday    int       `json:"teacher_availability_weekday" gorm:"column:teacher_availability_weekday;not null;uniqueIndex:uq_teacher_availability_cell"`
	TeacherAvailabilityIndexInDay int       `json:"teacher_availability_index_in_day" gorm:"column:teacher_availability_index_in_day;not null;uniqueIndex:uq_teacher_availability_cell"`
	TeacherAvailabilityAvailable  bool      `json:"teacher_availability_available" gorm:"column:teacher_availability_available;not null"`
	TeacherAvailabilityUpdatedAt  time.Time `json:"teacher_availability_updated_at" gorm:"column:teacher_availability_updated_at;autoUpdateTime"`
}

func (TeacherAvailabilityModel) TableName() string { return "teacher_availabilities" }

// RoomAvailabilityModel marks one (room, weekday, hour) cell.
type RoomAvailabilityModel struct {
	RoomAvailabilityID         uint      `json:"room_availability_id" gorm:"column:room_availability_id;primaryKey;autoIncrement"`
	RoomAvailabilityRoomID     uint      `json:"room_availability_room_id" gorm:"column:room_availability_room_id;not null;uniqueIndex:uq_room_availability_cell"`
	RoomAvailabilityWeekday    int       `json:"room_availability_weekday" gorm:"column:room_availability_weekday;not null;uniqueIndex:uq_room_availability_cell"`
	RoomAvailabilityIndexInDay int       `json:"room_availability_index_in_day" gorm:"column:room_availability_index_in_day;not null;uniqueIndex:uq_room_availability_cell"`
	RoomAvailabilityAvailable  bool      `json:"room_availability_available" gorm:"column:room_availability_available;not null"`
	RoomAvailabilityUpdatedAt  time.Time `json:"room_availability_updated_at" gorm:"column:room_availability_updated_at;autoUpdateTime"`
}

func (RoomAvailabilityModel) TableName() string { return "room_availabilities" }
