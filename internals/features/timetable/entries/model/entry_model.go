// file: internals/features/timetable/entries/model/entry_model.go
package model

import (
	"time"

	catalog "timetable_backend/internals/features/timetable/catalog/model"
)

// TimetableEntryModel is one cell of a class timetable. Version starts at 1
// and is bumped by every accepted edit.
type TimetableEntryModel struct {
	TimetableEntryID         uint      `json:"timetable_entry_id" gorm:"column:timetable_entry_id;primaryKey;autoIncrement"`
	TimetableEntryClassID    uint      `json:"timetable_entry_class_id" gorm:"column:timetable_entry_class_id;not null;uniqueIndex:uq_timetable_entry_class_slot"`
	TimetableEntryTimeSlotID uint      `json:"timetable_entry_time_slot_id" gorm:"column:timetable_entry_time_slot_id;not null;uniqueIndex:uq_timetable_entry_class_slot;index"`
	TimetableEntrySubjectID  uint      `json:"timetable_entry_subject_id" gorm:"column:timetable_entry_subject_id;not null"`
	TimetableEntryRoomID     *uint     `json:"timetable_entry_room_id,omitempty" gorm:"column:timetable_entry_room_id;index"`
	TimetableEntryVersion    int       `json:"timetable_entry_version" gorm:"column:timetable_entry_version;not null;default:1"`
	TimetableEntryCreatedAt  time.Time `json:"timetable_entry_created_at" gorm:"column:timetable_entry_created_at;autoCreateTime"`
	TimetableEntryUpdatedAt  time.Time `json:"timetable_entry_updated_at" gorm:"column:timetable_entry_updated_at;autoUpdateTime"`

	TimeSlot *catalog.TimeSlotModel `json:"time_slot,omitempty" gorm:"foreignKey:TimetableEntryTimeSlotID;references:TimeSlotID"`
}

func (TimetableEntryModel) TableName() string { return "timetable_entries" }
