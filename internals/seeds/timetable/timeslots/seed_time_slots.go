package timeslots

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timetable_backend/internals/features/timetable/catalog/model"
)

const (
	days        = 5
	hoursPerDay = 7
)

// SeedTimeSlots makes sure the 5x7 weekly grid exists. Safe to run repeatedly.
func SeedTimeSlots(db *gorm.DB) error {
	rows := make([]model.TimeSlotModel, 0, days*hoursPerDay)
	for d := 0; d < days; d++ {
		for h := 1; h <= hoursPerDay; h++ {
			rows = append(rows, model.TimeSlotModel{TimeSlotWeekday: d, TimeSlotIndexInDay: h})
		}
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "time_slot_weekday"}, {Name: "time_slot_index_in_day"}},
		DoNothing: true,
	}).Create(&rows)
	if res.Error != nil {
		return res.Error
	}
	log.Printf("[SEED] time slots: %d inserted", res.RowsAffected)
	return nil
}
