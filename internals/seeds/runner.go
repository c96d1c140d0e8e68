package seeds

import (
	"log"

	"gorm.io/gorm"

	catalog "timetable_backend/internals/seeds/timetable/catalog"
	timeslots "timetable_backend/internals/seeds/timetable/timeslots"
)

// RunAllSeeds fills the slot grid and, when catalogPath is set, the demo
// rooms, subjects, classes and curricula. Both seeds are idempotent.
func RunAllSeeds(db *gorm.DB, catalogPath string) error {
	//* Grid
	if err := timeslots.SeedTimeSlots(db); err != nil {
		return err
	}

	//* Catalog
	if catalogPath == "" {
		log.Println("[SEED] catalog path empty, skipping demo catalog")
		return nil
	}
	return catalog.SeedCatalogFromJSON(db, catalogPath)
}
