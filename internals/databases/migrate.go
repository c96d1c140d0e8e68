package database

import (
	"log"

	"gorm.io/gorm"

	availmodel "timetable_backend/internals/features/timetable/availability/model"
	catalogmodel "timetable_backend/internals/features/timetable/catalog/model"
	conflictmodel "timetable_backend/internals/features/timetable/conflicts/model"
	entrymodel "timetable_backend/internals/features/timetable/entries/model"
	jobmodel "timetable_backend/internals/features/timetable/jobs/model"
)

// Models lists every table owned by the service, parents first.
func Models() []interface{} {
	return []interface{}{
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
		&jobmodel.TimetableJobModel{},
		&conflictmodel.ConflictReportModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Println("[DB] migrations applied")
	return nil
}
