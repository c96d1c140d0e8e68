package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	availctl "timetable_backend/internals/features/timetable/availability/controller"
	availroute "timetable_backend/internals/features/timetable/availability/route"
	catalogctl "timetable_backend/internals/features/timetable/catalog/controller"
	catalogroute "timetable_backend/internals/features/timetable/catalog/route"
	catalogsvc "timetable_backend/internals/features/timetable/catalog/service"
	entryctl "timetable_backend/internals/features/timetable/entries/controller"
	entryroute "timetable_backend/internals/features/timetable/entries/route"
	entrysvc "timetable_backend/internals/features/timetable/entries/service"
	jobctl "timetable_backend/internals/features/timetable/jobs/controller"
	jobroute "timetable_backend/internals/features/timetable/jobs/route"
	jobsvc "timetable_backend/internals/features/timetable/jobs/service"
)

// TimetableDeps are the services the timetable routes need.
type TimetableDeps struct {
	Sport     catalogsvc.SportRule
	Pipeline  *jobsvc.Pipeline
	Store     jobsvc.JobStore
	Entries   entrysvc.Repository
	Validator *entrysvc.Validator
}

// TimetableRoutes mounts every timetable endpoint on an authenticated group.
func TimetableRoutes(api fiber.Router, db *gorm.DB, d TimetableDeps) {
	catalogroute.CatalogRoutes(api, catalogctl.NewCatalogController(db, d.Sport))
	availroute.AvailabilityRoutes(api, availctl.NewAvailabilityController(db))
	jobroute.JobRoutes(api, jobctl.NewJobController(d.Pipeline, d.Store))
	entryroute.EntryRoutes(api, entryctl.NewEntryController(db, d.Entries, d.Validator))
}
