// file: internals/features/timetable/jobs/route/job_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	"timetable_backend/internals/constants"
	"timetable_backend/internals/features/timetable/jobs/controller"
	"timetable_backend/internals/middlewares"
	"timetable_backend/internals/middlewares/auth"
)

// JobRoutes mounts generation and job status endpoints on /timetables.
func JobRoutes(r fiber.Router, ctl *controller.JobController) {
	g := r.Group("/timetables")
	g.Post("/generate",
		middlewares.GenerateRateLimiter(),
		auth.OnlyRoles(constants.RoleErrorScheduler("timetable generation"), constants.SchedulerRoles...),
		ctl.Generate,
	)

	jobs := g.Group("/jobs")
	jobs.Get("/", ctl.List)
	jobs.Get("/:id", ctl.GetByID)
	jobs.Get("/:id/conflicts", ctl.Conflicts)
}
