// file: internals/features/timetable/entries/route/entry_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	"timetable_backend/internals/constants"
	"timetable_backend/internals/features/timetable/entries/controller"
	"timetable_backend/internals/middlewares/auth"
)

// EntryRoutes mounts the timetable read and edit endpoints on /timetables.
func EntryRoutes(r fiber.Router, ctl *controller.EntryController) {
	g := r.Group("/timetables")
	g.Get("/classes/:class_id", ctl.ListByClass)
	g.Patch("/entries/:id",
		auth.OnlyRoles(constants.RoleErrorEditor("timetable editing"), constants.EditorRoles...),
		ctl.Patch,
	)
}
