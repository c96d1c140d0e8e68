// file: internals/features/timetable/availability/route/availability_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	"timetable_backend/internals/constants"
	"timetable_backend/internals/features/timetable/availability/controller"
	"timetable_backend/internals/middlewares/auth"
)

func AvailabilityRoutes(r fiber.Router, ctl *controller.AvailabilityController) {
	guard := auth.OnlyRoles(constants.RoleErrorScheduler("availability maintenance"), constants.SchedulerRoles...)

	r.Get("/teachers/:teacher_id/availability", ctl.GetTeacher)
	r.Put("/teachers/:teacher_id/availability", guard, ctl.PutTeacher)

	r.Get("/rooms/:room_id/availability", ctl.GetRoom)
	r.Put("/rooms/:room_id/availability", guard, ctl.PutRoom)
}
