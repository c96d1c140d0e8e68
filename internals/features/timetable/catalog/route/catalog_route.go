// file: internals/features/timetable/catalog/route/catalog_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	"timetable_backend/internals/features/timetable/catalog/controller"
)

// CatalogRoutes are read-only and open to every authenticated role.
func CatalogRoutes(r fiber.Router, ctl *controller.CatalogController) {
	r.Get("/timeslots", ctl.ListTimeSlots)
	r.Get("/rooms", ctl.ListRooms)
	r.Get("/classes/:class_id/curricula", ctl.ListCurricula)
}
