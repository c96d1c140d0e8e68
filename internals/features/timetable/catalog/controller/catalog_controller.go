// file: internals/features/timetable/catalog/controller/catalog_controller.go
package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"timetable_backend/internals/features/timetable/catalog/dto"
	"timetable_backend/internals/features/timetable/catalog/repository"
	"timetable_backend/internals/features/timetable/catalog/service"
	gensvc "timetable_backend/internals/features/timetable/generator/service"
	helper "timetable_backend/internals/helpers"
)

type CatalogController struct {
	DB    *gorm.DB
	Sport service.SportRule
}

func NewCatalogController(db *gorm.DB, sport service.SportRule) *CatalogController {
	return &CatalogController{DB: db, Sport: sport}
}

// GET /api/timeslots
func (ctl *CatalogController) ListTimeSlots(c *fiber.Ctx) error {
	rows, err := repository.ListTimeSlots(c.UserContext(), ctl.DB)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load time slots")
	}
	return helper.JsonOK(c, "ok", dto.ToTimeSlotResponses(rows))
}

// GET /api/rooms
func (ctl *CatalogController) ListRooms(c *fiber.Ctx) error {
	rows, err := repository.ListRooms(c.UserContext(), ctl.DB)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load rooms")
	}
	out := make([]dto.RoomResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.RoomResponse{
			RoomID:       r.RoomID,
			RoomName:     r.RoomName,
			RoomCapacity: r.RoomCapacity,
			Sport:        ctl.Sport.IsSportRoom(r.RoomName),
		})
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/classes/:class_id/curricula
func (ctl *CatalogController) ListCurricula(c *fiber.Ctx) error {
	classID, err := helper.ParseUintParam(c, "class_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	cls, err := repository.FindClass(c.UserContext(), ctl.DB, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "class not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load class")
	}

	rows, err := repository.ListCurricula(c.UserContext(), ctl.DB, classID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load curricula")
	}
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.SubjectID)
	}
	subjects, err := repository.ListSubjects(c.UserContext(), ctl.DB, ids)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load subjects")
	}
	return helper.JsonOK(c, "ok", dto.ToClassCurricula(*cls, rows, subjects, gensvc.SlotsPerWeek))
}
