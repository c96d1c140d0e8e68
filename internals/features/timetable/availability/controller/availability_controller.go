// file: internals/features/timetable/availability/controller/availability_controller.go
package controller

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"timetable_backend/internals/features/timetable/availability/dto"
	"timetable_backend/internals/features/timetable/availability/repository"
	catalogrepo "timetable_backend/internals/features/timetable/catalog/repository"
	helper "timetable_backend/internals/helpers"
	"timetable_backend/internals/middlewares/auth"
)

type AvailabilityController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewAvailabilityController(db *gorm.DB) *AvailabilityController {
	return &AvailabilityController{DB: db, Validate: validator.New()}
}

/* ====================== TEACHERS ====================== */

// GET /api/teachers/:teacher_id/availability
func (ctl *AvailabilityController) GetTeacher(c *fiber.Ctx) error {
	teacherID, err := helper.ParseUintParam(c, "teacher_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rows, err := repository.ListTeacher(c.UserContext(), ctl.DB, teacherID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load availability")
	}
	return helper.JsonOK(c, "ok", dto.FromTeacherRows(teacherID, rows))
}

// PUT /api/teachers/:teacher_id/availability
func (ctl *AvailabilityController) PutTeacher(c *fiber.Ctx) error {
	teacherID, err := helper.ParseUintParam(c, "teacher_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	req, ok, err := ctl.parse(c)
	if !ok {
		return err
	}
	if err := repository.UpsertTeacher(c.UserContext(), ctl.DB, teacherID, req.States()); err != nil {
		log.Printf("[AVAIL] teacher=%d upsert: %v", teacherID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to save availability")
	}
	log.Printf("[AVAIL] teacher=%d %d cells by=%s", teacherID, len(req.Cells), auth.Username(c))

	rows, err := repository.ListTeacher(c.UserContext(), ctl.DB, teacherID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load availability")
	}
	return helper.JsonUpdated(c, "availability saved", dto.FromTeacherRows(teacherID, rows))
}

/* ====================== ROOMS ====================== */

// GET /api/rooms/:room_id/availability
func (ctl *AvailabilityController) GetRoom(c *fiber.Ctx) error {
	roomID, ok, err := ctl.roomID(c)
	if !ok {
		return err
	}
	rows, err := repository.ListRoom(c.UserContext(), ctl.DB, roomID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load availability")
	}
	return helper.JsonOK(c, "ok", dto.FromRoomRows(roomID, rows))
}

// PUT /api/rooms/:room_id/availability
func (ctl *AvailabilityController) PutRoom(c *fiber.Ctx) error {
	roomID, ok, err := ctl.roomID(c)
	if !ok {
		return err
	}
	req, ok, err := ctl.parse(c)
	if !ok {
		return err
	}
	if err := repository.UpsertRoom(c.UserContext(), ctl.DB, roomID, req.States()); err != nil {
		log.Printf("[AVAIL] room=%d upsert: %v", roomID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to save availability")
	}
	log.Printf("[AVAIL] room=%d %d cells by=%s", roomID, len(req.Cells), auth.Username(c))

	rows, err := repository.ListRoom(c.UserContext(), ctl.DB, roomID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load availability")
	}
	return helper.JsonUpdated(c, "availability saved", dto.FromRoomRows(roomID, rows))
}

// roomID parses the param and checks the room exists. When ok is false the
// response has already been written.
func (ctl *AvailabilityController) roomID(c *fiber.Ctx) (uint, bool, error) {
	roomID, err := helper.ParseUintParam(c, "room_id")
	if err != nil {
		return 0, false, helper.FromFiberError(c, err)
	}
	if _, err := catalogrepo.FindRoom(c.UserContext(), ctl.DB, roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, helper.JsonError(c, fiber.StatusNotFound, "room not found")
		}
		return 0, false, helper.JsonError(c, fiber.StatusInternalServerError, "failed to load room")
	}
	return roomID, true, nil
}

func (ctl *AvailabilityController) parse(c *fiber.Ctx) (dto.PutAvailabilityRequest, bool, error) {
	var req dto.PutAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return req, false, helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return req, false, helper.ValidationError(c, err)
	}
	return req, true, nil
}
