// file: internals/features/timetable/entries/controller/entry_controller.go
package controller

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	catalogrepo "timetable_backend/internals/features/timetable/catalog/repository"
	"timetable_backend/internals/features/timetable/entries/dto"
	"timetable_backend/internals/features/timetable/entries/service"
	gensvc "timetable_backend/internals/features/timetable/generator/service"
	helper "timetable_backend/internals/helpers"
	"timetable_backend/internals/middlewares/auth"
)

/* =======================================================
   CONTROLLER
   ======================================================= */

type EntryController struct {
	DB        *gorm.DB
	Repo      service.Repository
	Validator *service.Validator
	Validate  *validator.Validate
}

func NewEntryController(db *gorm.DB, repo service.Repository, v *service.Validator) *EntryController {
	return &EntryController{DB: db, Repo: repo, Validator: v, Validate: validator.New()}
}

// GET /api/timetables/classes/:class_id
func (ctl *EntryController) ListByClass(c *fiber.Ctx) error {
	classID, err := helper.ParseUintParam(c, "class_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if _, err := catalogrepo.FindClass(c.UserContext(), ctl.DB, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "class not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load class")
	}

	rows, err := ctl.Repo.ListByClass(c.UserContext(), classID)
	if err != nil {
		log.Printf("[EDIT] list class=%d: %v", classID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load timetable")
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"class_id": classID,
		"complete": len(rows) == gensvc.SlotsPerWeek,
		"entries":  dto.ToEntryResponses(rows),
	})
}

// PATCH /api/timetables/entries/:id
func (ctl *EntryController) Patch(c *fiber.Ctx) error {
	id, err := helper.ParseUintParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.PatchEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	updated, err := ctl.Validator.ApplyEdit(c.UserContext(), service.EditCommand{
		EntryID:         id,
		ExpectedVersion: req.ExpectedVersion,
		SubjectID:       req.SubjectID,
		RoomID:          req.RoomID.Ptr(),
		Username:        auth.Username(c),
	})
	if err != nil {
		return writeEditError(c, err)
	}
	return helper.JsonUpdated(c, "entry updated", dto.ToEntryResponse(*updated))
}

func writeEditError(c *fiber.Ctx, err error) error {
	var vc *service.VersionConflictError
	switch {
	case errors.Is(err, service.ErrEntryNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, err.Error())
	case errors.As(err, &vc):
		details := fiber.Map{"entry_id": vc.EntryID, "expected_version": vc.Expected}
		if vc.Current != 0 {
			details["current_version"] = vc.Current
		}
		return helper.JsonErrorCode(c, fiber.StatusConflict, "STALE_VERSION", err.Error(), details)
	}
	if v, ok := service.AsViolation(err); ok {
		return helper.JsonErrorCode(c, fiber.StatusUnprocessableEntity, "CONSTRAINT_VIOLATION", v.Reason,
			fiber.Map{"rule": v.Rule, "reason": v.Reason})
	}
	log.Printf("[EDIT] unexpected error: %v", err)
	return helper.JsonError(c, fiber.StatusInternalServerError, "failed to update entry")
}
