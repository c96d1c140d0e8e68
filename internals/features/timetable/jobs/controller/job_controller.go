// file: internals/features/timetable/jobs/controller/job_controller.go
package controller

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"timetable_backend/internals/features/timetable/jobs/dto"
	"timetable_backend/internals/features/timetable/jobs/service"
	helper "timetable_backend/internals/helpers"
	"timetable_backend/internals/middlewares/auth"
)

type JobController struct {
	Pipeline *service.Pipeline
	Store    service.JobStore
	Validate *validator.Validate
}

func NewJobController(p *service.Pipeline, store service.JobStore) *JobController {
	return &JobController{Pipeline: p, Store: store, Validate: validator.New()}
}

// POST /api/timetables/generate
func (ctl *JobController) Generate(c *fiber.Ctx) error {
	var req dto.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	classes := req.Classes()
	if len(classes) == 0 {
		return helper.JsonError(c, fiber.StatusBadRequest, "class_id or class_ids is required")
	}

	ids, err := ctl.Pipeline.Enqueue(c.UserContext(), classes)
	if err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, err.Error())
		}
		if errors.Is(err, service.ErrQueueUnavailable) {
			return helper.JsonErrorCode(c, fiber.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", err.Error(), nil)
		}
		log.Printf("[JOB] enqueue by=%s classes=%v: %v", auth.Username(c), classes, err)
		return helper.JsonErrorCode(c, fiber.StatusInternalServerError, "ENQUEUE_FAILED",
			"failed to enqueue generation", fiber.Map{"job_ids": ids})
	}
	log.Printf("[JOB] by=%s enqueued %v for classes %v", auth.Username(c), ids, classes)
	return helper.JsonAccepted(c, "generation queued", dto.GenerateResponse{JobIDs: ids})
}

// GET /api/timetables/jobs/:id
func (ctl *JobController) GetByID(c *fiber.Ctx) error {
	id, err := helper.ParseUintParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	job, err := ctl.Store.Get(c.UserContext(), id)
	if err != nil {
		return writeJobError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToJobResponse(*job))
}

// GET /api/timetables/jobs?class_id=&status=&page=&per_page=
func (ctl *JobController) List(c *fiber.Ctx) error {
	classID, err := helper.ParseUintQuery(c, "class_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	paging := helper.ResolvePaging(c, 20, 100)

	rows, total, err := ctl.Store.List(c.UserContext(), service.JobFilter{
		ClassID:  classID,
		Statuses: dto.ParseStatuses(c.Query("status")),
		Offset:   paging.Offset,
		Limit:    paging.Limit,
	})
	if err != nil {
		return writeJobError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage)
	return helper.JsonList(c, "ok", dto.ToJobResponses(rows), &pg)
}

// GET /api/timetables/jobs/:id/conflicts
func (ctl *JobController) Conflicts(c *fiber.Ctx) error {
	id, err := helper.ParseUintParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rows, err := ctl.Store.Conflicts(c.UserContext(), id)
	if err != nil {
		return writeJobError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToConflictResponses(rows))
}

func writeJobError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrJobNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, err.Error())
	}
	log.Printf("[JOB] %s %s: %v", c.Method(), c.Path(), err)
	return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load jobs")
}
