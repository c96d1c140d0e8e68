// file: internals/features/timetable/jobs/dto/job_dto.go
package dto

import (
	"strings"
	"time"

	conflictmodel "timetable_backend/internals/features/timetable/conflicts/model"
	"timetable_backend/internals/features/timetable/jobs/model"
)

/* =======================================================
   REQUEST DTOs
   ======================================================= */

// GenerateRequest accepts a single class_id, a class_ids list, or both.
type GenerateRequest struct {
	ClassID  *uint  `json:"class_id,omitempty" validate:"omitempty,min=1"`
	ClassIDs []uint `json:"class_ids,omitempty" validate:"omitempty,max=100,dive,min=1"`
}

// Classes returns the requested ids in order without duplicates.
func (r GenerateRequest) Classes() []uint {
	out := make([]uint, 0, len(r.ClassIDs)+1)
	seen := make(map[uint]bool, len(r.ClassIDs)+1)
	add := func(id uint) {
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	if r.ClassID != nil {
		add(*r.ClassID)
	}
	for _, id := range r.ClassIDs {
		add(id)
	}
	return out
}

// ParseStatuses splits ?status=pending,failed and drops unknown values.
func ParseStatuses(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		switch s = strings.ToLower(strings.TrimSpace(s)); s {
		case model.JobPending, model.JobProcessing, model.JobCompleted, model.JobFailed:
			out = append(out, s)
		}
	}
	return out
}

/* =======================================================
   RESPONSE DTOs
   ======================================================= */

type GenerateResponse struct {
	JobIDs []uint `json:"job_ids"`
}

type JobResponse struct {
	TimetableJobID           uint       `json:"timetable_job_id"`
	TimetableJobClassID      uint       `json:"timetable_job_class_id"`
	TimetableJobStatus       string     `json:"timetable_job_status"`
	TimetableJobErrorMessage *string    `json:"timetable_job_error_message,omitempty"`
	TimetableJobCreatedAt    time.Time  `json:"timetable_job_created_at"`
	TimetableJobStartedAt    *time.Time `json:"timetable_job_started_at,omitempty"`
	TimetableJobCompletedAt  *time.Time `json:"timetable_job_completed_at,omitempty"`
}

func ToJobResponse(m model.TimetableJobModel) JobResponse {
	return JobResponse{
		TimetableJobID:           m.TimetableJobID,
		TimetableJobClassID:      m.TimetableJobClassID,
		TimetableJobStatus:       m.TimetableJobStatus,
		TimetableJobErrorMessage: m.TimetableJobErrorMessage,
		TimetableJobCreatedAt:    m.TimetableJobCreatedAt,
		TimetableJobStartedAt:    m.TimetableJobStartedAt,
		TimetableJobCompletedAt:  m.TimetableJobCompletedAt,
	}
}

func ToJobResponses(rows []model.TimetableJobModel) []JobResponse {
	out := make([]JobResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, ToJobResponse(m))
	}
	return out
}

type ConflictResponse struct {
	ConflictReportID        uint           `json:"conflict_report_id"`
	ConflictReportType      string         `json:"conflict_report_type"`
	ConflictReportDetails   string         `json:"conflict_report_details"`
	ConflictReportContext   map[string]any `json:"conflict_report_context,omitempty"`
	ConflictReportCreatedAt time.Time      `json:"conflict_report_created_at"`
}

func ToConflictResponses(rows []conflictmodel.ConflictReportModel) []ConflictResponse {
	out := make([]ConflictResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, ConflictResponse{
			ConflictReportID:        m.ConflictReportID,
			ConflictReportType:      m.ConflictReportType,
			ConflictReportDetails:   m.ConflictReportDetails,
			ConflictReportContext:   m.ConflictReportContext,
			ConflictReportCreatedAt: m.ConflictReportCreatedAt,
		})
	}
	return out
}
