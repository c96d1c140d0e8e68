// file: internals/features/timetable/conflicts/model/conflict_model.go
package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ConflictRoomUnavailable    = "room_unavailable"
	ConflictNoSolution         = "no_solution"
	ConflictTeacherUnavailable = "teacher_unavailable"
)

// ConflictReportModel is append-only; rows are written while a job is processed.
type ConflictReportModel struct {
	ConflictReportID        uint              `json:"conflict_report_id" gorm:"column:conflict_report_id;primaryKey;autoIncrement"`
	ConflictReportJobID     uint              `json:"conflict_report_job_id" gorm:"column:conflict_report_job_id;not null;index"`
	ConflictReportType      string            `json:"conflict_report_type" gorm:"column:conflict_report_type;size:40;not null"`
	ConflictReportDetails   string            `json:"conflict_report_details" gorm:"column:conflict_report_details;type:text;not null"`
	ConflictReportContext   datatypes.JSONMap `json:"conflict_report_context,omitempty" gorm:"column:conflict_report_context"`
	ConflictReportCreatedAt time.Time         `json:"conflict_report_created_at" gorm:"column:conflict_report_created_at;autoCreateTime"`
}

func (ConflictReportModel) TableName() string { return "conflict_reports" }
