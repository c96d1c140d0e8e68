// file: internals/features/timetable/jobs/model/job_model.go
package model

import "time"

const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// TimetableJobModel tracks one generation run for one class. Rows only move
// forward: pending -> processing -> completed | failed.
type TimetableJobModel struct {
	TimetableJobID           uint       `json:"timetable_job_id" gorm:"column:timetable_job_id;primaryKey;autoIncrement"`
	TimetableJobClassID      uint       `json:"timetable_job_class_id" gorm:"column:timetable_job_class_id;not null;index"`
	TimetableJobStatus       string     `json:"timetable_job_status" gorm:"column:timetable_job_status;size:20;not null;index"`
	TimetableJobErrorMessage *string    `json:"timetable_job_error_message,omitempty" gorm:"column:timetable_job_error_message;type:text"`
	TimetableJobCreatedAt    time.Time  `json:"timetable_job_created_at" gorm:"column:timetable_job_created_at;autoCreateTime"`
	TimetableJobStartedAt    *time.Time `json:"timetable_job_started_at,omitempty" gorm:"column:timetable_job_started_at"`
	TimetableJobCompletedAt  *time.Time `json:"timetable_job_completed_at,omitempty" gorm:"column:timetable_job_completed_at"`
}

func (TimetableJobModel) TableName() string { return "timetable_jobs" }

func IsTerminal(status string) bool {
	return status == JobCompleted || status == JobFailed
}
