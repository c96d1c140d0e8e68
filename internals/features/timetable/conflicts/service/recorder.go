// internals/features/timetable/conflicts/service/recorder.go
package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"timetable_backend/internals/features/timetable/conflicts/model"
)

// Recorder buffers conflicts raised during one job run. Nothing is written
// until Persist is called with the job's transaction.
type Recorder struct {
	mu      sync.Mutex
	pending []model.ConflictReportModel
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(kind, details string, ctx map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, model.ConflictReportModel{
		ConflictReportType:      kind,
		ConflictReportDetails:   details,
		ConflictReportContext:   datatypes.JSONMap(ctx),
		ConflictReportCreatedAt: time.Now(),
	})
}

// Pending returns a copy of the buffered conflicts.
func (r *Recorder) Pending() []model.ConflictReportModel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ConflictReportModel(nil), r.pending...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Recorder) CountOf(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.pending {
		if c.ConflictReportType == kind {
			n++
		}
	}
	return n
}

// Persist inserts the buffered conflicts against jobID using tx and clears
// the buffer on success.
func (r *Recorder) Persist(tx *gorm.DB, jobID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return nil
	}
	rows := make([]model.ConflictReportModel, len(r.pending))
	for i, c := range r.pending {
		c.ConflictReportJobID = jobID
		rows[i] = c
	}
	if err := tx.CreateInBatches(&rows, 100).Error; err != nil {
		return err
	}
	r.pending = nil
	return nil
}

// ListByJob returns a job's conflicts oldest first.
func ListByJob(ctx context.Context, db *gorm.DB, jobID uint) ([]model.ConflictReportModel, error) {
	var rows []model.ConflictReportModel
	err := db.WithContext(ctx).
		Where("conflict_report_job_id = ?", jobID).
		Order("conflict_report_created_at ASC, conflict_report_id ASC").
		Find(&rows).Error
	return rows, err
}
