// internals/features/timetable/jobs/service/store.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	catalogmodel "timetable_backend/internals/features/timetable/catalog/model"
	conflictmodel "timetable_backend/internals/features/timetable/conflicts/model"
	conflictsvc "timetable_backend/internals/features/timetable/conflicts/service"
	"timetable_backend/internals/features/timetable/jobs/model"
)

type JobFilter struct {
	ClassID  *uint
	Statuses []string
	Offset   int
	Limit    int
}

// JobStore persists job rows and their state transitions.
type JobStore interface {
	ClassExists(ctx context.Context, classID uint) (bool, error)
	// CreatePending commits a pending job, then calls publish. A publish
	// error removes the row again.
	CreatePending(ctx context.Context, classID uint, publish func(job model.TimetableJobModel) error) (model.TimetableJobModel, error)
	Get(ctx context.Context, id uint) (*model.TimetableJobModel, error)
	MarkProcessing(ctx context.Context, id uint) error
	Complete(ctx context.Context, id uint, rec *conflictsvc.Recorder) error
	Fail(ctx context.Context, id uint, message string, rec *conflictsvc.Recorder) error
	List(ctx context.Context, f JobFilter) ([]model.TimetableJobModel, int64, error)
	Conflicts(ctx context.Context, id uint) ([]conflictmodel.ConflictReportModel, error)
}

type GormJobStore struct {
	DB *gorm.DB
}

func NewGormJobStore(db *gorm.DB) *GormJobStore { return &GormJobStore{DB: db} }

// statusIn filters on timetable_job_status; postgres gets a single array
// parameter.
func statusIn(db *gorm.DB, statuses []string) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Where("timetable_job_status = ANY(?)", pq.Array(statuses))
	}
	return db.Where("timetable_job_status IN ?", statuses)
}

func (s *GormJobStore) ClassExists(ctx context.Context, classID uint) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&catalogmodel.SchoolClassModel{}).
		Where("school_class_id = ?", classID).
		Count(&n).Error
	return n > 0, err
}

// CreatePending commits the row before publishing so a consumer can never
// receive a message for a job it cannot load yet.
func (s *GormJobStore) CreatePending(ctx context.Context, classID uint, publish func(job model.TimetableJobModel) error) (model.TimetableJobModel, error) {
	job := model.TimetableJobModel{
		TimetableJobClassID: classID,
		TimetableJobStatus:  model.JobPending,
	}
	if err := s.DB.WithContext(ctx).Create(&job).Error; err != nil {
		return model.TimetableJobModel{}, fmt.Errorf("create job for class %d: %w", classID, err)
	}
	if pubErr := publish(job); pubErr != nil {
		s.discard(context.WithoutCancel(ctx), job.TimetableJobID, pubErr)
		return model.TimetableJobModel{}, pubErr
	}
	return job, nil
}

// discard removes a job whose message never reached the queue. If the row
// cannot be removed it is failed so it does not sit in pending.
func (s *GormJobStore) discard(ctx context.Context, id uint, cause error) {
	err := s.DB.WithContext(ctx).
		Where("timetable_job_id = ? AND timetable_job_status = ?", id, model.JobPending).
		Delete(&model.TimetableJobModel{}).Error
	if err == nil {
		return
	}
	log.Printf("[JOB] job=%d remove after publish failure: %v", id, err)
	if failErr := s.Fail(ctx, id, "enqueue failed: "+cause.Error(), nil); failErr != nil {
		log.Printf("[JOB] job=%d mark failed after publish failure: %v", id, failErr)
	}
}

func (s *GormJobStore) Get(ctx context.Context, id uint) (*model.TimetableJobModel, error) {
	var job model.TimetableJobModel
	if err := s.DB.WithContext(ctx).First(&job, "timetable_job_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrJobNotFound, id)
		}
		return nil, err
	}
	return &job, nil
}

// transition updates a job whose status is one of from. Zero affected rows
// is reported as ErrJobNotFound or ErrInvalidTransition.
func (s *GormJobStore) transition(tx *gorm.DB, id uint, from []string, values map[string]interface{}) error {
	res := statusIn(tx.Model(&model.TimetableJobModel{}).Where("timetable_job_id = ?", id), from).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := tx.Model(&model.TimetableJobModel{}).Where("timetable_job_id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	return fmt.Errorf("%w: job %d", ErrInvalidTransition, id)
}

// MarkProcessing also accepts a job already in processing: a redelivered
// message after a worker crash runs the job again.
func (s *GormJobStore) MarkProcessing(ctx context.Context, id uint) error {
	return s.transition(s.DB.WithContext(ctx), id,
		[]string{model.JobPending, model.JobProcessing},
		map[string]interface{}{
			"timetable_job_status":     model.JobProcessing,
			"timetable_job_started_at": time.Now(),
		})
}

func (s *GormJobStore) Complete(ctx context.Context, id uint, rec *conflictsvc.Recorder) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.transition(tx, id, []string{model.JobProcessing}, map[string]interface{}{
			"timetable_job_status":       model.JobCompleted,
			"timetable_job_completed_at": time.Now(),
		}); err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		return rec.Persist(tx, id)
	})
}

func (s *GormJobStore) Fail(ctx context.Context, id uint, message string, rec *conflictsvc.Recorder) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.transition(tx, id, []string{model.JobPending, model.JobProcessing}, map[string]interface{}{
			"timetable_job_status":        model.JobFailed,
			"timetable_job_error_message": message,
			"timetable_job_completed_at":  time.Now(),
		}); err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		return rec.Persist(tx, id)
	})
}

func (s *GormJobStore) List(ctx context.Context, f JobFilter) ([]model.TimetableJobModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.TimetableJobModel{})
	if f.ClassID != nil {
		q = q.Where("timetable_job_class_id = ?", *f.ClassID)
	}
	if len(f.Statuses) > 0 {
		q = statusIn(q, f.Statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.TimetableJobModel
	q = q.Order("timetable_job_created_at DESC, timetable_job_id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *GormJobStore) Conflicts(ctx context.Context, id uint) ([]conflictmodel.ConflictReportModel, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return conflictsvc.ListByJob(ctx, s.DB, id)
}
