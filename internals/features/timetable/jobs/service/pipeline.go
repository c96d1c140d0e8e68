// internals/features/timetable/jobs/service/pipeline.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	conflictmodel "timetable_backend/internals/features/timetable/conflicts/model"
	conflictsvc "timetable_backend/internals/features/timetable/conflicts/service"
	entrymodel "timetable_backend/internals/features/timetable/entries/model"
	"timetable_backend/internals/features/timetable/jobs/model"
	notifsvc "timetable_backend/internals/features/timetable/notifications/service"
	"timetable_backend/internals/metrics"
)

// ScheduleGenerator builds and stores a class timetable, reporting conflicts
// to rec.
type ScheduleGenerator interface {
	Generate(ctx context.Context, classID uint, rec *conflictsvc.Recorder) ([]entrymodel.TimetableEntryModel, error)
}

type Pipeline struct {
	Store     JobStore
	Queue     QueuePublisher
	Generator ScheduleGenerator
	Events    notifsvc.Publisher
}

func NewPipeline(store JobStore, queue QueuePublisher, gen ScheduleGenerator, events notifsvc.Publisher) *Pipeline {
	if events == nil {
		events = notifsvc.LogPublisher{}
	}
	return &Pipeline{Store: store, Queue: queue, Generator: gen, Events: events}
}

// Enqueue creates one pending job per class and publishes it. All classes are
// checked before anything is written. On a later failure the ids created so
// far are returned with the error.
func (p *Pipeline) Enqueue(ctx context.Context, classIDs []uint) ([]uint, error) {
	for _, id := range classIDs {
		ok, err := p.Store.ClassExists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check class %d: %w", id, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrClassNotFound, id)
		}
	}

	jobIDs := make([]uint, 0, len(classIDs))
	for _, classID := range classIDs {
		job, err := p.Store.CreatePending(ctx, classID, func(job model.TimetableJobModel) error {
			return p.Queue.Publish(ctx, JobMessage{JobID: job.TimetableJobID, ClassID: classID})
		})
		if err != nil {
			return jobIDs, fmt.Errorf("enqueue class %d: %w", classID, err)
		}
		metrics.JobsEnqueued.Inc()
		log.Printf("[JOB] enqueued job=%d class=%d", job.TimetableJobID, classID)
		jobIDs = append(jobIDs, job.TimetableJobID)
	}
	return jobIDs, nil
}

// Process runs one job message. It returns nil once the job is in a terminal
// state (or is unknown); an error means the outcome could not be recorded and
// the message should be delivered again.
func (p *Pipeline) Process(ctx context.Context, msg JobMessage) error {
	job, err := p.Store.Get(ctx, msg.JobID)
	if errors.Is(err, ErrJobNotFound) {
		log.Printf("[JOB] job=%d not found, dropping message", msg.JobID)
		metrics.JobOutcomes.WithLabelValues("skipped").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("load job %d: %w", msg.JobID, err)
	}
	if model.IsTerminal(job.TimetableJobStatus) {
		log.Printf("[JOB] job=%d already %s, not running again", job.TimetableJobID, job.TimetableJobStatus)
		metrics.JobOutcomes.WithLabelValues("skipped").Inc()
		return nil
	}

	classID := job.TimetableJobClassID
	if msg.ClassID != 0 && msg.ClassID != classID {
		log.Printf("[JOB] job=%d message class %d differs from stored class %d, using stored", job.TimetableJobID, msg.ClassID, classID)
	}

	if err := p.Store.MarkProcessing(ctx, job.TimetableJobID); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			log.Printf("[JOB] job=%d finished elsewhere, skipping", job.TimetableJobID)
			return nil
		}
		return fmt.Errorf("mark job %d processing: %w", job.TimetableJobID, err)
	}
	log.Printf("[JOB] processing job=%d class=%d delivery=%d", job.TimetableJobID, classID, msg.Deliveries+1)

	rec := conflictsvc.NewRecorder()
	if _, genErr := p.Generator.Generate(ctx, classID, rec); genErr != nil {
		// Persist empties the recorder, so log what it holds first.
		for _, c := range rec.Pending() {
			log.Printf("[JOB] job=%d conflict %s: %s", job.TimetableJobID, c.ConflictReportType, c.ConflictReportDetails)
		}
		if err := p.Store.Fail(ctx, job.TimetableJobID, genErr.Error(), rec); err != nil {
			return fmt.Errorf("record failure of job %d: %w", job.TimetableJobID, err)
		}
		metrics.JobOutcomes.WithLabelValues("failed").Inc()
		log.Printf("[JOB] job=%d class=%d failed: %v", job.TimetableJobID, classID, genErr)
		return nil
	}

	conflicts := rec.Len()
	roomless := rec.CountOf(conflictmodel.ConflictRoomUnavailable)
	if err := p.Store.Complete(ctx, job.TimetableJobID, rec); err != nil {
		return fmt.Errorf("record completion of job %d: %w", job.TimetableJobID, err)
	}
	metrics.JobOutcomes.WithLabelValues("completed").Inc()
	log.Printf("[JOB] job=%d class=%d completed conflicts=%d without_room=%d",
		job.TimetableJobID, classID, conflicts, roomless)

	if err := p.Events.Publish(ctx, notifsvc.TimetableGenerated(classID, job.TimetableJobID)); err != nil {
		metrics.NotificationFailures.WithLabelValues(notifsvc.EventTimetableGenerated).Inc()
		log.Printf("[JOB] job=%d notification failed: %v", job.TimetableJobID, err)
	}
	return nil
}

// Abandon marks the job failed after the worker gave up redelivering it.
func (p *Pipeline) Abandon(ctx context.Context, msg JobMessage, cause error) error {
	reason := fmt.Sprintf("abandoned after %d deliveries: %v", msg.Deliveries+1, cause)
	err := p.Store.Fail(ctx, msg.JobID, reason, nil)
	if errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrInvalidTransition) {
		return nil
	}
	if err != nil {
		return err
	}
	metrics.JobOutcomes.WithLabelValues("abandoned").Inc()
	log.Printf("[JOB] job=%d %s", msg.JobID, reason)
	return nil
}
