// Package metrics holds the Prometheus collectors of the scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationAttempts is the number of greedy passes a generation needed.
	GenerationAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_attempts",
		Help:    "Greedy attempts per timetable generation",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Wall time of one timetable generation including persistence",
		Buckets: prometheus.DefBuckets,
	})

	// Labels: "success", "precondition", "infeasible", "error"
	GenerationResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_results_total",
		Help: "Timetable generations by result",
	}, []string{"result"})

	RoomShortfalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timetable_room_shortfalls_total",
		Help: "Generated entries left without a room",
	})

	// Labels: "completed", "failed", "skipped", "abandoned"
	JobOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_job_outcomes_total",
		Help: "Generation jobs by terminal outcome",
	}, []string{"outcome"})

	JobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timetable_jobs_enqueued_total",
		Help: "Generation jobs created and published",
	})

	// Labels: "applied", "stale", "violation", "error"
	EditOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_edit_outcomes_total",
		Help: "Single entry edits by outcome",
	}, []string{"outcome"})

	// Labels: "timetable_generated", "timetable_entry_modified"
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_notification_failures_total",
		Help: "Outbound events that could not be published",
	}, []string{"type"})
)

var QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "timetable_queue_depth",
	Help: "Generation jobs waiting in the queue",
})
