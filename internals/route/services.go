// file: internals/route/services.go
package routes

import (
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"timetable_backend/internals/configs"
	catalogsvc "timetable_backend/internals/features/timetable/catalog/service"
	entrysvc "timetable_backend/internals/features/timetable/entries/service"
	gensvc "timetable_backend/internals/features/timetable/generator/service"
	jobsvc "timetable_backend/internals/features/timetable/jobs/service"
	notifsvc "timetable_backend/internals/features/timetable/notifications/service"
)

// Services holds the long-lived timetable components shared by the HTTP
// handlers and the background workers.
type Services struct {
	Config    configs.TimetableConfig
	Sport     catalogsvc.SportRule
	Events    notifsvc.Publisher
	Generator *gensvc.Generator
	Store     *jobsvc.GormJobStore
	Pipeline  *jobsvc.Pipeline
	Entries   *entrysvc.GormRepository
	Validator *entrysvc.Validator
}

// NewServices wires the components. A nil rdb keeps the API readable but
// makes generation requests fail with 503 and sends notifications to the log.
func NewServices(db *gorm.DB, rdb *redis.Client, cfg configs.TimetableConfig) *Services {
	var (
		events notifsvc.Publisher = notifsvc.LogPublisher{}
		queue  jobsvc.QueuePublisher = jobsvc.UnavailableQueue{}
	)
	if rdb != nil {
		events = notifsvc.NewRedisPublisher(rdb, cfg.NotificationChannel)
		queue = jobsvc.NewRedisQueue(rdb, cfg.QueueName, cfg.WorkerID+"-api", cfg.QueuePollTimeout)
	} else {
		log.Println("[INFO] Redis not configured: notifications go to the log, generation is disabled")
	}

	sport := catalogsvc.NewSportRule(cfg.SportRoomName, cfg.SportSubjectName)
	gen := gensvc.NewGenerator(db, cfg)
	store := jobsvc.NewGormJobStore(db)
	repo := entrysvc.NewGormRepository(db)

	return &Services{
		Config:    cfg,
		Sport:     sport,
		Events:    events,
		Generator: gen,
		Store:     store,
		Pipeline:  jobsvc.NewPipeline(store, queue, gen, events),
		Entries:   repo,
		Validator: entrysvc.NewValidator(repo, sport, events),
	}
}
