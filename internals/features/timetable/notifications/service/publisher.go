// internals/features/timetable/notifications/service/publisher.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const (
	EventTimetableGenerated = "timetable_generated"
	EventEntryModified      = "timetable_entry_modified"
)

// Event is the message put on the notification bus. Delivery to users
// (inbox, e-mail) happens downstream.
type Event struct {
	Type        string    `json:"type"`
	ClassID     uint      `json:"class_id"`
	JobID       uint      `json:"job_id,omitempty"`
	EntryID     uint      `json:"entry_id,omitempty"`
	SubjectID   uint      `json:"subject_id,omitempty"`
	SubjectName string    `json:"subject_name,omitempty"`
	Username    string    `json:"username,omitempty"`
	Message     string    `json:"message"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func TimetableGenerated(classID, jobID uint) Event {
	return Event{
		Type:       EventTimetableGenerated,
		ClassID:    classID,
		JobID:      jobID,
		Message:    fmt.Sprintf("Timetable generated for class %d", classID),
		OccurredAt: time.Now(),
	}
}

func EntryModified(classID, entryID, subjectID uint, subjectName, username string) Event {
	return Event{
		Type:        EventEntryModified,
		ClassID:     classID,
		EntryID:     entryID,
		SubjectID:   subjectID,
		SubjectName: subjectName,
		Username:    username,
		Message:     fmt.Sprintf("Lesson %s in class %d modified by %s", subjectName, classID, username),
		OccurredAt:  time.Now(),
	}
}

// Publisher sends events. Callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RedisPublisher publishes events on a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	return nil
}

// LogPublisher only writes events to the log; used when Redis is not configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev Event) error {
	log.Printf("[NOTIFY] %s class=%d %s", ev.Type, ev.ClassID, ev.Message)
	return nil
}
