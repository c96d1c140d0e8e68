// internals/features/timetable/jobs/service/queue.go
package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
)

// JobMessage is the queue payload. Deliveries counts failed processing
// rounds and is bumped on every nack.
type JobMessage struct {
	JobID      uint `json:"job_id"`
	ClassID    uint `json:"class_id"`
	Deliveries int  `json:"deliveries"`
}

func EncodeMessage(m JobMessage) (string, error) {
	b, err := sonic.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeMessage(raw string) (JobMessage, error) {
	var m JobMessage
	if err := sonic.UnmarshalString(raw, &m); err != nil {
		return JobMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.JobID == 0 {
		return JobMessage{}, fmt.Errorf("%w: missing job_id", ErrMalformedMessage)
	}
	return m, nil
}

// Delivery is a received message. Raw is the exact payload held by the
// broker, needed to ack it.
type Delivery struct {
	Message JobMessage
	Raw     string
}

type QueuePublisher interface {
	Publish(ctx context.Context, msg JobMessage) error
}

// QueueConsumer hands out one message at a time. Receive returns
// ErrNoMessage when the poll times out.
type QueueConsumer interface {
	Receive(ctx context.Context) (Delivery, error)
	Ack(ctx context.Context, d Delivery) error
	Nack(ctx context.Context, d Delivery) error
}

// UnavailableQueue stands in when no broker is configured. Every publish
// fails, so enqueue rolls its job row back.
type UnavailableQueue struct{}

func (UnavailableQueue) Publish(context.Context, JobMessage) error { return ErrQueueUnavailable }
