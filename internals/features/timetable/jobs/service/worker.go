// internals/features/timetable/jobs/service/worker.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"timetable_backend/internals/configs"
	"timetable_backend/internals/metrics"
)

type Processor interface {
	Process(ctx context.Context, msg JobMessage) error
	Abandon(ctx context.Context, msg JobMessage, cause error) error
}

// Worker handles one message at a time: receive, process, ack.
type Worker struct {
	ID            string
	Queue         QueueConsumer
	Proc          Processor
	Backoff       time.Duration
	MaxDeliveries int
}

// Run loops until ctx is cancelled. Cancellation is only observed between
// messages; a job that started is carried to the end.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("[WORKER] %s started", w.ID)
	defer log.Printf("[WORKER] %s stopped", w.ID)

	for ctx.Err() == nil {
		d, err := w.Queue.Receive(ctx)
		if errors.Is(err, ErrNoMessage) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WORKER] %s receive failed: %v", w.ID, err)
			sleep(ctx, w.Backoff)
			continue
		}
		w.handle(context.WithoutCancel(ctx), d)
	}
}

func (w *Worker) handle(ctx context.Context, d Delivery) {
	err := w.Proc.Process(ctx, d.Message)
	if err == nil {
		w.ack(ctx, d)
		return
	}

	if w.MaxDeliveries > 0 && d.Message.Deliveries+1 >= w.MaxDeliveries {
		log.Printf("[WORKER] %s job=%d giving up: %v", w.ID, d.Message.JobID, err)
		if abErr := w.Proc.Abandon(ctx, d.Message, err); abErr != nil {
			// leave it unacked; Recover hands it out again after restart
			log.Printf("[WORKER] %s job=%d abandon failed: %v", w.ID, d.Message.JobID, abErr)
			return
		}
		w.ack(ctx, d)
		return
	}

	log.Printf("[WORKER] %s job=%d failed (delivery %d), retrying in %s: %v",
		w.ID, d.Message.JobID, d.Message.Deliveries+1, w.Backoff, err)
	sleep(ctx, w.Backoff)
	if nackErr := w.Queue.Nack(ctx, d); nackErr != nil {
		log.Printf("[WORKER] %s job=%d nack failed: %v", w.ID, d.Message.JobID, nackErr)
	}
}

func (w *Worker) ack(ctx context.Context, d Delivery) {
	if err := w.Queue.Ack(ctx, d); err != nil {
		log.Printf("[WORKER] %s job=%d ack failed: %v", w.ID, d.Message.JobID, err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// StartWorkers marks each consumer alive, recovers its processing list and
// any list left by a consumer that is gone, then launches cfg.WorkerCount
// workers. Wait on the returned group after cancelling ctx.
func StartWorkers(ctx context.Context, rdb *redis.Client, cfg configs.TimetableConfig, proc Processor) *sync.WaitGroup {
	n := cfg.WorkerCount
	if n <= 0 {
		n = 1
	}
	ttl := cfg.WorkerHeartbeatTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	queues := make([]*RedisQueue, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d", cfg.WorkerID, i)
		q := NewRedisQueue(rdb, cfg.QueueName, id, cfg.QueuePollTimeout)
		if err := q.Heartbeat(ctx, ttl); err != nil {
			log.Printf("[WORKER] %s heartbeat failed: %v", id, err)
		}
		if moved, err := q.Recover(ctx); err != nil {
			log.Printf("[WORKER] %s recover failed: %v", id, err)
		} else if moved > 0 {
			log.Printf("[WORKER] %s requeued %d in-flight messages", id, moved)
		}
		queues = append(queues, q)
	}
	sweepOrphans(ctx, queues[0])

	var workers sync.WaitGroup
	for _, q := range queues {
		w := &Worker{
			ID:            q.consumer,
			Queue:         q,
			Proc:          proc,
			Backoff:       cfg.QueueRetryBackoff,
			MaxDeliveries: cfg.WorkerMaxDeliveries,
		}
		workers.Add(1)
		go func() {
			defer workers.Done()
			w.Run(ctx)
		}()
	}

	done := make(chan struct{})
	var all sync.WaitGroup
	all.Add(2)
	go func() {
		defer all.Done()
		workers.Wait()
		close(done)
	}()
	go func() {
		defer all.Done()
		keepAlive(queues, ttl, done)
	}()
	return &all
}

// keepAlive refreshes heartbeats until done closes, then releases them.
// Each tick also sweeps orphaned processing lists and samples queue depth.
func keepAlive(queues []*RedisQueue, ttl time.Duration, done <-chan struct{}) {
	ctx := context.Background()
	tick := time.NewTicker(ttl / 3)
	defer tick.Stop()
	for {
		select {
		case <-done:
			for _, q := range queues {
				if err := q.Release(ctx); err != nil {
					log.Printf("[WORKER] %s release failed: %v", q.consumer, err)
				}
			}
			return
		case <-tick.C:
			for _, q := range queues {
				if err := q.Heartbeat(ctx, ttl); err != nil {
					log.Printf("[WORKER] %s heartbeat failed: %v", q.consumer, err)
				}
			}
			sweepOrphans(ctx, queues[0])
			if depth, err := queues[0].Len(ctx); err == nil {
				metrics.QueueDepth.Set(float64(depth))
			}
		}
	}
}

func sweepOrphans(ctx context.Context, q *RedisQueue) {
	if moved, err := q.RecoverOrphans(ctx); err != nil {
		log.Printf("[WORKER] orphan sweep failed: %v", err)
	} else if moved > 0 {
		log.Printf("[WORKER] requeued %d message(s) from gone consumers", moved)
	}
}
