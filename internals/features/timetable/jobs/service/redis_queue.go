// internals/features/timetable/jobs/service/redis_queue.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue is a reliable list queue. Producers LPUSH onto the queue;
// each consumer BLMOVEs into its own processing list and removes the
// message from there on ack. A live consumer keeps a heartbeat key with a
// TTL; processing lists whose owner has no heartbeat are pushed back by
// RecoverOrphans, so a consumer id that never comes back loses nothing.
type RedisQueue struct {
	rdb         *redis.Client
	name        string
	consumer    string
	processing  string
	pollTimeout time.Duration
}

// NewRedisQueue returns a queue handle. consumerID may be empty for
// publish-only use.
func NewRedisQueue(rdb *redis.Client, name, consumerID string, pollTimeout time.Duration) *RedisQueue {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	q := &RedisQueue{rdb: rdb, name: name, consumer: consumerID, pollTimeout: pollTimeout}
	if consumerID != "" {
		q.processing = q.processingPrefix() + consumerID
	}
	return q
}

func (q *RedisQueue) processingPrefix() string { return q.name + ":processing:" }

func (q *RedisQueue) aliveKey(consumerID string) string {
	return q.name + ":alive:" + consumerID
}

func (q *RedisQueue) Publish(ctx context.Context, msg JobMessage) error {
	raw, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode job %d: %w", msg.JobID, err)
	}
	if err := q.rdb.LPush(ctx, q.name, raw).Err(); err != nil {
		return fmt.Errorf("push job %d to %s: %w", msg.JobID, q.name, err)
	}
	return nil
}

func (q *RedisQueue) Receive(ctx context.Context) (Delivery, error) {
	if q.processing == "" {
		return Delivery{}, errors.New("redis queue opened without consumer id")
	}
	raw, err := q.rdb.BLMove(ctx, q.name, q.processing, "RIGHT", "LEFT", q.pollTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return Delivery{}, ErrNoMessage
	}
	if err != nil {
		return Delivery{}, fmt.Errorf("receive from %s: %w", q.name, err)
	}
	msg, err := DecodeMessage(raw)
	if err != nil {
		// poison message: drop it so it does not block the consumer
		if rmErr := q.rdb.LRem(ctx, q.processing, 1, raw).Err(); rmErr != nil {
			log.Printf("[QUEUE] drop malformed message failed: %v", rmErr)
		}
		log.Printf("[QUEUE] dropped malformed message %q: %v", raw, err)
		return Delivery{}, ErrNoMessage
	}
	return Delivery{Message: msg, Raw: raw}, nil
}

func (q *RedisQueue) Ack(ctx context.Context, d Delivery) error {
	if err := q.rdb.LRem(ctx, q.processing, 1, d.Raw).Err(); err != nil {
		return fmt.Errorf("ack job %d: %w", d.Message.JobID, err)
	}
	return nil
}

// Nack puts the message back at the consuming end of the queue with
// Deliveries incremented.
func (q *RedisQueue) Nack(ctx context.Context, d Delivery) error {
	next := d.Message
	next.Deliveries++
	raw, err := EncodeMessage(next)
	if err != nil {
		return fmt.Errorf("encode job %d: %w", next.JobID, err)
	}
	_, err = q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, q.processing, 1, d.Raw)
		p.RPush(ctx, q.name, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("nack job %d: %w", next.JobID, err)
	}
	return nil
}

// Recover moves everything left in this consumer's processing list back to
// the queue and returns how many messages were moved.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	if q.processing == "" {
		return 0, nil
	}
	return q.drain(ctx, q.processing)
}

// Heartbeat marks this consumer alive for ttl.
func (q *RedisQueue) Heartbeat(ctx context.Context, ttl time.Duration) error {
	if q.consumer == "" {
		return nil
	}
	if err := q.rdb.Set(ctx, q.aliveKey(q.consumer), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("heartbeat %s: %w", q.consumer, err)
	}
	return nil
}

// Release drops the heartbeat on a clean stop.
func (q *RedisQueue) Release(ctx context.Context) error {
	if q.consumer == "" {
		return nil
	}
	return q.rdb.Del(ctx, q.aliveKey(q.consumer)).Err()
}

// RecoverOrphans requeues the processing lists of every consumer without a
// live heartbeat, including ids from previous hosts.
func (q *RedisQueue) RecoverOrphans(ctx context.Context) (int, error) {
	prefix := q.processingPrefix()
	moved := 0
	iter := q.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if key == q.processing {
			continue
		}
		owner := strings.TrimPrefix(key, prefix)
		alive, err := q.rdb.Exists(ctx, q.aliveKey(owner)).Result()
		if err != nil {
			return moved, fmt.Errorf("check consumer %s: %w", owner, err)
		}
		if alive > 0 {
			continue
		}
		n, err := q.drain(ctx, key)
		moved += n
		if err != nil {
			return moved, err
		}
		if n > 0 {
			log.Printf("[QUEUE] requeued %d message(s) held by gone consumer %s", n, owner)
		}
	}
	if err := iter.Err(); err != nil {
		return moved, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	return moved, nil
}

// drain moves list back to the consuming end of the queue.
func (q *RedisQueue) drain(ctx context.Context, list string) (int, error) {
	n := 0
	for {
		err := q.rdb.LMove(ctx, list, q.name, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("recover %s: %w", list, err)
		}
		n++
	}
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
