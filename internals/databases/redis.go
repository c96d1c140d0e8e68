package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// ConnectRedis leaves RDB nil when addr is empty or unreachable; callers fall
// back to log-only notifications and refuse to enqueue.
func ConnectRedis(addr, password string) {
	if addr == "" {
		log.Println("[REDIS] address not set, skipping")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[REDIS] ping failed: %v", err)
		_ = client.Close()
		return
	}

	RDB = client
	log.Printf("[REDIS] connected to %s", addr)
}

func CloseRedis() {
	if RDB != nil {
		_ = RDB.Close()
	}
}
