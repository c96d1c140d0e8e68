package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"timetable_backend/internals/configs"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("[DB] connecting to PostgreSQL...")

	// statement_timeout keeps a stuck replace-all from pinning a worker
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=%s&options=-c statement_timeout=%d",
		configs.GetEnv("DB_USER"),
		configs.GetEnv("DB_PASSWORD"),
		configs.GetEnv("DB_HOST"),
		configs.GetEnv("DB_PORT", "5432"),
		configs.GetEnv("DB_NAME"),
		configs.GetEnv("DB_SSLMODE", "require"),
		configs.GetEnv("DB_APPLICATION_NAME", "timetable"),
		configs.GetEnvInt("DB_STATEMENT_TIMEOUT_MS", 15000),
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger: configs.NewGormLogger(),
	})
	if err != nil {
		log.Fatalf("[DB] connection failed: %v", err)
	}
	DB = db
	log.Println("[DB] connected")
}

// TunePool sizes the pool for the HTTP handlers plus one connection per
// worker, which holds a transaction for the whole replace-all.
func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("[DB] pool tune err: %v", err)
		return
	}
	workers := configs.GetEnvInt("WORKER_COUNT", 1)
	sqlDB.SetMaxOpenConns(configs.GetEnvInt("DB_MAX_OPEN_CONNS", 20) + workers)
	sqlDB.SetMaxIdleConns(configs.GetEnvInt("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetConnMaxIdleTime(configs.GetEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute))
	sqlDB.SetConnMaxLifetime(configs.GetEnvDuration("DB_CONN_MAX_LIFETIME", 10*time.Minute))
}

// WarmUpQueries opens a connection and touches the slot grid in the
// background so the first generate does not pay for it.
func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var n int64
		if err := DB.WithContext(ctx).Table("time_slots").Count(&n).Error; err != nil {
			log.Printf("[DB] warm-up err: %v", err)
			return
		}
		log.Printf("[DB] warm-up ok, %d time slots", n)
	}()
}

func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
