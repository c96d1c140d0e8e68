package configs

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret string
	RedisAddr string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[CONFIG] .env not found, using system environment")
		} else {
			log.Println("[CONFIG] .env loaded")
		}
	} else {
		log.Println("[CONFIG] running on Railway, using system environment")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	RedisAddr = GetEnv("REDIS_ADDR")

	if JWTSecret == "" {
		log.Println("[CONFIG] JWT_SECRET is not set!")
	}
	if RedisAddr == "" {
		log.Println("[CONFIG] REDIS_ADDR is not set, queue and notification bus are disabled")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[CONFIG] %s=%q is not an integer, using %d", key, raw, def)
		return def
	}
	return n
}

func GetEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("[CONFIG] %s=%q is not a duration, using %s", key, raw, def)
		return def
	}
	return d
}

// =======================
// TIMETABLE SETTINGS
// =======================

type TimetableConfig struct {
	MaxSameSubjectPerDay int
	MaxAttempts          int
	Seed                 uint64

	QueueName           string
	NotificationChannel string

	SportRoomName    string
	SportSubjectName string

	WorkerCount         int
	WorkerID            string
	WorkerMaxDeliveries int
	QueueRetryBackoff   time.Duration
	QueuePollTimeout    time.Duration
	WorkerHeartbeatTTL  time.Duration
}

func LoadTimetableConfig() TimetableConfig {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}

	seed := uint64(0)
	if raw := strings.TrimSpace(os.Getenv("TIMETABLE_SEED")); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			seed = v
		}
	}

	return TimetableConfig{
		MaxSameSubjectPerDay: GetEnvInt("TIMETABLE_MAX_SAME_SUBJECT_PER_DAY", 2),
		MaxAttempts:          GetEnvInt("TIMETABLE_MAX_ATTEMPTS", 100),
		Seed:                 seed,

		QueueName:           GetEnv("QUEUE_NAME", "timetable_generation"),
		NotificationChannel: GetEnv("NOTIFICATION_CHANNEL", "timetable_notifications"),

		SportRoomName:    GetEnv("SPORT_ROOM_NAME", "Sala Sport"),
		SportSubjectName: GetEnv("SPORT_SUBJECT_NAME", "Sport"),

		WorkerCount:         GetEnvInt("WORKER_COUNT", 1),
		WorkerID:            GetEnv("WORKER_ID", hostname),
		WorkerMaxDeliveries: GetEnvInt("WORKER_MAX_DELIVERIES", 5),
		QueueRetryBackoff:   GetEnvDuration("QUEUE_RETRY_BACKOFF", 5*time.Second),
		QueuePollTimeout:    GetEnvDuration("QUEUE_POLL_TIMEOUT", 5*time.Second),
		WorkerHeartbeatTTL:  GetEnvDuration("WORKER_HEARTBEAT_TTL", 30*time.Second),
	}
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	level := gormLogger.Warn
	if GetEnvBool("DB_LOG_QUERIES", false) {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	l.LogLevel = level
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && err != gorm.ErrRecordNotFound:
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
