package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/google/uuid"

	"timetable_backend/internals/configs"
	database "timetable_backend/internals/databases"
	jobsvc "timetable_backend/internals/features/timetable/jobs/service"
	middlewares "timetable_backend/internals/middlewares"
	routes "timetable_backend/internals/route"
	"timetable_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()
	cfg := configs.LoadTimetableConfig()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// Request-ID + timing
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("X-Request-ID", id)
		c.Locals("request_id", id)
		start := time.Now()
		// matches statement_timeout on the DB side
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		dur := time.Since(start)
		c.Set("X-Response-Time", dur.String())
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s", id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), dur)
		return err
	})

	middlewares.SetupMiddlewares(app)

	// DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()

	if configs.GetEnvBool("AUTO_MIGRATE", false) {
		if err := database.AutoMigrate(database.DB); err != nil {
			log.Fatalf("[DB] migrate failed: %v", err)
		}
	}
	if configs.GetEnvBool("RUN_SEEDS", false) {
		if err := seeds.RunAllSeeds(database.DB, configs.GetEnv("SEED_CATALOG_PATH")); err != nil {
			log.Fatalf("[SEED] failed: %v", err)
		}
	}

	database.ConnectRedis(configs.RedisAddr, configs.GetEnv("REDIS_PASSWORD"))

	svc := routes.NewServices(database.DB, database.RDB, cfg)
	routes.SetupRoutes(app, database.DB, svc)

	// Background workers stop taking messages on shutdown and finish the one in hand.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var waitWorkers func()
	if database.RDB != nil && configs.GetEnvBool("RUN_WORKERS", true) {
		wg := jobsvc.StartWorkers(workerCtx, database.RDB, cfg, svc.Pipeline)
		waitWorkers = wg.Wait
		log.Printf("[WORKER] %d worker(s) on queue %q", max(cfg.WorkerCount, 1), cfg.QueueName)
	}

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		log.Printf("[HTTP] listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: HTTP first, then workers, then pools
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	stopWorkers()
	if waitWorkers != nil {
		waitWorkers()
	}

	database.CloseRedis()
	database.Close()
}
