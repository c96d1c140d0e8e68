package logger

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"timetable_backend/internals/configs"
)

// LoggerMiddleware writes one access line per request, tagged with the
// request id and the caller set by AuthJWT (empty on public routes).
func LoggerMiddleware() fiber.Handler {
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   configs.GetEnv("LOG_TIMEZONE", "Europe/Rome"),
		Format:     "[${time}] ${ip} ${method} ${path} ${status} ${latency} id=${locals:request_id} user=${locals:username}\n",
	})
}
