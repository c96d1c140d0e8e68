package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"timetable_backend/internals/configs"
)

// CorsMiddleware reads allowed origins from CORS_ORIGINS (comma separated).
// Credentials are only allowed for an explicit origin list; "*" turns them off.
func CorsMiddleware() fiber.Handler {
	return cors.New(corsConfig(configs.GetEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5500")))
}

func corsConfig(origins string) cors.Config {
	parts := make([]string, 0, 4)
	for _, p := range strings.Split(origins, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	allow := strings.Join(parts, ",")
	return cors.Config{
		AllowOrigins:     allow,
		AllowMethods:     "GET,POST,PUT,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		ExposeHeaders:    "X-Request-ID, X-Response-Time, Retry-After",
		AllowCredentials: allow != "*" && allow != "",
	}
}
