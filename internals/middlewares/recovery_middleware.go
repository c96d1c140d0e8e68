package middlewares

import (
	"log"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	helper "timetable_backend/internals/helpers"
)

// RecoveryMiddleware turns a panic into a 500 error envelope. The stack goes
// to the log under the same [REQ] id as the request line.
func RecoveryMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Printf("[REQ] id=%v %s %s panic: %v\n%s", c.Locals("request_id"), c.Method(), c.OriginalURL(), r, debug.Stack())
			err = helper.JsonError(c, fiber.StatusInternalServerError, "internal server error")
		}()
		return c.Next()
	}
}
