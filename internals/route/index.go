// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"timetable_backend/internals/configs"
	"timetable_backend/internals/middlewares/auth"
	routeDetails "timetable_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, svc *Services) {
	startTime = time.Now()

	// ===================== BASE =====================
	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, db)

	// ===================== PRIVATE =====================
	log.Println("[INFO] Setting up PRIVATE group...")
	api := app.Group("/api",
		auth.AuthJWT(auth.AuthJWTOpts{
			Secret:              configs.JWTSecret,
			AllowCookieFallback: true,
		}),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Timetable routes...")
	routeDetails.TimetableRoutes(api, db, routeDetails.TimetableDeps{
		Sport:     svc.Sport,
		Pipeline:  svc.Pipeline,
		Store:     svc.Store,
		Entries:   svc.Entries,
		Validator: svc.Validator,
	})
}
