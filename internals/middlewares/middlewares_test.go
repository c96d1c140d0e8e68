package middlewares

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func TestRecoveryMiddlewareAnswersWithErrorEnvelope(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("request_id", "req-1")
		return c.Next()
	})
	app.Use(RecoveryMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error { panic("slot grid missing") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"success":false`) || !strings.Contains(string(body), "internal server error") {
		t.Fatalf("body = %s", body)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil), -1)
	if err != nil || resp.StatusCode != fiber.StatusOK {
		t.Fatalf("app unusable after panic: %v %v", resp, err)
	}
}

func TestCorsConfig(t *testing.T) {
	tests := []struct {
		name      string
		origins   string
		wantAllow string
		wantCreds bool
	}{
		{"list", " http://a.test , http://b.test,", "http://a.test,http://b.test", true},
		{"wildcard", "*", "*", false},
		{"empty", " , ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := corsConfig(tt.origins)
			if cfg.AllowOrigins != tt.wantAllow || cfg.AllowCredentials != tt.wantCreds {
				t.Fatalf("got origins=%q creds=%v", cfg.AllowOrigins, cfg.AllowCredentials)
			}
		})
	}
}

func TestCorsPreflightForListedOrigin(t *testing.T) {
	app := fiber.New()
	app.Use(cors.New(corsConfig("http://a.test")))
	app.Patch("/timetables/entries/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(fiber.MethodOptions, "/timetables/entries/1", nil)
	req.Header.Set("Origin", "http://a.test")
	req.Header.Set("Access-Control-Request-Method", fiber.MethodPatch)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://a.test" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("allow credentials = %q", got)
	}
}
