package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Use(AuthJWT(AuthJWTOpts{Secret: testSecret, AllowCookieFallback: true}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"username": Username(c), "roles": Roles(c)})
	})
	app.Patch("/edit", OnlyRoles("", "secretariat", "admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp.StatusCode
}

func TestAuthJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", fiber.StatusUnauthorized},
		{"garbage", "not-a-jwt", fiber.StatusUnauthorized},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"username": "a", "exp": exp}), fiber.StatusUnauthorized},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"username": "a", "exp": time.Now().Add(-time.Minute).Unix()}), fiber.StatusUnauthorized},
		{"valid", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"username": "a", "roles": []string{"Student"}, "exp": exp}), fiber.StatusOK},
	}
	app := newAuthApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := do(t, app, fiber.MethodGet, "/whoami", tc.token); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestOnlyRoles(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	app := newAuthApp()

	student := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"username": "s", "roles": []string{"student"}, "exp": exp})
	if got := do(t, app, fiber.MethodPatch, "/edit", student); got != fiber.StatusForbidden {
		t.Fatalf("student status = %d", got)
	}

	// single legacy role claim, mixed case
	secretary := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "seg", "role": "Secretariat", "exp": exp})
	if got := do(t, app, fiber.MethodPatch, "/edit", secretary); got != fiber.StatusNoContent {
		t.Fatalf("secretariat status = %d", got)
	}
}

func TestNormalizeRoles(t *testing.T) {
	got := normalizeRoles(append(readStringSlice([]any{"Admin", " admin ", 3, ""}), readStringSlice("scheduler, sysadmin")...))
	want := []string{"admin", "scheduler", "sysadmin"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
