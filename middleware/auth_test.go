package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware("gw-secret"))
	app.Use(UserContextMiddleware())

	app.Get("/public", func(c *fiber.Ctx) error {
		return c.SendString("anon:" + UserID(c))
	})
	app.Get("/me", RequireUser(), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	app.Get("/admin", RequireRole(RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func request(t *testing.T, app *fiber.App, path string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGatewayAuth(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: fiber.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", status: fiber.StatusUnauthorized},
		{name: "bearer token", header: "Bearer gw-secret", status: fiber.StatusOK},
		{name: "raw token", header: "gw-secret", status: fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			resp := request(t, app, "/public", headers)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestUserContext(t *testing.T) {
	app := newTestApp()
	auth := map[string]string{"Authorization": "Bearer gw-secret"}

	resp := request(t, app, "/me", auth)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = request(t, app, "/me", map[string]string{
		"Authorization": "Bearer gw-secret",
		"X-User-ID":     "user-1",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	app := newTestApp()

	resp := request(t, app, "/admin", map[string]string{"Authorization": "Bearer gw-secret"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = request(t, app, "/admin", map[string]string{
		"Authorization": "Bearer gw-secret",
		"X-User-ID":     "user-1",
		"X-User-Roles":  "member",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = request(t, app, "/admin", map[string]string{
		"Authorization": "Bearer gw-secret",
		"X-User-ID":     "user-1",
		"X-User-Roles":  "member, Admin",
	})
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
