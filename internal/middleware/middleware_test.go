package middleware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/middleware"
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/services"
	"github.com/localnerve/homespace/internal/testhelpers"
	"github.com/localnerve/homespace/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// whoami answers with the identified username, or "anonymous"
func whoami(c *fiber.Ctx) error {
	if user := middleware.CurrentUser(c); user != nil {
		return c.SendString(user.Username)
	}
	return c.SendString("anonymous")
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestIdentify(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	alice := testhelpers.CreateTestUser(t, db, "alice")
	tokens := services.NewTokenService("middleware-secret", time.Hour)
	users := services.NewUserService(db, nil, zap.NewNop())

	app := fiber.New()
	app.Use(middleware.Identify(middleware.Identity{
		Tokens: tokens,
		Users:  users,
		Config: &config.Config{},
	}))
	app.Get("/whoami", whoami)

	valid, _, err := tokens.Issue(alice)
	require.NoError(t, err)
	foreign, _, err := services.NewTokenService("other-secret", time.Hour).Issue(alice)
	require.NoError(t, err)
	ghost := testhelpers.CreateTestUser(t, db, "ghost")
	orphan, _, err := tokens.Issue(ghost)
	require.NoError(t, err)
	require.NoError(t, db.Exec("DELETE FROM users WHERE id = ?", ghost.ID).Error)

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "no credentials", want: "anonymous"},
		{name: "bearer header", header: "Bearer " + valid, want: "alice"},
		{name: "lowercase scheme", header: "bearer " + valid, want: "alice"},
		{name: "cookie", cookie: valid, want: "alice"},
		{name: "header wins over cookie", header: "Bearer " + valid, cookie: "garbage", want: "alice"},
		{name: "garbage token", header: "Bearer garbage", want: "anonymous"},
		{name: "wrong signing key", header: "Bearer " + foreign, want: "anonymous"},
		{name: "deleted account", cookie: orphan, want: "anonymous"},
		{name: "non bearer scheme", header: "Basic " + valid, want: "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: tt.cookie})
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, body(t, resp))
		})
	}
}

func TestIdentifySkipsSessionWithoutAuthorizer(t *testing.T) {
	db := testhelpers.NewTestDB(t)

	app := fiber.New()
	app.Use(middleware.Identify(middleware.Identity{
		Tokens: services.NewTokenService("secret", time.Hour),
		Users:  services.NewUserService(db, nil, zap.NewNop()),
		Config: &config.Config{},
	}))
	app.Get("/whoami", whoami)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "some-session"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", body(t, resp))
}

func TestVersionMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.VersionMiddleware())
	app.Get("/v", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("apiVersion").(string))
	})

	tests := []struct {
		requested  string
		wantStatus int
	}{
		{"", http.StatusOK},
		{"1", http.StatusOK},
		{"1.0", http.StatusOK},
		{"1.0.0", http.StatusOK},
		{"2.0.0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run("version "+tt.requested, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v", nil)
			if tt.requested != "" {
				req.Header.Set("X-Api-Version", tt.requested)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, middleware.APIVersion, resp.Header.Get("X-Api-Version"))
				assert.Equal(t, middleware.APIVersion, body(t, resp))
			}
		})
	}
}

func TestVersionMiddlewareAnonymousWriteDenied(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var custom *types.CustomError
			if errors.As(err, &custom) {
				return c.Status(custom.Code).SendString(custom.Type)
			}
			return c.Status(fiber.StatusBadRequest).SendString("request")
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-Test-User") != "" {
			c.Locals(middleware.UserKey, &models.User{ID: "u1", Username: c.Get("X-Test-User")})
		}
		return c.Next()
	})
	app.Use(middleware.VersionMiddleware())
	app.Post("/w", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Get("/r", func(c *fiber.Ctx) error { return c.SendString("ok") })

	tests := []struct {
		name       string
		method     string
		path       string
		user       string
		wantStatus int
		wantBody   string
	}{
		{"anonymous write", "POST", "/w", "", http.StatusForbidden, "data.authorization"},
		{"identified write", "POST", "/w", "alice", http.StatusBadRequest, "request"},
		{"anonymous read", "GET", "/r", "", http.StatusBadRequest, "request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("X-Api-Version", "9")
			if tt.user != "" {
				req.Header.Set("X-Test-User", tt.user)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, body(t, resp))
		})
	}
}

func TestLoggingLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).SendString(err.Error())
		},
	})
	app.Use(middleware.Logging(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("fine") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/broken", func(c *fiber.Ctx) error { return fiber.ErrServiceUnavailable })

	for _, path := range []string{"/ok", "/missing", "/broken"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 3)

	want := []struct {
		level  zapcore.Level
		status int64
	}{
		{zapcore.InfoLevel, http.StatusOK},
		{zapcore.WarnLevel, http.StatusNotFound},
		{zapcore.ErrorLevel, http.StatusServiceUnavailable},
	}
	for i, w := range want {
		assert.Equal(t, w.level, entries[i].Level)
		assert.Equal(t, w.status, entries[i].ContextMap()["status"])
	}
}
