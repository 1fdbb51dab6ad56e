package accesslog_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-shop-auth"
	"github.com/goliatone/go-shop-auth/middleware/accesslog"
	"github.com/goliatone/go-shop-auth/middleware/chain"
	"github.com/goliatone/go-shop-auth/middleware/tenantware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAccessLogFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	registry := auth.NewTenantRegistry(auth.TenantConfig{Domain: "shop.example.com", Name: "Example"})

	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ErrorHandler:          chain.ErrorHandler(auth.NopLogger{}),
		})
		app.Use(accesslog.New(accesslog.Config{Logger: zap.New(core)}))
		return app
	})
	r := srv.Router()
	r.Use(tenantware.New(tenantware.Config{Registry: registry}))
	r.Use(func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if c.Header("X-Test-Session") != "" {
				auth.SetSession(c, auth.NewSessionClaims("u1", "alice", time.Hour, time.Now()))
			}
			return c.Next()
		}
	})
	r.Get("/", func(c router.Context) error { return c.SendString("ok") })
	r.Get("/boom", func(c router.Context) error { return errors.New("boom") })
	r.Get("/login", func(c router.Context) error { return auth.ErrInvalidCredentials })
	app := srv.WrappedRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "shop.example.com"
	req.Header.Set("X-Test-Session", "1")
	req.AddCookie(&http.Cookie{Name: "auth", Value: "sess.v1.secret"})
	_, err := app.Test(req)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Host = "other.example.com"
	_, err = app.Test(req)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Host = "shop.example.com"
	_, err = app.Test(req)
	require.NoError(t, err)

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	first := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "GET", first["method"])
	assert.Equal(t, "/", first["path"])
	assert.Equal(t, "shop.example.com", first["host"])
	assert.EqualValues(t, 200, first["status"])
	assert.Equal(t, true, first["tenant_found"])
	assert.Equal(t, true, first["authenticated"])
	for _, v := range first {
		assert.NotContains(t, fmt.Sprint(v), "sess.v1.secret")
	}

	second := entries[1].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.EqualValues(t, 500, second["status"])
	assert.Equal(t, false, second["tenant_found"])
	assert.Equal(t, false, second["authenticated"])

	third := entries[2].ContextMap()
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.EqualValues(t, 401, third["status"])
}

func TestAccessLogSkip(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	app := fiber.New()
	app.Use(accesslog.New(accesslog.Config{
		Logger: zap.New(core),
		Next:   func(c *fiber.Ctx) bool { return c.Path() == "/healthz" },
	}))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())
}
