// Package accesslog writes one structured line per request once the rest of
// the chain has returned.
package accesslog

import (
	"time"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-shop-auth"
	"github.com/goliatone/go-shop-auth/middleware/chain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Next skips logging when it returns true
	Next   func(c *fiber.Ctx) bool
	Logger *zap.Logger
}

// New logs method, path, host, status, latency and whether the request was
// matched to a shop and a session. Cookies, headers and query strings are
// never logged.
func New(config ...Config) fiber.Handler {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) (err error) {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		defer func(start time.Time) {
			status := c.Response().StatusCode()
			if err != nil {
				status = chain.StatusOf(err)
			}

			tenant, _ := auth.TenantFrom(c)
			_, authenticated := auth.SessionFrom(c)

			fields := []zap.Field{
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("host", tenant.Host),
				zap.Int("status", status),
				zap.Duration("took", time.Since(start)),
				zap.Bool("tenant_found", tenant.Found()),
				zap.Bool("authenticated", authenticated),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			cfg.Logger.Check(levelFor(status), "http request").Write(fields...)
		}(time.Now())

		return c.Next()
	}
}

func levelFor(status int) zapcore.Level {
	switch {
	case status >= fiber.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= fiber.StatusBadRequest:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}
