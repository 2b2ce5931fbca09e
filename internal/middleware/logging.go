package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Logging writes one structured line per request. Errors are rendered through the app
// error handler first so the logged status is the one the client sees.
func Logging(log *zap.Logger) fiber.Handler {
	log = log.Named("http")

	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("uri", c.OriginalURL()),
			zap.Int("status", status),
			zap.Int("size", len(c.Response().Body())),
			zap.Duration("duration", time.Since(start)),
		}
		if user := CurrentUser(c); user != nil {
			fields = append(fields, zap.String("user", user.ID))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("HTTP Request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}
		return nil
	}
}
