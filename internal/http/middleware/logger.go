package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"dentalclinic/internal/logger"
	"dentalclinic/internal/security"
)

// Logger logs each HTTP request as one JSON line with request_id, method, path,
// status and latency (milliseconds). 5xx responses are logged at error level.
func Logger(l logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The global error handler runs after us; report the status it will write.
			status = StatusOf(err)
		}

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		fields := logrus.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if p, ok := security.PrincipalFrom(c.UserContext()); ok {
			fields["user"] = p.Username
		}

		entry := l.WithFields(fields)
		if status >= fiber.StatusInternalServerError {
			entry.Error("request")
		} else {
			entry.Info("request")
		}
		return err
	}
}

// LoggerWithWriter builds a Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logger.New("info", loc, w))
}
