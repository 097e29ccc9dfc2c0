package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"dentalclinic/internal/http/middleware"
	"dentalclinic/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_PAGE", "PATIENT_NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorDetails(c, status, code, message, nil)
}

func writeErrorDetails(c *fiber.Ctx, status int, code, message string, details map[string]string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	return c.Status(status).JSON(res)
}

// respondError renders a business error. Anything else is returned unchanged so the
// global ErrorHandler logs it and answers with a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	if e, ok := service.AsError(err); ok {
		if status := middleware.StatusOf(e); status != fiber.StatusInternalServerError {
			return writeErrorDetails(c, status, e.Code, e.Message, e.Details)
		}
	}
	return err
}

func internalError(c *fiber.Ctx, log logrus.FieldLogger, err error) error {
	if log != nil {
		log.WithFields(logrus.Fields{
			"request_id": requestIDFromCtx(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"error":      err.Error(),
		}).Error("unhandled error")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Middleware failures (authentication, permissions, rate limiting) arrive here as
// business errors; framework errors are mapped by status.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := service.AsError(err); ok {
			if status := middleware.StatusOf(e); status != fiber.StatusInternalServerError {
				return writeErrorDetails(c, status, e.Code, e.Message, e.Details)
			}
			return internalError(c, log, err)
		}

		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "TOO_MANY_REQUESTS", "too many requests, slow down")
		case fiber.StatusUnsupportedMediaType:
			return writeError(c, status, "UNSUPPORTED_MEDIA_TYPE", "unsupported media type")
		default:
			return internalError(c, log, err)
		}
	}
}
