package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/service"
)

var kindStatus = map[service.Kind]int{
	service.KindInvalid:         fiber.StatusBadRequest,
	service.KindUnauthorized:    fiber.StatusUnauthorized,
	service.KindForbidden:       fiber.StatusForbidden,
	service.KindNotFound:        fiber.StatusNotFound,
	service.KindConflict:        fiber.StatusConflict,
	service.KindLocked:          fiber.StatusLocked,
	service.KindTooManyRequests: fiber.StatusTooManyRequests,
}

// StatusOf returns the HTTP status a handler error is rendered with.
func StatusOf(err error) int {
	if e, ok := service.AsError(err); ok {
		if st, ok := kindStatus[e.Kind]; ok {
			return st
		}
		return fiber.StatusInternalServerError
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
