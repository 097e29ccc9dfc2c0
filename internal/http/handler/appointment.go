package handler

import (
	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/http/middleware"
	"dentalclinic/internal/service"
)

// ListAppointments godoc
// @Summary List appointments
// @Tags appointments
// @Produce json
// @Param from query string false "YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS, clinic time"
// @Param to query string false "inclusive when a bare date"
// @Param status query []string false "one or more statuses" collectionFormat(multi)
// @Param patient_code query string false "patient"
// @Param employee_code query string false "doctor"
// @Param room_code query string false "room"
// @Param page query int false "0-based page"
// @Param size query int false "page size (1-100)"
// @Success 200 {object} service.ListResult[model.Appointment]
// @Security BearerAuth
// @Router /api/v1/appointments [get]
func ListAppointments(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := parsePage(c)
		if err != nil {
			return respondError(c, err)
		}
		res, err := svc.List(c.UserContext(), service.AppointmentListParams{
			Page:         page,
			From:         c.Query("from"),
			To:           c.Query("to"),
			Statuses:     queryList(c, "status"),
			PatientCode:  c.Query("patient_code"),
			EmployeeCode: c.Query("employee_code"),
			RoomCode:     c.Query("room_code"),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

func GetAppointment(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := svc.Get(c.UserContext(), c.Params("code"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(d)
	}
}

// CreateAppointment godoc
// @Summary Book an appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Param body body service.CreateAppointmentRequest true "booking"
// @Success 201 {object} model.AppointmentDetail
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload "slot already taken"
// @Failure 423 {object} errorPayload "patient may not book"
// @Security BearerAuth
// @Router /api/v1/appointments [post]
func CreateAppointment(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.CreateAppointmentRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		d, err := svc.Create(c.UserContext(), middleware.CurrentPrincipal(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	}
}

func UpdateAppointmentStatus(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.UpdateStatusRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		d, err := svc.UpdateStatus(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("code"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(d)
	}
}

func RescheduleAppointment(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.RescheduleRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		res, err := svc.Reschedule(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("code"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

func AppointmentAuditLogs(svc service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logs, err := svc.AuditLogs(c.UserContext(), c.Params("code"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": logs})
	}
}
