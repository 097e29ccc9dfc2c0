package handler

import (
	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/service"
)

// ListEmployees godoc
// @Summary List employees
// @Tags employees
// @Produce json
// @Param page query int false "0-based page"
// @Param size query int false "page size (1-100)"
// @Param active_only query bool false "hide deactivated staff"
// @Success 200 {object} service.ListResult[model.Employee]
// @Security BearerAuth
// @Router /api/v1/employees [get]
func ListEmployees(svc service.EmployeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := parsePage(c)
		if err != nil {
			return respondError(c, err)
		}
		res, err := svc.List(c.UserContext(), page, queryBool(c, "active_only"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

func GetEmployee(svc service.EmployeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := svc.Get(c.UserContext(), c.Params("code"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(e)
	}
}

func CreateEmployee(svc service.EmployeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.CreateEmployeeRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		e, err := svc.Create(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	}
}

func DeactivateEmployee(svc service.EmployeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Deactivate(c.UserContext(), c.Params("code")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func AddShift(svc service.EmployeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.AddShiftRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		sh, err := svc.AddShift(c.UserContext(), c.Params("code"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sh)
	}
}

func DeleteShift(svc service.EmployeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return respondError(c, err)
		}
		if err := svc.DeleteShift(c.UserContext(), c.Params("code"), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListShifts accepts ?from= and ?to= as YYYY-MM-DD.
func ListShifts(svc service.EmployeeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shifts, err := svc.ListShifts(c.UserContext(), c.Params("code"), c.Query("from"), c.Query("to"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": shifts})
	}
}
