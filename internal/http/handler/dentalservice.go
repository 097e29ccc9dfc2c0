package handler

import (
	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/service"
)

func ListDentalServices(svc service.DentalServiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := parsePage(c)
		if err != nil {
			return respondError(c, err)
		}
		res, err := svc.List(c.UserContext(), service.DentalServiceListParams{
			Page:       page,
			ActiveOnly: queryBool(c, "active_only"),
			Search:     c.Query("search"),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

func GetDentalService(svc service.DentalServiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ds, err := svc.GetByCode(c.UserContext(), c.Params("code"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(ds)
	}
}

func CreateDentalService(svc service.DentalServiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.CreateDentalServiceRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		ds, err := svc.Create(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ds)
	}
}

func UpdateDentalService(svc service.DentalServiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.UpdateDentalServiceRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		ds, err := svc.Update(c.UserContext(), c.Params("code"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(ds)
	}
}

func DeactivateDentalService(svc service.DentalServiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Deactivate(c.UserContext(), c.Params("code")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ActivateDentalService(svc service.DentalServiceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Activate(c.UserContext(), c.Params("code")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
