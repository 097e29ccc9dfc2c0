package handler

import (
	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/service"
)

func ListRooms(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rooms, err := svc.List(c.UserContext(), queryBool(c, "active_only"), c.Query("type"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": rooms})
	}
}

func GetRoom(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := svc.GetByCode(c.UserContext(), c.Params("code"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(r)
	}
}

func CreateRoom(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.CreateRoomRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		r, err := svc.Create(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

func UpdateRoom(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.UpdateRoomRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		r, err := svc.Update(c.UserContext(), c.Params("code"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(r)
	}
}

func DeactivateRoom(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Deactivate(c.UserContext(), c.Params("code")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ListRoomServices(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		services, err := svc.ListServices(c.UserContext(), c.Params("code"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": services})
	}
}

// ReplaceRoomServices sets the full list of services the room can host.
func ReplaceRoomServices(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.ReplaceRoomServicesRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		services, err := svc.ReplaceServices(c.UserContext(), c.Params("code"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": services})
	}
}
