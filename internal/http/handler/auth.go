package handler

import (
	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/http/middleware"
	"dentalclinic/internal/service"
)

// Login godoc
// @Summary Sign in with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.LoginRequest true "credentials"
// @Success 200 {object} service.TokenPair
// @Failure 401 {object} errorPayload
// @Failure 429 {object} errorPayload
// @Router /api/v1/auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.LoginRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		pair, err := svc.Login(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(pair)
	}
}

// RefreshToken godoc
// @Summary Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.RefreshRequest true "refresh token"
// @Success 200 {object} service.TokenPair
// @Failure 401 {object} errorPayload
// @Router /api/v1/auth/refresh-token [post]
func RefreshToken(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.RefreshRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		pair, err := svc.Refresh(c.UserContext(), req.RefreshToken)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(pair)
	}
}

// Logout revokes the calling access token. The body may name a refresh token to revoke too.
func Logout(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.LogoutRequest
		if len(c.Body()) > 0 {
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
		}
		if err := svc.Logout(c.UserContext(), middleware.CurrentPrincipal(c), req.RefreshToken); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func MyInfo(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := svc.Me(c.UserContext(), middleware.CurrentPrincipal(c).Username)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(info)
	}
}

func ChangePassword(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.ChangePasswordRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		if err := svc.ChangePassword(c.UserContext(), middleware.CurrentPrincipal(c).Username, req); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
