package handler

import (
	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/http/middleware"
	"dentalclinic/internal/service"
)

// includeInactive honours ?include_inactive=true for administrators only.
func includeInactive(c *fiber.Ctx) bool {
	p := middleware.CurrentPrincipal(c)
	return p != nil && p.IsAdmin() && queryBool(c, "include_inactive")
}

// ListPatients godoc
// @Summary Search patients
// @Tags patients
// @Produce json
// @Param page query int false "0-based page"
// @Param size query int false "page size (1-100)"
// @Param sort_by query string false "patient_code, first_name, last_name, created_at or date_of_birth"
// @Param sort_direction query string false "asc or desc"
// @Param search query string false "matches code, name, phone or email"
// @Success 200 {object} service.ListResult[model.Patient]
// @Security BearerAuth
// @Router /api/v1/patients [get]
func ListPatients(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := parsePage(c)
		if err != nil {
			return respondError(c, err)
		}
		res, err := svc.List(c.UserContext(), service.PatientListParams{
			Page:            page,
			SortBy:          c.Query("sort_by"),
			SortDirection:   c.Query("sort_direction"),
			Search:          c.Query("search"),
			IncludeInactive: includeInactive(c),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

func GetPatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.GetByCode(c.UserContext(), c.Params("code"), includeInactive(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}

// CreatePatient godoc
// @Summary Register a patient
// @Description When an email is given a patient account is created and its temporary password is returned once.
// @Tags patients
// @Accept json
// @Produce json
// @Param body body service.CreatePatientRequest true "patient"
// @Success 201 {object} service.CreatedPatient
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Security BearerAuth
// @Router /api/v1/patients [post]
func CreatePatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.CreatePatientRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		created, err := svc.Create(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

func UpdatePatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.UpdatePatientRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		p, err := svc.Update(c.UserContext(), c.Params("code"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}

// DeletePatient deactivates the patient; the record is kept.
func DeletePatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("code")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func CheckDuplicatePatients(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.DuplicateCheckRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		res, err := svc.CheckDuplicates(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

func BlacklistPatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.BlacklistRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		p, err := svc.Blacklist(c.UserContext(), c.Params("code"), req, middleware.CurrentPrincipal(c).Username)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}

func RemovePatientFromBlacklist(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.RemoveFromBlacklist(c.UserContext(), c.Params("code"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}

func UnbanPatient(svc service.PatientService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.Unban(c.UserContext(), c.Params("code"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}
