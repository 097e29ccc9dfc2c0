package handler

import (
	"github.com/gofiber/fiber/v2"

	"dentalclinic/internal/http/middleware"
	"dentalclinic/internal/model"
	"dentalclinic/internal/service"
)

// UploadPatientImage godoc
// @Summary Upload a patient image
// @Description multipart/form-data with a "file" part plus image_type, description and captured_date fields.
// @Tags patient-images
// @Accept mpfd
// @Produce json
// @Param code path string true "patient code"
// @Param file formData file true "image or PDF"
// @Param image_type formData string true "XRAY, PHOTO, INTRAORAL, PANORAMIC, CT_SCAN or OTHER"
// @Success 201 {object} model.PatientImage
// @Security BearerAuth
// @Router /api/v1/patients/{code}/images [post]
func UploadPatientImage(svc service.PatientImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		req := service.UploadImageRequest{
			ImageType:    model.ImageType(c.FormValue("image_type")),
			Description:  c.FormValue("description"),
			CapturedDate: c.FormValue("captured_date"),
		}
		img, err := svc.Upload(c.UserContext(), c.Params("code"), service.ImageUpload{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
		}, req, middleware.CurrentPrincipal(c).Username)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(img)
	}
}

func ListPatientImages(svc service.PatientImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		images, err := svc.List(c.UserContext(), c.Params("code"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": images})
	}
}

// GetPatientImage returns metadata with a presigned download URL valid for 15 minutes.
func GetPatientImage(svc service.PatientImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return respondError(c, err)
		}
		img, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(img)
	}
}

// DownloadPatientImage streams the stored object through the API.
func DownloadPatientImage(svc service.PatientImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return respondError(c, err)
		}
		rc, img, err := svc.Download(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, img.ContentType)
		c.Set(fiber.HeaderContentDisposition, "inline")
		size := int(img.Size)
		if size <= 0 {
			size = -1
		}
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc, size)
	}
}

func DeletePatientImage(svc service.PatientImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c)
		if err != nil {
			return respondError(c, err)
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
