package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"dentalclinic/docs"
)

// RegisterSwagger serves the Swagger UI and doc.json. The advertised host is
// fixed here, before the server accepts requests; an empty host makes the UI
// call the origin it was loaded from.
func RegisterSwagger(app *fiber.App, host string) {
	docs.SwaggerInfo.Host = host
	docs.SwaggerInfo.Schemes = []string{}
	app.Get("/swagger/*", swagger.HandlerDefault)
}
