package svr

import (
	"github.com/gofiber/fiber/v2"
)

type V2 struct {
	fiber.Router
}

type Meta struct {
	fiber.Router
}

func CreateEndpointGroups(app *fiber.App) (*V2, *Meta) {
	v2 := app.Group("/api/v2")
	meta := app.Group("/api/_")

	return &V2{Router: v2}, &Meta{Router: meta}
}
