package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"github.com/valueprobe/backend/internal/constant"
	"github.com/valueprobe/backend/internal/pkg/flog"
)

// RequestID repopulates the id the logger middleware planted in the user
// context into ctx.Locals so non-logging code can reach it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := flog.IDFromFiberCtx(c)
		if ok {
			c.Locals(constant.ContextKeyRequestID, id.String())
		}
		return c.Next()
	}
}
