// Package cachectrl sets HTTP caching headers on responses whose freshness
// is anchored to a known computation time.
package cachectrl

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// OptInCustom marks the response cacheable for offset past the given
// last-modified time t.
func OptInCustom(ctx *fiber.Ctx, t time.Time, offset time.Duration) {
	ctx.Set(fiber.HeaderCacheControl, "public, max-age="+strconv.Itoa(int(offset.Seconds())))
	ctx.Set(fiber.HeaderExpires, t.Add(offset).Format(time.RFC1123))

	ctx.Response().Header.SetLastModified(t)
}

// OptOut marks the response as uncacheable, for payloads that mirror a
// computation still in flight.
func OptOut(ctx *fiber.Ctx) {
	ctx.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	ctx.Set(fiber.HeaderPragma, "no-cache")
	ctx.Set(fiber.HeaderExpires, "0")
}
