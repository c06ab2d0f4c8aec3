package httpserver

import (
	"strconv"

	"github.com/gofiber/contrib/fibersentry"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/valueprobe/backend/internal/pkg/vperr"
)

func ErrorHandler(ctx *fiber.Ctx, err error) error {
	if e, ok := err.(*vperr.ProbeError); ok {
		return HandleCustomError(ctx, e)
	}

	// anything else gets a 500 unless fiber knows better
	re := *vperr.ErrInternalError

	if e, ok := err.(*fiber.Error); ok {
		re.StatusCode = e.Code
		re.ErrorCode = "UNKNOWN_ERROR"
		re.Message = e.Message
	}

	log.Error().
		Stack().
		Err(err).
		Str("method", ctx.Method()).
		Str("path", ctx.Path()).
		Int("status", re.StatusCode).
		Msg("internal server error")

	if hub := fibersentry.GetHubFromContext(ctx); hub != nil {
		hub.Scope().SetTag("status", strconv.Itoa(re.StatusCode))
		hub.CaptureException(err)
	}

	return HandleCustomError(ctx, &re)
}
