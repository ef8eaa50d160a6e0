package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/apperr"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/middleware"
)

// respondError maps the error taxonomy onto HTTP. Quota and policy rejection
// get distinct codes because they imply different client remedies (wait vs.
// change content).
func respondError(c fiber.Ctx, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case apperr.KindAuthorization:
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "NOT_ALLOWED", err.Error())
	case apperr.KindQuotaExceeded:
		return middleware.ErrorResponse(c, fiber.StatusTooManyRequests, "QUOTA_EXCEEDED", err.Error())
	case apperr.KindPolicyRejection:
		return middleware.ErrorResponse(c, fiber.StatusUnprocessableEntity, "CONTENT_REJECTED", err.Error())
	case apperr.KindNotFound:
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("internal error")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

// actingUser extracts the authenticated user id. Authentication itself is a
// gateway concern; this service trusts the header it is handed.
func actingUser(c fiber.Ctx) (string, string) {
	return middleware.ValidateUserID(c.Get("X-User-ID"))
}
